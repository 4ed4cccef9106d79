package receivable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAgeBucket(t *testing.T) {
	cases := map[int]AgingBucket{
		0:   AgingCurrent,
		30:  AgingCurrent,
		31:  Aging30,
		60:  Aging30,
		61:  Aging60,
		90:  Aging60,
		91:  Aging90,
		400: Aging90,
	}
	for days, want := range cases {
		assert.Equal(t, want, AgeBucket(days), "days=%d", days)
	}
}

func TestDaysOverdue(t *testing.T) {
	assert.Equal(t, 0, DaysOverdue(testNow.AddDate(0, 0, 3), testNow))
	assert.Equal(t, 0, DaysOverdue(testNow, testNow))
	assert.Equal(t, 1, DaysOverdue(daysAgo(1), testNow))
	assert.Equal(t, 65, DaysOverdue(daysAgo(65), testNow))

	// Late evening due date still counts by calendar day
	due := time.Date(2024, 6, 14, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, 1, DaysOverdue(due, testNow))
}

func TestAging_AgeInvoice(t *testing.T) {
	aging := NewAging()

	paid := newTestInvoice(t, 1, "100", "100", daysAgo(100))
	aging.AgeInvoice(&paid, testNow)
	assert.True(t, aging.Total().IsZero(), "paid invoices are not aged")

	late := newTestInvoice(t, 2, "500", "200", daysAgo(45))
	aging.AgeInvoice(&late, testNow)
	assert.True(t, aging.Days30.Equal(dec("300")))

	inactive := newTestInvoice(t, 3, "80", "0", daysAgo(200))
	inactive.Deactivate()
	aging.AgeInvoice(&inactive, testNow)
	assert.True(t, aging.Days90.IsZero())

	fresh := newTestInvoice(t, 4, "70", "0", testNow.AddDate(0, 0, 10))
	aging.AgeInvoice(&fresh, testNow)
	assert.True(t, aging.Current.Equal(dec("70")))
	assert.True(t, aging.Total().Equal(dec("370")))
}
