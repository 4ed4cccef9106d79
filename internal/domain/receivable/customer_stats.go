package receivable

import (
	"sort"
	"strings"
	"time"

	"github.com/ledgerline/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// HealthScore is a traffic light summary of a customer's payment risk
type HealthScore string

const (
	HealthGreen  HealthScore = "green"
	HealthYellow HealthScore = "yellow"
	HealthRed    HealthScore = "red"
)

var (
	redOutstandingRatio    = decimal.RequireFromString("0.5")
	yellowOutstandingRatio = decimal.RequireFromString("0.3")
)

// CustomerStats is derived on read from a customer's invoices
type CustomerStats struct {
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	LastActivityDate *time.Time      `json:"last_activity_date,omitempty"`
	InvoiceCount     int             `json:"invoice_count"`
	OverdueCount     int             `json:"overdue_count"`
	Aging            Aging           `json:"aging"`
	HealthScore      HealthScore     `json:"health_score"`
}

// OutstandingRatio returns outstanding / revenue, 0 when revenue is 0
func (s CustomerStats) OutstandingRatio() decimal.Decimal {
	return valueobject.Ratio(s.TotalOutstanding, s.TotalRevenue)
}

// ComputeCustomerStats aggregates invoices as of now. Inactive invoices are
// voided and do not count. Status is re-derived against now so an invoice
// that fell due since its last write is counted as overdue.
func ComputeCustomerStats(invoices []Invoice, now time.Time) CustomerStats {
	stats := CustomerStats{
		TotalRevenue:     decimal.Zero,
		TotalPaid:        decimal.Zero,
		TotalOutstanding: decimal.Zero,
		Aging:            NewAging(),
	}

	for i := range invoices {
		inv := &invoices[i]
		if inv.Status == InvoiceStatusInactive {
			continue
		}
		stats.InvoiceCount++
		stats.TotalRevenue = stats.TotalRevenue.Add(inv.Amount)
		stats.TotalPaid = stats.TotalPaid.Add(inv.PaidAmount)

		if DeriveStatus(inv.Amount, inv.PaidAmount, inv.DueDate, now) == InvoiceStatusOverdue {
			stats.OverdueCount++
		}
		stats.Aging.AgeInvoice(inv, now)

		if stats.LastActivityDate == nil || inv.CreatedAt.After(*stats.LastActivityDate) {
			created := inv.CreatedAt
			stats.LastActivityDate = &created
		}
	}

	stats.TotalOutstanding = stats.TotalRevenue.Sub(stats.TotalPaid)
	stats.HealthScore = ScoreHealth(stats.Aging, stats.OverdueCount, stats.OutstandingRatio())
	return stats
}

// ScoreHealth applies the health rules in order: red, then yellow, else green
func ScoreHealth(aging Aging, overdueCount int, outstandingRatio decimal.Decimal) HealthScore {
	if aging.Days60.Add(aging.Days90).Sign() > 0 || outstandingRatio.GreaterThan(redOutstandingRatio) {
		return HealthRed
	}
	if aging.Days30.Sign() > 0 || overdueCount > 0 || outstandingRatio.GreaterThan(yellowOutstandingRatio) {
		return HealthYellow
	}
	return HealthGreen
}

// CustomerSummary pairs a customer with its derived stats
type CustomerSummary struct {
	Customer Customer
	Stats    CustomerStats
}

// CustomerSortKey selects the ordering of a customer listing
type CustomerSortKey string

const (
	SortByRevenue      CustomerSortKey = "revenue"
	SortByName         CustomerSortKey = "name"
	SortByOutstanding  CustomerSortKey = "outstanding"
	SortByInvoiceCount CustomerSortKey = "invoiceCount"
	SortByLastActivity CustomerSortKey = "lastActivity"
)

// ParseCustomerSortKey returns the key or revenue when s is unknown
func ParseCustomerSortKey(s string) CustomerSortKey {
	switch k := CustomerSortKey(s); k {
	case SortByRevenue, SortByName, SortByOutstanding, SortByInvoiceCount, SortByLastActivity:
		return k
	}
	return SortByRevenue
}

// SortCustomerSummaries orders summaries in place. Ties fall back to id.
func SortCustomerSummaries(items []CustomerSummary, key CustomerSortKey, descending bool) {
	cmp := func(a, b *CustomerSummary) int {
		switch key {
		case SortByName:
			return strings.Compare(strings.ToLower(a.Customer.Name), strings.ToLower(b.Customer.Name))
		case SortByOutstanding:
			return a.Stats.TotalOutstanding.Cmp(b.Stats.TotalOutstanding)
		case SortByInvoiceCount:
			return a.Stats.InvoiceCount - b.Stats.InvoiceCount
		case SortByLastActivity:
			return compareTimes(a.Stats.LastActivityDate, b.Stats.LastActivityDate)
		default:
			return a.Stats.TotalRevenue.Cmp(b.Stats.TotalRevenue)
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		c := cmp(&items[i], &items[j])
		if c == 0 {
			return items[i].Customer.ID < items[j].Customer.ID
		}
		if descending {
			return c > 0
		}
		return c < 0
	})
}

// compareTimes orders nil before any time
func compareTimes(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}
