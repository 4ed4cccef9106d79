package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_Is(t *testing.T) {
	err := NotFound("invoice", 42)

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Equal(t, "invoice 42 not found", err.Error())
	assert.Equal(t, int64(42), err.Details["id"])
}

func TestDomainError_WithDetailDoesNotMutate(t *testing.T) {
	base := NewDomainError("X", "x")
	withA := base.WithDetail("a", 1)
	withB := withA.WithDetail("b", 2)

	assert.Nil(t, base.Details)
	assert.Len(t, withA.Details, 1)
	assert.Len(t, withB.Details, 2)
}

func TestIsRetryable(t *testing.T) {
	wrapped := fmt.Errorf("allocate: %w", ErrConcurrencyConflict)

	assert.True(t, IsRetryable(wrapped))
	assert.False(t, IsRetryable(ErrNotFound))
	assert.False(t, IsRetryable(errors.New("plain")))

	de, ok := AsDomainError(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeConcurrencyConflict, de.Code)
}

func TestNewPaginated(t *testing.T) {
	p := NewPaginated([]int{1, 2}, 21, 1, 10)
	assert.Equal(t, 3, p.TotalPages)

	empty := NewPaginated([]int{}, 0, 1, 0)
	assert.Equal(t, 0, empty.TotalPages)
}

func TestFilter_Normalize(t *testing.T) {
	f := Filter{Page: 0, PageSize: 500}.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 100, f.PageSize)
	assert.Equal(t, 0, f.Offset())

	f = Filter{Page: 3, PageSize: 10}.Normalize()
	assert.Equal(t, 20, f.Offset())
}
