package receivable

import (
	"strings"
	"time"

	"github.com/ledgerline/backend/internal/domain/shared"
)

// Customer is a billed party. Invoices reference customers weakly.
type Customer struct {
	ID        int64
	Name      string
	Email     string
	Phone     string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCustomer creates a customer with a required name
func NewCustomer(name, email, phone, address string) (*Customer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Customer name cannot be empty")
	}
	now := time.Now()
	return &Customer{
		Name:      name,
		Email:     strings.TrimSpace(email),
		Phone:     strings.TrimSpace(phone),
		Address:   address,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
