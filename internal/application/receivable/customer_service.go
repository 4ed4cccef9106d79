package receivable

import (
	"context"
	"strings"

	"github.com/ledgerline/backend/internal/domain/receivable"
	"github.com/ledgerline/backend/internal/domain/shared"
	"github.com/ledgerline/backend/internal/infrastructure/logger"
	"github.com/ledgerline/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CustomerService manages customers and aggregates their invoices on read
type CustomerService struct {
	scope TransactionScope
	opts  options
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(scope TransactionScope, opts ...Option) *CustomerService {
	return &CustomerService{scope: scope, opts: buildOptions(opts)}
}

// Create adds a customer
func (s *CustomerService) Create(ctx context.Context, req CreateCustomerRequest) (*receivable.Customer, error) {
	customer, err := receivable.NewCustomer(req.Name, req.Email, req.Phone, req.Address)
	if err != nil {
		return nil, err
	}
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		return repos.CustomerRepo().Create(ctx, customer)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("customer created", zap.Int64("customer_id", customer.ID))
	return customer, nil
}

// GetStats returns the customer with statistics computed from its invoices
func (s *CustomerService) GetStats(ctx context.Context, id int64) (*receivable.CustomerSummary, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "customer", "get_stats", telemetry.SpanAttrCustomerID, id)
	defer span.End()

	var summary *receivable.CustomerSummary
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		customer, err := repos.CustomerRepo().FindByID(ctx, id)
		if err != nil {
			return err
		}
		invoices, err := repos.InvoiceRepo().FindByCustomerIDs(ctx, []int64{id})
		if err != nil {
			return err
		}
		summary = &receivable.CustomerSummary{
			Customer: *customer,
			Stats:    receivable.ComputeCustomerStats(invoices, s.opts.now()),
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return summary, nil
}

// List returns customer summaries sorted by the requested key. TopN
// bypasses pagination and returns the first N rows.
func (s *CustomerService) List(ctx context.Context, q ListCustomersQuery) (shared.Paginated[receivable.CustomerSummary], error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "customer", "list", "sort", q.Sort, "top_n", q.TopN)
	defer span.End()

	var summaries []receivable.CustomerSummary
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		customers, err := repos.CustomerRepo().FindAll(ctx)
		if err != nil {
			return err
		}
		if len(customers) == 0 {
			return nil
		}
		ids := make([]int64, len(customers))
		for i, c := range customers {
			ids[i] = c.ID
		}
		invoices, err := repos.InvoiceRepo().FindByCustomerIDs(ctx, ids)
		if err != nil {
			return err
		}

		byCustomer := make(map[int64][]receivable.Invoice, len(customers))
		for _, inv := range invoices {
			if inv.CustomerID != nil {
				byCustomer[*inv.CustomerID] = append(byCustomer[*inv.CustomerID], inv)
			}
		}
		now := s.opts.now()
		summaries = make([]receivable.CustomerSummary, len(customers))
		for i, c := range customers {
			summaries[i] = receivable.CustomerSummary{
				Customer: c,
				Stats:    receivable.ComputeCustomerStats(byCustomer[c.ID], now),
			}
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return shared.Paginated[receivable.CustomerSummary]{}, err
	}

	descending := !strings.EqualFold(q.Order, "asc")
	receivable.SortCustomerSummaries(summaries, receivable.ParseCustomerSortKey(q.Sort), descending)

	total := int64(len(summaries))
	if q.TopN > 0 {
		n := min(q.TopN, len(summaries))
		return shared.NewPaginated(summaries[:n], total, 1, q.TopN), nil
	}

	f := shared.Filter{Page: q.Page, PageSize: q.PageSize}.Normalize()
	start := min(f.Offset(), len(summaries))
	end := min(start+f.PageSize, len(summaries))
	return shared.NewPaginated(summaries[start:end], total, f.Page, f.PageSize), nil
}

// Delete removes the customer and detaches its invoices
func (s *CustomerService) Delete(ctx context.Context, id int64) error {
	var detached int64
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.CustomerRepo().FindByID(ctx, id); err != nil {
			return err
		}
		var err error
		detached, err = repos.InvoiceRepo().DetachCustomer(ctx, id)
		if err != nil {
			return err
		}
		return repos.CustomerRepo().Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	logger.L(ctx).Info("customer deleted", zap.Int64("customer_id", id), zap.Int64("detached_invoices", detached))
	return nil
}
