package receivable

import (
	"context"

	"github.com/ledgerline/backend/internal/domain/receivable"
	"github.com/ledgerline/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
)

// SuggestionService loads a payment and the open invoices and ranks them
type SuggestionService struct {
	scope TransactionScope
	opts  options
}

// NewSuggestionService creates a new SuggestionService
func NewSuggestionService(scope TransactionScope, opts ...Option) *SuggestionService {
	return &SuggestionService{scope: scope, opts: buildOptions(opts)}
}

// SuggestMatches returns up to the configured limit of ranked invoice
// candidates. A directly bound or fully allocated payment gets none.
func (s *SuggestionService) SuggestMatches(ctx context.Context, paymentID int64) ([]receivable.MatchSuggestion, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "suggestion", "suggest_matches",
		telemetry.SpanAttrPaymentID, paymentID,
	)
	defer span.End()

	var (
		payment   *receivable.Payment
		allocated decimal.Decimal
		invoices  []receivable.Invoice
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		payment, err = repos.PaymentRepo().FindByID(ctx, paymentID)
		if err != nil {
			return err
		}
		if payment.InvoiceID != nil {
			return nil
		}
		allocated, err = repos.AllocationRepo().SumByPayment(ctx, paymentID)
		if err != nil {
			return err
		}
		if payment.Available(allocated).IsZero() {
			return nil
		}
		invoices, err = repos.InvoiceRepo().FindOpen(ctx)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	suggestions := receivable.SuggestMatches(payment, allocated, invoices, s.opts.suggestionLimit)
	s.opts.metrics.RecordSuggestions(ctx, len(suggestions))
	telemetry.SetAttributes(span, "candidates", len(invoices), "suggestions", len(suggestions))
	return suggestions, nil
}
