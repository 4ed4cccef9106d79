package main

import (
	"errors"
	"fmt"

	appreceivable "github.com/ledgerline/backend/internal/application/receivable"
	"github.com/ledgerline/backend/internal/domain/receivable"
	"github.com/ledgerline/backend/internal/infrastructure/logger"
	"github.com/spf13/cobra"
)

var suggestCmd = &cobra.Command{
	Use:     "suggest",
	Short:   "Show ranked invoice candidates for a payment",
	Example: `  ledgerctl suggest --payment 7 --limit 3`,
	RunE:    runSuggest,
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Print open receivables and unmatched payment counts",
	RunE:  runSnapshot,
}

func init() {
	rootCmd.AddCommand(suggestCmd, snapshotCmd)

	suggestCmd.Flags().Int64("payment", 0, "Payment id")
	suggestCmd.Flags().Int("limit", receivable.MaxSuggestions, "Maximum suggestions")
	_ = suggestCmd.MarkFlagRequired("payment")
}

func runSuggest(cmd *cobra.Command, _ []string) error {
	paymentID, _ := cmd.Flags().GetInt64("payment")
	limit, _ := cmd.Flags().GetInt("limit")
	if paymentID < 1 {
		return errors.New("--payment must be a positive id")
	}
	if limit < 1 || limit > receivable.MaxSuggestions {
		return fmt.Errorf("--limit must be between 1 and %d", receivable.MaxSuggestions)
	}

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	svc := appreceivable.NewSuggestionService(e.scope, appreceivable.WithSuggestionLimit(limit))
	suggestions, err := svc.SuggestMatches(logger.WithContext(cmd.Context(), e.log), paymentID)
	if err != nil {
		return err
	}
	if suggestions == nil {
		suggestions = []receivable.MatchSuggestion{}
	}
	return printJSON(cmd, suggestions)
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	snap, err := appreceivable.NewReceivablesSnapshotter(e.scope).Snapshot(cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(cmd, map[string]any{
		"open_invoices":     snap.OpenInvoices,
		"overdue_invoices":  snap.OverdueInvoices,
		"unmatched":         snap.UnmatchedCount,
		"outstanding_cents": snap.OutstandingCent,
	})
}
