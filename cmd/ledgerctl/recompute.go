package main

import (
	"errors"
	"fmt"

	appreceivable "github.com/ledgerline/backend/internal/application/receivable"
	"github.com/ledgerline/backend/internal/infrastructure/logger"
	"github.com/spf13/cobra"
)

var recomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Re-derive cached paid amounts and statuses from the ledger",
	Example: `  # One invoice
  ledgerctl recompute --invoice 42

  # Every invoice, one transaction each
  ledgerctl recompute --all`,
	RunE: runRecompute,
}

func init() {
	rootCmd.AddCommand(recomputeCmd)

	recomputeCmd.Flags().Int64("invoice", 0, "Invoice id to recompute")
	recomputeCmd.Flags().Bool("all", false, "Recompute every invoice")
	recomputeCmd.MarkFlagsMutuallyExclusive("invoice", "all")
	recomputeCmd.MarkFlagsOneRequired("invoice", "all")
}

func runRecompute(cmd *cobra.Command, _ []string) error {
	invoiceID, _ := cmd.Flags().GetInt64("invoice")
	all, _ := cmd.Flags().GetBool("all")
	if !all && invoiceID < 1 {
		return errors.New("--invoice must be a positive id")
	}

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := logger.WithContext(cmd.Context(), e.log)
	svc := appreceivable.NewReconciliationService(e.scope)

	if all {
		n, err := svc.RecomputeAll(ctx)
		fmt.Fprintf(cmd.OutOrStdout(), "recomputed %d invoices\n", n)
		return err
	}

	res, err := svc.RecomputeInvoice(ctx, invoiceID)
	if err != nil {
		return err
	}
	return printJSON(cmd, res)
}
