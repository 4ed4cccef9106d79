package main

import (
	"encoding/json"
	"fmt"
	"os"

	appreceivable "github.com/ledgerline/backend/internal/application/receivable"
	"github.com/ledgerline/backend/internal/infrastructure/config"
	"github.com/ledgerline/backend/internal/infrastructure/logger"
	"github.com/ledgerline/backend/internal/infrastructure/persistence"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "1.0.0"

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "ledgerctl",
	Short: "Maintenance commands for the reconciliation ledger",
	Long: `ledgerctl repairs and inspects the payment to invoice ledger directly
against the database configured through config.toml or LEDGER_* variables.

It is meant for operators: recomputing cached invoice totals after manual
data fixes, previewing match suggestions and sampling open receivables.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
}

// env holds what every subcommand needs
type env struct {
	log   *zap.Logger
	db    *persistence.Database
	scope appreceivable.TransactionScope
	cfg   *config.Config
}

func openEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(logLevel))
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithGormLogger(gormLog))
	if err != nil {
		_ = logger.Sync(log)
		return nil, err
	}
	return &env{
		log:   log,
		db:    db,
		scope: persistence.NewGormTransactionScope(db.DB),
		cfg:   cfg,
	}, nil
}

func (e *env) Close() {
	if err := e.db.Close(); err != nil {
		e.log.Warn("Error closing database", zap.Error(err))
	}
	_ = logger.Sync(e.log)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
