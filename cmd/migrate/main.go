package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ledgerline/backend/internal/infrastructure/config"
	"github.com/ledgerline/backend/internal/infrastructure/logger"
	"github.com/ledgerline/backend/internal/infrastructure/migration"
	"github.com/ledgerline/backend/migrations"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

var errUsage = errors.New("usage")

// fileCommand works on migration files only
type fileCommand func(log *zap.Logger, dir string, args []string) error

// dbCommand runs against the configured database
type dbCommand func(log *zap.Logger, m *migration.Migrator, args []string) error

var fileCommands = map[string]fileCommand{
	"create": runCreate,
	"list":   runList,
}

var dbCommands = map[string]dbCommand{
	"up":      func(_ *zap.Logger, m *migration.Migrator, _ []string) error { return m.Up() },
	"down":    func(_ *zap.Logger, m *migration.Migrator, _ []string) error { return m.Down() },
	"step":    runStep,
	"goto":    runGoto,
	"version": runVersion,
	"force":   runForce,
}

func main() {
	var (
		migrationsPath string
		logLevel       string
	)
	flag.StringVar(&migrationsPath, "path", "", "Read migrations from this directory instead of the embedded set")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	err = run(log, migrationsPath, args[0], args[1:])
	_ = logger.Sync(log)
	switch {
	case errors.Is(err, errUsage):
		fmt.Fprintln(os.Stderr, err)
		printUsage()
		os.Exit(2)
	case err != nil:
		log.Error("Migration command failed", zap.String("command", args[0]), zap.Error(err))
		os.Exit(1)
	}
}

func run(log *zap.Logger, path, command string, args []string) error {
	log.Info("Migration CLI started",
		zap.String("command", command),
		zap.String("source", sourceName(path)),
	)

	if cmd, ok := fileCommands[command]; ok {
		return cmd(log, path, args)
	}
	cmd, ok := dbCommands[command]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	var m *migration.Migrator
	if path == "" {
		m, err = migration.NewEmbedded(db, migrations.FS, log)
	} else {
		m, err = migration.New(db, path, log)
	}
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	return cmd(log, m, args)
}

func runCreate(log *zap.Logger, dir string, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: migrate create <name> [description]", errUsage)
	}
	if dir == "" {
		dir = defaultMigrationsPath
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	var description string
	if len(args) > 1 {
		description = args[1]
	}
	mf, err := migration.CreateMigration(abs, args[0], description)
	if err != nil {
		return err
	}
	log.Info("Migration created",
		zap.String("version", mf.Version),
		zap.String("up_file", mf.UpPath),
		zap.String("down_file", mf.DownPath),
	)
	return nil
}

func runList(log *zap.Logger, dir string, _ []string) error {
	var (
		names []string
		err   error
	)
	if dir == "" {
		names, err = migration.ListMigrationsFS(migrations.FS)
	} else {
		names, err = migration.ListMigrations(dir)
	}
	if err != nil {
		return err
	}
	log.Info("Available migrations", zap.Int("count", len(names)))
	for _, name := range names {
		fmt.Println("  -", name)
	}
	return nil
}

func runStep(_ *zap.Logger, m *migration.Migrator, args []string) error {
	n, err := intArg(args, "migrate step <n>")
	if err != nil {
		return err
	}
	return m.Steps(n)
}

func runGoto(_ *zap.Logger, m *migration.Migrator, args []string) error {
	v, err := intArg(args, "migrate goto <version>")
	if err != nil {
		return err
	}
	if v < 0 {
		return fmt.Errorf("%w: version must not be negative", errUsage)
	}
	return m.GoTo(uint(v))
}

func runVersion(log *zap.Logger, m *migration.Migrator, _ []string) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	if version == 0 {
		log.Info("No migrations applied")
		return nil
	}
	log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

func runForce(log *zap.Logger, m *migration.Migrator, args []string) error {
	v, err := intArg(args, "migrate force <version>")
	if err != nil {
		return err
	}
	log.Warn("Forcing migration version; the schema is not checked", zap.Int("version", v))
	return m.Force(v)
}

func intArg(args []string, usage string) (int, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("%w: %s", errUsage, usage)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", errUsage, args[0])
	}
	return n, nil
}

func sourceName(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}

func printUsage() {
	fmt.Fprint(os.Stderr, `migrate applies the ledger schema migrations.

usage: migrate [-path dir] [-log-level level] <command> [args]

  up | down             apply or roll back everything
  step <n>              move n versions (negative goes down)
  goto <version>        migrate to an exact version
  version               print the applied version
  force <version>       mark a version applied without running it
  create <name> [desc]  write a new up/down file pair
  list                  list known migrations

Database settings come from config.toml or LEDGER_DATABASE_* variables.
Without -path the migrations compiled into the binary are used.
`)
}
