package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/pharmstock/backend/internal/infrastructure/config"
	"github.com/pharmstock/backend/internal/infrastructure/logger"
	"github.com/pharmstock/backend/internal/infrastructure/migration"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

func main() {
	var (
		migrationsPath string
		logLevel       string
	)
	flag.StringVar(&migrationsPath, "path", "", "migrations directory (default: ./migrations)")
	flag.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command, cmdArgs := args[0], args[1:]

	log := newCLILogger(logLevel)
	defer func() {
		_ = logger.Sync(log)
	}()

	migrationsPath = resolveMigrationsPath(log, migrationsPath)

	log.Info("Migration CLI started",
		zap.String("command", command),
		zap.String("migrations_path", migrationsPath),
	)

	// create and list work on the filesystem alone
	switch command {
	case "create":
		runCreate(log, migrationsPath, cmdArgs)
		return
	case "list":
		runList(log, migrationsPath)
		return
	}

	m, db := openMigrator(log, migrationsPath)
	defer db.Close()
	defer m.Close()

	runAgainstDatabase(log, m, command, cmdArgs)
}

// newCLILogger builds a console logger; the CLI has no use for JSON output.
func newCLILogger(level string) *zap.Logger {
	log, err := logger.New(&logger.Config{
		Level:      level,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "migrate: cannot build logger:", err)
		os.Exit(1)
	}
	return log
}

// resolveMigrationsPath locates the migrations directory: the -path flag
// wins, then ./migrations, then migrations/ two levels above the binary for
// builds placed under bin/.
func resolveMigrationsPath(log *zap.Logger, explicit string) string {
	path := explicit
	if path == "" {
		path = defaultMigrationsPath
		if _, err := os.Stat(path); err != nil {
			if execPath, execErr := os.Executable(); execErr == nil {
				candidate := filepath.Join(filepath.Dir(execPath), "..", "..", defaultMigrationsPath)
				if _, err := os.Stat(candidate); err == nil {
					path = candidate
				}
			}
		}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		log.Fatal("Failed to resolve migrations path", zap.Error(err))
	}
	return abs
}

func runCreate(log *zap.Logger, migrationsPath string, args []string) {
	if len(args) == 0 {
		log.Fatal("Migration name required", zap.String("usage", "migrate create <name> [description]"))
	}
	name := args[0]
	var description string
	if len(args) > 1 {
		description = args[1]
	}

	mf, err := migration.CreateMigration(migrationsPath, name, description)
	if err != nil {
		log.Fatal("Failed to create migration", zap.Error(err))
	}
	log.Info("Migration created",
		zap.String("version", mf.Version),
		zap.String("up_file", mf.UpPath),
		zap.String("down_file", mf.DownPath),
	)
}

func runList(log *zap.Logger, migrationsPath string) {
	names, err := migration.ListMigrations(migrationsPath)
	if err != nil {
		log.Fatal("Failed to list migrations", zap.Error(err))
	}
	if len(names) == 0 {
		log.Info("No migrations found")
		return
	}

	log.Info("Available migrations", zap.Int("count", len(names)))
	for _, name := range names {
		fmt.Println("  -", name)
	}
}

// openMigrator connects to postgres and wraps the connection in a migrator.
// Versioned migrations target postgres only; the sqlite driver relies on
// schema auto-migration at server startup.
func openMigrator(log *zap.Logger, migrationsPath string) (*migration.Migrator, *sql.DB) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if cfg.Database.Driver != "postgres" {
		log.Fatal("Migrations require the postgres driver",
			zap.String("configured_driver", cfg.Database.Driver))
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	if err := db.Ping(); err != nil {
		log.Fatal("Database unreachable", zap.Error(err))
	}

	m, err := migration.New(db, migrationsPath, log)
	if err != nil {
		log.Fatal("Migrator setup failed", zap.Error(err))
	}
	return m, db
}

func runAgainstDatabase(log *zap.Logger, m *migration.Migrator, command string, args []string) {
	switch command {
	case "up":
		exitOnError(log, command, m.Up())

	case "down":
		exitOnError(log, command, m.Down())

	case "step":
		n := intArg(log, args, "Step count", "migrate step <n>")
		exitOnError(log, command, m.Steps(n))

	case "goto":
		v := intArg(log, args, "Target version", "migrate goto <version>")
		if v < 0 {
			log.Fatal("Version must not be negative", zap.Int("version", v))
		}
		exitOnError(log, command, m.GoTo(uint(v)))

	case "version":
		reportVersion(log, m)

	case "force":
		v := intArg(log, args, "Target version", "migrate force <version>")
		exitOnError(log, command, m.Force(v))

	case "drop":
		if !slices.Contains(args, "-confirm") && !slices.Contains(args, "--confirm") {
			log.Fatal("Refusing to drop without confirmation", zap.String("usage", "migrate drop -confirm"))
		}
		exitOnError(log, command, m.Drop())

	default:
		log.Error("Unrecognized command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}
}

func exitOnError(log *zap.Logger, command string, err error) {
	if err != nil {
		log.Fatal("Migration command failed", zap.String("command", command), zap.Error(err))
	}
}

// intArg parses the required numeric argument of a subcommand.
func intArg(log *zap.Logger, args []string, what, usage string) int {
	if len(args) == 0 {
		log.Fatal(what+" required", zap.String("usage", usage))
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		log.Fatal(what+" must be a number", zap.String("value", args[0]))
	}
	return n
}

func reportVersion(log *zap.Logger, m *migration.Migrator) {
	version, dirty, err := m.Version()
	if err != nil {
		log.Fatal("Failed to read version", zap.Error(err))
	}
	if version == 0 {
		log.Info("No migrations applied")
		return
	}
	log.Info("Current migration version",
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
}

func printUsage() {
	fmt.Println(`PharmStock schema migration tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply every pending migration
  down                  Roll back every applied migration
  step <n>              Apply n migrations; negative n rolls back
  goto <version>        Migrate up or down to a specific version
  version               Print the current schema version
  force <version>       Overwrite the recorded version without running SQL
  drop -confirm         Drop every object in the database
  create <name> [desc]  Generate an empty up/down migration pair
  list                  Print the migrations found on disk

Flags:
  -path string          Migrations directory (default: ./migrations)
  -log-level string     Log verbosity (default: info)`)
}
