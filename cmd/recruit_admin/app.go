package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/recruit-grader/internal/admin"
	"github.com/jonathan/recruit-grader/internal/config"
	"github.com/jonathan/recruit-grader/internal/db"
	"github.com/jonathan/recruit-grader/internal/logging"
	"github.com/jonathan/recruit-grader/internal/metrics"
	"github.com/jonathan/recruit-grader/internal/observability"
	"github.com/jonathan/recruit-grader/internal/store"
	"github.com/jonathan/recruit-grader/internal/store/memstore"
	"github.com/jonathan/recruit-grader/internal/tracing"
	"github.com/jonathan/recruit-grader/internal/types"
)

// version is stamped into trace resources.
var version = "dev"

const (
	storePostgres = "postgres"
	storeMemory   = "memory"
)

var (
	configPath  string
	cycleFlag   string
	storeKind   string
	fixturePath string
	verbose     bool

	cfg *config.Config
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to a YAML config file (default $RECRUIT_CONFIG)")
	flags.StringVar(&cycleFlag, "cycle", "", "Recruitment cycle, e.g. fall-2026 (overrides config)")
	flags.StringVar(&storeKind, "store", storePostgres, "Record store: postgres or memory")
	flags.StringVar(&fixturePath, "fixture", "", "JSON fixture seeding the memory store")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")
}

// loadConfig layers the config file, environment and flags.
func loadConfig(_ *cobra.Command, _ []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cycleFlag != "" {
		loaded.Cycle = cycleFlag
	}
	if verbose {
		loaded.LogLevel = "debug"
	}
	if err := loaded.Validate(); err != nil {
		return err
	}
	cfg = loaded
	return nil
}

// app is the wired engine of one command invocation.
type app struct {
	svc     *admin.Service
	store   store.RecordStore
	logger  *slog.Logger
	metrics *metrics.Manager
	printer *observability.Printer
	closers []func()
}

// openApp opens the configured record store and wires the admin service around it.
func openApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	logger, err := logging.New(cmd.ErrOrStderr(), cfg.LogOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	a := &app{
		logger:  logger,
		printer: observability.NewPrinter(cmd.OutOrStdout()),
	}
	if cfg.MetricsEnabled {
		a.metrics = metrics.NewManager()
	}

	st, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	a.store = st

	tracer, err := tracing.New("recruit_admin", version, cfg.TraceOutput)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to start tracing: %w", err)
	}
	a.closers = append(a.closers, func() {
		if err := tracer.Shutdown(context.Background()); err != nil {
			logger.Warn("failed to flush traces", slog.String("error", err.Error()))
		}
	})

	a.svc = admin.New(st, admin.Options{
		Logger:    logger,
		Metrics:   a.metrics,
		Tracer:    tracer,
		BatchSize: cfg.BatchSize,
	})
	return a, nil
}

func (a *app) openStore(ctx context.Context) (store.RecordStore, error) {
	switch strings.ToLower(storeKind) {
	case storeMemory:
		mem := memstore.New()
		if fixturePath != "" {
			f, err := os.Open(fixturePath)
			if err != nil {
				return nil, fmt.Errorf("failed to open fixture %s: %w", fixturePath, err)
			}
			defer f.Close()
			if err := mem.LoadFixture(f); err != nil {
				return nil, err
			}
		}
		return mem, nil
	case storePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("config error: 'database_url' is required (set %sDATABASE_URL)", config.EnvPrefix)
		}
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, database.Close)
		return database, nil
	default:
		return nil, fmt.Errorf("unknown store %q (want %s or %s)", storeKind, storePostgres, storeMemory)
	}
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// withApp opens the app, requires a cycle when needCycle is set, and runs fn.
func withApp(cmd *cobra.Command, needCycle bool, fn func(ctx context.Context, a *app) error) error {
	if needCycle {
		if err := cfg.RequireCycle(); err != nil {
			return err
		}
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(ctx, a)
}

// report prints the failure box of a partial write and passes err through.
func (a *app) report(err error) error {
	var partial *types.PartialWriteError
	if errors.As(err, &partial) {
		a.printer.PrintPartialWrite(partial)
	}
	return err
}
