package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/example/appointment-scheduler/internal/application"
	"github.com/example/appointment-scheduler/internal/audit"
	"github.com/example/appointment-scheduler/internal/config"
	"github.com/example/appointment-scheduler/internal/console"
	"github.com/example/appointment-scheduler/internal/logging"
	"github.com/example/appointment-scheduler/internal/persistence/sqlite"
	"github.com/example/appointment-scheduler/internal/persistence/sqlite/migration"
	"github.com/example/appointment-scheduler/internal/refresh"
	"github.com/example/appointment-scheduler/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdin, os.Stdout, os.Stderr).command().Run(ctx, os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// app carries the process streams so commands can be driven from tests.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	// readPassword reads a secret without echo.
	readPassword func() (string, error)
	now          func() time.Time
	newWatcher   func(dbPath string, target refresh.Refresher, debounce time.Duration, logger *slog.Logger) (*refresh.Watcher, error)
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{
		in:     in,
		out:    out,
		errOut: errOut,
		readPassword: func() (string, error) {
			pw, err := term.ReadPassword(int(os.Stdin.Fd()))
			return string(pw), err
		},
		now:        time.Now,
		newWatcher: refresh.NewWatcher,
	}
}

func (a *app) command() *cli.Command {
	return &cli.Command{
		Name:      "scheduler",
		Usage:     "Appointment scheduler for consultants",
		Writer:    a.out,
		ErrWriter: a.errOut,
		Action:    a.runShell,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Sources: cli.EnvVars("SCHEDULER_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Start the interactive shell",
				Action: a.runShell,
			},
			{
				Name:   "migrate",
				Usage:  "Apply pending schema migrations",
				Action: a.migrate,
			},
			{
				Name:   "status",
				Usage:  "Show the schema migration status",
				Action: a.status,
			},
			{
				Name:  "user",
				Usage: "Manage consultant accounts",
				Commands: []*cli.Command{
					{
						Name:      "add",
						Usage:     "Create a consultant account",
						ArgsUsage: "<username>",
						Action:    a.addUser,
					},
				},
			},
			{
				Name:  "customer",
				Usage: "Manage customers",
				Commands: []*cli.Command{
					{
						Name:   "add",
						Usage:  "Create a customer",
						Action: a.addCustomer,
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "name", Usage: "Customer name", Required: true},
							&cli.StringFlag{Name: "address", Usage: "Street address"},
							&cli.StringFlag{Name: "city", Usage: "City"},
							&cli.StringFlag{Name: "postal-code", Usage: "Postal code"},
							&cli.StringFlag{Name: "country", Usage: "Country"},
							&cli.StringFlag{Name: "phone", Usage: "Phone number"},
						},
					},
				},
			},
			{
				Name:  "audit",
				Usage: "Inspect the login audit trail",
				Commands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "Print recorded logins",
						Action: a.listLogins,
					},
				},
			},
		},
	}
}

// setup loads configuration and builds the process logger.
func (a *app) setup(cmd *cli.Command) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to parse config: %w", err)
	}
	logger := logging.New(a.errOut, cfg.LogLevel(), cfg.App.LogFormat)
	return cfg, logger, nil
}

// openStorage opens the configured database and, when migrate is set,
// brings its schema up to date.
func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger, migrate bool) (*sqlite.Storage, error) {
	dbConfig := migration.DefaultSQLiteConfig(cfg.Database.Path)
	if cfg.Database.BusyTimeout > 0 {
		dbConfig.BusyTimeout = cfg.Database.BusyTimeout
	}

	storage, err := sqlite.Open(dbConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	if migrate {
		if err := storage.Migrate(ctx); err != nil {
			_ = storage.Close()
			return nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
	}
	return storage, nil
}

func closeStorage(storage *sqlite.Storage, logger *slog.Logger) {
	if err := storage.Close(); err != nil {
		logger.Error("failed to close storage", "error", err)
	}
}

// auditLog is the login sink plus read access for "audit list".
type auditLog interface {
	application.AuditLog
	Entries(ctx context.Context) ([]audit.Entry, error)
}

func newAuditLog(cfg config.Config, storage *sqlite.Storage) auditLog {
	if cfg.Audit.Sink == config.AuditSinkDatabase {
		return audit.NewDatabaseLog(storage.Logins)
	}
	return audit.NewFileLog(cfg.Audit.Path)
}

func (a *app) runShell(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := a.setup(cmd)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	storage, err := openStorage(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer closeStorage(storage, logger)

	records := store.New(storage.Users, storage.Customers, storage.Appointments, nil, logger)
	engine := application.NewEngineWithLogger(records, newAuditLog(cfg, storage), loc, a.now, nil, logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	target := refresh.RefresherFunc(engine.Refresh)
	if cfg.Refresh.Cron != "" {
		scheduler, err := refresh.NewScheduler(cfg.Refresh.Cron, loc, target, logger)
		if err != nil {
			return err
		}
		logger.Info("periodic refresh enabled", "schedule", cfg.Refresh.Cron, "next", scheduler.Next())
		g.Go(func() error { return scheduler.Run(gctx) })
	}
	if cfg.Refresh.Watch {
		watcher, err := a.newWatcher(storage.Path(), target, refresh.DefaultDebounce, logger)
		if err != nil {
			cancel()
			_ = g.Wait()
			return err
		}
		g.Go(func() error { return watcher.Run(gctx) })
	}

	shell := console.New(engine, a.in, a.out,
		console.WithPasswordReader(a.readPassword),
		console.WithLogger(logger),
	)

	// The shell blocks on terminal reads, so it is not joined on shutdown.
	done := make(chan error, 1)
	go func() { done <- shell.Run(gctx) }()

	var runErr error
	select {
	case runErr = <-done:
	case <-gctx.Done():
	}
	cancel()

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) && runErr == nil {
		runErr = err
	}
	if engine.Session().Active() {
		_ = engine.Logout(context.Background())
	}
	return runErr
}
