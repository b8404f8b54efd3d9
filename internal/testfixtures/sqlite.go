package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/example/appointment-scheduler/internal/persistence"
	"github.com/example/appointment-scheduler/internal/persistence/sqlite"
	"github.com/example/appointment-scheduler/internal/persistence/sqlite/migration"
)

// SQLiteHarness provides repository access backed by a temporary SQLite storage
// instance for integration-style persistence tests.
type SQLiteHarness struct {
	Storage      *sqlite.Storage
	Users        persistence.UserRepository
	Customers    persistence.CustomerRepository
	Appointments persistence.AppointmentRepository
	Logins       persistence.LoginAuditRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary file that is
// migrated automatically. Callers may optionally invoke Close, but the helper
// will also register a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "scheduler.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	storage, err := sqlite.Open(migration.TempFileTestSQLiteConfig(path), logger)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := storage.Migrate(context.Background()); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Storage:      storage,
		Users:        storage.Users,
		Customers:    storage.Customers,
		Appointments: storage.Appointments,
		Logins:       storage.Logins,
		cleanup: func() {
			_ = storage.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}

// Seed inserts the supplied fixtures in dependency order.
func (h *SQLiteHarness) Seed(tb testing.TB, users []UserFixture, customers []CustomerFixture, appointments []AppointmentFixture) {
	tb.Helper()
	ctx := context.Background()

	for _, u := range users {
		if err := h.Users.CreateUser(ctx, u.Persistence()); err != nil {
			tb.Fatalf("seed user %s: %v", u.ID, err)
		}
	}
	for _, c := range customers {
		if err := h.Customers.CreateCustomer(ctx, c.Persistence()); err != nil {
			tb.Fatalf("seed customer %s: %v", c.ID, err)
		}
	}
	for _, a := range appointments {
		if err := h.Appointments.UpsertAppointment(ctx, a.Persistence()); err != nil {
			tb.Fatalf("seed appointment %s: %v", a.ID, err)
		}
	}
}
