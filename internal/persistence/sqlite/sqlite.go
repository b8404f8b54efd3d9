package sqlite

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/appointment-scheduler/internal/persistence/sqlite/migration"
)

// Storage bundles the SQLite repositories sharing a single connection pool.
type Storage struct {
	pool   *ConnectionPool
	logger *slog.Logger

	Users        *UserRepository
	Customers    *CustomerRepository
	Appointments *AppointmentRepository
	Logins       *LoginAuditRepository
}

// Open connects to the database described by config. Call Migrate before use
// on a fresh database.
func Open(config migration.SQLiteConfig, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, err
	}

	return &Storage{
		pool:         pool,
		logger:       logger,
		Users:        NewUserRepository(pool),
		Customers:    NewCustomerRepository(pool),
		Appointments: NewAppointmentRepository(pool),
		Logins:       NewLoginAuditRepository(pool),
	}, nil
}

// Migrate applies pending schema migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	manager := migration.NewManager(migration.NewSQLiteExecutor(s.pool.DB()), s.logger)
	if err := manager.RunMigrations(ctx); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

// Status reports applied and pending migrations.
func (s *Storage) Status(ctx context.Context) (migration.Status, error) {
	manager := migration.NewManager(migration.NewSQLiteExecutor(s.pool.DB()), s.logger)
	return manager.Status(ctx)
}

// Path returns the database file path.
func (s *Storage) Path() string {
	return s.pool.Path()
}

// Ping checks that the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases resources held by the storage.
func (s *Storage) Close() error {
	return s.pool.Close()
}
