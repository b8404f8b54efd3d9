package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/example/appointment-scheduler/internal/persistence"
)

// LoginAuditRepository implements persistence.LoginAuditRepository using SQLite.
// Rows are only ever inserted.
type LoginAuditRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewLoginAuditRepository creates a new SQLite login audit repository
func NewLoginAuditRepository(pool *ConnectionPool) *LoginAuditRepository {
	return &LoginAuditRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// AppendLogin records a successful login
func (r *LoginAuditRepository) AppendLogin(ctx context.Context, username string, at time.Time) error {
	if strings.TrimSpace(username) == "" || at.IsZero() {
		return persistence.ErrConstraintViolation
	}

	_, err := r.helper.Exec(ctx,
		`INSERT INTO login_audit (username, logged_in_at) VALUES (?, ?)`,
		username,
		formatTime(at),
	)
	return r.mapper.MapError(err)
}

// ListLogins returns the audit trail in insertion order
func (r *LoginAuditRepository) ListLogins(ctx context.Context) ([]persistence.LoginRecord, error) {
	rows, err := r.helper.Query(ctx, `SELECT seq, username, logged_in_at FROM login_audit ORDER BY seq ASC`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var records []persistence.LoginRecord
	for rows.Next() {
		var (
			record persistence.LoginRecord
			at     string
		)
		if err := rows.Scan(&record.Seq, &record.Username, &at); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if record.LoggedInAt, err = parseTime("logged_in_at", at); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return records, nil
}
