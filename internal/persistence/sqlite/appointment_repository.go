package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/appointment-scheduler/internal/persistence"
)

// AppointmentRepository implements persistence.AppointmentRepository using SQLite
type AppointmentRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
	now    func() time.Time
}

// NewAppointmentRepository creates a new SQLite appointment repository
func NewAppointmentRepository(pool *ConnectionPool) *AppointmentRepository {
	return &AppointmentRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
		now:    time.Now,
	}
}

const appointmentColumns = `id, customer_id, user_id, type, start_time, end_time, created_at, updated_at`

// UpsertAppointment inserts the appointment or replaces the stored record with
// the same ID. The original creation timestamp is preserved on update.
func (r *AppointmentRepository) UpsertAppointment(ctx context.Context, appointment persistence.Appointment) error {
	if err := validateAppointment(appointment); err != nil {
		return err
	}

	now := formatTime(r.now())
	query := `
		INSERT INTO appointments (` + appointmentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			customer_id = excluded.customer_id,
			user_id = excluded.user_id,
			type = excluded.type,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			updated_at = excluded.updated_at
	`
	_, err := r.helper.Exec(ctx, query,
		appointment.ID,
		appointment.CustomerID,
		appointment.UserID,
		strings.TrimSpace(appointment.Type),
		formatTime(appointment.Start),
		formatTime(appointment.End),
		now,
		now,
	)
	return r.mapper.MapError(err)
}

// UpdateAppointment rewrites the stored record with the appointment's ID. It
// never inserts.
func (r *AppointmentRepository) UpdateAppointment(ctx context.Context, appointment persistence.Appointment) error {
	if err := validateAppointment(appointment); err != nil {
		return err
	}

	query := `
		UPDATE appointments
		SET customer_id = ?, user_id = ?, type = ?, start_time = ?, end_time = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.helper.Exec(ctx, query,
		appointment.CustomerID,
		appointment.UserID,
		strings.TrimSpace(appointment.Type),
		formatTime(appointment.Start),
		formatTime(appointment.End),
		formatTime(r.now()),
		appointment.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetAppointment retrieves an appointment by ID from the database
func (r *AppointmentRepository) GetAppointment(ctx context.Context, id string) (persistence.Appointment, error) {
	if id == "" {
		return persistence.Appointment{}, persistence.ErrNotFound
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = ?`
	appointment, err := scanAppointment(r.helper.QueryRow(ctx, query, id))
	if err != nil {
		return persistence.Appointment{}, r.mapper.MapError(err)
	}
	return appointment, nil
}

// ListAppointments returns appointments overlapping the filter bounds ordered
// by start time then ID.
func (r *AppointmentRepository) ListAppointments(ctx context.Context, filter persistence.AppointmentFilter) ([]persistence.Appointment, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.EndsAfter != nil {
		conditions = append(conditions, "end_time > ?")
		args = append(args, formatTime(*filter.EndsAfter))
	}
	if filter.StartsBefore != nil {
		conditions = append(conditions, "start_time < ?")
		args = append(args, formatTime(*filter.StartsBefore))
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY start_time ASC, id ASC`

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	appointments := make([]persistence.Appointment, 0)
	for rows.Next() {
		appointment, err := scanAppointment(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		appointments = append(appointments, appointment)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return appointments, nil
}

// DeleteAppointment removes an appointment by ID from the database
func (r *AppointmentRepository) DeleteAppointment(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	return deleteByID(ctx, r.helper, r.mapper, "appointments", id)
}

func validateAppointment(appointment persistence.Appointment) error {
	if appointment.ID == "" || appointment.CustomerID == "" || appointment.UserID == "" {
		return persistence.ErrConstraintViolation
	}
	if strings.TrimSpace(appointment.Type) == "" {
		return persistence.ErrConstraintViolation
	}
	// Stored times have second precision; compare at that precision.
	if !appointment.Start.Truncate(time.Second).Before(appointment.End.Truncate(time.Second)) {
		return persistence.ErrConstraintViolation
	}
	return nil
}

func scanAppointment(row rowScanner) (persistence.Appointment, error) {
	var (
		a                    persistence.Appointment
		start, end           string
		createdAt, updatedAt string
	)
	err := row.Scan(&a.ID, &a.CustomerID, &a.UserID, &a.Type, &start, &end, &createdAt, &updatedAt)
	if err != nil {
		return persistence.Appointment{}, err
	}

	if a.Start, err = parseTime("start_time", start); err != nil {
		return persistence.Appointment{}, err
	}
	if a.End, err = parseTime("end_time", end); err != nil {
		return persistence.Appointment{}, err
	}
	if a.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Appointment{}, err
	}
	if a.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Appointment{}, err
	}
	return a, nil
}
