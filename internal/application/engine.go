package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/example/appointment-scheduler/internal/calendar"
	"github.com/example/appointment-scheduler/internal/scheduler"
	"github.com/google/uuid"
)

// Store is the persistent record store behind the cache.
type Store interface {
	// FindUser returns false for unknown users and wrong credentials alike.
	FindUser(ctx context.Context, username, credential string) (User, bool, error)
	FindAllUsers(ctx context.Context) ([]User, error)
	FindAllCustomers(ctx context.Context) ([]Customer, error)
	// FindAppointments returns appointments overlapping the range ordered by start.
	FindAppointments(ctx context.Context, r AppointmentRange) ([]Appointment, error)
	// UpsertAppointment writes a newly created appointment.
	UpsertAppointment(ctx context.Context, appointment Appointment) error
	// UpdateAppointment rewrites an existing record and returns ErrNotFound
	// when no record has the id.
	UpdateAppointment(ctx context.Context, appointment Appointment) error
	// DeleteAppointment returns ErrNotFound when no record has the id.
	DeleteAppointment(ctx context.Context, id string) error
}

// AuditLog records successful logins. Entries are never rewritten.
type AuditLog interface {
	Append(ctx context.Context, username string, at time.Time) error
}

// Engine keeps the record cache in step with the store for the logged-in
// user. Commands are serialized; cache and session reads may happen
// concurrently from other goroutines.
type Engine struct {
	mu sync.Mutex

	store    Store
	audit    AuditLog
	cache    *RecordCache
	session  *Session
	location *time.Location
	now      func() time.Time
	newID    func() string
	logger   *slog.Logger

	window    calendar.Window
	hasWindow bool
}

// NewEngine constructs an Engine with the provided dependencies.
func NewEngine(store Store, audit AuditLog, location *time.Location, now func() time.Time, idGenerator func() string) *Engine {
	return NewEngineWithLogger(store, audit, location, now, idGenerator, nil)
}

// NewEngineWithLogger constructs an Engine with a specified logger.
func NewEngineWithLogger(store Store, audit AuditLog, location *time.Location, now func() time.Time, idGenerator func() string, logger *slog.Logger) *Engine {
	if location == nil {
		location = time.Local
	}
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	return &Engine{
		store:    store,
		audit:    audit,
		cache:    NewRecordCache(),
		session:  NewSession(),
		location: location,
		now:      now,
		newID:    idGenerator,
		logger:   defaultLogger(logger),
	}
}

func (e *Engine) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, e.logger, "Engine", operation, attrs...)
}

// Cache exposes the record cache for read access.
func (e *Engine) Cache() *RecordCache {
	return e.cache
}

// Session exposes the session state for read access.
func (e *Engine) Session() *Session {
	return e.session
}

// Location returns the time zone calendar windows are resolved in.
func (e *Engine) Location() *time.Location {
	return e.location
}

// Now returns the current time in the engine's location.
func (e *Engine) Now() time.Time {
	return e.now().In(e.location)
}

// ActiveWindow returns the window the appointment cache was last filtered by.
func (e *Engine) ActiveWindow() (calendar.Window, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.window, e.hasWindow
}

// Authenticate checks credentials without touching session or cache.
func (e *Engine) Authenticate(ctx context.Context, username, credential string) (User, bool, error) {
	if e == nil || e.store == nil {
		return User{}, false, fmt.Errorf("engine store not configured")
	}
	user, ok, err := e.store.FindUser(ctx, strings.TrimSpace(username), credential)
	if err != nil {
		return User{}, false, persistenceError("find user", err)
	}
	return user, ok, nil
}

// Login authenticates the user, loads users, customers and the current month
// into the cache and appends an audit record. Nothing is changed unless every
// step succeeds.
func (e *Engine) Login(ctx context.Context, username, credential string) (user User, err error) {
	if e == nil {
		err = fmt.Errorf("Engine is nil")
		return
	}

	username = strings.TrimSpace(username)
	logger := e.loggerWith(ctx, "Login", "username", username)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "login failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "login succeeded", "user_id", user.ID)
	}()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.Active() {
		err = ErrSessionActive
		return
	}

	var ok bool
	user, ok, err = e.Authenticate(ctx, username, credential)
	if err != nil {
		return
	}
	if !ok {
		user = User{}
		err = ErrInvalidCredentials
		return
	}

	now := e.Now()
	window := calendar.MonthWindow(now)

	var snap snapshot
	snap, err = e.fetch(ctx, window)
	if err != nil {
		user = User{}
		return
	}

	if e.audit != nil {
		if err = e.audit.Append(ctx, user.Username, now); err != nil {
			user = User{}
			err = persistenceError("append audit record", err)
			return
		}
	}

	e.session.set(user)
	e.commit(snap, window)
	return
}

// Logout clears the session and the cache.
func (e *Engine) Logout(ctx context.Context) (err error) {
	if e == nil {
		return fmt.Errorf("Engine is nil")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	current, ok := e.session.CurrentUser()
	if !ok {
		return ErrUnauthorized
	}

	e.session.clear()
	e.cache.Clear()
	e.window, e.hasWindow = calendar.Window{}, false

	e.loggerWith(ctx, "Logout", "user_id", current.ID).InfoContext(ctx, "logged out")
	return nil
}

// ApplyFilter re-queries the store for the window and replaces the cached
// appointments. The previous contents are kept if the query fails.
func (e *Engine) ApplyFilter(ctx context.Context, window calendar.Window) (err error) {
	if e == nil {
		return fmt.Errorf("Engine is nil")
	}

	logger := e.loggerWith(ctx, "ApplyFilter", "window", window.String())
	var count int
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "filter failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "filter applied", "appointments", count)
	}()

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.session.Active() {
		err = ErrUnauthorized
		return
	}

	var appointments []Appointment
	appointments, err = e.queryWindow(ctx, window)
	if err != nil {
		return
	}

	e.cache.LoadAppointments(appointments)
	e.window, e.hasWindow = window, true
	count = len(appointments)
	return nil
}

// Refresh reloads users, customers and the active window from the store. It
// is a no-op while logged out.
func (e *Engine) Refresh(ctx context.Context) (err error) {
	if e == nil {
		return fmt.Errorf("Engine is nil")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.session.Active() || !e.hasWindow {
		return nil
	}

	logger := e.loggerWith(ctx, "Refresh", "window", e.window.String())

	snap, err := e.fetch(ctx, e.window)
	if err != nil {
		logger.ErrorContext(ctx, "refresh failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	e.commit(snap, e.window)
	logger.DebugContext(ctx, "cache refreshed", "appointments", len(snap.appointments))
	return nil
}

// CreateOrUpdateAppointment validates and persists the appointment, then
// mirrors it into the cache. An empty ID creates a new appointment; any other
// ID must name a stored appointment or ErrNotFound is returned. Double
// bookings against cached appointments are returned as warnings.
func (e *Engine) CreateOrUpdateAppointment(ctx context.Context, input Appointment) (result Appointment, warnings []ConflictWarning, err error) {
	if e == nil {
		err = fmt.Errorf("Engine is nil")
		return
	}

	input = normalizeAppointment(input)
	logger := e.loggerWith(ctx, "CreateOrUpdateAppointment")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "appointment save failed", "appointment_id", input.ID, "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"appointment_id", result.ID,
			"warnings", len(warnings),
		).InfoContext(ctx, "appointment saved")
	}()

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.session.Active() {
		err = ErrUnauthorized
		return
	}

	vErr := &ValidationError{}
	vErr.merge(validateAppointmentCore(input))
	vErr.merge(validateReferences(input, e.cache))
	if vErr.HasErrors() {
		err = vErr
		return
	}

	write, op := e.store.UpdateAppointment, "update appointment"
	if input.ID == "" {
		input.ID = e.newID()
		write, op = e.store.UpsertAppointment, "insert appointment"
	}

	warnings = e.detectConflicts(input)

	if err = write(ctx, input); err != nil {
		warnings = nil
		if errors.Is(err, ErrNotFound) {
			err = fmt.Errorf("appointment %s: %w", input.ID, ErrNotFound)
			return
		}
		err = persistenceError(op, err)
		return
	}

	if e.hasWindow && e.window.Contains(input.Start, input.End, e.location) {
		e.cache.AddOrReplace(input)
	} else {
		e.cache.RemoveAppointment(input.ID)
	}

	result = input
	return
}

// DeleteAppointment removes the appointment from the store and then from the
// cache. The cache is left untouched when the store fails.
func (e *Engine) DeleteAppointment(ctx context.Context, id string) (err error) {
	if e == nil {
		return fmt.Errorf("Engine is nil")
	}

	id = strings.TrimSpace(id)
	logger := e.loggerWith(ctx, "DeleteAppointment", "appointment_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "appointment delete failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "appointment deleted")
	}()

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.session.Active() {
		return ErrUnauthorized
	}
	if id == "" {
		v := &ValidationError{}
		v.add("id", "cannot be blank")
		return v
	}

	if err = e.store.DeleteAppointment(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("appointment %s: %w", id, ErrNotFound)
		}
		return persistenceError("delete appointment", err)
	}

	e.cache.RemoveAppointment(id)
	return nil
}

type snapshot struct {
	users        []User
	customers    []Customer
	appointments []Appointment
}

// fetch reads everything the cache holds without modifying it.
func (e *Engine) fetch(ctx context.Context, window calendar.Window) (snapshot, error) {
	users, err := e.store.FindAllUsers(ctx)
	if err != nil {
		return snapshot{}, persistenceError("find users", err)
	}
	customers, err := e.store.FindAllCustomers(ctx)
	if err != nil {
		return snapshot{}, persistenceError("find customers", err)
	}
	appointments, err := e.queryWindow(ctx, window)
	if err != nil {
		return snapshot{}, err
	}
	return snapshot{users: users, customers: customers, appointments: appointments}, nil
}

func (e *Engine) commit(snap snapshot, window calendar.Window) {
	e.cache.LoadUsers(snap.users)
	e.cache.LoadCustomers(snap.customers)
	e.cache.LoadAppointments(snap.appointments)
	e.window, e.hasWindow = window, true
}

func (e *Engine) queryWindow(ctx context.Context, window calendar.Window) ([]Appointment, error) {
	from, to, err := window.Range(e.location)
	if err != nil {
		v := &ValidationError{}
		field := "month"
		if window.IsWeek() {
			field = "week"
		}
		v.add(field, err.Error())
		return nil, v
	}

	appointments, err := e.store.FindAppointments(ctx, AppointmentRange{From: from, To: to})
	if err != nil {
		return nil, persistenceError("find appointments", err)
	}
	return appointments, nil
}

func (e *Engine) detectConflicts(candidate Appointment) []ConflictWarning {
	cached := e.cache.CurrentAppointments()
	existing := make([]scheduler.Booking, len(cached))
	for i, a := range cached {
		existing[i] = toBooking(a)
	}

	conflicts := scheduler.DetectConflicts(existing, toBooking(candidate))
	if len(conflicts) == 0 {
		return nil
	}
	warnings := make([]ConflictWarning, len(conflicts))
	for i, c := range conflicts {
		warnings[i] = ConflictWarning{AppointmentID: c.WithID, Type: string(c.Type), PartyID: c.PartyID}
	}
	return warnings
}

func toBooking(a Appointment) scheduler.Booking {
	return scheduler.Booking{
		ID:           a.ID,
		ConsultantID: a.UserID,
		CustomerID:   a.CustomerID,
		Start:        a.Start,
		End:          a.End,
	}
}
