// Package store adapts the persistence repositories to the interfaces the
// scheduling engine consumes.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/appointment-scheduler/internal/application"
	"github.com/example/appointment-scheduler/internal/persistence"
)

// Store implements application.Store and application.CredentialStore.
type Store struct {
	users        persistence.UserRepository
	customers    persistence.CustomerRepository
	appointments persistence.AppointmentRepository
	checker      *application.CredentialChecker
	newID        func() string
}

// New wires the repositories. A nil verify uses argon2id verification.
func New(users persistence.UserRepository, customers persistence.CustomerRepository, appointments persistence.AppointmentRepository, verify application.PasswordVerifier, logger *slog.Logger) *Store {
	s := &Store{
		users:        users,
		customers:    customers,
		appointments: appointments,
		newID:        uuid.NewString,
	}
	s.checker = application.NewCredentialCheckerWithLogger(s, verify, logger)
	return s
}

// GetUserCredentials loads the stored hash for username.
func (s *Store) GetUserCredentials(ctx context.Context, username string) (application.UserCredentials, error) {
	stored, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return application.UserCredentials{}, mapStoreError(err)
	}
	return application.UserCredentials{
		User:         toApplicationUser(stored),
		PasswordHash: stored.PasswordHash,
	}, nil
}

// FindUser verifies the credential against the stored hash.
func (s *Store) FindUser(ctx context.Context, username, credential string) (application.User, bool, error) {
	return s.checker.Check(ctx, username, credential)
}

// FindAllUsers lists every consultant.
func (s *Store) FindAllUsers(ctx context.Context) ([]application.User, error) {
	stored, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, mapStoreError(err)
	}
	users := make([]application.User, len(stored))
	for i, u := range stored {
		users[i] = toApplicationUser(u)
	}
	return users, nil
}

// FindAllCustomers lists every customer.
func (s *Store) FindAllCustomers(ctx context.Context) ([]application.Customer, error) {
	stored, err := s.customers.ListCustomers(ctx)
	if err != nil {
		return nil, mapStoreError(err)
	}
	customers := make([]application.Customer, len(stored))
	for i, c := range stored {
		customers[i] = toApplicationCustomer(c)
	}
	return customers, nil
}

// FindAppointments lists appointments overlapping r.
func (s *Store) FindAppointments(ctx context.Context, r application.AppointmentRange) ([]application.Appointment, error) {
	from, to := r.From, r.To
	stored, err := s.appointments.ListAppointments(ctx, persistence.AppointmentFilter{
		EndsAfter:    &from,
		StartsBefore: &to,
	})
	if err != nil {
		return nil, mapStoreError(err)
	}
	appointments := make([]application.Appointment, len(stored))
	for i, a := range stored {
		appointments[i] = toApplicationAppointment(a)
	}
	return appointments, nil
}

// UpsertAppointment writes the appointment.
func (s *Store) UpsertAppointment(ctx context.Context, appointment application.Appointment) error {
	return mapStoreError(s.appointments.UpsertAppointment(ctx, toPersistenceAppointment(appointment)))
}

// UpdateAppointment rewrites an existing appointment. Unknown IDs yield
// application.ErrNotFound.
func (s *Store) UpdateAppointment(ctx context.Context, appointment application.Appointment) error {
	return mapStoreError(s.appointments.UpdateAppointment(ctx, toPersistenceAppointment(appointment)))
}

// DeleteAppointment removes the appointment.
func (s *Store) DeleteAppointment(ctx context.Context, id string) error {
	return mapStoreError(s.appointments.DeleteAppointment(ctx, id))
}

// AddUser hashes password and stores a new consultant account.
func (s *Store) AddUser(ctx context.Context, username, password string, params application.HashParams) (application.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		v := &application.ValidationError{FieldErrors: map[string]string{}}
		if username == "" {
			v.FieldErrors["username"] = "cannot be blank"
		}
		if password == "" {
			v.FieldErrors["password"] = "cannot be blank"
		}
		return application.User{}, v
	}

	hash, err := application.HashPassword(password, params)
	if err != nil {
		return application.User{}, fmt.Errorf("hash password: %w", err)
	}

	stored := persistence.User{ID: s.newID(), Username: username, PasswordHash: hash}
	if err := s.users.CreateUser(ctx, stored); err != nil {
		return application.User{}, mapStoreError(err)
	}
	created, err := s.users.GetUser(ctx, stored.ID)
	if err != nil {
		return application.User{}, mapStoreError(err)
	}
	return toApplicationUser(created), nil
}

// AddCustomer stores a new customer, assigning an ID when empty.
func (s *Store) AddCustomer(ctx context.Context, customer application.Customer) (application.Customer, error) {
	if strings.TrimSpace(customer.Name) == "" {
		return application.Customer{}, &application.ValidationError{FieldErrors: map[string]string{"name": "cannot be blank"}}
	}
	if customer.ID == "" {
		customer.ID = s.newID()
	}
	if err := s.customers.CreateCustomer(ctx, toPersistenceCustomer(customer)); err != nil {
		return application.Customer{}, mapStoreError(err)
	}
	return customer, nil
}

// mapStoreError translates persistence sentinels into application errors.
func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return application.ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return fmt.Errorf("%w: already exists", err)
	default:
		return err
	}
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{ID: model.ID, Username: model.Username}
}

func toApplicationCustomer(model persistence.Customer) application.Customer {
	return application.Customer{
		ID:         model.ID,
		Name:       model.Name,
		Address:    model.Address,
		City:       model.City,
		PostalCode: model.PostalCode,
		Country:    model.Country,
		Phone:      model.Phone,
	}
}

func toPersistenceCustomer(customer application.Customer) persistence.Customer {
	return persistence.Customer{
		ID:         customer.ID,
		Name:       customer.Name,
		Address:    customer.Address,
		City:       customer.City,
		PostalCode: customer.PostalCode,
		Country:    customer.Country,
		Phone:      customer.Phone,
	}
}

func toApplicationAppointment(model persistence.Appointment) application.Appointment {
	return application.Appointment{
		ID:         model.ID,
		CustomerID: model.CustomerID,
		UserID:     model.UserID,
		Type:       model.Type,
		Start:      model.Start,
		End:        model.End,
	}
}

func toPersistenceAppointment(appointment application.Appointment) persistence.Appointment {
	return persistence.Appointment{
		ID:         appointment.ID,
		CustomerID: appointment.CustomerID,
		UserID:     appointment.UserID,
		Type:       appointment.Type,
		Start:      appointment.Start.UTC().Truncate(time.Second),
		End:        appointment.End.UTC().Truncate(time.Second),
	}
}
