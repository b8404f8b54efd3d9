package persistence

import (
	"context"
	"time"
)

// UserRepository exposes CRUD operations for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
}

// CustomerRepository exposes CRUD operations for customers.
type CustomerRepository interface {
	CreateCustomer(ctx context.Context, customer Customer) error
	GetCustomer(ctx context.Context, id string) (Customer, error)
	ListCustomers(ctx context.Context) ([]Customer, error)
	DeleteCustomer(ctx context.Context, id string) error
}

// AppointmentFilter narrows appointment queries to records ending after
// EndsAfter and starting before StartsBefore. Nil bounds are open.
type AppointmentFilter struct {
	EndsAfter    *time.Time
	StartsBefore *time.Time
}

// AppointmentRepository stores appointments.
type AppointmentRepository interface {
	UpsertAppointment(ctx context.Context, appointment Appointment) error
	// UpdateAppointment returns ErrNotFound when no record has the ID.
	UpdateAppointment(ctx context.Context, appointment Appointment) error
	GetAppointment(ctx context.Context, id string) (Appointment, error)
	ListAppointments(ctx context.Context, filter AppointmentFilter) ([]Appointment, error)
	DeleteAppointment(ctx context.Context, id string) error
}

// LoginAuditRepository stores the append-only login trail.
type LoginAuditRepository interface {
	AppendLogin(ctx context.Context, username string, at time.Time) error
	ListLogins(ctx context.Context) ([]LoginRecord, error)
}
