package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/appointment-scheduler/internal/application"
	"github.com/example/appointment-scheduler/internal/persistence"
)

var (
	userCounter        uint64
	customerCounter    uint64
	appointmentCounter uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// FastHashParams keeps password hashing cheap in tests.
var FastHashParams = application.HashParams{
	MemoryKiB: 1024,
	Passes:    1,
	Threads:   1,
	SaltBytes: 8,
	KeyBytes:  16,
}

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic consultant account that can be
// materialised for application or persistence tests.
type UserFixture struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := UserFixture{
		ID:           id,
		Username:     fmt.Sprintf("consultant%03d", idx),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

// WithUsername overrides the generated username.
func WithUsername(username string) UserOption {
	return func(f *UserFixture) {
		f.Username = username
	}
}

// WithUserPassword stores an argon2id hash of password using FastHashParams.
func WithUserPassword(password string) UserOption {
	return func(f *UserFixture) {
		hash, err := application.HashPassword(password, FastHashParams)
		if err != nil {
			panic(fmt.Sprintf("testfixtures: hash password: %v", err))
		}
		f.PasswordHash = hash
	}
}

// WithUserPasswordHash overrides the generated password hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(f *UserFixture) {
		f.PasswordHash = hash
	}
}

// Application returns the fixture as an application.User value.
func (f UserFixture) Application() application.User {
	return application.User{ID: f.ID, Username: f.Username}
}

// Credentials returns the fixture as application.UserCredentials.
func (f UserFixture) Credentials() application.UserCredentials {
	return application.UserCredentials{User: f.Application(), PasswordHash: f.PasswordHash}
}

// Persistence returns the fixture as a persistence.User value.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:           f.ID,
		Username:     f.Username,
		PasswordHash: f.PasswordHash,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// --------------------------- Customer fixtures ---------------------------

// CustomerFixture represents a deterministic customer record.
type CustomerFixture struct {
	ID         string
	Name       string
	Address    string
	City       string
	PostalCode string
	Country    string
	Phone      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CustomerOption configures the generated customer fixture.
type CustomerOption func(*CustomerFixture)

// NewCustomerFixture returns a deterministic customer fixture with optional overrides.
func NewCustomerFixture(opts ...CustomerOption) CustomerFixture {
	idx := atomic.AddUint64(&customerCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Hour)
	fixture := CustomerFixture{
		ID:         fmt.Sprintf("customer-%03d", idx),
		Name:       fmt.Sprintf("Customer %03d", idx),
		Address:    fmt.Sprintf("%d Main Street", idx),
		City:       "Phoenix",
		PostalCode: fmt.Sprintf("85%03d", idx%1000),
		Country:    "US",
		Phone:      fmt.Sprintf("555-%04d", idx%10000),
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithCustomerID overrides the generated customer ID.
func WithCustomerID(id string) CustomerOption {
	return func(f *CustomerFixture) {
		f.ID = id
	}
}

// WithCustomerName overrides the generated customer name.
func WithCustomerName(name string) CustomerOption {
	return func(f *CustomerFixture) {
		f.Name = name
	}
}

// Application returns the fixture as an application.Customer value.
func (f CustomerFixture) Application() application.Customer {
	return application.Customer{
		ID:         f.ID,
		Name:       f.Name,
		Address:    f.Address,
		City:       f.City,
		PostalCode: f.PostalCode,
		Country:    f.Country,
		Phone:      f.Phone,
	}
}

// Persistence returns the fixture as a persistence.Customer value.
func (f CustomerFixture) Persistence() persistence.Customer {
	return persistence.Customer{
		ID:         f.ID,
		Name:       f.Name,
		Address:    f.Address,
		City:       f.City,
		PostalCode: f.PostalCode,
		Country:    f.Country,
		Phone:      f.Phone,
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.UpdatedAt,
	}
}

// ------------------------- Appointment fixtures --------------------------

// AppointmentFixture represents a deterministic appointment.
type AppointmentFixture struct {
	ID         string
	CustomerID string
	UserID     string
	Type       string
	Start      time.Time
	End        time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AppointmentOption configures the generated appointment fixture.
type AppointmentOption func(*AppointmentFixture)

// NewAppointmentFixture returns a one hour appointment starting a day after
// ReferenceTime, shifted by the fixture sequence number.
func NewAppointmentFixture(opts ...AppointmentOption) AppointmentFixture {
	idx := atomic.AddUint64(&appointmentCounter, 1)
	start := referenceTime.Truncate(time.Hour).Add(24*time.Hour + time.Duration(idx)*time.Hour)
	fixture := AppointmentFixture{
		ID:         fmt.Sprintf("appointment-%03d", idx),
		CustomerID: "customer-001",
		UserID:     "user-001",
		Type:       "consultation",
		Start:      start,
		End:        start.Add(time.Hour),
		CreatedAt:  referenceTime,
		UpdatedAt:  referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithAppointmentID overrides the generated appointment ID.
func WithAppointmentID(id string) AppointmentOption {
	return func(f *AppointmentFixture) {
		f.ID = id
	}
}

// WithAppointmentParties sets the customer and consultant.
func WithAppointmentParties(customerID, userID string) AppointmentOption {
	return func(f *AppointmentFixture) {
		f.CustomerID = customerID
		f.UserID = userID
	}
}

// WithAppointmentType overrides the appointment type.
func WithAppointmentType(kind string) AppointmentOption {
	return func(f *AppointmentFixture) {
		f.Type = kind
	}
}

// WithAppointmentWindow sets start and end.
func WithAppointmentWindow(start, end time.Time) AppointmentOption {
	return func(f *AppointmentFixture) {
		f.Start = start
		f.End = end
	}
}

// Application returns the fixture as an application.Appointment value.
func (f AppointmentFixture) Application() application.Appointment {
	return application.Appointment{
		ID:         f.ID,
		CustomerID: f.CustomerID,
		UserID:     f.UserID,
		Type:       f.Type,
		Start:      f.Start,
		End:        f.End,
	}
}

// Persistence returns the fixture as a persistence.Appointment value.
func (f AppointmentFixture) Persistence() persistence.Appointment {
	return persistence.Appointment{
		ID:         f.ID,
		CustomerID: f.CustomerID,
		UserID:     f.UserID,
		Type:       f.Type,
		Start:      f.Start,
		End:        f.End,
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.UpdatedAt,
	}
}
