package application

import (
	"strings"
	"time"
)

// User is a consultant account. Credentials never leave the store.
type User struct {
	ID       string
	Username string
}

// UserCredentials pairs a user with the stored password hash.
type UserCredentials struct {
	User         User
	PasswordHash string
}

// Customer is a client appointments are booked for.
type Customer struct {
	ID         string
	Name       string
	Address    string
	City       string
	PostalCode string
	Country    string
	Phone      string
}

// AddressLine joins the non-empty address parts with single spaces.
func (c Customer) AddressLine() string {
	parts := make([]string, 0, 4)
	for _, part := range []string{c.Address, c.City, c.PostalCode, c.Country} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, " ")
}

// Appointment is a booked slot between a customer and a consultant (UserID).
type Appointment struct {
	ID         string
	CustomerID string
	UserID     string
	Type       string
	Start      time.Time
	End        time.Time
}

// AppointmentRange selects appointments overlapping [From, To).
type AppointmentRange struct {
	From time.Time
	To   time.Time
}

// ConflictWarning describes a double booking that does not block a write.
type ConflictWarning struct {
	AppointmentID string
	Type          string
	PartyID       string
}
