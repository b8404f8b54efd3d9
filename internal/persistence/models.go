package persistence

import "time"

// User represents a consultant account that can log in to the scheduler.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Customer represents a client that appointments are booked for.
type Customer struct {
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

// Appointment represents a booked time slot between a customer and a consultant.
type Appointment struct {
	ID         string
	CustomerID string
	UserID     string
	Type       string
	Start      time.Time
	End        time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// LoginRecord is a single entry of the login audit trail.
type LoginRecord struct {
	Seq        int64
	Username   string
	LoggedInAt time.Time
}
