package application

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"
)

type storeStub struct {
	mu sync.Mutex

	credentials  map[string]string // username -> password
	users        []User
	customers    []Customer
	appointments map[string]Appointment

	findUserErr     error
	findUsersErr    error
	findCustomerErr error
	findApptErr     error
	upsertErr       error
	deleteErr       error

	calls       []string
	lastRange   AppointmentRange
	upserted    []Appointment
	deletedIDs  []string
	findApptHit int
}

func newStoreStub() *storeStub {
	return &storeStub{
		credentials:  map[string]string{},
		appointments: map[string]Appointment{},
	}
}

func (s *storeStub) record(call string) {
	s.calls = append(s.calls, call)
}

func (s *storeStub) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *storeStub) FindUser(_ context.Context, username, credential string) (User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("FindUser")
	if s.findUserErr != nil {
		return User{}, false, s.findUserErr
	}
	password, ok := s.credentials[username]
	if !ok || password != credential {
		return User{}, false, nil
	}
	for _, u := range s.users {
		if u.Username == username {
			return u, true, nil
		}
	}
	return User{}, false, nil
}

func (s *storeStub) FindAllUsers(context.Context) ([]User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("FindAllUsers")
	if s.findUsersErr != nil {
		return nil, s.findUsersErr
	}
	return append([]User(nil), s.users...), nil
}

func (s *storeStub) FindAllCustomers(context.Context) ([]Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("FindAllCustomers")
	if s.findCustomerErr != nil {
		return nil, s.findCustomerErr
	}
	return append([]Customer(nil), s.customers...), nil
}

func (s *storeStub) FindAppointments(_ context.Context, r AppointmentRange) ([]Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("FindAppointments")
	s.lastRange = r
	s.findApptHit++
	if s.findApptErr != nil {
		return nil, s.findApptErr
	}
	var out []Appointment
	for _, a := range s.appointments {
		if a.End.After(r.From) && a.Start.Before(r.To) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return appointmentLess(out[i], out[j]) })
	return out, nil
}

func (s *storeStub) UpsertAppointment(_ context.Context, a Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("UpsertAppointment")
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.appointments[a.ID] = a
	s.upserted = append(s.upserted, a)
	return nil
}

func (s *storeStub) UpdateAppointment(_ context.Context, a Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("UpdateAppointment")
	if s.upsertErr != nil {
		return s.upsertErr
	}
	if _, ok := s.appointments[a.ID]; !ok {
		return ErrNotFound
	}
	s.appointments[a.ID] = a
	s.upserted = append(s.upserted, a)
	return nil
}

func (s *storeStub) DeleteAppointment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("DeleteAppointment")
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.appointments[id]; !ok {
		return ErrNotFound
	}
	delete(s.appointments, id)
	s.deletedIDs = append(s.deletedIDs, id)
	return nil
}

// insert simulates a write by another process.
func (s *storeStub) insert(a Appointment) {
	s.mu.Lock()
	s.appointments[a.ID] = a
	s.mu.Unlock()
}

type auditEntry struct {
	username string
	at       time.Time
}

type auditStub struct {
	mu      sync.Mutex
	entries []auditEntry
	err     error
}

func (a *auditStub) Append(_ context.Context, username string, at time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.entries = append(a.entries, auditEntry{username: username, at: at})
	return nil
}

func (a *auditStub) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
