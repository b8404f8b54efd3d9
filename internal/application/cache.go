package application

import (
	"sort"
	"sync"
)

// RecordCache mirrors the appointments of the active calendar window and all
// customers and users. Each collection is replaced atomically; readers always
// receive copies.
type RecordCache struct {
	mu           sync.RWMutex
	appointments []Appointment
	customers    []Customer
	users        []User

	customerIndex map[string]int
	userIndex     map[string]int
}

// NewRecordCache returns an empty cache.
func NewRecordCache() *RecordCache {
	return &RecordCache{
		customerIndex: map[string]int{},
		userIndex:     map[string]int{},
	}
}

// LoadAppointments replaces the appointments collection. Records are kept in
// the order given.
func (c *RecordCache) LoadAppointments(records []Appointment) {
	cloned := cloneSlice(records)
	c.mu.Lock()
	c.appointments = cloned
	c.mu.Unlock()
}

// LoadCustomers replaces the customers collection.
func (c *RecordCache) LoadCustomers(records []Customer) {
	cloned := cloneSlice(records)
	index := make(map[string]int, len(cloned))
	for i, customer := range cloned {
		index[customer.ID] = i
	}
	c.mu.Lock()
	c.customers = cloned
	c.customerIndex = index
	c.mu.Unlock()
}

// LoadUsers replaces the users collection.
func (c *RecordCache) LoadUsers(records []User) {
	cloned := cloneSlice(records)
	index := make(map[string]int, len(cloned))
	for i, user := range cloned {
		index[user.ID] = i
	}
	c.mu.Lock()
	c.users = cloned
	c.userIndex = index
	c.mu.Unlock()
}

// RemoveAppointment drops the appointment with id. Unknown ids are ignored.
func (c *RecordCache) RemoveAppointment(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(id)
}

// AddOrReplace inserts appointment, replacing any record with the same ID,
// at the position that keeps the collection ordered by start then ID.
func (c *RecordCache) AddOrReplace(appointment Appointment) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.removeLocked(appointment.ID)
	pos := sort.Search(len(c.appointments), func(i int) bool {
		return appointmentLess(appointment, c.appointments[i])
	})

	updated := make([]Appointment, 0, len(c.appointments)+1)
	updated = append(updated, c.appointments[:pos]...)
	updated = append(updated, appointment)
	updated = append(updated, c.appointments[pos:]...)
	c.appointments = updated
}

// Clear empties every collection.
func (c *RecordCache) Clear() {
	c.mu.Lock()
	c.appointments = nil
	c.customers = nil
	c.users = nil
	c.customerIndex = map[string]int{}
	c.userIndex = map[string]int{}
	c.mu.Unlock()
}

// CurrentAppointments returns a snapshot of the cached appointments.
func (c *RecordCache) CurrentAppointments() []Appointment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneSlice(c.appointments)
}

// CurrentCustomers returns a snapshot of the cached customers.
func (c *RecordCache) CurrentCustomers() []Customer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneSlice(c.customers)
}

// CurrentUsers returns a snapshot of the cached users.
func (c *RecordCache) CurrentUsers() []User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneSlice(c.users)
}

// Appointment returns the cached appointment with id.
func (c *RecordCache) Appointment(id string) (Appointment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, appointment := range c.appointments {
		if appointment.ID == id {
			return appointment, true
		}
	}
	return Appointment{}, false
}

// Customer resolves a customer reference.
func (c *RecordCache) Customer(id string) (Customer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.customerIndex[id]
	if !ok {
		return Customer{}, false
	}
	return c.customers[i], true
}

// User resolves a consultant reference.
func (c *RecordCache) User(id string) (User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.userIndex[id]
	if !ok {
		return User{}, false
	}
	return c.users[i], true
}

func (c *RecordCache) removeLocked(id string) {
	for i, appointment := range c.appointments {
		if appointment.ID == id {
			updated := make([]Appointment, 0, len(c.appointments)-1)
			updated = append(updated, c.appointments[:i]...)
			c.appointments = append(updated, c.appointments[i+1:]...)
			return
		}
	}
}

func appointmentLess(a, b Appointment) bool {
	if !a.Start.Equal(b.Start) {
		return a.Start.Before(b.Start)
	}
	return a.ID < b.ID
}

func cloneSlice[T any](in []T) []T {
	if len(in) == 0 {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
