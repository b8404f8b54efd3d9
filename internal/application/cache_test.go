package application

import (
	"sync"
	"testing"
	"time"
)

func TestRecordCache_LoadAndLookup(t *testing.T) {
	t.Parallel()

	cache := NewRecordCache()
	customers := []Customer{{ID: "c-1", Name: "Acme"}, {ID: "c-2", Name: "Globex"}}
	cache.LoadCustomers(customers)
	cache.LoadUsers([]User{{ID: "u-1", Username: "alice"}})

	customers[0].Name = "mutated"
	if got, ok := cache.Customer("c-1"); !ok || got.Name != "Acme" {
		t.Fatalf("expected cache to hold its own copy, got %#v", got)
	}
	if _, ok := cache.Customer("c-404"); ok {
		t.Fatalf("expected unknown customer lookup to fail")
	}
	if got, ok := cache.User("u-1"); !ok || got.Username != "alice" {
		t.Fatalf("unexpected user %#v", got)
	}

	snapshot := cache.CurrentCustomers()
	snapshot[1].Name = "changed"
	if cache.CurrentCustomers()[1].Name != "Globex" {
		t.Fatalf("expected snapshots to be detached from the cache")
	}

	cache.LoadCustomers([]Customer{{ID: "c-3"}})
	if _, ok := cache.Customer("c-1"); ok {
		t.Fatalf("expected reload to replace the index")
	}
}

func TestRecordCache_AddOrReplace(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	appt := func(id string, offsetHours int) Appointment {
		start := base.Add(time.Duration(offsetHours) * time.Hour)
		return Appointment{ID: id, Start: start, End: start.Add(time.Hour)}
	}

	cache := NewRecordCache()
	cache.LoadAppointments([]Appointment{appt("a", 0), appt("c", 4)})

	cache.AddOrReplace(appt("b", 2))
	if got := appointmentIDs(cache.CurrentAppointments()); !equalIDs(got, "a", "b", "c") {
		t.Fatalf("expected insert in start order, got %v", got)
	}

	cache.AddOrReplace(appt("a", 6))
	if got := appointmentIDs(cache.CurrentAppointments()); !equalIDs(got, "b", "c", "a") {
		t.Fatalf("expected replaced record to move, got %v", got)
	}

	cache.AddOrReplace(appt("0", 2))
	if got := appointmentIDs(cache.CurrentAppointments()); !equalIDs(got, "0", "b", "c", "a") {
		t.Fatalf("expected equal starts ordered by id, got %v", got)
	}

	cache.RemoveAppointment("c")
	cache.RemoveAppointment("missing")
	if got := appointmentIDs(cache.CurrentAppointments()); !equalIDs(got, "0", "b", "a") {
		t.Fatalf("unexpected contents after removal %v", got)
	}
	if _, ok := cache.Appointment("c"); ok {
		t.Fatalf("expected removed appointment lookup to fail")
	}
}

func TestRecordCache_Clear(t *testing.T) {
	t.Parallel()

	cache := NewRecordCache()
	cache.LoadAppointments([]Appointment{{ID: "a"}})
	cache.LoadCustomers([]Customer{{ID: "c"}})
	cache.LoadUsers([]User{{ID: "u"}})

	cache.Clear()
	if len(cache.CurrentAppointments()) != 0 || len(cache.CurrentCustomers()) != 0 || len(cache.CurrentUsers()) != 0 {
		t.Fatalf("expected every collection to be empty")
	}
	if _, ok := cache.User("u"); ok {
		t.Fatalf("expected user index to be cleared")
	}
}

func TestRecordCache_ConcurrentReaders(t *testing.T) {
	t.Parallel()

	cache := NewRecordCache()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cache.LoadAppointments([]Appointment{{ID: "a"}, {ID: "b"}})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if got := len(cache.CurrentAppointments()); got != 0 && got != 2 {
					t.Errorf("observed partial collection of %d records", got)
					return
				}
			}
		}()
	}
	wg.Wait()
}
