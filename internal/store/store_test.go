package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/appointment-scheduler/internal/application"
	"github.com/example/appointment-scheduler/internal/persistence"
	"github.com/example/appointment-scheduler/internal/testfixtures"
)

func newTestStore(t *testing.T) (*Store, *testfixtures.SQLiteHarness) {
	t.Helper()
	harness := testfixtures.NewSQLiteHarness(t)
	s := New(harness.Users, harness.Customers, harness.Appointments, nil, nil)
	s.newID = testfixtures.NewIDGenerator("rec").NextFunc()
	return s, harness
}

func TestStore_Credentials(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, _ := newTestStore(t)

	created, err := s.AddUser(ctx, " Alice ", "s3cret", testfixtures.FastHashParams)
	if err != nil {
		t.Fatalf("AddUser failed: %v", err)
	}
	if created.ID != "rec-1" || created.Username != "alice" {
		t.Fatalf("unexpected user %#v", created)
	}

	if user, ok, err := s.FindUser(ctx, "ALICE", "s3cret"); err != nil || !ok || user.ID != "rec-1" {
		t.Fatalf("expected match, got user=%#v ok=%v err=%v", user, ok, err)
	}
	if _, ok, err := s.FindUser(ctx, "alice", "wrong"); err != nil || ok {
		t.Fatalf("expected rejection, got ok=%v err=%v", ok, err)
	}
	if _, ok, err := s.FindUser(ctx, "nobody", "s3cret"); err != nil || ok {
		t.Fatalf("expected rejection for unknown user, got ok=%v err=%v", ok, err)
	}

	if _, err := s.GetUserCredentials(ctx, "nobody"); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected application.ErrNotFound, got %v", err)
	}

	if _, err := s.AddUser(ctx, "alice", "again", testfixtures.FastHashParams); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected duplicate error, got %v", err)
	}

	var vErr *application.ValidationError
	if _, err := s.AddUser(ctx, "", "", testfixtures.FastHashParams); !errors.As(err, &vErr) || len(vErr.FieldErrors) != 2 {
		t.Fatalf("expected two field errors, got %v", err)
	}
}

func TestStore_Appointments(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, harness := newTestStore(t)

	user := testfixtures.NewUserFixture()
	customer := testfixtures.NewCustomerFixture()
	harness.Seed(t, []testfixtures.UserFixture{user}, []testfixtures.CustomerFixture{customer}, nil)

	loc := time.FixedZone("EST", -5*60*60)
	start := time.Date(2024, time.March, 31, 22, 30, 0, 0, loc) // 2024-04-01 03:30 UTC
	appt := application.Appointment{ID: "a-1", CustomerID: customer.ID, UserID: user.ID, Type: "intro", Start: start, End: start.Add(time.Hour)}
	if err := s.UpsertAppointment(ctx, appt); err != nil {
		t.Fatalf("UpsertAppointment failed: %v", err)
	}

	march := application.AppointmentRange{
		From: time.Date(2024, time.March, 1, 0, 0, 0, 0, loc),
		To:   time.Date(2024, time.April, 1, 0, 0, 0, 0, loc),
	}
	got, err := s.FindAppointments(ctx, march)
	if err != nil {
		t.Fatalf("FindAppointments failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a-1" || !got[0].Start.Equal(start) {
		t.Fatalf("expected appointment in the local month, got %#v", got)
	}

	users, err := s.FindAllUsers(ctx)
	if err != nil || len(users) != 1 || users[0].ID != user.ID {
		t.Fatalf("unexpected users %#v err=%v", users, err)
	}
	customers, err := s.FindAllCustomers(ctx)
	if err != nil || len(customers) != 1 || customers[0].Name != customer.Name {
		t.Fatalf("unexpected customers %#v err=%v", customers, err)
	}

	if err := s.DeleteAppointment(ctx, "a-1"); err != nil {
		t.Fatalf("DeleteAppointment failed: %v", err)
	}
	if err := s.DeleteAppointment(ctx, "a-1"); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected application.ErrNotFound, got %v", err)
	}
}

func TestStore_UpdateAppointment(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, harness := newTestStore(t)

	user := testfixtures.NewUserFixture()
	customer := testfixtures.NewCustomerFixture()
	appt := testfixtures.NewAppointmentFixture(testfixtures.WithAppointmentParties(customer.ID, user.ID))
	harness.Seed(t, []testfixtures.UserFixture{user}, []testfixtures.CustomerFixture{customer}, []testfixtures.AppointmentFixture{appt})

	moved := appt.Application()
	moved.Type = "follow-up"
	moved.Start = moved.Start.Add(24 * time.Hour)
	moved.End = moved.End.Add(24 * time.Hour)
	if err := s.UpdateAppointment(ctx, moved); err != nil {
		t.Fatalf("UpdateAppointment failed: %v", err)
	}
	stored, err := harness.Appointments.GetAppointment(ctx, appt.ID)
	if err != nil || stored.Type != "follow-up" || !stored.Start.Equal(moved.Start) {
		t.Fatalf("expected rewritten record, got %#v err=%v", stored, err)
	}

	ghost := moved
	ghost.ID = "a-404"
	if err := s.UpdateAppointment(ctx, ghost); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected application.ErrNotFound, got %v", err)
	}
	if _, err := harness.Appointments.GetAppointment(ctx, "a-404"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("update must not insert, got %v", err)
	}
}

func TestStore_EngineSaves(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, harness := newTestStore(t)
	if _, err := s.AddUser(ctx, "alice", "s3cret", testfixtures.FastHashParams); err != nil {
		t.Fatalf("AddUser failed: %v", err)
	}
	customer := testfixtures.NewCustomerFixture()
	harness.Seed(t, nil, []testfixtures.CustomerFixture{customer}, nil)

	clock := testfixtures.NewClock(time.Date(2024, time.March, 14, 10, 0, 0, 0, time.UTC))
	factory := testfixtures.NewServiceFactory(testfixtures.WithClock(clock))
	engine := factory.NewEngine(testfixtures.EngineDeps{Store: s})
	if _, err := engine.Login(ctx, "alice", "s3cret"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	t.Run("cached times match the stored precision", func(t *testing.T) {
		saved, _, err := engine.CreateOrUpdateAppointment(ctx, application.Appointment{
			CustomerID: customer.ID, UserID: "rec-1", Type: "intro",
			Start: clock.Slot(time.March, 20, 9).Add(500 * time.Millisecond),
			End:   clock.Slot(time.March, 20, 10),
		})
		if err != nil {
			t.Fatalf("CreateOrUpdateAppointment failed: %v", err)
		}
		cached, ok := engine.Cache().Appointment(saved.ID)
		if !ok {
			t.Fatal("expected the saved appointment in the cache")
		}

		requeried, err := s.FindAppointments(ctx, application.AppointmentRange{From: cached.Start, To: cached.End})
		if err != nil || len(requeried) != 1 {
			t.Fatalf("expected one stored appointment, got %#v err=%v", requeried, err)
		}
		if !requeried[0].Start.Equal(cached.Start) || !requeried[0].End.Equal(cached.End) {
			t.Fatalf("cached %v - %v, stored %v - %v", cached.Start, cached.End, requeried[0].Start, requeried[0].End)
		}
	})

	t.Run("editing a deleted appointment reports not found", func(t *testing.T) {
		saved, _, err := engine.CreateOrUpdateAppointment(ctx, application.Appointment{
			CustomerID: customer.ID, UserID: "rec-1", Type: "review",
			Start: clock.Slot(time.March, 21, 9), End: clock.Slot(time.March, 21, 10),
		})
		if err != nil {
			t.Fatalf("CreateOrUpdateAppointment failed: %v", err)
		}
		if err := harness.Appointments.DeleteAppointment(ctx, saved.ID); err != nil {
			t.Fatalf("DeleteAppointment failed: %v", err)
		}

		saved.Type = "rescheduled"
		if _, _, err := engine.CreateOrUpdateAppointment(ctx, saved); !errors.Is(err, application.ErrNotFound) {
			t.Fatalf("expected application.ErrNotFound, got %v", err)
		}
		if _, err := harness.Appointments.GetAppointment(ctx, saved.ID); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("appointment must stay deleted, got %v", err)
		}
	})
}

func TestStore_AddCustomer(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, _ := newTestStore(t)

	created, err := s.AddCustomer(ctx, application.Customer{Name: "Acme", Phone: "555-0100"})
	if err != nil {
		t.Fatalf("AddCustomer failed: %v", err)
	}
	if created.ID != "rec-1" {
		t.Fatalf("expected generated id, got %q", created.ID)
	}

	var vErr *application.ValidationError
	if _, err := s.AddCustomer(ctx, application.Customer{Name: " "}); !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMapStoreError(t *testing.T) {
	t.Parallel()

	if mapStoreError(nil) != nil {
		t.Fatalf("expected nil")
	}
	if !errors.Is(mapStoreError(persistence.ErrNotFound), application.ErrNotFound) {
		t.Fatalf("expected not found mapping")
	}
	boom := errors.New("boom")
	if !errors.Is(mapStoreError(boom), boom) {
		t.Fatalf("expected passthrough")
	}
}
