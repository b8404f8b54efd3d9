package console

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/example/appointment-scheduler/internal/application"
	"github.com/example/appointment-scheduler/internal/calendar"
	"github.com/example/appointment-scheduler/internal/ics"
	"github.com/example/appointment-scheduler/internal/scheduler"
)

func (c *Console) requireSession() (application.User, error) {
	user, ok := c.engine.Session().CurrentUser()
	if !ok {
		return application.User{}, application.ErrUnauthorized
	}
	return user, nil
}

func (c *Console) login(ctx context.Context, args []string) error {
	if c.engine.Session().Active() {
		return application.ErrSessionActive
	}

	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		var err error
		if username, err = c.prompt("Username: "); err != nil {
			return err
		}
	}

	fmt.Fprint(c.out, "Password: ")
	password, err := c.password()
	c.println()
	if err != nil {
		return err
	}

	user, err := c.engine.Login(ctx, username, password)
	if err != nil {
		return err
	}
	c.printf("Welcome, %s.\n", user.Username)
	return c.list()
}

func (c *Console) logout(ctx context.Context) error {
	if err := c.engine.Logout(ctx); err != nil {
		return err
	}
	c.println("Logged out.")
	return nil
}

func (c *Console) whoami() error {
	user, err := c.requireSession()
	if err != nil {
		return err
	}
	c.printf("%s (%s)\n", user.Username, user.ID)
	return nil
}

// month selects a whole month, clearing any week filter.
func (c *Console) month(ctx context.Context, args []string) error {
	if _, err := c.requireSession(); err != nil {
		return err
	}

	target := c.engine.Now()
	if len(args) > 0 {
		parsed, err := parseMonth(args[0], c.engine.Location())
		if err != nil {
			return usageError("month [YYYY-MM]")
		}
		target = parsed
	}

	if err := c.engine.ApplyFilter(ctx, calendar.MonthWindow(target)); err != nil {
		return err
	}
	return c.list()
}

// week filters the selected month by bucket. Without an argument the
// default bucket for the month is used; "off" shows the whole month again.
func (c *Console) week(ctx context.Context, args []string) error {
	if _, err := c.requireSession(); err != nil {
		return err
	}
	current, ok := c.engine.ActiveWindow()
	if !ok {
		return application.ErrUnauthorized
	}

	var window calendar.Window
	switch {
	case len(args) == 0:
		window = calendar.WeekWindow(current.Year, current.Month, calendar.DefaultWeekBucket(current.Year, current.Month, c.engine.Now()))
	case strings.EqualFold(args[0], "off"):
		window = calendar.Window{Year: current.Year, Month: current.Month}
	default:
		bucket, err := strconv.Atoi(args[0])
		if err != nil {
			return usageError("week <1-5|off>")
		}
		window = calendar.WeekWindow(current.Year, current.Month, bucket)
	}

	if err := c.engine.ApplyFilter(ctx, window); err != nil {
		return err
	}
	return c.list()
}

func (c *Console) save(ctx context.Context, id string) error {
	user, err := c.requireSession()
	if err != nil {
		return err
	}
	cache := c.engine.Cache()
	loc := c.engine.Location()

	current := application.Appointment{UserID: user.ID}
	if id != "" {
		existing, ok := cache.Appointment(id)
		if !ok {
			return application.ErrNotFound
		}
		current = existing
	}

	var customerDefault, consultantDefault, dateDefault, startDefault, endDefault string
	if customer, ok := cache.Customer(current.CustomerID); ok {
		customerDefault = customer.Name
	}
	if consultant, ok := cache.User(current.UserID); ok {
		consultantDefault = consultant.Username
	}
	if !current.Start.IsZero() {
		dateDefault = current.Start.In(loc).Format(dateLayout)
		startDefault = current.Start.In(loc).Format(clockLayout)
		endDefault = current.End.In(loc).Format(clockLayout)
	}

	customerInput, err := c.promptDefault("Customer", customerDefault)
	if err != nil {
		return err
	}
	consultantInput, err := c.promptDefault("Consultant", consultantDefault)
	if err != nil {
		return err
	}
	kind, err := c.promptDefault("Type", current.Type)
	if err != nil {
		return err
	}
	dateInput, err := c.promptDefault("Date (YYYY-MM-DD)", dateDefault)
	if err != nil {
		return err
	}
	startInput, err := c.promptDefault("Start (hh:mm AM/PM)", startDefault)
	if err != nil {
		return err
	}
	endInput, err := c.promptDefault("End (hh:mm AM/PM)", endDefault)
	if err != nil {
		return err
	}

	input := application.Appointment{
		ID:         current.ID,
		CustomerID: resolveCustomer(cache, customerInput),
		UserID:     resolveConsultant(cache, consultantInput),
		Type:       kind,
	}

	invalid := map[string]string{}
	day, err := parseDate(dateInput, loc)
	if err != nil {
		invalid["date"] = "expected YYYY-MM-DD"
	} else {
		if input.Start, err = parseClock(day, startInput); err != nil {
			invalid["start"] = "expected hh:mm AM/PM"
		}
		if input.End, err = parseClock(day, endInput); err != nil {
			invalid["end"] = "expected hh:mm AM/PM"
		}
	}
	if len(invalid) > 0 {
		return &application.ValidationError{FieldErrors: invalid}
	}

	saved, warnings, err := c.engine.CreateOrUpdateAppointment(ctx, input)
	if err != nil {
		return err
	}
	c.printf("Saved appointment %s.\n", saved.ID)
	for _, w := range warnings {
		c.println("Warning: " + c.describeConflict(w))
	}
	return nil
}

func (c *Console) describeConflict(w application.ConflictWarning) string {
	cache := c.engine.Cache()
	other, _ := cache.Appointment(w.AppointmentID)
	when := other.Start.In(c.engine.Location()).Format(dateLayout + " " + clockLayout)

	party := w.PartyID
	switch w.Type {
	case string(scheduler.ConflictTypeConsultant):
		if u, ok := cache.User(w.PartyID); ok {
			party = u.Username
		}
	case string(scheduler.ConflictTypeCustomer):
		if cu, ok := cache.Customer(w.PartyID); ok {
			party = cu.Name
		}
	}
	return fmt.Sprintf("%s %s is already booked at %s (appointment %s).", w.Type, party, when, w.AppointmentID)
}

func (c *Console) remove(ctx context.Context, id string) error {
	if _, err := c.requireSession(); err != nil {
		return err
	}

	question := fmt.Sprintf("Delete appointment %s?", id)
	if a, ok := c.engine.Cache().Appointment(id); ok {
		question = fmt.Sprintf("Delete the %s appointment with %s (consultant %s) on %s?",
			a.Type,
			c.customerName(a.CustomerID),
			c.consultantName(a.UserID),
			a.Start.In(c.engine.Location()).Format(dateLayout+" "+clockLayout),
		)
	}

	ok, err := c.confirm(question)
	if err != nil {
		return err
	}
	if !ok {
		c.println("Delete cancelled.")
		return nil
	}

	if err := c.engine.DeleteAppointment(ctx, id); err != nil {
		return err
	}
	c.printf("Deleted appointment %s.\n", id)
	return nil
}

func (c *Console) export(path string) (err error) {
	if _, err := c.requireSession(); err != nil {
		return err
	}

	cache := c.engine.Cache()
	appointments := cache.CurrentAppointments()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if err := ics.Export(f, appointments, cache, c.engine.Now()); err != nil {
		return err
	}
	c.printf("Exported %d appointments to %s.\n", len(appointments), path)
	return nil
}

func (c *Console) refresh(ctx context.Context) error {
	if _, err := c.requireSession(); err != nil {
		return err
	}
	if err := c.engine.Refresh(ctx); err != nil {
		return err
	}
	return c.list()
}

func (c *Console) exit() error {
	ok, err := c.confirm("Exit the scheduler?")
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if c.engine.Session().Active() {
		_ = c.engine.Logout(context.Background())
	}
	c.println("Bye!")
	return errQuit
}

// resolveCustomer accepts a customer ID or an exact (case-insensitive) name.
func resolveCustomer(cache *application.RecordCache, value string) string {
	if _, ok := cache.Customer(value); ok {
		return value
	}
	for _, customer := range cache.CurrentCustomers() {
		if strings.EqualFold(customer.Name, value) {
			return customer.ID
		}
	}
	return value
}

// resolveConsultant accepts a user ID or a username.
func resolveConsultant(cache *application.RecordCache, value string) string {
	if _, ok := cache.User(value); ok {
		return value
	}
	for _, user := range cache.CurrentUsers() {
		if strings.EqualFold(user.Username, value) {
			return user.ID
		}
	}
	return value
}
