// Package ics renders cached appointments as an iCalendar feed.
package ics

import (
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/example/appointment-scheduler/internal/application"
)

// ProductID identifies the exporting application in PRODID.
const ProductID = "-//appointment-scheduler//EN"

// Directory resolves the parties of an appointment. *application.RecordCache
// satisfies it.
type Directory interface {
	Customer(id string) (application.Customer, bool)
	User(id string) (application.User, bool)
}

// UID returns the iCalendar UID for an appointment id.
func UID(appointmentID string) string {
	return appointmentID + "@appointment-scheduler"
}

// Build converts appointments into a PUBLISH calendar stamped with now.
func Build(appointments []application.Appointment, dir Directory, now time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)

	for _, a := range appointments {
		customer, _ := dir.Customer(a.CustomerID)
		consultant, _ := dir.User(a.UserID)

		event := cal.AddEvent(UID(a.ID))
		event.SetDtStampTime(now.UTC())
		event.SetStartAt(a.Start.UTC())
		event.SetEndAt(a.End.UTC())
		event.SetSummary(summary(a, customer))
		if consultant.Username != "" {
			event.SetDescription("Consultant: " + consultant.Username)
		}
		if line := customer.AddressLine(); line != "" {
			event.SetLocation(line)
		}
	}
	return cal
}

// Export writes the calendar for appointments to w.
func Export(w io.Writer, appointments []application.Appointment, dir Directory, now time.Time) error {
	if _, err := io.WriteString(w, Build(appointments, dir, now).Serialize()); err != nil {
		return fmt.Errorf("ics: write calendar: %w", err)
	}
	return nil
}

func summary(a application.Appointment, customer application.Customer) string {
	if customer.Name == "" {
		return a.Type
	}
	return a.Type + ": " + customer.Name
}
