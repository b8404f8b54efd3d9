package application

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const maxAppointmentTypeLength = 50

var errEndBeforeStart = errors.New("must be after start")

// normalizeAppointment trims free-text fields and truncates times to the
// whole seconds the store keeps.
func normalizeAppointment(a Appointment) Appointment {
	a.ID = strings.TrimSpace(a.ID)
	a.CustomerID = strings.TrimSpace(a.CustomerID)
	a.UserID = strings.TrimSpace(a.UserID)
	a.Type = strings.TrimSpace(a.Type)
	a.Start = a.Start.Truncate(time.Second)
	a.End = a.End.Truncate(time.Second)
	return a
}

// validateAppointmentCore checks the fields of an appointment without
// consulting any collaborator.
func validateAppointmentCore(a Appointment) *ValidationError {
	err := validation.Errors{
		"customer":   validation.Validate(a.CustomerID, validation.Required),
		"consultant": validation.Validate(a.UserID, validation.Required),
		"type": validation.Validate(a.Type,
			validation.Required,
			validation.RuneLength(1, maxAppointmentTypeLength),
		),
		"start": validation.Validate(a.Start, validation.Required),
		"end": validation.Validate(a.End,
			validation.Required,
			validation.By(func(value interface{}) error {
				end, _ := value.(time.Time)
				if a.Start.IsZero() || end.After(a.Start) {
					return nil
				}
				return errEndBeforeStart
			}),
		),
	}.Filter()
	return fromRuleErrors(err)
}

// validateReferences checks that the referenced customer and consultant are
// known to the cache.
func validateReferences(a Appointment, cache *RecordCache) *ValidationError {
	v := &ValidationError{}
	if a.CustomerID != "" {
		if _, ok := cache.Customer(a.CustomerID); !ok {
			v.add("customer", "unknown customer")
		}
	}
	if a.UserID != "" {
		if _, ok := cache.User(a.UserID); !ok {
			v.add("consultant", "unknown consultant")
		}
	}
	if !v.HasErrors() {
		return nil
	}
	return v
}
