// Package scheduler detects double bookings between appointments.
package scheduler

import (
	"sort"
	"time"
)

// Booking is the slice of an appointment relevant to conflict detection.
type Booking struct {
	ID           string
	ConsultantID string
	CustomerID   string
	Start        time.Time
	End          time.Time
}

// ConflictType describes the type of conflict detected between bookings.
type ConflictType string

const (
	// ConflictTypeConsultant indicates a consultant is double-booked.
	ConflictTypeConsultant ConflictType = "consultant"
	// ConflictTypeCustomer indicates a customer is double-booked.
	ConflictTypeCustomer ConflictType = "customer"
)

// Conflict details an overlapping booking that callers can present to users.
type Conflict struct {
	WithID string
	Type   ConflictType
	// PartyID is the consultant or customer booked twice.
	PartyID string
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) share any instant.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// DetectConflicts identifies conflicts for the candidate against existing
// bookings. A booking never conflicts with itself. Results are ordered by the
// start of the conflicting booking, then by ID and type.
func DetectConflicts(existing []Booking, candidate Booking) []Conflict {
	type hit struct {
		start    time.Time
		conflict Conflict
	}
	var hits []hit

	for _, other := range existing {
		if other.ID == candidate.ID {
			continue
		}
		if !Overlaps(candidate.Start, candidate.End, other.Start, other.End) {
			continue
		}
		if candidate.ConsultantID != "" && other.ConsultantID == candidate.ConsultantID {
			hits = append(hits, hit{other.Start, Conflict{WithID: other.ID, Type: ConflictTypeConsultant, PartyID: other.ConsultantID}})
		}
		if candidate.CustomerID != "" && other.CustomerID == candidate.CustomerID {
			hits = append(hits, hit{other.Start, Conflict{WithID: other.ID, Type: ConflictTypeCustomer, PartyID: other.CustomerID}})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if !hits[i].start.Equal(hits[j].start) {
			return hits[i].start.Before(hits[j].start)
		}
		if hits[i].conflict.WithID != hits[j].conflict.WithID {
			return hits[i].conflict.WithID < hits[j].conflict.WithID
		}
		return hits[i].conflict.Type < hits[j].conflict.Type
	})

	if len(hits) == 0 {
		return nil
	}
	conflicts := make([]Conflict, len(hits))
	for i, h := range hits {
		conflicts[i] = h.conflict
	}
	return conflicts
}
