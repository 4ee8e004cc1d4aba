package domain

import "github.com/google/uuid"

// Candidate is an interval that wants to become (or stay) active.
// ExcludeID names the appointment being moved so it never conflicts with
// itself.
type Candidate struct {
	Interval
	ExcludeID uuid.UUID
}

// FindConflict returns the first active appointment in existing that
// overlaps the candidate.
func FindConflict(c Candidate, existing []Appointment) (Appointment, bool) {
	for _, a := range existing {
		if !a.Active() {
			continue
		}
		if c.ExcludeID != uuid.Nil && a.ID == c.ExcludeID {
			continue
		}
		if Overlaps(c.Interval, a.Interval()) {
			return a, true
		}
	}
	return Appointment{}, false
}

func HasConflict(c Candidate, existing []Appointment) bool {
	_, ok := FindConflict(c, existing)
	return ok
}
