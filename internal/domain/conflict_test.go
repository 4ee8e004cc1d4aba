package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func appt(id string, start, end time.Time, status Status) Appointment {
	return Appointment{
		ID:       uuid.MustParse(id),
		StartUTC: start,
		EndUTC:   end,
		Status:   status,
	}
}

func TestHasConflict(t *testing.T) {
	existing := []Appointment{
		appt("00000000-0000-0000-0000-000000000001", at(9, 0), at(10, 0), StatusConfirmed),
	}

	if HasConflict(Candidate{Interval: Interval{Start: at(10, 0), End: at(11, 0)}}, existing) {
		t.Fatalf("touching interval must not conflict")
	}
	if !HasConflict(Candidate{Interval: Interval{Start: at(9, 30), End: at(10, 30)}}, existing) {
		t.Fatalf("overlapping interval must conflict")
	}
}

func TestHasConflict_IgnoresCancelled(t *testing.T) {
	existing := []Appointment{
		appt("00000000-0000-0000-0000-000000000001", at(9, 0), at(10, 0), StatusCancelled),
	}
	if HasConflict(Candidate{Interval: Interval{Start: at(9, 0), End: at(10, 0)}}, existing) {
		t.Fatalf("cancelled appointment must not block")
	}
}

func TestHasConflict_HoldBlocks(t *testing.T) {
	existing := []Appointment{
		appt("00000000-0000-0000-0000-000000000001", at(9, 0), at(10, 0), StatusHold),
	}
	if !HasConflict(Candidate{Interval: Interval{Start: at(9, 0), End: at(10, 0)}}, existing) {
		t.Fatalf("hold appointment must block")
	}
}

func TestFindConflict_ExcludesSelf(t *testing.T) {
	self := appt("00000000-0000-0000-0000-000000000001", at(9, 0), at(10, 0), StatusConfirmed)
	other := appt("00000000-0000-0000-0000-000000000002", at(11, 0), at(12, 0), StatusConfirmed)

	c := Candidate{Interval: Interval{Start: at(9, 5), End: at(10, 5)}, ExcludeID: self.ID}
	if _, ok := FindConflict(c, []Appointment{self, other}); ok {
		t.Fatalf("self must be excluded")
	}

	c = Candidate{Interval: Interval{Start: at(10, 30), End: at(11, 30)}, ExcludeID: self.ID}
	got, ok := FindConflict(c, []Appointment{self, other})
	if !ok {
		t.Fatalf("expected conflict with other")
	}
	if got.ID != other.ID {
		t.Fatalf("conflicting id = %s, want %s", got.ID, other.ID)
	}
}
