package domain

import "testing"

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusHold, StatusConfirmed, true},
		{StatusConfirmed, StatusHold, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusHold, StatusCancelled, true},
		{StatusCancelled, StatusCancelled, true},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCancelled, StatusHold, false},
		{StatusConfirmed, statusUnknown, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Fatalf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestStatusScan(t *testing.T) {
	var s Status
	if err := s.Scan("hold"); err != nil || s != StatusHold {
		t.Fatalf("Scan(hold) = %v, %v", s, err)
	}
	if err := s.Scan([]byte("cancelled")); err != nil || s != StatusCancelled {
		t.Fatalf("Scan(cancelled) = %v, %v", s, err)
	}
	if err := s.Scan("pending"); err == nil {
		t.Fatalf("expected error for unknown stored status")
	}
	if err := s.Scan(nil); err == nil {
		t.Fatalf("expected error for null status")
	}
}

func TestStatusValue(t *testing.T) {
	v, err := StatusConfirmed.Value()
	if err != nil || v != "confirmed" {
		t.Fatalf("Value = %v, %v", v, err)
	}
	if _, err := statusUnknown.Value(); err == nil {
		t.Fatalf("expected error for zero status")
	}
}
