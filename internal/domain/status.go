package domain

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Status is the closed set of appointment states. The zero value is not a
// valid status; values only enter the program through ParseStatus.
type Status uint8

const (
	statusUnknown Status = iota
	StatusConfirmed
	StatusHold
	StatusCancelled
)

var statusNames = map[Status]string{
	StatusConfirmed: "confirmed",
	StatusHold:      "hold",
	StatusCancelled: "cancelled",
}

func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "confirmed":
		return StatusConfirmed, nil
	case "hold":
		return StatusHold, nil
	case "cancelled":
		return StatusCancelled, nil
	default:
		return statusUnknown, fmt.Errorf("invalid status %q", s)
	}
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// Active reports whether appointments in this state take part in overlap checks.
func (s Status) Active() bool {
	return s == StatusConfirmed || s == StatusHold
}

// CanTransitionTo encodes hold <-> confirmed -> cancelled. Cancellation is
// terminal; staying in the same state is always allowed.
func (s Status) CanTransitionTo(next Status) bool {
	if !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	return s.Active()
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid status %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	v, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s Status) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid status %d", uint8(s))
	}
	return s.String(), nil
}

// Scan parses the stored text form. An unknown stored value is an error so a
// bad row never surfaces as a half-valid appointment.
func (s *Status) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return s.UnmarshalText([]byte(v))
	case []byte:
		return s.UnmarshalText(v)
	case nil:
		return fmt.Errorf("status is null")
	default:
		return fmt.Errorf("unsupported status type %T", src)
	}
}
