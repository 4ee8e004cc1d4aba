// Package service holds the error vocabulary shared by the planner's
// application services. Transports map these types to status codes.
package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sanderbeurden/plannerapp-sub000/internal/store"
)

// ValidationError reports malformed input. It is returned before any store
// access. Fields maps request field names to messages.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

// Add records a field level issue. The first issue per field wins.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; ok {
		return
	}
	e.Fields[field] = message
}

func (e *ValidationError) HasErrors() bool {
	return e != nil && (e.Message != "" || len(e.Fields) > 0)
}

// Err returns e when it holds issues and nil otherwise.
func (e *ValidationError) Err() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

// Invalid builds a single-field ValidationError.
func Invalid(field, message string) error {
	v := &ValidationError{}
	v.Add(field, message)
	return v
}

type NotFoundError struct {
	Resource string
	ID       uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return store.ErrNotFound
}

const (
	ReasonOverlap      = "overlap"
	ReasonClientInUse  = "client_in_use"
	ReasonServiceInUse = "service_in_use"
)

// ConflictError rejects a write that would break the no-overlap rule or
// delete a row that is still referenced.
type ConflictError struct {
	Reason          string
	ConflictingID   uuid.UUID
	OccurrenceStart *time.Time
}

func (e *ConflictError) Error() string {
	switch e.Reason {
	case ReasonClientInUse:
		return "client is referenced by appointments"
	case ReasonServiceInUse:
		return "service is referenced by appointments"
	}
	msg := "appointment overlaps an existing appointment"
	if e.OccurrenceStart != nil {
		msg = fmt.Sprintf("occurrence starting %s overlaps an existing appointment", e.OccurrenceStart.UTC().Format(time.RFC3339))
	}
	if e.ConflictingID != uuid.Nil {
		msg += " (" + e.ConflictingID.String() + ")"
	}
	return msg
}

func (e *ConflictError) Unwrap() error {
	return store.ErrConflict
}

// ErrorKind maps errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	case errors.Is(err, store.ErrConflict), errors.Is(err, store.ErrInUse):
		return "conflict"
	}
	return "unexpected"
}
