package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sanderbeurden/plannerapp-sub000/internal/service"
	"github.com/sanderbeurden/plannerapp-sub000/internal/store"
)

var errNoMembers = errors.New("recurrence group has no members from target")

// Scope is the breadth of an edit or delete across a recurrence group.
type Scope string

const (
	ScopeSingle Scope = "single"
	ScopeFuture Scope = "future"
)

// ParseScope defaults to single.
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case "", ScopeSingle:
		return ScopeSingle, nil
	case ScopeFuture:
		return ScopeFuture, nil
	default:
		return "", service.Invalid("scope", "must be single or future")
	}
}

// DeleteSingle hard-deletes one appointment whether or not it belongs to a
// recurrence group.
func (s *Service) DeleteSingle(ctx context.Context, businessID string, id uuid.UUID) (deleted []uuid.UUID, err error) {
	ctx, span := s.start(ctx, "DeleteSingle", businessID)
	span.SetAttributes(attribute.String("appointment.id", id.String()))
	defer func() { endSpan(span, err) }()

	if err := requireBusiness(businessID); err != nil {
		return nil, err
	}
	if id == uuid.Nil {
		return nil, service.Invalid("id", "is required")
	}

	err = s.calendar.InBusinessTransaction(ctx, businessID, func(ctx context.Context, tx store.CalendarTx) error {
		target, err := tx.GetAppointment(ctx, businessID, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteAppointment(ctx, businessID, id); err != nil {
			return err
		}
		return enqueueDeleted(ctx, tx, businessID, id, target.RecurrenceGroupID)
	})
	if err != nil {
		return nil, classify("delete appointment", id, err)
	}
	return []uuid.UUID{id}, nil
}

// DeleteFuture hard-deletes the target and every member of its recurrence
// group that starts at or after it. Earlier members are untouched.
func (s *Service) DeleteFuture(ctx context.Context, businessID string, id uuid.UUID) (deleted []uuid.UUID, err error) {
	ctx, span := s.start(ctx, "DeleteFuture", businessID)
	span.SetAttributes(attribute.String("appointment.id", id.String()))
	defer func() { endSpan(span, err) }()

	if err := requireBusiness(businessID); err != nil {
		return nil, err
	}
	if id == uuid.Nil {
		return nil, service.Invalid("id", "is required")
	}

	err = s.calendar.InBusinessTransaction(ctx, businessID, func(ctx context.Context, tx store.CalendarTx) error {
		target, err := tx.GetAppointment(ctx, businessID, id)
		if err != nil {
			return err
		}
		if target.RecurrenceGroupID == nil {
			if err := tx.DeleteAppointment(ctx, businessID, id); err != nil {
				return err
			}
			deleted = []uuid.UUID{id}
			return enqueueDeleted(ctx, tx, businessID, id, nil)
		}

		ids, err := tx.DeleteGroupFrom(ctx, businessID, *target.RecurrenceGroupID, target.StartUTC)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return fmt.Errorf("delete future of %s: %w", id, errNoMembers)
		}
		for _, d := range ids {
			if err := enqueueDeleted(ctx, tx, businessID, d, target.RecurrenceGroupID); err != nil {
				return err
			}
		}
		deleted = ids
		return nil
	})
	if err != nil {
		return nil, classify("delete future appointments", id, err)
	}
	span.SetAttributes(attribute.Int("appointments.deleted", len(deleted)))
	return deleted, nil
}

// Delete dispatches on scope.
func (s *Service) Delete(ctx context.Context, businessID string, id uuid.UUID, scope Scope) ([]uuid.UUID, error) {
	if scope == ScopeFuture {
		return s.DeleteFuture(ctx, businessID, id)
	}
	return s.DeleteSingle(ctx, businessID, id)
}
