package appointments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sanderbeurden/plannerapp-sub000/internal/domain"
	"github.com/sanderbeurden/plannerapp-sub000/internal/events"
	"github.com/sanderbeurden/plannerapp-sub000/internal/service"
	"github.com/sanderbeurden/plannerapp-sub000/internal/store"
)

// Patch lists the fields to change. Nil fields keep their stored value.
type Patch struct {
	ClientID  *uuid.UUID
	ServiceID *uuid.UUID
	Start     *time.Time
	End       *time.Time
	Status    *string
	Notes     *string
}

func (p Patch) empty() bool {
	return p.ClientID == nil && p.ServiceID == nil && p.Start == nil && p.End == nil && p.Status == nil && p.Notes == nil
}

type change struct {
	clientID  *uuid.UUID
	serviceID *uuid.UUID
	start     *time.Time
	end       *time.Time
	status    *domain.Status
	notes     *string
}

func resolvePatch(p Patch) (change, error) {
	v := &service.ValidationError{}
	if p.empty() {
		v.Message = "patch has no fields"
	}
	c := change{clientID: p.ClientID, serviceID: p.ServiceID}
	if p.ClientID != nil && *p.ClientID == uuid.Nil {
		v.Add("clientId", "must not be empty")
	}
	if p.ServiceID != nil && *p.ServiceID == uuid.Nil {
		v.Add("serviceId", "must not be empty")
	}
	if p.Start != nil {
		if p.Start.IsZero() {
			v.Add("startUtc", "must not be empty")
		}
		t := p.Start.UTC()
		c.start = &t
	}
	if p.End != nil {
		if p.End.IsZero() {
			v.Add("endUtc", "must not be empty")
		}
		t := p.End.UTC()
		c.end = &t
	}
	if p.Status != nil {
		st, err := domain.ParseStatus(*p.Status)
		if err != nil {
			v.Add("status", "must be one of confirmed, hold, cancelled")
		} else {
			c.status = &st
		}
	}
	if p.Notes != nil {
		n := strings.TrimSpace(*p.Notes)
		c.notes = &n
	}
	return c, v.Err()
}

func (s *Service) Update(ctx context.Context, businessID string, id uuid.UUID, patch Patch) (out domain.Appointment, err error) {
	ctx, span := s.start(ctx, "Update", businessID)
	span.SetAttributes(attribute.String("appointment.id", id.String()))
	defer func() { endSpan(span, err) }()

	if err := requireBusiness(businessID); err != nil {
		return domain.Appointment{}, err
	}
	if id == uuid.Nil {
		return domain.Appointment{}, service.Invalid("id", "is required")
	}
	c, err := resolvePatch(patch)
	if err != nil {
		return domain.Appointment{}, err
	}
	return s.updateOne(ctx, businessID, id, c)
}

// Reschedule moves an appointment to [start, end).
func (s *Service) Reschedule(ctx context.Context, businessID string, id uuid.UUID, start, end time.Time) (domain.Appointment, error) {
	v := &service.ValidationError{}
	if start.IsZero() {
		v.Add("startUtc", "is required")
	}
	if end.IsZero() {
		v.Add("endUtc", "is required")
	}
	if err := v.Err(); err != nil {
		return domain.Appointment{}, err
	}
	return s.Update(ctx, businessID, id, Patch{Start: &start, End: &end})
}

func (s *Service) ChangeStatus(ctx context.Context, businessID string, id uuid.UUID, status string) (domain.Appointment, error) {
	if strings.TrimSpace(status) == "" {
		return domain.Appointment{}, service.Invalid("status", "is required")
	}
	return s.Update(ctx, businessID, id, Patch{Status: &status})
}

// FutureResult is the outcome for one appointment of a future-scope update.
type FutureResult struct {
	ID          uuid.UUID
	Appointment *domain.Appointment
	Err         error
}

// UpdateFuture applies patch to the target and every later member of its
// recurrence group. Time fields move each member by the same offset the
// patch moves the target. Every member is updated and conflict-checked in
// its own transaction, so one rejection does not undo the others.
func (s *Service) UpdateFuture(ctx context.Context, businessID string, id uuid.UUID, patch Patch) (out []FutureResult, err error) {
	ctx, span := s.start(ctx, "UpdateFuture", businessID)
	span.SetAttributes(attribute.String("appointment.id", id.String()))
	defer func() { endSpan(span, err) }()

	if err := requireBusiness(businessID); err != nil {
		return nil, err
	}
	if id == uuid.Nil {
		return nil, service.Invalid("id", "is required")
	}
	c, err := resolvePatch(patch)
	if err != nil {
		return nil, err
	}

	var members []domain.Appointment
	var target domain.Appointment
	err = s.calendar.InBusinessTransaction(ctx, businessID, func(ctx context.Context, tx store.CalendarTx) error {
		var err error
		target, err = tx.GetAppointment(ctx, businessID, id)
		if err != nil {
			return err
		}
		if target.RecurrenceGroupID == nil {
			members = []domain.Appointment{target}
			return nil
		}
		members, err = tx.ListGroupFrom(ctx, businessID, *target.RecurrenceGroupID, target.StartUTC)
		return err
	})
	if err != nil {
		return nil, classify("load recurrence group", id, err)
	}

	var startShift, endShift time.Duration
	if c.start != nil {
		startShift = c.start.Sub(target.StartUTC)
	}
	if c.end != nil {
		endShift = c.end.Sub(target.EndUTC)
	}

	// Members are updated one by one, so a move later must start from the
	// last member or each one would land on its not yet moved successor.
	shift := startShift
	if c.start == nil {
		shift = endShift
	}
	order := make([]int, len(members))
	for i := range members {
		order[i] = i
		if shift > 0 {
			order[i] = len(members) - 1 - i
		}
	}

	out = make([]FutureResult, len(members))
	for _, i := range order {
		m := members[i]
		mc := c
		if c.start != nil {
			t := m.StartUTC.Add(startShift)
			mc.start = &t
		}
		if c.end != nil {
			t := m.EndUTC.Add(endShift)
			mc.end = &t
		}
		updated, err := s.updateOne(ctx, businessID, m.ID, mc)
		res := FutureResult{ID: m.ID}
		if err != nil {
			res.Err = err
		} else {
			res.Appointment = &updated
		}
		out[i] = res
	}
	span.SetAttributes(attribute.Int("recurrence.members", len(members)))
	return out, nil
}

// updateOne merges c onto the stored appointment and persists it when the
// result is valid and, if it occupies time, free.
func (s *Service) updateOne(ctx context.Context, businessID string, id uuid.UUID, c change) (domain.Appointment, error) {
	var out domain.Appointment
	err := s.calendar.InBusinessTransaction(ctx, businessID, func(ctx context.Context, tx store.CalendarTx) error {
		current, err := tx.GetAppointment(ctx, businessID, id)
		if err != nil {
			return err
		}

		next, err := merge(current, c)
		if err != nil {
			return err
		}

		var newClient, newService uuid.UUID
		if next.ClientID != current.ClientID {
			newClient = next.ClientID
		}
		if next.ServiceID != current.ServiceID {
			newService = next.ServiceID
		}
		if err := ensureReferences(ctx, tx, businessID, newClient, newService); err != nil {
			return err
		}

		moved := !next.StartUTC.Equal(current.StartUTC) || !next.EndUTC.Equal(current.EndUTC)
		activated := next.Active() && !current.Active()
		if next.Active() && (moved || activated) {
			if err := ensureFree(ctx, tx, businessID, domain.Candidate{Interval: next.Interval(), ExcludeID: next.ID}); err != nil {
				return err
			}
		}

		if _, err := tx.UpdateAppointment(ctx, next); err != nil {
			return err
		}
		out, err = tx.GetAppointment(ctx, businessID, id)
		if err != nil {
			return err
		}
		return enqueueAppointment(ctx, tx, events.TypeAppointmentUpdated, out)
	})
	if err != nil {
		return domain.Appointment{}, classify("update appointment", id, err)
	}
	return out, nil
}

func merge(current domain.Appointment, c change) (domain.Appointment, error) {
	next := current
	next.Client = nil
	next.Service = nil

	v := &service.ValidationError{}
	if c.clientID != nil {
		next.ClientID = *c.clientID
	}
	if c.serviceID != nil {
		next.ServiceID = *c.serviceID
	}
	if c.start != nil {
		next.StartUTC = *c.start
	}
	if c.end != nil {
		next.EndUTC = *c.end
	}
	if c.start != nil || c.end != nil {
		checkInterval(v, next.StartUTC, next.EndUTC)
	}
	if c.status != nil {
		if !current.Status.CanTransitionTo(*c.status) {
			v.Add("status", fmt.Sprintf("cannot change a %s appointment to %s", current.Status, *c.status))
		}
		next.Status = *c.status
	}
	if c.notes != nil {
		next.Notes = *c.notes
	}
	if err := v.Err(); err != nil {
		return domain.Appointment{}, err
	}
	return next, nil
}
