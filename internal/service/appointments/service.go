package appointments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sanderbeurden/plannerapp-sub000/internal/domain"
	"github.com/sanderbeurden/plannerapp-sub000/internal/events"
	"github.com/sanderbeurden/plannerapp-sub000/internal/service"
	"github.com/sanderbeurden/plannerapp-sub000/internal/store"
)

const tracerName = "github.com/sanderbeurden/plannerapp-sub000/internal/service/appointments"

// Service is the scheduling engine. Every mutation runs its check and its
// write inside one business transaction, so no accepted sequence of calls
// leaves two active appointments overlapping.
type Service struct {
	calendar store.Calendar
	logger   *slog.Logger
	tracer   trace.Tracer
	newID    func() (uuid.UUID, error)
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIDGenerator replaces the recurrence group id source.
func WithIDGenerator(fn func() (uuid.UUID, error)) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

func NewService(calendar store.Calendar, opts ...Option) *Service {
	s := &Service{
		calendar: calendar,
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
		newID:    uuid.NewV7,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "scheduling_engine")
	return s
}

type CreateInput struct {
	ClientID  uuid.UUID
	ServiceID uuid.UUID
	Start     time.Time
	End       time.Time
	// Status defaults to confirmed. Only confirmed and hold are accepted.
	Status string
	Notes  string
}

func (s *Service) CreateSingle(ctx context.Context, businessID string, in CreateInput) (out domain.Appointment, err error) {
	ctx, span := s.start(ctx, "CreateSingle", businessID)
	defer func() { endSpan(span, err) }()

	status, err := validateCreate(businessID, in)
	if err != nil {
		return domain.Appointment{}, err
	}

	appt := domain.Appointment{
		BusinessID: businessID,
		ClientID:   in.ClientID,
		ServiceID:  in.ServiceID,
		StartUTC:   in.Start.UTC(),
		EndUTC:     in.End.UTC(),
		Status:     status,
		Notes:      strings.TrimSpace(in.Notes),
	}

	err = s.calendar.InBusinessTransaction(ctx, businessID, func(ctx context.Context, tx store.CalendarTx) error {
		if err := ensureReferences(ctx, tx, businessID, appt.ClientID, appt.ServiceID); err != nil {
			return err
		}
		if err := ensureFree(ctx, tx, businessID, domain.Candidate{Interval: appt.Interval()}); err != nil {
			return err
		}
		created, err := tx.InsertAppointment(ctx, appt)
		if err != nil {
			return err
		}
		out = created
		return enqueueAppointment(ctx, tx, events.TypeAppointmentCreated, created)
	})
	if err != nil {
		return domain.Appointment{}, classify("create appointment", uuid.Nil, err)
	}
	span.SetAttributes(attribute.String("appointment.id", out.ID.String()))
	return out, nil
}

func (s *Service) Get(ctx context.Context, businessID string, id uuid.UUID) (domain.Appointment, error) {
	if err := requireBusiness(businessID); err != nil {
		return domain.Appointment{}, err
	}
	if id == uuid.Nil {
		return domain.Appointment{}, service.Invalid("id", "is required")
	}
	a, err := s.calendar.GetAppointment(ctx, businessID, id)
	if err != nil {
		return domain.Appointment{}, classify("get appointment", id, err)
	}
	return a, nil
}

// List returns appointments overlapping [from, to) ordered by start, with
// client and service attached.
func (s *Service) List(ctx context.Context, businessID string, from, to time.Time, activeOnly bool) (out []domain.Appointment, err error) {
	ctx, span := s.start(ctx, "List", businessID)
	defer func() { endSpan(span, err) }()

	if err := requireBusiness(businessID); err != nil {
		return nil, err
	}
	v := &service.ValidationError{}
	if from.IsZero() {
		v.Add("from", "is required")
	}
	if to.IsZero() {
		v.Add("to", "is required")
	}
	if !from.IsZero() && !to.IsZero() && !to.After(from) {
		v.Add("to", "must be after from")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	out, err = s.calendar.ListAppointments(ctx, businessID, store.AppointmentFilter{
		From:       from.UTC(),
		To:         to.UTC(),
		ActiveOnly: activeOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return out, nil
}

func ensureReferences(ctx context.Context, tx store.CalendarTx, businessID string, clientID, serviceID uuid.UUID) error {
	if clientID != uuid.Nil {
		ok, err := tx.ClientExists(ctx, businessID, clientID)
		if err != nil {
			return fmt.Errorf("check client: %w", err)
		}
		if !ok {
			return &service.NotFoundError{Resource: "client", ID: clientID}
		}
	}
	if serviceID != uuid.Nil {
		ok, err := tx.ServiceExists(ctx, businessID, serviceID)
		if err != nil {
			return fmt.Errorf("check service: %w", err)
		}
		if !ok {
			return &service.NotFoundError{Resource: "service", ID: serviceID}
		}
	}
	return nil
}

// ensureFree loads the active schedule around the candidate and rejects it
// when anything other than the candidate itself overlaps.
func ensureFree(ctx context.Context, tx store.CalendarTx, businessID string, c domain.Candidate) error {
	existing, err := tx.ListAppointments(ctx, businessID, store.AppointmentFilter{
		From:       c.Start,
		To:         c.End,
		ActiveOnly: true,
	})
	if err != nil {
		return fmt.Errorf("load schedule: %w", err)
	}
	if hit, ok := domain.FindConflict(c, existing); ok {
		return &service.ConflictError{Reason: service.ReasonOverlap, ConflictingID: hit.ID}
	}
	return nil
}

// classify passes typed errors through, turns bare store sentinels raised
// by constraints into typed errors and wraps everything else.
func classify(op string, id uuid.UUID, err error) error {
	var (
		vErr  *service.ValidationError
		nfErr *service.NotFoundError
		cErr  *service.ConflictError
	)
	switch {
	case errors.As(err, &vErr), errors.As(err, &nfErr), errors.As(err, &cErr):
		return err
	case errors.Is(err, store.ErrConflict):
		return &service.ConflictError{Reason: service.ReasonOverlap}
	case errors.Is(err, store.ErrNotFound):
		return &service.NotFoundError{Resource: "appointment", ID: id}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *Service) start(ctx context.Context, op, businessID string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "appointments."+op, trace.WithAttributes(
		attribute.String("business.id", businessID),
	))
}

// endSpan marks only unexpected failures as span errors; rejected input is
// a normal outcome.
func endSpan(span trace.Span, err error) {
	if err != nil {
		kind := service.ErrorKind(err)
		span.SetAttributes(attribute.String("error.kind", kind))
		if kind == "unexpected" {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}
	span.End()
}
