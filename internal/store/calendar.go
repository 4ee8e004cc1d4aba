package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sanderbeurden/plannerapp-sub000/internal/domain"
	"github.com/sanderbeurden/plannerapp-sub000/internal/events"
)

type CalendarTx interface {
	GetAppointment(ctx context.Context, businessID string, id uuid.UUID) (domain.Appointment, error)
	ListAppointments(ctx context.Context, businessID string, filter AppointmentFilter) ([]domain.Appointment, error)
	// ListGroupFrom returns the group members starting at or after from,
	// ordered by start.
	ListGroupFrom(ctx context.Context, businessID string, groupID uuid.UUID, from time.Time) ([]domain.Appointment, error)

	InsertAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	UpdateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	DeleteAppointment(ctx context.Context, businessID string, id uuid.UUID) error
	DeleteGroupFrom(ctx context.Context, businessID string, groupID uuid.UUID, from time.Time) ([]uuid.UUID, error)

	ClientExists(ctx context.Context, businessID string, id uuid.UUID) (bool, error)
	ServiceExists(ctx context.Context, businessID string, id uuid.UUID) (bool, error)

	EnqueueEvent(ctx context.Context, evt events.Event) error
}
