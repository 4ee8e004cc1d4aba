package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sanderbeurden/plannerapp-sub000/internal/domain"
)

// AppointmentFilter selects appointments overlapping [From, To).
type AppointmentFilter struct {
	From       time.Time
	To         time.Time
	ActiveOnly bool
}

// Calendar is the appointment store of every business. All mutations go
// through InBusinessTransaction so one business's writes are serialized.
type Calendar interface {
	InBusinessTransaction(ctx context.Context, businessID string, fn func(ctx context.Context, tx CalendarTx) error) error

	ListAppointments(ctx context.Context, businessID string, filter AppointmentFilter) ([]domain.Appointment, error)
	GetAppointment(ctx context.Context, businessID string, id uuid.UUID) (domain.Appointment, error)
}
