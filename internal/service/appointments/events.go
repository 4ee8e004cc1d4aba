package appointments

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sanderbeurden/plannerapp-sub000/internal/domain"
	"github.com/sanderbeurden/plannerapp-sub000/internal/events"
	"github.com/sanderbeurden/plannerapp-sub000/internal/store"
)

const aggregateAppointment = "appointment"

type appointmentPayload struct {
	ID                uuid.UUID     `json:"id"`
	ClientID          uuid.UUID     `json:"clientId"`
	ServiceID         uuid.UUID     `json:"serviceId"`
	StartUTC          time.Time     `json:"startUtc"`
	EndUTC            time.Time     `json:"endUtc"`
	Status            domain.Status `json:"status"`
	RecurrenceGroupID *uuid.UUID    `json:"recurrenceGroupId,omitempty"`
}

type seriesPayload struct {
	RecurrenceGroupID uuid.UUID   `json:"recurrenceGroupId"`
	Pattern           string      `json:"pattern"`
	AppointmentIDs    []uuid.UUID `json:"appointmentIds"`
	Skipped           int         `json:"skipped"`
}

type deletedPayload struct {
	ID                uuid.UUID  `json:"id"`
	RecurrenceGroupID *uuid.UUID `json:"recurrenceGroupId,omitempty"`
}

func enqueueAppointment(ctx context.Context, tx store.CalendarTx, eventType string, a domain.Appointment) error {
	evt, err := events.New(a.BusinessID, aggregateAppointment, a.ID.String(), eventType, appointmentPayload{
		ID:                a.ID,
		ClientID:          a.ClientID,
		ServiceID:         a.ServiceID,
		StartUTC:          a.StartUTC.UTC(),
		EndUTC:            a.EndUTC.UTC(),
		Status:            a.Status,
		RecurrenceGroupID: a.RecurrenceGroupID,
	})
	if err != nil {
		return err
	}
	return tx.EnqueueEvent(ctx, evt)
}

func enqueueDeleted(ctx context.Context, tx store.CalendarTx, businessID string, id uuid.UUID, group *uuid.UUID) error {
	evt, err := events.New(businessID, aggregateAppointment, id.String(), events.TypeAppointmentDeleted, deletedPayload{
		ID:                id,
		RecurrenceGroupID: group,
	})
	if err != nil {
		return err
	}
	return tx.EnqueueEvent(ctx, evt)
}

func enqueueSeries(ctx context.Context, tx store.CalendarTx, businessID string, p seriesPayload) error {
	evt, err := events.New(businessID, "series", p.RecurrenceGroupID.String(), events.TypeSeriesCreated, p)
	if err != nil {
		return err
	}
	return tx.EnqueueEvent(ctx, evt)
}
