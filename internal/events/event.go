package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	TypeAppointmentCreated = "appointment.created"
	TypeAppointmentUpdated = "appointment.updated"
	TypeAppointmentDeleted = "appointment.deleted"
	TypeSeriesCreated      = "series.created"
)

// Event is the domain event envelope written to the outbox table in the
// same transaction as the change it describes.
type Event struct {
	BusinessID    string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// New marshals payload into an Event.
func New(businessID, aggregateType, aggregateID, eventType string, payload any) (Event, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		BusinessID:    businessID,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       b,
	}, nil
}

// Record is a stored outbox row.
type Record struct {
	bun.BaseModel `bun:"table:outbox_events,alias:o"`

	ID            int64      `bun:"id,pk,autoincrement"`
	EventID       uuid.UUID  `bun:"event_id,notnull,type:uuid"`
	BusinessID    string     `bun:"business_id,notnull"`
	AggregateType string     `bun:"aggregate_type,notnull"`
	AggregateID   string     `bun:"aggregate_id,notnull"`
	EventType     string     `bun:"event_type,notnull"`
	Payload       string     `bun:"payload,notnull"`
	Traceparent   string     `bun:"traceparent,notnull"`
	Tracestate    string     `bun:"tracestate,notnull"`
	CreatedAt     time.Time  `bun:"created_at,notnull"`
	PublishedAt   *time.Time `bun:"published_at"`
}
