package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Appointment struct {
	bun.BaseModel `bun:"table:appointments,alias:a"`

	ID                uuid.UUID  `bun:"id,pk,type:uuid"`
	BusinessID        string     `bun:"business_id,notnull"`
	ClientID          uuid.UUID  `bun:"client_id,notnull,type:uuid"`
	ServiceID         uuid.UUID  `bun:"service_id,notnull,type:uuid"`
	StartUTC          time.Time  `bun:"start_utc,notnull"`
	EndUTC            time.Time  `bun:"end_utc,notnull"`
	Status            Status     `bun:"status,notnull"`
	Notes             string     `bun:"notes"`
	RecurrenceGroupID *uuid.UUID `bun:"recurrence_group_id,type:uuid"`
	CreatedAt         time.Time  `bun:"created_at,notnull"`
	UpdatedAt         time.Time  `bun:"updated_at,notnull"`

	Client  *Client  `bun:"rel:belongs-to,join:client_id=id"`
	Service *Service `bun:"rel:belongs-to,join:service_id=id"`
}

// Active reports whether the appointment occupies its slot.
func (a Appointment) Active() bool {
	return a.Status.Active()
}

func (a Appointment) Interval() Interval {
	return Interval{Start: a.StartUTC, End: a.EndUTC}
}

// InGroup reports whether a belongs to the recurrence group id.
func (a Appointment) InGroup(id uuid.UUID) bool {
	return a.RecurrenceGroupID != nil && *a.RecurrenceGroupID == id
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	return stampModel(query, &a.ID, &a.CreatedAt, &a.UpdatedAt)
}

// stampModel fills the primary key and audit timestamps the way every
// planner table expects them: uuid v7 ids and UTC times.
func stampModel(query bun.Query, id *uuid.UUID, createdAt, updatedAt *time.Time) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if *id == uuid.Nil {
			v, err := uuid.NewV7()
			if err != nil {
				return err
			}
			*id = v
		}
		if createdAt.IsZero() {
			*createdAt = now
		}
		if updatedAt.IsZero() {
			*updatedAt = now
		}
	case *bun.UpdateQuery:
		*updatedAt = now
	}
	return nil
}
