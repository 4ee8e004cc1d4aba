package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Client struct {
	bun.BaseModel `bun:"table:clients,alias:c"`

	ID         uuid.UUID `bun:"id,pk,type:uuid"`
	BusinessID string    `bun:"business_id,notnull"`
	FirstName  string    `bun:"first_name,notnull"`
	LastName   string    `bun:"last_name,notnull"`
	Email      string    `bun:"email"`
	Phone      string    `bun:"phone"`
	Notes      string    `bun:"notes"`
	CreatedAt  time.Time `bun:"created_at,notnull"`
	UpdatedAt  time.Time `bun:"updated_at,notnull"`
}

func (c *Client) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	return stampModel(query, &c.ID, &c.CreatedAt, &c.UpdatedAt)
}

// Service is a bookable offering. DurationMinutes is only the default
// length proposed for new appointments.
type Service struct {
	bun.BaseModel `bun:"table:services,alias:s"`

	ID              uuid.UUID `bun:"id,pk,type:uuid"`
	BusinessID      string    `bun:"business_id,notnull"`
	Name            string    `bun:"name,notnull"`
	DurationMinutes int       `bun:"duration_minutes,notnull"`
	PriceCents      *int64    `bun:"price_cents"`
	CreatedAt       time.Time `bun:"created_at,notnull"`
	UpdatedAt       time.Time `bun:"updated_at,notnull"`
}

func (s *Service) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	return stampModel(query, &s.ID, &s.CreatedAt, &s.UpdatedAt)
}
