package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/sanderbeurden/plannerapp-sub000/internal/domain"
)

// Catalog stores the clients and services appointments refer to. Deletes
// fail with ErrInUse while an appointment still references the row.
type Catalog interface {
	CreateClient(ctx context.Context, c domain.Client) (domain.Client, error)
	ListClients(ctx context.Context, businessID string) ([]domain.Client, error)
	GetClient(ctx context.Context, businessID string, id uuid.UUID) (domain.Client, error)
	DeleteClient(ctx context.Context, businessID string, id uuid.UUID) error

	CreateService(ctx context.Context, s domain.Service) (domain.Service, error)
	ListServices(ctx context.Context, businessID string) ([]domain.Service, error)
	GetService(ctx context.Context, businessID string, id uuid.UUID) (domain.Service, error)
	DeleteService(ctx context.Context, businessID string, id uuid.UUID) error
}
