package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"github.com/sanderbeurden/plannerapp-sub000/internal/domain"
	"github.com/sanderbeurden/plannerapp-sub000/internal/store"
)

type CatalogRepo struct {
	db *bun.DB
}

func NewCatalogRepo(db *bun.DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

var _ store.Catalog = (*CatalogRepo)(nil)

func (r *CatalogRepo) CreateClient(ctx context.Context, c domain.Client) (domain.Client, error) {
	if _, err := r.db.NewInsert().Model(&c).Exec(ctx); err != nil {
		return domain.Client{}, err
	}
	return c, nil
}

func (r *CatalogRepo) ListClients(ctx context.Context, businessID string) ([]domain.Client, error) {
	var rows []domain.Client
	err := r.db.NewSelect().
		Model(&rows).
		Where("business_id = ?", businessID).
		OrderExpr("last_name ASC, first_name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CatalogRepo) GetClient(ctx context.Context, businessID string, id uuid.UUID) (domain.Client, error) {
	var c domain.Client
	err := r.db.NewSelect().
		Model(&c).
		Where("business_id = ?", businessID).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Client{}, store.ErrNotFound
	}
	return c, err
}

func (r *CatalogRepo) DeleteClient(ctx context.Context, businessID string, id uuid.UUID) error {
	return r.deleteReferenced(ctx, (*domain.Client)(nil), "client_id", businessID, id)
}

func (r *CatalogRepo) CreateService(ctx context.Context, s domain.Service) (domain.Service, error) {
	if _, err := r.db.NewInsert().Model(&s).Exec(ctx); err != nil {
		return domain.Service{}, err
	}
	return s, nil
}

func (r *CatalogRepo) ListServices(ctx context.Context, businessID string) ([]domain.Service, error) {
	var rows []domain.Service
	err := r.db.NewSelect().
		Model(&rows).
		Where("business_id = ?", businessID).
		OrderExpr("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CatalogRepo) GetService(ctx context.Context, businessID string, id uuid.UUID) (domain.Service, error) {
	var s domain.Service
	err := r.db.NewSelect().
		Model(&s).
		Where("business_id = ?", businessID).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Service{}, store.ErrNotFound
	}
	return s, err
}

func (r *CatalogRepo) DeleteService(ctx context.Context, businessID string, id uuid.UUID) error {
	return r.deleteReferenced(ctx, (*domain.Service)(nil), "service_id", businessID, id)
}

// deleteReferenced removes a catalog row unless an appointment still points
// at it through refColumn.
func (r *CatalogRepo) deleteReferenced(ctx context.Context, model any, refColumn, businessID string, id uuid.UUID) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if isPostgres(tx) {
			if err := lockBusinessCalendar(ctx, tx, businessID); err != nil {
				return err
			}
		}

		inUse, err := tx.NewSelect().
			Model((*domain.Appointment)(nil)).
			Where("a.business_id = ?", businessID).
			Where("a.? = ?", bun.Ident(refColumn), id).
			Exists(ctx)
		if err != nil {
			return err
		}
		if inUse {
			return store.ErrInUse
		}

		res, err := tx.NewDelete().
			Model(model).
			Where("business_id = ?", businessID).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23503" {
				return store.ErrInUse
			}
			return err
		}
		return expectAffected(res)
	})
}
