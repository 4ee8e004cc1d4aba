package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/sanderbeurden/plannerapp-sub000/internal/domain"
)

const testBusiness = "biz-1"

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	db, err := Open("sqlite::memory:", PoolConfig{})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() {
		_ = Close(db)
	})
	if err := Migrate(context.Background(), db, nil); err != nil {
		t.Fatalf("Migrate error: %v", err)
	}
	return db
}

func seedCatalog(t *testing.T, db *bun.DB, businessID string) (domain.Client, domain.Service) {
	t.Helper()
	ctx := context.Background()
	repo := NewCatalogRepo(db)

	c, err := repo.CreateClient(ctx, domain.Client{BusinessID: businessID, FirstName: "Ada", LastName: "Lovelace"})
	if err != nil {
		t.Fatalf("CreateClient error: %v", err)
	}
	s, err := repo.CreateService(ctx, domain.Service{BusinessID: businessID, Name: "Haircut", DurationMinutes: 30})
	if err != nil {
		t.Fatalf("CreateService error: %v", err)
	}
	return c, s
}

func slot(day, hour, minute int) time.Time {
	return time.Date(2026, 1, day, hour, minute, 0, 0, time.UTC)
}

func newAppointment(c domain.Client, s domain.Service, start, end time.Time, status domain.Status, group *uuid.UUID) domain.Appointment {
	return domain.Appointment{
		BusinessID:        c.BusinessID,
		ClientID:          c.ID,
		ServiceID:         s.ID,
		StartUTC:          start,
		EndUTC:            end,
		Status:            status,
		RecurrenceGroupID: group,
	}
}
