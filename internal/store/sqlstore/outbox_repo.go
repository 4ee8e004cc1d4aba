package sqlstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/sanderbeurden/plannerapp-sub000/internal/events"
)

type OutboxRepo struct {
	db *bun.DB
}

func NewOutboxRepo(db *bun.DB) *OutboxRepo {
	return &OutboxRepo{db: db}
}

var _ events.Outbox = (*OutboxRepo)(nil)

func insertOutboxEvent(ctx context.Context, db bun.IDB, evt events.Event) error {
	eventID, err := uuid.NewV7()
	if err != nil {
		return err
	}
	traceparent, tracestate := events.TraceContextStrings(ctx)
	rec := events.Record{
		EventID:       eventID,
		BusinessID:    evt.BusinessID,
		AggregateType: evt.AggregateType,
		AggregateID:   evt.AggregateID,
		EventType:     evt.EventType,
		Payload:       string(evt.Payload),
		Traceparent:   traceparent,
		Tracestate:    tracestate,
		CreatedAt:     time.Now().UTC(),
	}
	_, err = db.NewInsert().Model(&rec).Exec(ctx)
	return err
}

func (r *OutboxRepo) PublishPending(ctx context.Context, limit int, publish func(ctx context.Context, records []events.Record) error) (int, error) {
	var n int
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var records []events.Record
		q := tx.NewSelect().
			Model(&records).
			Where("published_at IS NULL").
			OrderExpr("id ASC").
			Limit(limit)
		if isPostgres(tx) {
			q = q.For("UPDATE SKIP LOCKED")
		}
		if err := q.Scan(ctx); err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}

		if err := publish(ctx, records); err != nil {
			return err
		}

		ids := make([]int64, 0, len(records))
		for _, rec := range records {
			ids = append(ids, rec.ID)
		}
		_, err := tx.NewUpdate().
			Model((*events.Record)(nil)).
			Set("published_at = ?", time.Now().UTC()).
			Where("id IN (?)", bun.In(ids)).
			Exec(ctx)
		if err != nil {
			return err
		}
		n = len(records)
		return nil
	})
	return n, err
}

func (r *OutboxRepo) PrunePublished(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.NewDelete().
		Model((*events.Record)(nil)).
		Where("published_at IS NOT NULL").
		Where("published_at < ?", before.UTC()).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Pending counts unpublished events.
func (r *OutboxRepo) Pending(ctx context.Context) (int, error) {
	return r.db.NewSelect().
		Model((*events.Record)(nil)).
		Where("published_at IS NULL").
		Count(ctx)
}
