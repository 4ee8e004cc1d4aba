package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"github.com/sanderbeurden/plannerapp-sub000/internal/domain"
	"github.com/sanderbeurden/plannerapp-sub000/internal/events"
	"github.com/sanderbeurden/plannerapp-sub000/internal/store"
)

const overlapConstraint = "appointments_no_overlap"

type CalendarRepo struct {
	db *bun.DB
}

func NewCalendarRepo(db *bun.DB) *CalendarRepo {
	return &CalendarRepo{db: db}
}

var _ store.Calendar = (*CalendarRepo)(nil)

type calendarTx struct {
	tx bun.Tx
}

var _ store.CalendarTx = calendarTx{}

// InBusinessTransaction runs fn in a transaction that holds the business's
// advisory lock on postgres. On sqlite the single pooled connection already
// serializes transactions.
func (r *CalendarRepo) InBusinessTransaction(ctx context.Context, businessID string, fn func(ctx context.Context, tx store.CalendarTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if isPostgres(tx) {
			if err := lockBusinessCalendar(ctx, tx, businessID); err != nil {
				return err
			}
		}
		return fn(ctx, calendarTx{tx: tx})
	})
}

func lockBusinessCalendar(ctx context.Context, tx bun.Tx, businessID string) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", businessID).Exec(ctx)
	return err
}

func (r *CalendarRepo) ListAppointments(ctx context.Context, businessID string, filter store.AppointmentFilter) ([]domain.Appointment, error) {
	return listAppointments(ctx, r.db, businessID, filter)
}

func (r *CalendarRepo) GetAppointment(ctx context.Context, businessID string, id uuid.UUID) (domain.Appointment, error) {
	return getAppointment(ctx, r.db, businessID, id)
}

func listAppointments(ctx context.Context, db bun.IDB, businessID string, filter store.AppointmentFilter) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	q := db.NewSelect().
		Model(&rows).
		Relation("Client").
		Relation("Service").
		Where("a.business_id = ?", businessID).
		Where("a.start_utc < ?", filter.To.UTC()).
		Where("a.end_utc > ?", filter.From.UTC())
	if filter.ActiveOnly {
		q = q.Where("a.status <> ?", domain.StatusCancelled)
	}
	if err := q.OrderExpr("a.start_utc ASC").Scan(ctx); err != nil {
		return nil, err
	}
	return rows, nil
}

func getAppointment(ctx context.Context, db bun.IDB, businessID string, id uuid.UUID) (domain.Appointment, error) {
	var a domain.Appointment
	err := db.NewSelect().
		Model(&a).
		Relation("Client").
		Relation("Service").
		Where("a.business_id = ?", businessID).
		Where("a.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Appointment{}, store.ErrNotFound
		}
		return domain.Appointment{}, err
	}
	return a, nil
}

func (r calendarTx) GetAppointment(ctx context.Context, businessID string, id uuid.UUID) (domain.Appointment, error) {
	return getAppointment(ctx, r.tx, businessID, id)
}

func (r calendarTx) ListAppointments(ctx context.Context, businessID string, filter store.AppointmentFilter) ([]domain.Appointment, error) {
	return listAppointments(ctx, r.tx, businessID, filter)
}

func (r calendarTx) ListGroupFrom(ctx context.Context, businessID string, groupID uuid.UUID, from time.Time) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	err := r.tx.NewSelect().
		Model(&rows).
		Where("a.business_id = ?", businessID).
		Where("a.recurrence_group_id = ?", groupID).
		Where("a.start_utc >= ?", from.UTC()).
		OrderExpr("a.start_utc ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r calendarTx) InsertAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m := appointmentRow(appt)
	if _, err := r.tx.NewInsert().Model(&m).Exec(ctx); err != nil {
		return domain.Appointment{}, mapWriteError(err)
	}
	return m, nil
}

func (r calendarTx) UpdateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m := appointmentRow(appt)
	res, err := r.tx.NewUpdate().
		Model(&m).
		Column("client_id", "service_id", "start_utc", "end_utc", "status", "notes", "updated_at").
		Where("id = ?", m.ID).
		Where("business_id = ?", m.BusinessID).
		Exec(ctx)
	if err != nil {
		return domain.Appointment{}, mapWriteError(err)
	}
	if err := expectAffected(res); err != nil {
		return domain.Appointment{}, err
	}
	return m, nil
}

func (r calendarTx) DeleteAppointment(ctx context.Context, businessID string, id uuid.UUID) error {
	res, err := r.tx.NewDelete().
		Model((*domain.Appointment)(nil)).
		Where("business_id = ?", businessID).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r calendarTx) DeleteGroupFrom(ctx context.Context, businessID string, groupID uuid.UUID, from time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.tx.NewSelect().
		Model((*domain.Appointment)(nil)).
		ColumnExpr("a.id").
		Where("a.business_id = ?", businessID).
		Where("a.recurrence_group_id = ?", groupID).
		Where("a.start_utc >= ?", from.UTC()).
		OrderExpr("a.start_utc ASC").
		Scan(ctx, &ids)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	_, err = r.tx.NewDelete().
		Model((*domain.Appointment)(nil)).
		Where("business_id = ?", businessID).
		Where("id IN (?)", bun.In(ids)).
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r calendarTx) ClientExists(ctx context.Context, businessID string, id uuid.UUID) (bool, error) {
	return r.tx.NewSelect().
		Model((*domain.Client)(nil)).
		Where("c.business_id = ?", businessID).
		Where("c.id = ?", id).
		Exists(ctx)
}

func (r calendarTx) ServiceExists(ctx context.Context, businessID string, id uuid.UUID) (bool, error) {
	return r.tx.NewSelect().
		Model((*domain.Service)(nil)).
		Where("s.business_id = ?", businessID).
		Where("s.id = ?", id).
		Exists(ctx)
}

func (r calendarTx) EnqueueEvent(ctx context.Context, evt events.Event) error {
	return insertOutboxEvent(ctx, r.tx, evt)
}

// appointmentRow strips the joined relations so writes only touch the
// appointments table.
func appointmentRow(appt domain.Appointment) domain.Appointment {
	appt.Client = nil
	appt.Service = nil
	appt.StartUTC = appt.StartUTC.UTC()
	appt.EndUTC = appt.EndUTC.UTC()
	return appt
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23P01" && pgErr.ConstraintName == overlapConstraint:
			return store.ErrConflict
		case pgErr.Code == "23503":
			return store.ErrNotFound
		}
	}
	return err
}

func expectAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}
