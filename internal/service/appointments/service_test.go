package appointments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sanderbeurden/plannerapp-sub000/internal/domain"
	"github.com/sanderbeurden/plannerapp-sub000/internal/events"
	"github.com/sanderbeurden/plannerapp-sub000/internal/service"
	"github.com/sanderbeurden/plannerapp-sub000/internal/store"
)

const biz = "biz-1"

var (
	clientID  = uuid.MustParse("00000000-0000-0000-0000-0000000000c1")
	serviceID = uuid.MustParse("00000000-0000-0000-0000-0000000000a1")
)

func at(day, hour, minute int) time.Time {
	return time.Date(2026, 1, day, hour, minute, 0, 0, time.UTC)
}

func newTestService(t *testing.T) (*Service, *fakeCalendar) {
	t.Helper()
	cal := newFakeCalendar()
	cal.state.clients[clientID] = biz
	cal.state.services[serviceID] = biz
	return NewService(cal), cal
}

func existing(start, end time.Time, status domain.Status) domain.Appointment {
	return domain.Appointment{
		BusinessID: biz,
		ClientID:   clientID,
		ServiceID:  serviceID,
		StartUTC:   start,
		EndUTC:     end,
		Status:     status,
	}
}

func single(start, end time.Time) CreateInput {
	return CreateInput{ClientID: clientID, ServiceID: serviceID, Start: start, End: end}
}

func TestCreateSingle_ValidationErrorType(t *testing.T) {
	svc, cal := newTestService(t)

	_, err := svc.CreateSingle(context.Background(), biz, CreateInput{
		ServiceID: serviceID,
		Start:     at(5, 9, 0),
		End:       at(5, 10, 0),
	})
	var vErr *service.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("error type = %T, want *service.ValidationError", err)
	}
	if vErr.Fields["clientId"] != "is required" {
		t.Fatalf("fields = %v", vErr.Fields)
	}
	if cal.transactions() != 0 {
		t.Fatalf("validation must not touch the store")
	}
}

func TestCreateSingle_DurationRules(t *testing.T) {
	tests := []struct {
		name    string
		end     time.Time
		wantErr bool
	}{
		{"end before start", at(5, 8, 0), true},
		{"zero length", at(5, 9, 0), true},
		{"ten minutes", at(5, 9, 10), true},
		{"fifteen minutes", at(5, 9, 15), false},
		{"twenty four hours", at(6, 9, 0), false},
		{"over a day", at(6, 9, 1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)
			_, err := svc.CreateSingle(context.Background(), biz, single(at(5, 9, 0), tt.end))
			if tt.wantErr {
				var vErr *service.ValidationError
				if !errors.As(err, &vErr) {
					t.Fatalf("err = %v, want ValidationError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestCreateSingle_StatusInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	in := single(at(5, 9, 0), at(5, 10, 0))
	in.Status = "HOLD"
	got, err := svc.CreateSingle(ctx, biz, in)
	if err != nil {
		t.Fatalf("CreateSingle error: %v", err)
	}
	if got.Status != domain.StatusHold {
		t.Fatalf("status = %s, want hold", got.Status)
	}

	for _, status := range []string{"cancelled", "pending"} {
		in := single(at(6, 9, 0), at(6, 10, 0))
		in.Status = status
		_, err := svc.CreateSingle(ctx, biz, in)
		var vErr *service.ValidationError
		if !errors.As(err, &vErr) || vErr.Fields["status"] == "" {
			t.Fatalf("status %q: err = %v, want status ValidationError", status, err)
		}
	}

	plain, err := svc.CreateSingle(ctx, biz, single(at(7, 9, 0), at(7, 10, 0)))
	if err != nil {
		t.Fatalf("CreateSingle error: %v", err)
	}
	if plain.Status != domain.StatusConfirmed {
		t.Fatalf("default status = %s, want confirmed", plain.Status)
	}
}

func TestCreateSingle_NoOverlapButTouchingAllowed(t *testing.T) {
	svc, cal := newTestService(t)
	ctx := context.Background()
	blocker := cal.seed(existing(at(5, 9, 0), at(5, 10, 0), domain.StatusConfirmed))[0]

	_, err := svc.CreateSingle(ctx, biz, single(at(5, 9, 30), at(5, 10, 30)))
	var cErr *service.ConflictError
	if !errors.As(err, &cErr) {
		t.Fatalf("err = %v, want ConflictError", err)
	}
	if cErr.ConflictingID != blocker.ID {
		t.Fatalf("ConflictingID = %s, want %s", cErr.ConflictingID, blocker.ID)
	}
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("ConflictError must unwrap to store.ErrConflict")
	}
	if cal.count() != 1 {
		t.Fatalf("rejected create must not write")
	}

	if _, err := svc.CreateSingle(ctx, biz, single(at(5, 10, 0), at(5, 11, 0))); err != nil {
		t.Fatalf("touching interval rejected: %v", err)
	}
	if _, err := svc.CreateSingle(ctx, biz, single(at(5, 8, 0), at(5, 9, 0))); err != nil {
		t.Fatalf("touching interval rejected: %v", err)
	}
}

func TestCreateSingle_CancelledNeverBlocks(t *testing.T) {
	svc, cal := newTestService(t)
	cal.seed(existing(at(5, 9, 0), at(5, 10, 0), domain.StatusCancelled))

	if _, err := svc.CreateSingle(context.Background(), biz, single(at(5, 9, 0), at(5, 10, 0))); err != nil {
		t.Fatalf("CreateSingle error: %v", err)
	}
	if cal.count() != 2 {
		t.Fatalf("count = %d, want 2", cal.count())
	}
}

func TestCreateSingle_HoldBlocks(t *testing.T) {
	svc, cal := newTestService(t)
	cal.seed(existing(at(5, 9, 0), at(5, 10, 0), domain.StatusHold))

	_, err := svc.CreateSingle(context.Background(), biz, single(at(5, 9, 45), at(5, 10, 15)))
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestCreateSingle_OtherBusinessDoesNotBlock(t *testing.T) {
	svc, cal := newTestService(t)
	other := existing(at(5, 9, 0), at(5, 10, 0), domain.StatusConfirmed)
	other.BusinessID = "biz-2"
	cal.seed(other)

	if _, err := svc.CreateSingle(context.Background(), biz, single(at(5, 9, 0), at(5, 10, 0))); err != nil {
		t.Fatalf("CreateSingle error: %v", err)
	}
}

func TestCreateSingle_UnknownReferences(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	in := single(at(5, 9, 0), at(5, 10, 0))
	in.ClientID = uuid.MustParse("00000000-0000-0000-0000-0000000000ff")
	_, err := svc.CreateSingle(ctx, biz, in)
	var nfErr *service.NotFoundError
	if !errors.As(err, &nfErr) || nfErr.Resource != "client" {
		t.Fatalf("err = %v, want client NotFoundError", err)
	}

	_, err = svc.CreateSingle(ctx, "biz-2", single(at(5, 9, 0), at(5, 10, 0)))
	if !errors.As(err, &nfErr) {
		t.Fatalf("cross-tenant client must be not found, got %v", err)
	}
}

func TestCreateSingle_NormalizesToUTCAndEnqueuesEvent(t *testing.T) {
	svc, cal := newTestService(t)
	loc := time.FixedZone("CET", 3600)

	got, err := svc.CreateSingle(context.Background(), biz, CreateInput{
		ClientID:  clientID,
		ServiceID: serviceID,
		Start:     time.Date(2026, 1, 5, 10, 0, 0, 0, loc),
		End:       time.Date(2026, 1, 5, 11, 0, 0, 0, loc),
		Notes:     "  first visit  ",
	})
	if err != nil {
		t.Fatalf("CreateSingle error: %v", err)
	}
	if got.StartUTC.Location() != time.UTC || !got.StartUTC.Equal(at(5, 9, 0)) {
		t.Fatalf("StartUTC = %v", got.StartUTC)
	}
	if got.Notes != "first visit" {
		t.Fatalf("notes = %q", got.Notes)
	}

	evts := cal.queued()
	if len(evts) != 1 || evts[0].EventType != events.TypeAppointmentCreated || evts[0].AggregateID != got.ID.String() {
		t.Fatalf("events = %+v", evts)
	}
}

func TestCreateSingle_ConstraintConflictIsTyped(t *testing.T) {
	svc, cal := newTestService(t)
	cal.insertFn = func(ctx context.Context, appt domain.Appointment) error {
		return store.ErrConflict
	}

	_, err := svc.CreateSingle(context.Background(), biz, single(at(5, 9, 0), at(5, 10, 0)))
	var cErr *service.ConflictError
	if !errors.As(err, &cErr) {
		t.Fatalf("err = %T %v, want ConflictError", err, err)
	}
}

func TestCreateSingle_StoreFailureIsUnexpected(t *testing.T) {
	svc, cal := newTestService(t)
	boom := errors.New("connection reset")
	cal.listFn = func(ctx context.Context, businessID string, filter store.AppointmentFilter) error {
		return boom
	}

	_, err := svc.CreateSingle(context.Background(), biz, single(at(5, 9, 0), at(5, 10, 0)))
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
	if service.ErrorKind(err) != "unexpected" {
		t.Fatalf("ErrorKind = %q", service.ErrorKind(err))
	}
	if cal.count() != 0 || len(cal.queued()) != 0 {
		t.Fatalf("failed create must not write")
	}
}

func TestUpdate_SelfExclusion(t *testing.T) {
	svc, cal := newTestService(t)
	a := cal.seed(existing(at(5, 9, 0), at(5, 10, 0), domain.StatusConfirmed))[0]

	got, err := svc.Reschedule(context.Background(), biz, a.ID, at(5, 9, 5), at(5, 10, 5))
	if err != nil {
		t.Fatalf("Reschedule error: %v", err)
	}
	if !got.StartUTC.Equal(at(5, 9, 5)) || !got.EndUTC.Equal(at(5, 10, 5)) {
		t.Fatalf("interval = [%v, %v)", got.StartUTC, got.EndUTC)
	}
}

func TestUpdate_ConflictLeavesRowUntouched(t *testing.T) {
	svc, cal := newTestService(t)
	seeded := cal.seed(
		existing(at(5, 9, 0), at(5, 10, 0), domain.StatusConfirmed),
		existing(at(5, 11, 0), at(5, 12, 0), domain.StatusConfirmed),
	)
	ctx := context.Background()

	_, err := svc.Reschedule(ctx, biz, seeded[0].ID, at(5, 10, 30), at(5, 11, 30))
	var cErr *service.ConflictError
	if !errors.As(err, &cErr) || cErr.ConflictingID != seeded[1].ID {
		t.Fatalf("err = %v, want ConflictError naming %s", err, seeded[1].ID)
	}

	got, err := svc.Get(ctx, biz, seeded[0].ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !got.StartUTC.Equal(at(5, 9, 0)) {
		t.Fatalf("rejected update was persisted: %v", got.StartUTC)
	}
}

func TestUpdate_PartialPatchRevalidatesInterval(t *testing.T) {
	svc, cal := newTestService(t)
	a := cal.seed(existing(at(5, 9, 0), at(5, 10, 0), domain.StatusConfirmed))[0]

	end := at(5, 9, 10)
	_, err := svc.Update(context.Background(), biz, a.ID, Patch{End: &end})
	var vErr *service.ValidationError
	if !errors.As(err, &vErr) || vErr.Fields["endUtc"] == "" {
		t.Fatalf("err = %v, want endUtc ValidationError", err)
	}
}

func TestChangeStatus_Transitions(t *testing.T) {
	svc, cal := newTestService(t)
	a := cal.seed(existing(at(5, 9, 0), at(5, 10, 0), domain.StatusHold))[0]
	ctx := context.Background()

	got, err := svc.ChangeStatus(ctx, biz, a.ID, "confirmed")
	if err != nil || got.Status != domain.StatusConfirmed {
		t.Fatalf("hold -> confirmed: %v, %v", got.Status, err)
	}
	got, err = svc.ChangeStatus(ctx, biz, a.ID, "cancelled")
	if err != nil || got.Status != domain.StatusCancelled {
		t.Fatalf("confirmed -> cancelled: %v, %v", got.Status, err)
	}

	_, err = svc.ChangeStatus(ctx, biz, a.ID, "confirmed")
	var vErr *service.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("un-cancel err = %v, want ValidationError", err)
	}
}

func TestUpdate_CancelledSlotCanBeRebooked(t *testing.T) {
	svc, cal := newTestService(t)
	a := cal.seed(existing(at(5, 9, 0), at(5, 10, 0), domain.StatusConfirmed))[0]
	ctx := context.Background()

	if _, err := svc.ChangeStatus(ctx, biz, a.ID, "cancelled"); err != nil {
		t.Fatalf("cancel error: %v", err)
	}
	if _, err := svc.CreateSingle(ctx, biz, single(at(5, 9, 0), at(5, 10, 0))); err != nil {
		t.Fatalf("rebook error: %v", err)
	}
}

func TestUpdate_UnknownServiceIsNotFound(t *testing.T) {
	svc, cal := newTestService(t)
	a := cal.seed(existing(at(5, 9, 0), at(5, 10, 0), domain.StatusConfirmed))[0]

	other := uuid.MustParse("00000000-0000-0000-0000-0000000000ee")
	_, err := svc.Update(context.Background(), biz, a.ID, Patch{ServiceID: &other})
	var nfErr *service.NotFoundError
	if !errors.As(err, &nfErr) || nfErr.Resource != "service" {
		t.Fatalf("err = %v, want service NotFoundError", err)
	}
}

func TestUpdate_EmptyPatchRejected(t *testing.T) {
	svc, cal := newTestService(t)
	a := cal.seed(existing(at(5, 9, 0), at(5, 10, 0), domain.StatusConfirmed))[0]

	_, err := svc.Update(context.Background(), biz, a.ID, Patch{})
	var vErr *service.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestDeletedAppointmentIsNotFound(t *testing.T) {
	svc, cal := newTestService(t)
	a := cal.seed(existing(at(5, 9, 0), at(5, 10, 0), domain.StatusConfirmed))[0]
	ctx := context.Background()

	ids, err := svc.DeleteSingle(ctx, biz, a.ID)
	if err != nil || len(ids) != 1 || ids[0] != a.ID {
		t.Fatalf("DeleteSingle = %v, %v", ids, err)
	}

	var nfErr *service.NotFoundError
	if _, err := svc.DeleteSingle(ctx, biz, a.ID); !errors.As(err, &nfErr) {
		t.Fatalf("second delete err = %v, want NotFoundError", err)
	}
	if _, err := svc.DeleteFuture(ctx, biz, a.ID); !errors.As(err, &nfErr) {
		t.Fatalf("delete future err = %v, want NotFoundError", err)
	}
	notes := "x"
	if _, err := svc.Update(ctx, biz, a.ID, Patch{Notes: &notes}); !errors.As(err, &nfErr) {
		t.Fatalf("update err = %v, want NotFoundError", err)
	}
	if _, err := svc.Get(ctx, biz, a.ID); !errors.As(err, &nfErr) {
		t.Fatalf("get err = %v, want NotFoundError", err)
	}
}

func TestList_ValidatesWindowAndFilters(t *testing.T) {
	svc, cal := newTestService(t)
	cal.seed(
		existing(at(5, 9, 0), at(5, 10, 0), domain.StatusConfirmed),
		existing(at(5, 10, 0), at(5, 11, 0), domain.StatusCancelled),
		existing(at(6, 9, 0), at(6, 10, 0), domain.StatusHold),
	)
	ctx := context.Background()

	var vErr *service.ValidationError
	if _, err := svc.List(ctx, biz, at(6, 0, 0), at(5, 0, 0), false); !errors.As(err, &vErr) {
		t.Fatalf("inverted window err = %v", err)
	}

	all, err := svc.List(ctx, biz, at(5, 0, 0), at(6, 0, 0), false)
	if err != nil || len(all) != 2 {
		t.Fatalf("List = %d, %v; want 2", len(all), err)
	}
	active, err := svc.List(ctx, biz, at(5, 0, 0), at(7, 0, 0), true)
	if err != nil || len(active) != 2 {
		t.Fatalf("List active = %d, %v; want 2", len(active), err)
	}
}

func TestParseScope(t *testing.T) {
	for in, want := range map[string]Scope{"": ScopeSingle, "single": ScopeSingle, "Future": ScopeFuture} {
		got, err := ParseScope(in)
		if err != nil || got != want {
			t.Fatalf("ParseScope(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseScope("all"); err == nil {
		t.Fatalf("expected error for unknown scope")
	}
}
