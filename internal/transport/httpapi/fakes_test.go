package httpapi

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/sanderbeurden/plannerapp-sub000/internal/domain"
	"github.com/sanderbeurden/plannerapp-sub000/internal/service/appointments"
	"github.com/sanderbeurden/plannerapp-sub000/internal/service/catalog"
)

var errUnexpectedCall = errors.New("unexpected call")

type fakeAppointments struct {
	listFn         func(ctx context.Context, businessID string, from, to time.Time, activeOnly bool) ([]domain.Appointment, error)
	getFn          func(ctx context.Context, businessID string, id uuid.UUID) (domain.Appointment, error)
	createFn       func(ctx context.Context, businessID string, in appointments.CreateInput) (domain.Appointment, error)
	createSeriesFn func(ctx context.Context, businessID string, in appointments.RecurringInput, excludeDates []string) (appointments.SeriesResult, error)
	previewFn      func(ctx context.Context, businessID string, in appointments.RecurringInput) ([]appointments.PreviewOccurrence, error)
	updateFn       func(ctx context.Context, businessID string, id uuid.UUID, patch appointments.Patch) (domain.Appointment, error)
	updateFutureFn func(ctx context.Context, businessID string, id uuid.UUID, patch appointments.Patch) ([]appointments.FutureResult, error)
	rescheduleFn   func(ctx context.Context, businessID string, id uuid.UUID, start, end time.Time) (domain.Appointment, error)
	statusFn       func(ctx context.Context, businessID string, id uuid.UUID, status string) (domain.Appointment, error)
	deleteFn       func(ctx context.Context, businessID string, id uuid.UUID, scope appointments.Scope) ([]uuid.UUID, error)
}

func (f *fakeAppointments) List(ctx context.Context, businessID string, from, to time.Time, activeOnly bool) ([]domain.Appointment, error) {
	if f.listFn == nil {
		return nil, errUnexpectedCall
	}
	return f.listFn(ctx, businessID, from, to, activeOnly)
}

func (f *fakeAppointments) Get(ctx context.Context, businessID string, id uuid.UUID) (domain.Appointment, error) {
	if f.getFn == nil {
		return domain.Appointment{}, errUnexpectedCall
	}
	return f.getFn(ctx, businessID, id)
}

func (f *fakeAppointments) CreateSingle(ctx context.Context, businessID string, in appointments.CreateInput) (domain.Appointment, error) {
	if f.createFn == nil {
		return domain.Appointment{}, errUnexpectedCall
	}
	return f.createFn(ctx, businessID, in)
}

func (f *fakeAppointments) CreateRecurring(ctx context.Context, businessID string, in appointments.RecurringInput, excludeDates []string) (appointments.SeriesResult, error) {
	if f.createSeriesFn == nil {
		return appointments.SeriesResult{}, errUnexpectedCall
	}
	return f.createSeriesFn(ctx, businessID, in, excludeDates)
}

func (f *fakeAppointments) PreviewRecurrence(ctx context.Context, businessID string, in appointments.RecurringInput) ([]appointments.PreviewOccurrence, error) {
	if f.previewFn == nil {
		return nil, errUnexpectedCall
	}
	return f.previewFn(ctx, businessID, in)
}

func (f *fakeAppointments) Update(ctx context.Context, businessID string, id uuid.UUID, patch appointments.Patch) (domain.Appointment, error) {
	if f.updateFn == nil {
		return domain.Appointment{}, errUnexpectedCall
	}
	return f.updateFn(ctx, businessID, id, patch)
}

func (f *fakeAppointments) UpdateFuture(ctx context.Context, businessID string, id uuid.UUID, patch appointments.Patch) ([]appointments.FutureResult, error) {
	if f.updateFutureFn == nil {
		return nil, errUnexpectedCall
	}
	return f.updateFutureFn(ctx, businessID, id, patch)
}

func (f *fakeAppointments) Reschedule(ctx context.Context, businessID string, id uuid.UUID, start, end time.Time) (domain.Appointment, error) {
	if f.rescheduleFn == nil {
		return domain.Appointment{}, errUnexpectedCall
	}
	return f.rescheduleFn(ctx, businessID, id, start, end)
}

func (f *fakeAppointments) ChangeStatus(ctx context.Context, businessID string, id uuid.UUID, status string) (domain.Appointment, error) {
	if f.statusFn == nil {
		return domain.Appointment{}, errUnexpectedCall
	}
	return f.statusFn(ctx, businessID, id, status)
}

func (f *fakeAppointments) Delete(ctx context.Context, businessID string, id uuid.UUID, scope appointments.Scope) ([]uuid.UUID, error) {
	if f.deleteFn == nil {
		return nil, errUnexpectedCall
	}
	return f.deleteFn(ctx, businessID, id, scope)
}

type fakeCatalog struct {
	createClientFn func(ctx context.Context, businessID string, in catalog.ClientInput) (domain.Client, error)
	listClientsFn  func(ctx context.Context, businessID string) ([]domain.Client, error)
	deleteClientFn func(ctx context.Context, businessID string, id uuid.UUID) error
	listServicesFn func(ctx context.Context, businessID string) ([]domain.Service, error)
}

func (f *fakeCatalog) CreateClient(ctx context.Context, businessID string, in catalog.ClientInput) (domain.Client, error) {
	if f.createClientFn == nil {
		return domain.Client{}, errUnexpectedCall
	}
	return f.createClientFn(ctx, businessID, in)
}

func (f *fakeCatalog) ListClients(ctx context.Context, businessID string) ([]domain.Client, error) {
	if f.listClientsFn == nil {
		return nil, errUnexpectedCall
	}
	return f.listClientsFn(ctx, businessID)
}

func (f *fakeCatalog) GetClient(ctx context.Context, businessID string, id uuid.UUID) (domain.Client, error) {
	return domain.Client{}, errUnexpectedCall
}

func (f *fakeCatalog) DeleteClient(ctx context.Context, businessID string, id uuid.UUID) error {
	if f.deleteClientFn == nil {
		return errUnexpectedCall
	}
	return f.deleteClientFn(ctx, businessID, id)
}

func (f *fakeCatalog) CreateService(ctx context.Context, businessID string, in catalog.ServiceInput) (domain.Service, error) {
	return domain.Service{}, errUnexpectedCall
}

func (f *fakeCatalog) ListServices(ctx context.Context, businessID string) ([]domain.Service, error) {
	if f.listServicesFn == nil {
		return nil, errUnexpectedCall
	}
	return f.listServicesFn(ctx, businessID)
}

func (f *fakeCatalog) GetService(ctx context.Context, businessID string, id uuid.UUID) (domain.Service, error) {
	return domain.Service{}, errUnexpectedCall
}

func (f *fakeCatalog) DeleteService(ctx context.Context, businessID string, id uuid.UUID) error {
	return errUnexpectedCall
}
