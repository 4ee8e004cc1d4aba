package appointments

import (
	"context"
	"encoding/binary"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sanderbeurden/plannerapp-sub000/internal/domain"
	"github.com/sanderbeurden/plannerapp-sub000/internal/events"
	"github.com/sanderbeurden/plannerapp-sub000/internal/store"
)

// fakeCalendar is an in-memory store. A transaction works on a copy that
// replaces the committed state only when fn succeeds.
type fakeCalendar struct {
	mu    sync.Mutex
	state *fakeState
	seq   uint64
	txs   int

	insertFn func(ctx context.Context, appt domain.Appointment) error
	listFn   func(ctx context.Context, businessID string, filter store.AppointmentFilter) error
}

type fakeState struct {
	appts    map[uuid.UUID]domain.Appointment
	clients  map[uuid.UUID]string
	services map[uuid.UUID]string
	events   []events.Event
}

func newFakeCalendar() *fakeCalendar {
	return &fakeCalendar{state: &fakeState{
		appts:    map[uuid.UUID]domain.Appointment{},
		clients:  map[uuid.UUID]string{},
		services: map[uuid.UUID]string{},
	}}
}

func (s *fakeState) clone() *fakeState {
	out := &fakeState{
		appts:    make(map[uuid.UUID]domain.Appointment, len(s.appts)),
		clients:  make(map[uuid.UUID]string, len(s.clients)),
		services: make(map[uuid.UUID]string, len(s.services)),
		events:   append([]events.Event(nil), s.events...),
	}
	for k, v := range s.appts {
		out.appts[k] = v
	}
	for k, v := range s.clients {
		out.clients[k] = v
	}
	for k, v := range s.services {
		out.services[k] = v
	}
	return out
}

func (f *fakeCalendar) InBusinessTransaction(ctx context.Context, businessID string, fn func(ctx context.Context, tx store.CalendarTx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txs++
	work := f.state.clone()
	if err := fn(ctx, &fakeTx{cal: f, state: work}); err != nil {
		return err
	}
	f.state = work
	return nil
}

func (f *fakeCalendar) ListAppointments(ctx context.Context, businessID string, filter store.AppointmentFilter) ([]domain.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return listState(ctx, f, f.state, businessID, filter)
}

func (f *fakeCalendar) GetAppointment(ctx context.Context, businessID string, id uuid.UUID) (domain.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return getState(f.state, businessID, id)
}

func (f *fakeCalendar) nextID() uuid.UUID {
	f.seq++
	var id uuid.UUID
	binary.BigEndian.PutUint64(id[8:], f.seq)
	return id
}

// seed inserts rows directly, bypassing the engine.
func (f *fakeCalendar) seed(appts ...domain.Appointment) []domain.Appointment {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Appointment, 0, len(appts))
	for _, a := range appts {
		if a.ID == uuid.Nil {
			a.ID = f.nextID()
		}
		f.state.appts[a.ID] = a
		out = append(out, a)
	}
	return out
}

func (f *fakeCalendar) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.state.appts)
}

func (f *fakeCalendar) queued() []events.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]events.Event(nil), f.state.events...)
}

func (f *fakeCalendar) transactions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.txs
}

type fakeTx struct {
	cal   *fakeCalendar
	state *fakeState
}

func (t *fakeTx) GetAppointment(ctx context.Context, businessID string, id uuid.UUID) (domain.Appointment, error) {
	return getState(t.state, businessID, id)
}

func (t *fakeTx) ListAppointments(ctx context.Context, businessID string, filter store.AppointmentFilter) ([]domain.Appointment, error) {
	return listState(ctx, t.cal, t.state, businessID, filter)
}

func (t *fakeTx) ListGroupFrom(ctx context.Context, businessID string, groupID uuid.UUID, from time.Time) ([]domain.Appointment, error) {
	var out []domain.Appointment
	for _, a := range t.state.appts {
		if a.BusinessID == businessID && a.InGroup(groupID) && !a.StartUTC.Before(from) {
			out = append(out, a)
		}
	}
	sortByStart(out)
	return out, nil
}

func (t *fakeTx) InsertAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	if t.cal.insertFn != nil {
		if err := t.cal.insertFn(ctx, appt); err != nil {
			return domain.Appointment{}, err
		}
	}
	if appt.ID == uuid.Nil {
		appt.ID = t.cal.nextID()
	}
	t.state.appts[appt.ID] = appt
	return appt, nil
}

func (t *fakeTx) UpdateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	cur, ok := t.state.appts[appt.ID]
	if !ok || cur.BusinessID != appt.BusinessID {
		return domain.Appointment{}, store.ErrNotFound
	}
	t.state.appts[appt.ID] = appt
	return appt, nil
}

func (t *fakeTx) DeleteAppointment(ctx context.Context, businessID string, id uuid.UUID) error {
	cur, ok := t.state.appts[id]
	if !ok || cur.BusinessID != businessID {
		return store.ErrNotFound
	}
	delete(t.state.appts, id)
	return nil
}

func (t *fakeTx) DeleteGroupFrom(ctx context.Context, businessID string, groupID uuid.UUID, from time.Time) ([]uuid.UUID, error) {
	members, _ := t.ListGroupFrom(ctx, businessID, groupID, from)
	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		delete(t.state.appts, m.ID)
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func (t *fakeTx) ClientExists(ctx context.Context, businessID string, id uuid.UUID) (bool, error) {
	return t.state.clients[id] == businessID, nil
}

func (t *fakeTx) ServiceExists(ctx context.Context, businessID string, id uuid.UUID) (bool, error) {
	return t.state.services[id] == businessID, nil
}

func (t *fakeTx) EnqueueEvent(ctx context.Context, evt events.Event) error {
	t.state.events = append(t.state.events, evt)
	return nil
}

func getState(s *fakeState, businessID string, id uuid.UUID) (domain.Appointment, error) {
	a, ok := s.appts[id]
	if !ok || a.BusinessID != businessID {
		return domain.Appointment{}, store.ErrNotFound
	}
	return a, nil
}

func listState(ctx context.Context, f *fakeCalendar, s *fakeState, businessID string, filter store.AppointmentFilter) ([]domain.Appointment, error) {
	if f.listFn != nil {
		if err := f.listFn(ctx, businessID, filter); err != nil {
			return nil, err
		}
	}
	var out []domain.Appointment
	for _, a := range s.appts {
		if a.BusinessID != businessID {
			continue
		}
		if filter.ActiveOnly && !a.Active() {
			continue
		}
		if a.StartUTC.Before(filter.To) && a.EndUTC.After(filter.From) {
			out = append(out, a)
		}
	}
	sortByStart(out)
	return out, nil
}

func sortByStart(appts []domain.Appointment) {
	sort.Slice(appts, func(i, j int) bool {
		return appts[i].StartUTC.Before(appts[j].StartUTC)
	})
}
