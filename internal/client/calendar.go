package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sanderbeurden/plannerapp-sub000/internal/api"
)

var (
	// ErrSuperseded is returned by a Load whose result was discarded because
	// a newer Load started.
	ErrSuperseded = errors.New("load superseded by a newer request")
	ErrNotLoaded  = errors.New("appointment is not in the loaded range")
)

const refetchTimeout = 10 * time.Second

type calendarAPI interface {
	ListAppointments(ctx context.Context, from, to time.Time, activeOnly bool) ([]api.Appointment, error)
	Reschedule(ctx context.Context, id uuid.UUID, start, end time.Time) (api.Appointment, error)
}

type Range struct {
	From time.Time
	To   time.Time
}

// CalendarState is the last known-good appointment list for the most
// recently requested range. It is safe for concurrent use.
type CalendarState struct {
	api calendarAPI

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	rng    Range
	appts  []api.Appointment
}

func NewCalendarState(c calendarAPI) *CalendarState {
	return &CalendarState{api: c}
}

// Load fetches [from, to) and replaces the state with the result. Starting
// a Load cancels any Load still in flight, and only the newest request's
// result is ever applied.
func (s *CalendarState) Load(ctx context.Context, from, to time.Time) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	lctx, cancel := context.WithCancel(ctx)
	s.seq++
	seq := s.seq
	s.cancel = cancel
	s.rng = Range{From: from.UTC(), To: to.UTC()}
	s.mu.Unlock()
	defer cancel()

	appts, err := s.api.ListAppointments(lctx, from, to, false)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return ErrSuperseded
	}
	s.cancel = nil
	if err != nil {
		return err
	}
	s.appts = appts
	return nil
}

// Reschedule moves the appointment in local state immediately, then asks
// the server. On rejection the range is refetched so the rejected position
// never survives; if the refetch also fails the previous position is
// restored locally.
func (s *CalendarState) Reschedule(ctx context.Context, id uuid.UUID, start, end time.Time) (api.Appointment, error) {
	start, end = start.UTC(), end.UTC()

	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return api.Appointment{}, fmt.Errorf("%w: %s", ErrNotLoaded, id)
	}
	prev := s.appts[idx]
	s.replace(idx, func(a *api.Appointment) {
		a.StartUTC, a.EndUTC = start, end
	})
	rng := s.rng
	s.mu.Unlock()

	updated, err := s.api.Reschedule(ctx, id, start, end)
	if err == nil {
		s.mu.Lock()
		if i := s.indexOf(id); i >= 0 {
			s.replace(i, func(a *api.Appointment) { *a = updated })
		}
		s.mu.Unlock()
		return updated, nil
	}

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refetchTimeout)
	defer cancel()
	if lerr := s.Load(rctx, rng.From, rng.To); lerr != nil && !errors.Is(lerr, ErrSuperseded) {
		s.mu.Lock()
		if i := s.indexOf(id); i >= 0 && s.appts[i].StartUTC.Equal(start) && s.appts[i].EndUTC.Equal(end) {
			s.replace(i, func(a *api.Appointment) { *a = prev })
		}
		s.mu.Unlock()
	}
	return api.Appointment{}, err
}

// Snapshot returns a copy of the current range and appointments.
func (s *CalendarState) Snapshot() (Range, []api.Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.Appointment, len(s.appts))
	copy(out, s.appts)
	return s.rng, out
}

func (s *CalendarState) indexOf(id uuid.UUID) int {
	for i, a := range s.appts {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// replace copies the slice before editing so earlier snapshots stay intact.
func (s *CalendarState) replace(i int, edit func(a *api.Appointment)) {
	next := make([]api.Appointment, len(s.appts))
	copy(next, s.appts)
	edit(&next[i])
	s.appts = next
}
