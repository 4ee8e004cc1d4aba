package appointments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sanderbeurden/plannerapp-sub000/internal/domain"
	"github.com/sanderbeurden/plannerapp-sub000/internal/service"
	"github.com/sanderbeurden/plannerapp-sub000/internal/store"
)

const excludeDateLayout = "2006-01-02"

type RecurrenceInput struct {
	Pattern string
	Count   int
}

// RecurringInput is the first occurrence of a series plus its recurrence.
type RecurringInput struct {
	CreateInput
	Recurrence RecurrenceInput
}

type PreviewOccurrence struct {
	Index         int
	Key           string
	Start         time.Time
	End           time.Time
	HasConflict   bool
	ConflictingID *uuid.UUID
}

type SeriesResult struct {
	RecurrenceGroupID uuid.UUID
	Appointments      []domain.Appointment
}

// PreviewRecurrence expands the series and flags every occurrence that
// overlaps a committed active appointment. Siblings are not checked
// against each other. It never writes.
func (s *Service) PreviewRecurrence(ctx context.Context, businessID string, in RecurringInput) (out []PreviewOccurrence, err error) {
	ctx, span := s.start(ctx, "PreviewRecurrence", businessID)
	defer func() { endSpan(span, err) }()

	_, occs, err := expandInput(businessID, in)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("recurrence.count", len(occs)))
	window := domain.Span(occs)
	existing, err := s.calendar.ListAppointments(ctx, businessID, store.AppointmentFilter{
		From:       window.Start,
		To:         window.End,
		ActiveOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}

	out = make([]PreviewOccurrence, 0, len(occs))
	for _, o := range occs {
		p := PreviewOccurrence{Index: o.Index, Key: o.Key(), Start: o.Start, End: o.End}
		if hit, ok := domain.FindConflict(domain.Candidate{Interval: o.Interval()}, existing); ok {
			id := hit.ID
			p.HasConflict = true
			p.ConflictingID = &id
		}
		out = append(out, p)
	}
	return out, nil
}

// CreateRecurring commits a series. Occurrences matching excludeDates are
// skipped; each entry is an RFC3339 start instant or a YYYY-MM-DD UTC date.
// The batch is all-or-nothing: if any surviving occurrence conflicts with
// the committed schedule or an earlier sibling nothing is written.
func (s *Service) CreateRecurring(ctx context.Context, businessID string, in RecurringInput, excludeDates []string) (out SeriesResult, err error) {
	ctx, span := s.start(ctx, "CreateRecurring", businessID)
	defer func() { endSpan(span, err) }()

	status, occs, err := expandInput(businessID, in)
	if err != nil {
		return SeriesResult{}, err
	}
	excluded, err := parseExcludeDates(excludeDates)
	if err != nil {
		return SeriesResult{}, err
	}

	surviving := make([]domain.Occurrence, 0, len(occs))
	for _, o := range occs {
		if !excluded.matches(o) {
			surviving = append(surviving, o)
		}
	}
	if len(surviving) == 0 {
		return SeriesResult{}, service.Invalid("excludeDates", "every occurrence is excluded")
	}

	groupID, err := s.newID()
	if err != nil {
		return SeriesResult{}, fmt.Errorf("generate recurrence group id: %w", err)
	}
	span.SetAttributes(
		attribute.String("recurrence.group_id", groupID.String()),
		attribute.Int("recurrence.count", len(surviving)),
	)

	notes := strings.TrimSpace(in.Notes)
	err = s.calendar.InBusinessTransaction(ctx, businessID, func(ctx context.Context, tx store.CalendarTx) error {
		if err := ensureReferences(ctx, tx, businessID, in.ClientID, in.ServiceID); err != nil {
			return err
		}

		window := domain.Span(surviving)
		existing, err := tx.ListAppointments(ctx, businessID, store.AppointmentFilter{
			From:       window.Start,
			To:         window.End,
			ActiveOnly: true,
		})
		if err != nil {
			return fmt.Errorf("load schedule: %w", err)
		}

		created := make([]domain.Appointment, 0, len(surviving))
		for _, o := range surviving {
			c := domain.Candidate{Interval: o.Interval()}
			hit, ok := domain.FindConflict(c, existing)
			if !ok {
				hit, ok = domain.FindConflict(c, created)
			}
			if ok {
				start := o.Start
				return &service.ConflictError{
					Reason:          service.ReasonOverlap,
					ConflictingID:   hit.ID,
					OccurrenceStart: &start,
				}
			}

			gid := groupID
			a, err := tx.InsertAppointment(ctx, domain.Appointment{
				BusinessID:        businessID,
				ClientID:          in.ClientID,
				ServiceID:         in.ServiceID,
				StartUTC:          o.Start,
				EndUTC:            o.End,
				Status:            status,
				Notes:             notes,
				RecurrenceGroupID: &gid,
			})
			if err != nil {
				return err
			}
			created = append(created, a)
		}

		ids := make([]uuid.UUID, 0, len(created))
		for _, a := range created {
			ids = append(ids, a.ID)
		}
		out = SeriesResult{RecurrenceGroupID: groupID, Appointments: created}
		return enqueueSeries(ctx, tx, businessID, seriesPayload{
			RecurrenceGroupID: groupID,
			Pattern:           in.Recurrence.Pattern,
			AppointmentIDs:    ids,
			Skipped:           len(occs) - len(surviving),
		})
	})
	if err != nil {
		return SeriesResult{}, classify("create recurring appointments", uuid.Nil, err)
	}

	s.logger.InfoContext(ctx, "recurring series created",
		"business_id", businessID,
		"recurrence_group_id", groupID,
		"occurrences", len(out.Appointments),
		"skipped", len(occs)-len(surviving),
	)
	return out, nil
}

func expandInput(businessID string, in RecurringInput) (domain.Status, []domain.Occurrence, error) {
	status, err := validateCreate(businessID, in.CreateInput)
	v, _ := err.(*service.ValidationError)
	if v == nil {
		v = &service.ValidationError{}
	}
	pattern := checkRecurrence(v, in.Recurrence)
	if err := v.Err(); err != nil {
		return 0, nil, err
	}

	occs, err := domain.Expand(domain.RecurrenceBase{
		Start:   in.Start.UTC(),
		End:     in.End.UTC(),
		Pattern: pattern,
		Count:   in.Recurrence.Count,
	})
	if err != nil {
		return 0, nil, fmt.Errorf("expand recurrence: %w", err)
	}
	return status, occs, nil
}

type excludeSet struct {
	instants map[int64]struct{}
	dates    map[string]struct{}
}

func parseExcludeDates(raw []string) (excludeSet, error) {
	set := excludeSet{
		instants: make(map[int64]struct{}, len(raw)),
		dates:    make(map[string]struct{}),
	}
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339Nano, r); err == nil {
			set.instants[t.UTC().UnixNano()] = struct{}{}
			continue
		}
		if d, err := time.Parse(excludeDateLayout, r); err == nil {
			set.dates[d.Format(excludeDateLayout)] = struct{}{}
			continue
		}
		return excludeSet{}, service.Invalid("excludeDates", fmt.Sprintf("%q is neither an RFC3339 timestamp nor a YYYY-MM-DD date", r))
	}
	return set, nil
}

func (e excludeSet) matches(o domain.Occurrence) bool {
	if _, ok := e.instants[o.Start.UTC().UnixNano()]; ok {
		return true
	}
	_, ok := e.dates[o.Start.UTC().Format(excludeDateLayout)]
	return ok
}
