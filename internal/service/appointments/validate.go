package appointments

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sanderbeurden/plannerapp-sub000/internal/domain"
	"github.com/sanderbeurden/plannerapp-sub000/internal/service"
)

const (
	MinDuration        = 15 * time.Minute
	MaxDuration        = 24 * time.Hour
	MinRecurrenceCount = 2
	MaxRecurrenceCount = 52
)

func requireBusiness(businessID string) error {
	if businessID == "" {
		return service.Invalid("businessId", "is required")
	}
	return nil
}

func validateCreate(businessID string, in CreateInput) (domain.Status, error) {
	v := &service.ValidationError{}
	if businessID == "" {
		v.Add("businessId", "is required")
	}
	if in.ClientID == uuid.Nil {
		v.Add("clientId", "is required")
	}
	if in.ServiceID == uuid.Nil {
		v.Add("serviceId", "is required")
	}
	if in.Start.IsZero() {
		v.Add("startUtc", "is required")
	}
	if in.End.IsZero() {
		v.Add("endUtc", "is required")
	}
	if !in.Start.IsZero() && !in.End.IsZero() {
		checkInterval(v, in.Start, in.End)
	}

	status := domain.StatusConfirmed
	if in.Status != "" {
		parsed, err := domain.ParseStatus(in.Status)
		switch {
		case err != nil:
			v.Add("status", "must be one of confirmed, hold")
		case !parsed.Active():
			v.Add("status", "new appointments must be confirmed or hold")
		default:
			status = parsed
		}
	}
	return status, v.Err()
}

func checkInterval(v *service.ValidationError, start, end time.Time) {
	d := end.Sub(start)
	switch {
	case d <= 0:
		v.Add("endUtc", "must be after startUtc")
	case d < MinDuration:
		v.Add("endUtc", fmt.Sprintf("duration must be at least %d minutes", int(MinDuration/time.Minute)))
	case d > MaxDuration:
		v.Add("endUtc", fmt.Sprintf("duration must be at most %d hours", int(MaxDuration/time.Hour)))
	}
}

func checkRecurrence(v *service.ValidationError, r RecurrenceInput) domain.Pattern {
	p, err := domain.ParsePattern(r.Pattern)
	if err != nil {
		v.Add("recurrence.pattern", "must be one of weekly, biweekly, monthly")
	}
	if r.Count < MinRecurrenceCount || r.Count > MaxRecurrenceCount {
		v.Add("recurrence.count", fmt.Sprintf("must be between %d and %d", MinRecurrenceCount, MaxRecurrenceCount))
	}
	return p
}
