package httpapi

import (
	"github.com/sanderbeurden/plannerapp-sub000/internal/api"
	"github.com/sanderbeurden/plannerapp-sub000/internal/domain"
	"github.com/sanderbeurden/plannerapp-sub000/internal/service/appointments"
)

func toAPIAppointment(a domain.Appointment) api.Appointment {
	out := api.Appointment{
		ID:                a.ID,
		ClientID:          a.ClientID,
		ServiceID:         a.ServiceID,
		StartUTC:          a.StartUTC.UTC(),
		EndUTC:            a.EndUTC.UTC(),
		Status:            a.Status.String(),
		Notes:             a.Notes,
		RecurrenceGroupID: a.RecurrenceGroupID,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
	if a.Client != nil {
		c := toAPIClient(*a.Client)
		out.Client = &c
	}
	if a.Service != nil {
		s := toAPIService(*a.Service)
		out.Service = &s
	}
	return out
}

func toAPIAppointments(in []domain.Appointment) []api.Appointment {
	out := make([]api.Appointment, 0, len(in))
	for _, a := range in {
		out = append(out, toAPIAppointment(a))
	}
	return out
}

func toAPIClient(c domain.Client) api.Client {
	return api.Client{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
		Notes:     c.Notes,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toAPIService(s domain.Service) api.Service {
	return api.Service{
		ID:              s.ID,
		Name:            s.Name,
		DurationMinutes: s.DurationMinutes,
		PriceCents:      s.PriceCents,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func toAPIOccurrences(in []appointments.PreviewOccurrence) []api.Occurrence {
	out := make([]api.Occurrence, 0, len(in))
	for _, p := range in {
		out = append(out, api.Occurrence{
			Index:         p.Index,
			Key:           p.Key,
			StartUTC:      p.Start,
			EndUTC:        p.End,
			HasConflict:   p.HasConflict,
			ConflictingID: p.ConflictingID,
		})
	}
	return out
}

func createInput(req api.CreateAppointmentRequest) appointments.CreateInput {
	return appointments.CreateInput{
		ClientID:  req.ClientID,
		ServiceID: req.ServiceID,
		Start:     req.StartUTC,
		End:       req.EndUTC,
		Status:    req.Status,
		Notes:     req.Notes,
	}
}

func patchInput(req api.UpdateAppointmentRequest) appointments.Patch {
	return appointments.Patch{
		ClientID:  req.ClientID,
		ServiceID: req.ServiceID,
		Start:     req.StartUTC,
		End:       req.EndUTC,
		Status:    req.Status,
		Notes:     req.Notes,
	}
}
