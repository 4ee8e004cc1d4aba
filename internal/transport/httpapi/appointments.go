package httpapi

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sanderbeurden/plannerapp-sub000/internal/api"
	"github.com/sanderbeurden/plannerapp-sub000/internal/service"
	"github.com/sanderbeurden/plannerapp-sub000/internal/service/appointments"
)

func (h *handler) listAppointments(c *gin.Context) {
	v := &service.ValidationError{}
	from := queryTime(c, v, "from")
	to := queryTime(c, v, "to")
	active := false
	if raw := c.Query("active"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			v.Add("active", "must be true or false")
		}
		active = b
	}
	if err := v.Err(); err != nil {
		h.fail(c, err)
		return
	}

	out, err := h.appts.List(c.Request.Context(), businessID(c), from, to, active)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.AppointmentsResponse{Appointments: toAPIAppointments(out)})
}

func (h *handler) getAppointment(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	a, err := h.appts.Get(c.Request.Context(), businessID(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.AppointmentResponse{Appointment: toAPIAppointment(a)})
}

// createAppointment creates a single appointment, or a series when the body
// carries a recurrence.
func (h *handler) createAppointment(c *gin.Context) {
	var req api.CreateAppointmentRequest
	if !h.bind(c, &req) {
		return
	}
	ctx := c.Request.Context()
	b := businessID(c)

	if req.Recurrence == nil {
		if len(req.ExcludeDates) > 0 {
			h.fail(c, service.Invalid("excludeDates", "requires a recurrence"))
			return
		}
		a, err := h.appts.CreateSingle(ctx, b, createInput(req))
		if err != nil {
			h.fail(c, err)
			return
		}
		h.log.Info("appointment created",
			slog.String("appointment_id", a.ID.String()),
			slog.String("business_id", b),
			slog.Time("start_utc", a.StartUTC),
		)
		c.JSON(http.StatusCreated, api.AppointmentResponse{Appointment: toAPIAppointment(a)})
		return
	}

	res, err := h.appts.CreateRecurring(ctx, b, appointments.RecurringInput{
		CreateInput: createInput(req),
		Recurrence:  appointments.RecurrenceInput{Pattern: req.Recurrence.Pattern, Count: req.Recurrence.Count},
	}, req.ExcludeDates)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, api.SeriesResponse{
		RecurrenceGroupID: res.RecurrenceGroupID,
		Appointments:      toAPIAppointments(res.Appointments),
	})
}

func (h *handler) previewRecurrence(c *gin.Context) {
	var req api.CreateAppointmentRequest
	if !h.bind(c, &req) {
		return
	}
	if req.Recurrence == nil {
		h.fail(c, service.Invalid("recurrence", "is required"))
		return
	}

	out, err := h.appts.PreviewRecurrence(c.Request.Context(), businessID(c), appointments.RecurringInput{
		CreateInput: createInput(req),
		Recurrence:  appointments.RecurrenceInput{Pattern: req.Recurrence.Pattern, Count: req.Recurrence.Count},
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.PreviewResponse{Occurrences: toAPIOccurrences(out)})
}

func (h *handler) updateAppointment(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	scope, err := appointments.ParseScope(c.Query("scope"))
	if err != nil {
		h.fail(c, err)
		return
	}
	var req api.UpdateAppointmentRequest
	if !h.bind(c, &req) {
		return
	}
	ctx := c.Request.Context()
	b := businessID(c)

	if scope == appointments.ScopeSingle {
		a, err := h.appts.Update(ctx, b, id, patchInput(req))
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, api.AppointmentResponse{Appointment: toAPIAppointment(a)})
		return
	}

	results, err := h.appts.UpdateFuture(ctx, b, id, patchInput(req))
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]api.FutureUpdateResult, 0, len(results))
	failed := 0
	for _, r := range results {
		item := api.FutureUpdateResult{ID: r.ID}
		if r.Err != nil {
			_, body := errorBody(r.Err)
			item.Error = &body
			failed++
		} else if r.Appointment != nil {
			a := toAPIAppointment(*r.Appointment)
			item.Appointment = &a
		}
		out = append(out, item)
	}
	if failed > 0 {
		h.log.Info("future update partially rejected",
			slog.String("appointment_id", id.String()),
			slog.String("business_id", b),
			slog.Int("members", len(results)),
			slog.Int("rejected", failed),
		)
	}
	c.JSON(http.StatusOK, api.FutureUpdateResponse{Results: out})
}

func (h *handler) rescheduleAppointment(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req api.RescheduleRequest
	if !h.bind(c, &req) {
		return
	}
	a, err := h.appts.Reschedule(c.Request.Context(), businessID(c), id, req.StartUTC, req.EndUTC)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.AppointmentResponse{Appointment: toAPIAppointment(a)})
}

func (h *handler) changeStatus(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req api.StatusRequest
	if !h.bind(c, &req) {
		return
	}
	a, err := h.appts.ChangeStatus(c.Request.Context(), businessID(c), id, req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.AppointmentResponse{Appointment: toAPIAppointment(a)})
}

func (h *handler) deleteAppointment(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	scope, err := appointments.ParseScope(c.Query("scope"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ids, err := h.appts.Delete(c.Request.Context(), businessID(c), id, scope)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.log.Info("appointments deleted",
		slog.String("appointment_id", id.String()),
		slog.String("business_id", businessID(c)),
		slog.String("scope", string(scope)),
		slog.Int("count", len(ids)),
	)
	c.JSON(http.StatusOK, api.DeleteResponse{DeletedIDs: ids})
}

func (h *handler) pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.fail(c, service.Invalid("id", "must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

// bind decodes the JSON body. Malformed JSON and oversized bodies are
// reported as validation errors.
func (h *handler) bind(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		h.fail(c, &service.ValidationError{Message: "request body too large"})
	case errors.Is(err, io.EOF):
		h.fail(c, &service.ValidationError{Message: "request body is required"})
	default:
		h.fail(c, &service.ValidationError{Message: "invalid JSON body: " + err.Error()})
	}
	return false
}

func queryTime(c *gin.Context, v *service.ValidationError, name string) time.Time {
	raw := c.Query(name)
	if raw == "" {
		v.Add(name, "is required")
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		v.Add(name, "must be an RFC3339 timestamp")
		return time.Time{}
	}
	return t
}
