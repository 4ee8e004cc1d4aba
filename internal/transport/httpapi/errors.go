package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sanderbeurden/plannerapp-sub000/internal/api"
	"github.com/sanderbeurden/plannerapp-sub000/internal/service"
	"github.com/sanderbeurden/plannerapp-sub000/internal/store"
)

// errorBody maps engine and catalog errors onto the wire envelope. Anything
// unrecognised becomes a 500 without detail.
func errorBody(err error) (int, api.ErrorBody) {
	var (
		vErr  *service.ValidationError
		nfErr *service.NotFoundError
		cErr  *service.ConflictError
	)
	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest, api.ErrorBody{
			Code:    api.CodeValidation,
			Message: vErr.Error(),
			Fields:  vErr.Fields,
		}
	case errors.As(err, &nfErr):
		return http.StatusNotFound, api.ErrorBody{Code: api.CodeNotFound, Message: nfErr.Error()}
	case errors.As(err, &cErr):
		body := api.ErrorBody{
			Code:            api.CodeConflict,
			Message:         cErr.Error(),
			Reason:          cErr.Reason,
			OccurrenceStart: cErr.OccurrenceStart,
		}
		if cErr.ConflictingID != uuid.Nil {
			id := cErr.ConflictingID
			body.ConflictingID = &id
		}
		return http.StatusConflict, body
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, api.ErrorBody{Code: api.CodeNotFound, Message: "not found"}
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict, api.ErrorBody{Code: api.CodeConflict, Message: "conflict", Reason: service.ReasonOverlap}
	}
	return http.StatusInternalServerError, api.ErrorBody{Code: api.CodeInternal, Message: "internal error"}
}

func (h *handler) fail(c *gin.Context, err error) {
	status, body := errorBody(err)
	log := h.log.With(
		slog.String("route", c.FullPath()),
		slog.String("business_id", businessID(c)),
		slog.String("request_id", requestID(c)),
		slog.String("error_kind", service.ErrorKind(err)),
	)
	switch {
	case status >= http.StatusInternalServerError:
		log.Error("request failed", slog.Any("err", err))
	case status == http.StatusBadRequest:
		log.Warn("invalid request", slog.Any("err", err))
	default:
		log.Info("request rejected", slog.String("reason", body.Message))
	}
	abortWith(c, status, body)
}

func abortWith(c *gin.Context, status int, body api.ErrorBody) {
	c.AbortWithStatusJSON(status, api.ErrorEnvelope{Error: body})
}
