// Package api defines the JSON wire types of the planner HTTP API, shared
// by the server handlers and the typed client.
package api

import (
	"time"

	"github.com/google/uuid"
)

// Error codes carried in ErrorBody.Code.
const (
	CodeValidation   = "ValidationError"
	CodeNotFound     = "NotFoundError"
	CodeConflict     = "ConflictError"
	CodeRateLimited  = "RateLimited"
	CodeUnauthorized = "Unauthorized"
	CodeInternal     = "InternalError"
)

type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code            string            `json:"code"`
	Message         string            `json:"message"`
	Reason          string            `json:"reason,omitempty"`
	ConflictingID   *uuid.UUID        `json:"conflictingId,omitempty"`
	OccurrenceStart *time.Time        `json:"occurrenceStart,omitempty"`
	Fields          map[string]string `json:"fields,omitempty"`
}

type Client struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Service struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	DurationMinutes int       `json:"durationMinutes"`
	PriceCents      *int64    `json:"priceCents,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type Appointment struct {
	ID                uuid.UUID  `json:"id"`
	ClientID          uuid.UUID  `json:"clientId"`
	ServiceID         uuid.UUID  `json:"serviceId"`
	StartUTC          time.Time  `json:"startUtc"`
	EndUTC            time.Time  `json:"endUtc"`
	Status            string     `json:"status"`
	Notes             string     `json:"notes,omitempty"`
	RecurrenceGroupID *uuid.UUID `json:"recurrenceGroupId,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
	Client            *Client    `json:"client,omitempty"`
	Service           *Service   `json:"service,omitempty"`
}

type Recurrence struct {
	Pattern string `json:"pattern"`
	Count   int    `json:"count"`
}

type CreateAppointmentRequest struct {
	ClientID     uuid.UUID   `json:"clientId"`
	ServiceID    uuid.UUID   `json:"serviceId"`
	StartUTC     time.Time   `json:"startUtc"`
	EndUTC       time.Time   `json:"endUtc"`
	Status       string      `json:"status,omitempty"`
	Notes        string      `json:"notes,omitempty"`
	Recurrence   *Recurrence `json:"recurrence,omitempty"`
	ExcludeDates []string    `json:"excludeDates,omitempty"`
}

// UpdateAppointmentRequest is a patch; absent fields keep their value.
type UpdateAppointmentRequest struct {
	ClientID  *uuid.UUID `json:"clientId,omitempty"`
	ServiceID *uuid.UUID `json:"serviceId,omitempty"`
	StartUTC  *time.Time `json:"startUtc,omitempty"`
	EndUTC    *time.Time `json:"endUtc,omitempty"`
	Status    *string    `json:"status,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
}

type RescheduleRequest struct {
	StartUTC time.Time `json:"startUtc"`
	EndUTC   time.Time `json:"endUtc"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

type AppointmentResponse struct {
	Appointment Appointment `json:"appointment"`
}

type AppointmentsResponse struct {
	Appointments []Appointment `json:"appointments"`
}

type SeriesResponse struct {
	RecurrenceGroupID uuid.UUID     `json:"recurrenceGroupId"`
	Appointments      []Appointment `json:"appointments"`
}

type Occurrence struct {
	Index         int        `json:"index"`
	Key           string     `json:"key"`
	StartUTC      time.Time  `json:"startUtc"`
	EndUTC        time.Time  `json:"endUtc"`
	HasConflict   bool       `json:"hasConflict"`
	ConflictingID *uuid.UUID `json:"conflictingId,omitempty"`
}

type PreviewResponse struct {
	Occurrences []Occurrence `json:"occurrences"`
}

// FutureUpdateResult is one member's outcome of a scope=future update.
type FutureUpdateResult struct {
	ID          uuid.UUID    `json:"id"`
	Appointment *Appointment `json:"appointment,omitempty"`
	Error       *ErrorBody   `json:"error,omitempty"`
}

type FutureUpdateResponse struct {
	Results []FutureUpdateResult `json:"results"`
}

type DeleteResponse struct {
	DeletedIDs []uuid.UUID `json:"deletedIds"`
}

type CreateClientRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

type CreateServiceRequest struct {
	Name            string `json:"name"`
	DurationMinutes int    `json:"durationMinutes"`
	PriceCents      *int64 `json:"priceCents,omitempty"`
}

type ClientResponse struct {
	Client Client `json:"client"`
}

type ClientsResponse struct {
	Clients []Client `json:"clients"`
}

type ServiceResponse struct {
	Service Service `json:"service"`
}

type ServicesResponse struct {
	Services []Service `json:"services"`
}
