// Package client is a typed client for the planner HTTP API and the
// calendar state a scheduling UI keeps on top of it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sanderbeurden/plannerapp-sub000/internal/api"
)

// APIError is a non-2xx response decoded from the error envelope.
type APIError struct {
	Status int
	api.ErrorBody
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

func (e *APIError) IsValidation() bool { return e.Code == api.CodeValidation }
func (e *APIError) IsNotFound() bool   { return e.Code == api.CodeNotFound }
func (e *APIError) IsConflict() bool   { return e.Code == api.CodeConflict }

type Client struct {
	base       *url.URL
	httpClient *http.Client
	token      string
	businessID string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBearerToken authenticates requests against a server running in token
// mode.
func WithBearerToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithBusinessID sets the X-Business-Id header for header mode servers.
func WithBusinessID(id string) Option {
	return func(c *Client) { c.businessID = id }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	c := &Client{
		base: u,
		httpClient: &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) ListAppointments(ctx context.Context, from, to time.Time, activeOnly bool) ([]api.Appointment, error) {
	q := url.Values{}
	q.Set("from", from.UTC().Format(time.RFC3339))
	q.Set("to", to.UTC().Format(time.RFC3339))
	if activeOnly {
		q.Set("active", "true")
	}
	var out api.AppointmentsResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/appointments", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Appointments, nil
}

func (c *Client) GetAppointment(ctx context.Context, id uuid.UUID) (api.Appointment, error) {
	var out api.AppointmentResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/appointments/"+id.String(), nil, nil, &out)
	return out.Appointment, err
}

// CreateAppointment creates a single appointment. req.Recurrence must be nil.
func (c *Client) CreateAppointment(ctx context.Context, req api.CreateAppointmentRequest) (api.Appointment, error) {
	if req.Recurrence != nil {
		return api.Appointment{}, errors.New("use CreateSeries for recurring appointments")
	}
	var out api.AppointmentResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/appointments", nil, req, &out)
	return out.Appointment, err
}

func (c *Client) CreateSeries(ctx context.Context, req api.CreateAppointmentRequest) (api.SeriesResponse, error) {
	if req.Recurrence == nil {
		return api.SeriesResponse{}, errors.New("series requires a recurrence")
	}
	var out api.SeriesResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/appointments", nil, req, &out)
	return out, err
}

func (c *Client) PreviewRecurrence(ctx context.Context, req api.CreateAppointmentRequest) ([]api.Occurrence, error) {
	var out api.PreviewResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/appointments/preview-recurrence", nil, req, &out); err != nil {
		return nil, err
	}
	return out.Occurrences, nil
}

func (c *Client) UpdateAppointment(ctx context.Context, id uuid.UUID, req api.UpdateAppointmentRequest) (api.Appointment, error) {
	var out api.AppointmentResponse
	err := c.do(ctx, http.MethodPut, "/api/v1/appointments/"+id.String(), nil, req, &out)
	return out.Appointment, err
}

func (c *Client) UpdateFuture(ctx context.Context, id uuid.UUID, req api.UpdateAppointmentRequest) ([]api.FutureUpdateResult, error) {
	q := url.Values{"scope": {"future"}}
	var out api.FutureUpdateResponse
	if err := c.do(ctx, http.MethodPut, "/api/v1/appointments/"+id.String(), q, req, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (c *Client) Reschedule(ctx context.Context, id uuid.UUID, start, end time.Time) (api.Appointment, error) {
	var out api.AppointmentResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/appointments/"+id.String()+"/reschedule", nil,
		api.RescheduleRequest{StartUTC: start.UTC(), EndUTC: end.UTC()}, &out)
	return out.Appointment, err
}

func (c *Client) ChangeStatus(ctx context.Context, id uuid.UUID, status string) (api.Appointment, error) {
	var out api.AppointmentResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/appointments/"+id.String()+"/status", nil, api.StatusRequest{Status: status}, &out)
	return out.Appointment, err
}

// DeleteAppointment deletes with scope "single" or "future".
func (c *Client) DeleteAppointment(ctx context.Context, id uuid.UUID, scope string) ([]uuid.UUID, error) {
	var q url.Values
	if scope != "" {
		q = url.Values{"scope": {scope}}
	}
	var out api.DeleteResponse
	if err := c.do(ctx, http.MethodDelete, "/api/v1/appointments/"+id.String(), q, nil, &out); err != nil {
		return nil, err
	}
	return out.DeletedIDs, nil
}

func (c *Client) ListClients(ctx context.Context) ([]api.Client, error) {
	var out api.ClientsResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/clients", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Clients, nil
}

func (c *Client) CreateClient(ctx context.Context, req api.CreateClientRequest) (api.Client, error) {
	var out api.ClientResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/clients", nil, req, &out)
	return out.Client, err
}

func (c *Client) ListServices(ctx context.Context) ([]api.Service, error) {
	var out api.ServicesResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/services", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Services, nil
}

func (c *Client) CreateService(ctx context.Context, req api.CreateServiceRequest) (api.Service, error) {
	var out api.ServiceResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/services", nil, req, &out)
	return out.Service, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := *c.base
	u.Path = c.base.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.businessID != "" {
		req.Header.Set("X-Business-Id", c.businessID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var env api.ErrorEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Error.Code == "" {
		return &APIError{
			Status:    resp.StatusCode,
			ErrorBody: api.ErrorBody{Code: api.CodeInternal, Message: strings.TrimSpace(string(raw))},
		}
	}
	return &APIError{Status: resp.StatusCode, ErrorBody: env.Error}
}
