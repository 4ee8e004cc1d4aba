// Package httpapi is the JSON scheduling API served over gin.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sanderbeurden/plannerapp-sub000/internal/domain"
	"github.com/sanderbeurden/plannerapp-sub000/internal/ratelimit"
	"github.com/sanderbeurden/plannerapp-sub000/internal/service/appointments"
	"github.com/sanderbeurden/plannerapp-sub000/internal/service/catalog"
)

type AppointmentService interface {
	List(ctx context.Context, businessID string, from, to time.Time, activeOnly bool) ([]domain.Appointment, error)
	Get(ctx context.Context, businessID string, id uuid.UUID) (domain.Appointment, error)
	CreateSingle(ctx context.Context, businessID string, in appointments.CreateInput) (domain.Appointment, error)
	CreateRecurring(ctx context.Context, businessID string, in appointments.RecurringInput, excludeDates []string) (appointments.SeriesResult, error)
	PreviewRecurrence(ctx context.Context, businessID string, in appointments.RecurringInput) ([]appointments.PreviewOccurrence, error)
	Update(ctx context.Context, businessID string, id uuid.UUID, patch appointments.Patch) (domain.Appointment, error)
	UpdateFuture(ctx context.Context, businessID string, id uuid.UUID, patch appointments.Patch) ([]appointments.FutureResult, error)
	Reschedule(ctx context.Context, businessID string, id uuid.UUID, start, end time.Time) (domain.Appointment, error)
	ChangeStatus(ctx context.Context, businessID string, id uuid.UUID, status string) (domain.Appointment, error)
	Delete(ctx context.Context, businessID string, id uuid.UUID, scope appointments.Scope) ([]uuid.UUID, error)
}

type CatalogService interface {
	CreateClient(ctx context.Context, businessID string, in catalog.ClientInput) (domain.Client, error)
	ListClients(ctx context.Context, businessID string) ([]domain.Client, error)
	GetClient(ctx context.Context, businessID string, id uuid.UUID) (domain.Client, error)
	DeleteClient(ctx context.Context, businessID string, id uuid.UUID) error
	CreateService(ctx context.Context, businessID string, in catalog.ServiceInput) (domain.Service, error)
	ListServices(ctx context.Context, businessID string) ([]domain.Service, error)
	GetService(ctx context.Context, businessID string, id uuid.UUID) (domain.Service, error)
	DeleteService(ctx context.Context, businessID string, id uuid.UUID) error
}

// ReadyCheck reports whether a dependency can serve traffic.
type ReadyCheck func(ctx context.Context) error

type Options struct {
	Appointments AppointmentService
	Catalog      CatalogService
	Tenants      tenantResolver
	// Limiter may be nil to disable rate limiting.
	Limiter         ratelimit.Limiter
	LimiterFailOpen bool
	Logger          *slog.Logger
	ReadyChecks     map[string]ReadyCheck
	CORSOrigins     []string
	BodyLimit       int64
	RequestTimeout  time.Duration
}

type handler struct {
	appts   AppointmentService
	catalog CatalogService
	log     *slog.Logger
}

// NewRouter builds the gin engine with every route and middleware.
func NewRouter(opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "http"))

	h := &handler{appts: opts.Appointments, catalog: opts.Catalog, log: logger}

	r := gin.New()
	r.Use(gin.Recovery(), withRequestID(), withAccessLog(logger), withCORS(opts.CORSOrigins))
	r.HandleMethodNotAllowed = true

	r.GET("/healthz", healthz)
	r.GET("/readyz", readyz(opts.ReadyChecks, logger))

	v1 := r.Group("/api/v1")
	v1.Use(withBodyLimit(opts.BodyLimit), withTimeout(opts.RequestTimeout), withTenant(opts.Tenants, logger))
	if opts.Limiter != nil {
		v1.Use(withRateLimit(opts.Limiter, opts.LimiterFailOpen, logger))
	}

	appts := v1.Group("/appointments")
	{
		appts.GET("", h.listAppointments)
		appts.POST("", h.createAppointment)
		appts.POST("/preview-recurrence", h.previewRecurrence)
		appts.GET("/:id", h.getAppointment)
		appts.PUT("/:id", h.updateAppointment)
		appts.POST("/:id/reschedule", h.rescheduleAppointment)
		appts.POST("/:id/status", h.changeStatus)
		appts.DELETE("/:id", h.deleteAppointment)
	}

	clients := v1.Group("/clients")
	{
		clients.GET("", h.listClients)
		clients.POST("", h.createClient)
		clients.GET("/:id", h.getClient)
		clients.DELETE("/:id", h.deleteClient)
	}

	services := v1.Group("/services")
	{
		services.GET("", h.listServices)
		services.POST("", h.createService)
		services.GET("/:id", h.getService)
		services.DELETE("/:id", h.deleteService)
	}

	return r
}

// NewHandler wraps the router in otel HTTP instrumentation.
func NewHandler(opts Options) http.Handler {
	return otelhttp.NewHandler(NewRouter(opts), "planner.http",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
