package grpc

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name for the scheduling backend. The
// empty name reports overall server health with the same status.
const ServiceName = "planner.Scheduling"

type Check func(ctx context.Context) error

// HealthReporter drives a grpc health server from periodic dependency checks.
type HealthReporter struct {
	server   *health.Server
	checks   map[string]Check
	names    []string
	interval time.Duration
	log      *slog.Logger
}

func NewHealthReporter(checks map[string]Check, interval time.Duration, log *slog.Logger) *HealthReporter {
	if log == nil {
		log = slog.Default()
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	srv := health.NewServer()
	srv.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	srv.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return &HealthReporter{
		server:   srv,
		checks:   checks,
		names:    names,
		interval: interval,
		log:      log.With(slog.String("component", "grpc.health")),
	}
}

func (h *HealthReporter) Server() healthpb.HealthServer {
	return h.server
}

// Probe runs every check once and publishes the combined status.
func (h *HealthReporter) Probe(ctx context.Context) bool {
	ok := true
	for _, name := range h.names {
		cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := h.checks[name](cctx)
		cancel()
		if err != nil {
			ok = false
			h.log.Warn("health check failed", slog.String("check", name), slog.Any("err", err))
		}
	}

	st := healthpb.HealthCheckResponse_SERVING
	if !ok {
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.server.SetServingStatus("", st)
	h.server.SetServingStatus(ServiceName, st)
	return ok
}

// Run probes until ctx is done, then marks the server as shutting down.
func (h *HealthReporter) Run(ctx context.Context) {
	h.Probe(ctx)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
			h.Probe(ctx)
		}
	}
}
