// Package grpc serves the operational gRPC surface: health checking behind
// the shared interceptor chain.
package grpc

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type ServerOptions struct {
	RequestTimeout time.Duration
	Logger         *slog.Logger
	Health         *HealthReporter
}

func NewServer(opts ServerOptions) *grpc.Server {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "grpc"))

	s := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			loggingInterceptor(log),
			requestTimeoutInterceptor(opts.RequestTimeout),
			errorStatusInterceptor(),
		),
	)
	if opts.Health != nil {
		healthpb.RegisterHealthServer(s, opts.Health.Server())
	}
	return s
}
