package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"

	"github.com/sanderbeurden/plannerapp-sub000/internal/auth"
	"github.com/sanderbeurden/plannerapp-sub000/internal/config"
	"github.com/sanderbeurden/plannerapp-sub000/internal/events"
	"github.com/sanderbeurden/plannerapp-sub000/internal/ratelimit"
	"github.com/sanderbeurden/plannerapp-sub000/internal/service/appointments"
	"github.com/sanderbeurden/plannerapp-sub000/internal/service/catalog"
	"github.com/sanderbeurden/plannerapp-sub000/internal/store/sqlstore"
	"github.com/sanderbeurden/plannerapp-sub000/internal/telemetry"
	grpcTransport "github.com/sanderbeurden/plannerapp-sub000/internal/transport/grpc"
	"github.com/sanderbeurden/plannerapp-sub000/internal/transport/httpapi"
)

const serviceName = "planner-server"

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With(
		slog.String("service", serviceName),
	)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})).With(
		slog.String("service", serviceName),
	)
	slog.SetDefault(log)

	log.Info("starting",
		slog.String("http_addr", cfg.HTTPAddr),
		slog.String("grpc_addr", cfg.GRPCAddr()),
		slog.String("log_level", cfg.LogLevel),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:     cfg.OTelEnabled,
		ServiceName: serviceName,
		Endpoint:    cfg.OTelEndpoint,
		SampleRatio: cfg.OTelSampleRatio,
	})
	if err != nil {
		log.Error("telemetry setup failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		tctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(tctx); err != nil {
			log.Warn("telemetry shutdown failed", slog.Any("err", err))
		}
	}()

	log.Info("connecting to database", databaseLogArgs(cfg.DatabaseURL)...)
	db, err := sqlstore.Open(cfg.DatabaseURL, sqlstore.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		args := append([]any{slog.Any("err", err)}, databaseLogArgs(cfg.DatabaseURL)...)
		log.Error("database connection failed", args...)
		os.Exit(1)
	}
	defer func() {
		if err := sqlstore.Close(db); err != nil {
			log.Warn("database close failed", slog.Any("err", err))
		}
	}()

	if cfg.DBMigrate {
		if err := sqlstore.Migrate(ctx, db, log); err != nil {
			log.Error("database migration failed", slog.Any("err", err))
			os.Exit(1)
		}
	}

	calendar := sqlstore.NewCalendarRepo(db)
	outbox := sqlstore.NewOutboxRepo(db)
	apptSvc := appointments.NewService(calendar, appointments.WithLogger(log))
	catalogSvc := catalog.NewService(sqlstore.NewCatalogRepo(db), log)

	checks := map[string]httpapi.ReadyCheck{
		"database": sqlstore.Ping(db),
	}

	limiter, closeLimiter := newLimiter(cfg, log, checks)
	defer closeLimiter()

	var wg sync.WaitGroup
	if len(cfg.KafkaBrokers) > 0 {
		checks["kafka"] = events.ReadyCheck(cfg.KafkaBrokers)

		if n, err := outbox.Pending(ctx); err == nil && n > 0 {
			log.Info("outbox backlog", slog.Int("pending", n))
		}
		publisher := events.NewPublisher(outbox, log, events.PublisherConfig{
			Brokers:     cfg.KafkaBrokers,
			TopicPrefix: cfg.KafkaTopicPrefix,
			PollEvery:   cfg.OutboxPollInterval,
			BatchSize:   cfg.OutboxBatchSize,
		})
		janitor := events.NewJanitor(outbox, log, cfg.OutboxPruneCron, cfg.OutboxRetention)

		wg.Add(2)
		go func() {
			defer wg.Done()
			publisher.Run(ctx)
		}()
		go func() {
			defer wg.Done()
			if err := janitor.Run(ctx); err != nil {
				log.Error("outbox janitor stopped", slog.Any("err", err))
			}
		}()
	} else {
		log.Info("kafka brokers not configured; outbox events stay queued")
	}

	grpcChecks := make(map[string]grpcTransport.Check, len(checks))
	for name, check := range checks {
		grpcChecks[name] = grpcTransport.Check(check)
	}
	health := grpcTransport.NewHealthReporter(grpcChecks, 15*time.Second, log)
	wg.Add(1)
	go func() {
		defer wg.Done()
		health.Run(ctx)
	}()

	grpcServer := grpcTransport.NewServer(grpcTransport.ServerOptions{
		RequestTimeout: cfg.GRPCRequestTimeout,
		Logger:         log,
		Health:         health,
	})

	httpServer := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpapi.NewHandler(httpapi.Options{
			Appointments:    apptSvc,
			Catalog:         catalogSvc,
			Tenants:         auth.NewTenantResolver(cfg.JWTSecret, cfg.DefaultBusinessID),
			Limiter:         limiter,
			LimiterFailOpen: cfg.RateLimitFailOpen,
			Logger:          log,
			ReadyChecks:     checks,
			CORSOrigins:     cfg.CORSAllowedOrigins,
			BodyLimit:       cfg.HTTPBodyLimit,
			RequestTimeout:  cfg.HTTPRequestTimeout,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr())
	if err != nil {
		log.Error("grpc listen failed", slog.Any("err", err), slog.String("grpc_addr", cfg.GRPCAddr()))
		os.Exit(1)
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- grpcServer.Serve(lis)
	}()
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	log.Info("servers started", slog.String("http_addr", cfg.HTTPAddr), slog.String("grpc_addr", cfg.GRPCAddr()))

	exitCode := 0
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped with error", slog.Any("err", err))
			exitCode = 1
		}
		stop()
	}

	shutdown(log, httpServer, grpcServer, cfg.ShutdownTimeout)
	wg.Wait()
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

// newLimiter picks redis when an address is configured so limits hold
// across instances. A zero rate disables limiting.
func newLimiter(cfg config.Config, log *slog.Logger, checks map[string]httpapi.ReadyCheck) (ratelimit.Limiter, func()) {
	if cfg.RateLimitPerMinute == 0 {
		log.Info("rate limiting disabled")
		return nil, func() {}
	}
	if cfg.RedisAddr == "" {
		return ratelimit.NewMemory(cfg.RateLimitPerMinute, time.Minute), func() {}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	checks["redis"] = func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
	log.Info("rate limiting via redis", slog.String("redis_addr", cfg.RedisAddr), slog.Int("per_minute", cfg.RateLimitPerMinute))
	return ratelimit.NewRedis(rdb, cfg.RateLimitPerMinute, time.Minute, ""), func() {
		if err := rdb.Close(); err != nil {
			log.Warn("redis close failed", slog.Any("err", err))
		}
	}
}

func shutdown(log *slog.Logger, hs *http.Server, gs *grpc.Server, timeout time.Duration) {
	log.Info("shutting down servers", slog.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := hs.Shutdown(ctx); err != nil {
		log.Warn("http graceful shutdown failed", slog.Any("err", err))
	}

	done := make(chan struct{})
	go func() {
		gs.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		log.Info("grpc server stopped")
	case <-ctx.Done():
		log.Warn("grpc graceful shutdown timed out; forcing stop")
		gs.Stop()
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func databaseLogArgs(databaseURL string) []any {
	if strings.HasPrefix(databaseURL, "sqlite:") || strings.HasPrefix(databaseURL, "file:") {
		return []any{slog.String("db_driver", "sqlite")}
	}
	u, err := url.Parse(databaseURL)
	if err != nil {
		return []any{slog.String("db_url", "invalid")}
	}
	name := strings.TrimPrefix(u.Path, "/")
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "default"
	}
	if host == "" {
		host = "unknown"
	}
	if name == "" {
		name = "unknown"
	}
	return []any{
		slog.String("db_driver", "postgres"),
		slog.String("db_host", host),
		slog.String("db_port", port),
		slog.String("db_name", name),
	}
}
