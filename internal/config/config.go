package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr           string
	HTTPRequestTimeout time.Duration
	HTTPBodyLimit      int64
	CORSAllowedOrigins []string

	GRPCHost           string
	GRPCPort           int
	GRPCRequestTimeout time.Duration

	DatabaseURL       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBConnMaxIdleTime time.Duration
	DBMigrate         bool

	ShutdownTimeout time.Duration
	LogLevel        string

	JWTSecret         string
	DefaultBusinessID string

	RateLimitPerMinute int
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	RateLimitFailOpen  bool

	KafkaBrokers       []string
	KafkaTopicPrefix   string
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxRetention    time.Duration
	OutboxPruneCron    string

	OTelEnabled     bool
	OTelEndpoint    string
	OTelSampleRatio float64
}

// GRPCAddr is the host:port the health server listens on.
func (c Config) GRPCAddr() string {
	return net.JoinHostPort(c.GRPCHost, strconv.Itoa(c.GRPCPort))
}

func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PLANNER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.request_timeout", "10s")
	v.SetDefault("http.body_limit_bytes", 1<<20)
	v.SetDefault("cors.allowed_origins", "")
	v.SetDefault("grpc.host", "0.0.0.0")
	v.SetDefault("grpc.port", 50051)
	v.SetDefault("grpc.addr", "")
	v.SetDefault("grpc.request_timeout", "10s")
	v.SetDefault("database.url", "sqlite:file:planner.db?_pragma=foreign_keys(1)")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.conn_max_idle_time", "5m")
	v.SetDefault("database.migrate", true)
	v.SetDefault("shutdown.timeout", "10s")
	v.SetDefault("log.level", "info")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.default_business_id", "")
	v.SetDefault("ratelimit.per_minute", 120)
	v.SetDefault("ratelimit.redis_addr", "")
	v.SetDefault("ratelimit.redis_password", "")
	v.SetDefault("ratelimit.redis_db", 0)
	v.SetDefault("ratelimit.fail_open", true)
	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.topic_prefix", "planner")
	v.SetDefault("outbox.poll_interval", "2s")
	v.SetDefault("outbox.batch_size", 100)
	v.SetDefault("outbox.retention", "168h")
	v.SetDefault("outbox.prune_schedule", "@hourly")
	v.SetDefault("otel.enabled", false)
	v.SetDefault("otel.endpoint", "localhost:4317")
	v.SetDefault("otel.sample_ratio", 1.0)

	_ = v.BindEnv("http.addr", "PLANNER_HTTP_ADDR", "HTTP_ADDR")
	_ = v.BindEnv("http.request_timeout", "PLANNER_HTTP_REQUEST_TIMEOUT")
	_ = v.BindEnv("http.body_limit_bytes", "PLANNER_HTTP_BODY_LIMIT_BYTES")
	_ = v.BindEnv("cors.allowed_origins", "PLANNER_CORS_ALLOWED_ORIGINS", "CORS_ALLOWED_ORIGINS")
	_ = v.BindEnv("grpc.host", "PLANNER_GRPC_HOST", "GRPC_HOST")
	_ = v.BindEnv("grpc.port", "PLANNER_GRPC_PORT", "GRPC_PORT")
	_ = v.BindEnv("grpc.addr", "PLANNER_GRPC_ADDR", "GRPC_ADDR")
	_ = v.BindEnv("grpc.request_timeout", "PLANNER_GRPC_REQUEST_TIMEOUT")
	_ = v.BindEnv("database.url", "PLANNER_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("database.max_open_conns", "PLANNER_DATABASE_MAX_OPEN_CONNS")
	_ = v.BindEnv("database.max_idle_conns", "PLANNER_DATABASE_MAX_IDLE_CONNS")
	_ = v.BindEnv("database.conn_max_lifetime", "PLANNER_DATABASE_CONN_MAX_LIFETIME")
	_ = v.BindEnv("database.conn_max_idle_time", "PLANNER_DATABASE_CONN_MAX_IDLE_TIME")
	_ = v.BindEnv("database.migrate", "PLANNER_DATABASE_MIGRATE")
	_ = v.BindEnv("shutdown.timeout", "PLANNER_SHUTDOWN_TIMEOUT", "SHUTDOWN_TIMEOUT")
	_ = v.BindEnv("log.level", "PLANNER_LOG_LEVEL", "LOG_LEVEL")
	_ = v.BindEnv("auth.jwt_secret", "PLANNER_AUTH_JWT_SECRET", "JWT_SECRET")
	_ = v.BindEnv("auth.default_business_id", "PLANNER_AUTH_DEFAULT_BUSINESS_ID")
	_ = v.BindEnv("ratelimit.per_minute", "PLANNER_RATELIMIT_PER_MINUTE")
	_ = v.BindEnv("ratelimit.redis_addr", "PLANNER_RATELIMIT_REDIS_ADDR", "REDIS_ADDR")
	_ = v.BindEnv("ratelimit.redis_password", "PLANNER_RATELIMIT_REDIS_PASSWORD", "REDIS_PASSWORD")
	_ = v.BindEnv("ratelimit.redis_db", "PLANNER_RATELIMIT_REDIS_DB")
	_ = v.BindEnv("ratelimit.fail_open", "PLANNER_RATELIMIT_FAIL_OPEN")
	_ = v.BindEnv("kafka.brokers", "PLANNER_KAFKA_BROKERS", "KAFKA_BROKERS")
	_ = v.BindEnv("kafka.topic_prefix", "PLANNER_KAFKA_TOPIC_PREFIX")
	_ = v.BindEnv("outbox.poll_interval", "PLANNER_OUTBOX_POLL_INTERVAL")
	_ = v.BindEnv("outbox.batch_size", "PLANNER_OUTBOX_BATCH_SIZE")
	_ = v.BindEnv("outbox.retention", "PLANNER_OUTBOX_RETENTION")
	_ = v.BindEnv("outbox.prune_schedule", "PLANNER_OUTBOX_PRUNE_SCHEDULE")
	_ = v.BindEnv("otel.enabled", "PLANNER_OTEL_ENABLED")
	_ = v.BindEnv("otel.endpoint", "PLANNER_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	_ = v.BindEnv("otel.sample_ratio", "PLANNER_OTEL_SAMPLE_RATIO")

	durations := map[string]time.Duration{}
	for _, key := range []string{
		"http.request_timeout",
		"grpc.request_timeout",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		"shutdown.timeout",
		"outbox.poll_interval",
		"outbox.retention",
	} {
		d, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", key, err)
		}
		durations[key] = d
	}

	if addr := strings.TrimSpace(v.GetString("grpc.addr")); addr != "" {
		host, portStr, err := net.SplitHostPort(addr)
		if err == nil {
			if host != "" {
				v.Set("grpc.host", host)
			}
			if port, err := strconv.Atoi(portStr); err == nil {
				v.Set("grpc.port", port)
			}
		}
	}

	perMinute := v.GetInt("ratelimit.per_minute")
	if perMinute < 0 {
		return Config{}, fmt.Errorf("ratelimit.per_minute must not be negative, got %d", perMinute)
	}

	return Config{
		HTTPAddr:           strings.TrimSpace(v.GetString("http.addr")),
		HTTPRequestTimeout: durations["http.request_timeout"],
		HTTPBodyLimit:      v.GetInt64("http.body_limit_bytes"),
		CORSAllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
		GRPCHost:           strings.TrimSpace(v.GetString("grpc.host")),
		GRPCPort:           v.GetInt("grpc.port"),
		GRPCRequestTimeout: durations["grpc.request_timeout"],
		DatabaseURL:        v.GetString("database.url"),
		DBMaxOpenConns:     v.GetInt("database.max_open_conns"),
		DBMaxIdleConns:     v.GetInt("database.max_idle_conns"),
		DBConnMaxLifetime:  durations["database.conn_max_lifetime"],
		DBConnMaxIdleTime:  durations["database.conn_max_idle_time"],
		DBMigrate:          v.GetBool("database.migrate"),
		ShutdownTimeout:    durations["shutdown.timeout"],
		LogLevel:           v.GetString("log.level"),
		JWTSecret:          v.GetString("auth.jwt_secret"),
		DefaultBusinessID:  strings.TrimSpace(v.GetString("auth.default_business_id")),
		RateLimitPerMinute: perMinute,
		RedisAddr:          strings.TrimSpace(v.GetString("ratelimit.redis_addr")),
		RedisPassword:      v.GetString("ratelimit.redis_password"),
		RedisDB:            v.GetInt("ratelimit.redis_db"),
		RateLimitFailOpen:  v.GetBool("ratelimit.fail_open"),
		KafkaBrokers:       splitList(v.GetString("kafka.brokers")),
		KafkaTopicPrefix:   strings.TrimSpace(v.GetString("kafka.topic_prefix")),
		OutboxPollInterval: durations["outbox.poll_interval"],
		OutboxBatchSize:    v.GetInt("outbox.batch_size"),
		OutboxRetention:    durations["outbox.retention"],
		OutboxPruneCron:    strings.TrimSpace(v.GetString("outbox.prune_schedule")),
		OTelEnabled:        v.GetBool("otel.enabled"),
		OTelEndpoint:       strings.TrimSpace(v.GetString("otel.endpoint")),
		OTelSampleRatio:    v.GetFloat64("otel.sample_ratio"),
	}, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
