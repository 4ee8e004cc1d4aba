package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sanderbeurden/plannerapp-sub000/internal/api"
	"github.com/sanderbeurden/plannerapp-sub000/internal/auth"
	"github.com/sanderbeurden/plannerapp-sub000/internal/ratelimit"
)

const (
	RequestIDHeader = "X-Request-Id"

	keyRequestID  = "request_id"
	keyBusinessID = "business_id"
)

func requestID(c *gin.Context) string {
	return c.GetString(keyRequestID)
}

func businessID(c *gin.Context) string {
	return c.GetString(keyBusinessID)
}

func withRequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(keyRequestID, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func withAccessLog(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		logger.Info("http request",
			"request_id", requestID(c),
			"method", c.Request.Method,
			"route", route,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"bytes", c.Writer.Size(),
			"business_id", businessID(c),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// withCORS is a no-op when origins is empty.
func withCORS(origins []string) gin.HandlerFunc {
	allowed := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			allowed = append(allowed, o)
		}
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if len(allowed) == 0 || origin == "" {
			c.Next()
			return
		}
		allowOrigin, ok := matchOrigin(origin, allowed)
		if !ok {
			c.Next()
			return
		}
		c.Header("Access-Control-Allow-Origin", allowOrigin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Business-Id, X-Request-Id")
		c.Header("Access-Control-Max-Age", "600")
		c.Writer.Header().Add("Vary", "Origin")

		if c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != "" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func matchOrigin(origin string, allowed []string) (string, bool) {
	for _, candidate := range allowed {
		if candidate == "*" {
			return "*", true
		}
		if strings.EqualFold(candidate, origin) {
			return origin, true
		}
	}
	return "", false
}

func withBodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

// withTimeout bounds the request context. Store calls observe it.
func withTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

type tenantResolver interface {
	Resolve(authorization, businessHeader string) (string, error)
}

func withTenant(resolver tenantResolver, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		b, err := resolver.Resolve(c.GetHeader(auth.HeaderAuthorization), c.GetHeader(auth.HeaderBusinessID))
		if err != nil {
			msg := "authentication required"
			if errors.Is(err, auth.ErrInvalidToken) {
				msg = "invalid or expired token"
			}
			logger.Info("unauthorized request",
				slog.String("request_id", requestID(c)),
				slog.String("path", c.Request.URL.Path),
				slog.Any("err", err),
			)
			abortWith(c, http.StatusUnauthorized, api.ErrorBody{Code: api.CodeUnauthorized, Message: msg})
			return
		}
		c.Set(keyBusinessID, b)
		c.Next()
	}
}

// withRateLimit keys on the tenant when known and on the client address
// otherwise. With failOpen a limiter error lets the request through.
func withRateLimit(limiter ratelimit.Limiter, failOpen bool, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if b := businessID(c); b != "" {
			key = "biz:" + b
		}
		d, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			logger.Warn("rate limiter error", slog.Any("err", err), slog.String("key", key))
			if failOpen {
				c.Next()
				return
			}
			abortWith(c, http.StatusServiceUnavailable, api.ErrorBody{Code: api.CodeInternal, Message: "rate limiter unavailable"})
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if !d.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(d.RetryAfter.Seconds()))))
			abortWith(c, http.StatusTooManyRequests, api.ErrorBody{Code: api.CodeRateLimited, Message: "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
