package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

const readyCheckTimeout = 2 * time.Second

func healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func readyz(checks map[string]ReadyCheck, logger *slog.Logger) gin.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(c *gin.Context) {
		results := make(map[string]string, len(names))
		ready := true
		for _, name := range names {
			ctx, cancel := context.WithTimeout(c.Request.Context(), readyCheckTimeout)
			err := checks[name](ctx)
			cancel()
			if err != nil {
				ready = false
				results[name] = err.Error()
				logger.Warn("readiness check failed", slog.String("check", name), slog.Any("err", err))
				continue
			}
			results[name] = "ok"
		}

		if !ready {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "checks": results})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "checks": results})
	}
}
