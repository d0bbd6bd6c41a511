package handlers

import (
	"context"
	"net/http"
	"time"

	"telehealth-server/internal/logger"

	"github.com/gin-gonic/gin"
)

// Pinger is a dependency the health check pings.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler reports whether the server's dependencies answer.
type HealthHandler struct {
	Checks map[string]Pinger
	Log    *logger.Logger
}

func NewHealthHandler(checks map[string]Pinger, log *logger.Logger) *HealthHandler {
	return &HealthHandler{Checks: checks, Log: log}
}

// Health answers 200 with status UP when every check passes, 503 otherwise.
// Failures are logged; the response only names which check is down.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := "UP"
	checks := make(gin.H, len(h.Checks))
	for name, p := range h.Checks {
		if err := p.Ping(ctx); err != nil {
			status = "DOWN"
			checks[name] = "DOWN"
			h.Log.WithComponent("health").WithError(err).WithField("check", name).Error("Health check failed")
			continue
		}
		checks[name] = "UP"
	}

	code := http.StatusOK
	if status != "UP" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status, "checks": checks})
}
