package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ReadinessCheck verifies a single downstream dependency.
type ReadinessCheck func(ctx context.Context) error

type readinessProbe struct {
	name  string
	check ReadinessCheck
}

// HealthHandler exposes liveness and readiness information.
type HealthHandler struct {
	startedAt time.Time
	probes    []readinessProbe
}

// HealthOption customises the health handler.
type HealthOption func(*HealthHandler)

// WithReadinessCheck registers a named dependency probe.
func WithReadinessCheck(name string, check ReadinessCheck) HealthOption {
	return func(h *HealthHandler) {
		if name == "" || check == nil {
			return
		}
		h.probes = append(h.probes, readinessProbe{name: name, check: check})
	}
}

// NewHealthHandler builds a new health handler instance.
func NewHealthHandler(opts ...HealthOption) *HealthHandler {
	h := &HealthHandler{startedAt: time.Now().UTC()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Status reports process liveness.
func (h *HealthHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		StartedAt: h.startedAt,
	})
}

// Readiness runs the dependency probes and reports aggregate readiness.
func (h *HealthHandler) Readiness(c *gin.Context) {
	checks := make(map[string]string, len(h.probes))
	ready := true

	for _, probe := range h.probes {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		err := probe.check(ctx)
		cancel()

		if err != nil {
			ready = false
			checks[probe.name] = err.Error()
			continue
		}
		checks[probe.name] = "ok"
	}

	resp := ReadyResponse{
		Status:    "ready",
		Checks:    checks,
		Timestamp: time.Now().UTC(),
	}

	if !ready {
		resp.Status = "degraded"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}

	c.JSON(http.StatusOK, resp)
}
