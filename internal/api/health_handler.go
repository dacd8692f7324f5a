package api

import (
	"context"
	"net/http"
	"time"

	"blogapi/internal/domain"
	"blogapi/pkg/logger"
)

const healthCheckTimeout = 3 * time.Second

// HealthHandler reports process liveness and the health of its backing
// stores. Checks maps a component name to its pinger.
type HealthHandler struct {
	checks  map[string]domain.Pinger
	version string
	logger  logger.Logger
}

func NewHealthHandler(checks map[string]domain.Pinger, version string, logger logger.Logger) *HealthHandler {
	return &HealthHandler{
		checks:  checks,
		version: version,
		logger:  logger,
	}
}

func (h *HealthHandler) Root(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Server is running"))
}

func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	services := make(map[string]interface{}, len(h.checks))
	status := "healthy"
	for name, p := range h.checks {
		start := time.Now()
		if err := p.Ping(ctx); err != nil {
			h.logger.WarnContext(ctx, "Health check failed", map[string]interface{}{"component": name, "error": err.Error()})
			services[name] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
			status = "degraded"
			continue
		}
		services[name] = map[string]interface{}{"status": "healthy", "latency": time.Since(start).String()}
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, envelope{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"services":  services,
		"version":   h.version,
	})
}

func (h *HealthHandler) LivenessCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, envelope{
		"status":    "alive",
		"timestamp": time.Now().UTC(),
	})
}

func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Root)
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.HandleFunc("GET /health/live", h.LivenessCheck)
}
