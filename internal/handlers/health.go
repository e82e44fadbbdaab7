package handlers

import (
	"net/http"
	"time"

	"github.com/janseva/api/internal/platform/httpx"
	"github.com/janseva/api/internal/repositories"

	domain "github.com/janseva/api/internal/domain"
)

var startTime = time.Now()

// HealthHandlers serves liveness and readiness probes. Readiness consults the
// dependency health repository when one is configured.
type HealthHandlers struct {
	health repositories.HealthRepository
	clock  func() time.Time
}

// NewHealthHandlers constructs the probe handlers. A nil repository keeps
// /readyz always green, which suits local development.
func NewHealthHandlers(health repositories.HealthRepository) *HealthHandlers {
	return &HealthHandlers{
		health: health,
		clock:  time.Now,
	}
}

// Healthz reports process liveness only.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptime":    time.Since(startTime).String(),
		"timestamp": h.clock().UTC().Format(time.RFC3339),
	})
}

// Readyz runs the dependency probes and reports aggregate readiness.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.health == nil {
		writeJSONResponse(w, http.StatusOK, map[string]any{"status": domain.HealthStatusOK})
		return
	}

	report, err := h.health.Collect(ctx)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("readiness_failed", "readiness probes could not run", http.StatusServiceUnavailable))
		return
	}

	checks := make(map[string]any, len(report.Checks))
	for name, check := range report.Checks {
		entry := map[string]any{
			"status":     check.Status,
			"detail":     check.Detail,
			"latency_ms": check.Latency.Milliseconds(),
		}
		if check.Error != "" {
			entry["error"] = check.Error
		}
		checks[name] = entry
	}

	status := http.StatusOK
	if report.Status == domain.HealthStatusError {
		status = http.StatusServiceUnavailable
	}
	writeJSONResponse(w, status, map[string]any{
		"status": report.Status,
		"checks": checks,
	})
}
