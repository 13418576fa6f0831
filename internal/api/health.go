package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/snarg/scribed/internal/media"
)

type HealthResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Checks        map[string]string `json:"checks"`
}

// HealthHandler reports service liveness and dependency status.
type HealthHandler struct {
	version       string
	startTime     time.Time
	sttConfigured bool
}

func NewHealthHandler(version string, startTime time.Time, sttConfigured bool) *HealthHandler {
	return &HealthHandler{
		version:       version,
		startTime:     startTime,
		sttConfigured: sttConfigured,
	}
}

// Routes registers the health endpoint.
func (h *HealthHandler) Routes(r chi.Router) {
	r.Get("/health", h.Health)
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	status := "healthy"

	if media.CheckFFmpeg() {
		checks["ffmpeg"] = "ok"
	} else {
		// Small files still transcribe without ffmpeg; splitting and
		// precise durations do not.
		checks["ffmpeg"] = "missing"
		status = "degraded"
	}

	if h.sttConfigured {
		checks["stt"] = "configured"
	} else {
		checks["stt"] = "not_configured"
		status = "degraded"
	}

	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:        status,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Checks:        checks,
	})
}
