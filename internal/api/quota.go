package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/snarg/scribed/internal/quota"
)

// QuotaHandler exposes a read-only snapshot of the rate limiter.
type QuotaHandler struct {
	limiter *quota.Limiter
}

// NewQuotaHandler creates the quota handler.
func NewQuotaHandler(limiter *quota.Limiter) *QuotaHandler {
	return &QuotaHandler{limiter: limiter}
}

// Routes registers the quota endpoint.
func (h *QuotaHandler) Routes(r chi.Router) {
	r.Get("/quota", h.Quota)
}

type quotaResponse struct {
	quota.Snapshot
	Message string `json:"message"`
}

// Quota handles GET /api/quota. Safe to call independent of any pipeline
// run.
func (h *QuotaHandler) Quota(w http.ResponseWriter, r *http.Request) {
	snap := h.limiter.Snapshot()
	WriteJSON(w, http.StatusOK, quotaResponse{
		Snapshot: snap,
		Message:  fmt.Sprintf("up to %d minutes of audio can be processed right now", snap.RemainingMinutes),
	})
}
