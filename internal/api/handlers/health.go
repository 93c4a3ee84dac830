package handlers

import (
	"net/http"
	"time"
)

// Version is the homeserver release, overridden at build time with
// -ldflags "-X github.com/nicbou/homeserver/internal/api/handlers.Version=...".
var Version = "0.9.0"

// HealthHandler answers liveness checks from the reverse proxy and the UI.
type HealthHandler struct {
	startTime time.Time
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{startTime: time.Now()}
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// Handle handles GET /health
func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Service: "homeserver",
		Version: Version,
		Uptime:  time.Since(h.startTime).String(),
	})
}
