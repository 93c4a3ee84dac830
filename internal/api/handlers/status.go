package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/nicbou/homeserver/internal/clients"
	"github.com/nicbou/homeserver/internal/config"
)

// ServiceStatusHandler handles checking the status of the media server
type ServiceStatusHandler struct{}

// NewServiceStatusHandler creates a new ServiceStatusHandler
func NewServiceStatusHandler() *ServiceStatusHandler {
	return &ServiceStatusHandler{}
}

// ServiceStatus represents the status of a connected service
type ServiceStatus struct {
	Name    string `json:"name"`
	Online  bool   `json:"online"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// ServiceStatusResponse represents the response for service status check
type ServiceStatusResponse struct {
	Services []ServiceStatus `json:"services"`
}

// CheckStatus handles GET /api/system/services
func (h *ServiceStatusHandler) CheckStatus(w http.ResponseWriter, r *http.Request) {
	// Always get fresh config to reflect current settings
	cfg := config.Get()

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := ServiceStatus{Name: "Media server"}

	client := clients.NewMediaClient(cfg.MediaServer)
	start := time.Now()
	if err := client.Ping(ctx); err != nil {
		status.Online = false
		status.Error = err.Error()
	} else {
		status.Online = true
		status.Latency = time.Since(start).String()
	}

	writeJSON(w, http.StatusOK, ServiceStatusResponse{
		Services: []ServiceStatus{status},
	})
}
