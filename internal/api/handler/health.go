package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/daap14/blueprints/internal/api/middleware"
	"github.com/daap14/blueprints/internal/api/response"
)

// DBPinger checks connectivity to the blueprint store.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles the GET /health endpoint.
type HealthHandler struct {
	dbPinger DBPinger
	version  string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(pinger DBPinger, version string) *HealthHandler {
	return &HealthHandler{
		dbPinger: pinger,
		version:  version,
	}
}

type databaseStatus struct {
	Connected bool `json:"connected"`
}

type healthData struct {
	Status   string         `json:"status"`
	Version  string         `json:"version"`
	Database databaseStatus `json:"database"`
}

// ServeHTTP handles the health check request.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	status := "healthy"
	connected := false
	if h.dbPinger != nil {
		if err := h.dbPinger.Ping(r.Context()); err != nil {
			slog.Warn("database ping failed", "error", err, "requestId", requestID)
		} else {
			connected = true
		}
	}
	if !connected {
		status = "degraded"
	}

	response.Success(w, http.StatusOK, healthData{
		Status:   status,
		Version:  h.version,
		Database: databaseStatus{Connected: connected},
	}, requestID)
}
