package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/marmos91/smbsec/pkg/identity"
)

// HealthHandler handles health check endpoints.
//
// Health endpoints are unauthenticated and provide:
//   - Liveness probe: Is the server process running?
//   - Readiness probe: Is the user store reachable?
type HealthHandler struct {
	users identity.UserStore
}

// NewHealthHandler creates a new health handler.
//
// The users parameter may be nil, in which case the readiness check
// returns unhealthy status.
func NewHealthHandler(users identity.UserStore) *HealthHandler {
	return &HealthHandler{users: users}
}

// Liveness handles GET /health - simple liveness probe.
//
// Returns 200 OK if the server process is running. This endpoint is designed
// for Kubernetes liveness probes and should always succeed as long as the
// HTTP server is responsive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthyResponse(map[string]string{
		"service": "smbsec",
	}))
}

// Readiness handles GET /health/ready - readiness probe.
//
// Returns 200 OK if the user store answers a list query, which covers
// both the in-memory backends and the database-backed ones. Returns
// 503 Service Unavailable otherwise.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.users == nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("user store not initialized"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	start := time.Now()
	users, err := h.users.ListUsers(ctx)
	latency := time.Since(start)

	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, healthyResponse(map[string]interface{}{
		"users":   len(users),
		"latency": latency.String(),
	}))
}
