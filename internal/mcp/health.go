package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// HealthResponse is the JSON body of the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Qdrant    string `json:"qdrant"`
	Timestamp string `json:"timestamp"`
}

// HealthChecker is the health probe dependency; the storage layer
// implements it.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// NewHealthHandler creates the /health endpoint handler. It probes the
// vector store and answers 200 when it is reachable, 503 when not.
func NewHealthHandler(store HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		response := HealthResponse{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
		w.Header().Set("Content-Type", "application/json")

		if err := store.Health(ctx); err != nil {
			response.Status = "unhealthy"
			response.Qdrant = "disconnected"
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(response)
			return
		}

		response.Status = "healthy"
		response.Qdrant = "connected"
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	}
}
