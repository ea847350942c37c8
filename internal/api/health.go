package api

import (
	"context"
	"net/http"
	"time"
)

// pingTimeout bounds the store check behind /health
const pingTimeout = 3 * time.Second

// HealthResponse is the JSON body of /health
type HealthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version,omitempty"`
	Store     string    `json:"store"`
	Latency   string    `json:"latency,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	start := time.Now()
	err := s.svc.Ping(ctx)
	latency := time.Since(start)

	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:    "down",
			Version:   s.opts.Version,
			Store:     "down",
			Timestamp: s.now(),
		})
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Version:   s.opts.Version,
		Store:     "ok",
		Latency:   latency.String(),
		Timestamp: s.now(),
	})
}
