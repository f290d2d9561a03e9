package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	apperrors "storefront/internal/errors"
)

type HealthResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
}

// Health reports liveness for service (e.g. "orders").
func Health(service, displayName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(HealthResponse{
			Success:   true,
			Message:   displayName + " service is healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Service:   service,
		})
	}
}

func (rs *Responder) NotFound(w http.ResponseWriter, r *http.Request) {
	rs.Error(w, r, apperrors.NewNotFoundError(fmt.Sprintf("Route %s %s not found", r.Method, r.URL.Path)))
}

func (rs *Responder) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	rs.write(w, http.StatusMethodNotAllowed, ErrorResponse{
		Success: false,
		Error: ErrorBody{
			Message:    fmt.Sprintf("Method %s not allowed on %s", r.Method, r.URL.Path),
			StatusCode: http.StatusMethodNotAllowed,
			Timestamp:  rs.now().UTC().Format(time.RFC3339Nano),
			Path:       r.URL.Path,
			Method:     r.Method,
		},
	})
}
