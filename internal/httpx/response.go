package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	apperrors "storefront/internal/errors"
)

const genericErrorMessage = "Something went wrong"

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

type envelope struct {
	Success    bool        `json:"success"`
	Data       any         `json:"data"`
	Message    string      `json:"message,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type ErrorBody struct {
	Message    string                       `json:"message"`
	StatusCode int                          `json:"statusCode"`
	Timestamp  string                       `json:"timestamp"`
	Path       string                       `json:"path"`
	Method     string                       `json:"method"`
	Details    []apperrors.ValidationDetail `json:"details,omitempty"`
	// Stack is the wrapped error chain, followed by the goroutine stack for
	// unexpected errors. Omitted in production.
	Stack      string                       `json:"stack,omitempty"`
}

type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// Responder writes the success and failure envelopes shared by every service.
type Responder struct {
	logger      *zap.Logger
	development bool
	production  bool
	now         func() time.Time
}

func NewResponder(logger *zap.Logger, development, production bool) *Responder {
	return &Responder{
		logger:      logger,
		development: development,
		production:  production,
		now:         time.Now,
	}
}

func (rs *Responder) JSON(w http.ResponseWriter, status int, data any, message string) {
	rs.write(w, status, envelope{Success: true, Data: data, Message: message})
}

func (rs *Responder) Page(w http.ResponseWriter, data any, p Pagination) {
	rs.write(w, http.StatusOK, envelope{Success: true, Data: data, Pagination: &p})
}

// Error renders err as the failure envelope. Operational errors keep their
// message; anything else becomes a 500 whose message is only revealed in
// development.
func (rs *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	status, operational := apperrors.Classify(err)

	message := genericErrorMessage
	if operational || rs.development {
		message = apperrors.PublicMessage(err)
	}

	logFields := []zap.Field{
		zap.Error(err),
		zap.Int("statusCode", status),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
		zap.Bool("isOperational", operational),
	}
	if status >= http.StatusInternalServerError {
		rs.logger.Error("request failed", logFields...)
	} else {
		rs.logger.Warn("request rejected", logFields...)
	}

	body := ErrorBody{
		Message:    message,
		StatusCode: status,
		Timestamp:  rs.now().UTC().Format(time.RFC3339Nano),
		Path:       r.URL.Path,
		Method:     r.Method,
	}
	if ve, ok := apperrors.IsValidationError(err); ok {
		body.Details = ve.Details
	}
	if !rs.production {
		body.Stack = fmt.Sprintf("%+v", err)
		if !operational {
			body.Stack += "\n\n" + string(debug.Stack())
		}
	}

	rs.write(w, status, ErrorResponse{Success: false, Error: body})
}

func (rs *Responder) write(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		rs.logger.Error("failed to encode response", zap.Error(err))
	}
}
