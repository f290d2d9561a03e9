package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypedErrors_MatchThroughWrapping(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		match func(error) bool
	}{
		{"validation", NewValidationError("Invalid request data"), func(err error) bool { _, ok := IsValidationError(err); return ok }},
		{"bad request", NewBadRequestError("Order is already cancelled"), func(err error) bool { _, ok := IsBadRequestError(err); return ok }},
		{"unauthorized", NewUnauthorizedError("Invalid token"), func(err error) bool { _, ok := IsUnauthorizedError(err); return ok }},
		{"forbidden", NewForbiddenError("Access denied"), func(err error) bool { _, ok := IsForbiddenError(err); return ok }},
		{"not found", NewNotFoundError("Payment not found"), func(err error) bool { _, ok := IsNotFoundError(err); return ok }},
		{"conflict", NewConflictError("User with this email already exists"), func(err error) bool { _, ok := IsConflictError(err); return ok }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.match(tt.err))
			assert.True(t, tt.match(fmt.Errorf("handling request: %w", tt.err)))
			assert.False(t, tt.match(errors.New(tt.err.Error())))
		})
	}
}

func TestIsNotFoundError_ReturnsTypedValue(t *testing.T) {
	err := fmt.Errorf("loading payment: %w", NewNotFoundError("Payment not found"))

	notFoundErr, ok := IsNotFoundError(err)
	assert.True(t, ok)
	assert.Equal(t, "Payment not found", notFoundErr.Message)

	notFoundErr, ok = IsNotFoundError(errors.New("some other error"))
	assert.False(t, ok)
	assert.Nil(t, notFoundErr)
}

func TestValidationError_Details(t *testing.T) {
	err := NewValidationError("Password validation failed",
		ValidationDetail{Field: "password", Message: "Password must contain at least one number"},
		ValidationDetail{Field: "password", Message: "Password must contain at least one special character"},
	)

	assert.Equal(t, "Password validation failed", err.Error())
	assert.Len(t, err.Details, 2)
	assert.Equal(t, "password", err.Details[0].Field)
}

func TestInternalError_Creation(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewInternalError("payment gateway unavailable", cause)

	assert.Equal(t, "payment gateway unavailable", err.Message)
	assert.Equal(t, cause, err.Cause)
	assert.Contains(t, err.Error(), "payment gateway unavailable")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestInternalError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := NewInternalError("wrapper", cause)

	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause))
}

func TestInternalError_NilCause(t *testing.T) {
	err := NewInternalError("no cause", nil)

	assert.Equal(t, "no cause", err.Error())
	assert.Nil(t, err.Unwrap())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		status      int
		operational bool
	}{
		{"validation", NewValidationError("bad"), http.StatusBadRequest, true},
		{"bad request", NewBadRequestError("bad"), http.StatusBadRequest, true},
		{"unauthorized", NewUnauthorizedError("no"), http.StatusUnauthorized, true},
		{"forbidden", NewForbiddenError("no"), http.StatusForbidden, true},
		{"not found", NewNotFoundError("gone"), http.StatusNotFound, true},
		{"conflict", NewConflictError("dup"), http.StatusConflict, true},
		{"too many requests", NewTooManyRequestsError("slow down"), http.StatusTooManyRequests, true},
		{"wrapped conflict", fmt.Errorf("creating user: %w", NewConflictError("dup")), http.StatusConflict, true},
		{"internal", NewInternalError("boom", nil), http.StatusInternalServerError, false},
		{"plain", errors.New("boom"), http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, operational := Classify(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.operational, operational)
		})
	}
}

func TestPublicMessage(t *testing.T) {
	err := fmt.Errorf("cancelling order: %w", NewBadRequestError("Order is already cancelled"))
	assert.Equal(t, "Order is already cancelled", PublicMessage(err))

	assert.Equal(t, "boom", PublicMessage(errors.New("boom")))
}
