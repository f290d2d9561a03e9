package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Message string
	Details []ValidationDetail
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(message string, details ...ValidationDetail) *ValidationError {
	return &ValidationError{
		Message: message,
		Details: details,
	}
}

func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if stderrors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// BadRequestError is a client error that is not tied to a single input field,
// e.g. an illegal lifecycle transition.
type BadRequestError struct {
	Message string
}

func (e *BadRequestError) Error() string {
	return e.Message
}

func NewBadRequestError(message string) *BadRequestError {
	return &BadRequestError{Message: message}
}

func IsBadRequestError(err error) (*BadRequestError, bool) {
	var be *BadRequestError
	if stderrors.As(err, &be) {
		return be, true
	}
	return nil, false
}

type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string {
	return e.Message
}

func NewUnauthorizedError(message string) *UnauthorizedError {
	return &UnauthorizedError{Message: message}
}

func IsUnauthorizedError(err error) (*UnauthorizedError, bool) {
	var ue *UnauthorizedError
	if stderrors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

func NewForbiddenError(message string) *ForbiddenError {
	return &ForbiddenError{Message: message}
}

func IsForbiddenError(err error) (*ForbiddenError, bool) {
	var fe *ForbiddenError
	if stderrors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{Message: message}
}

func IsNotFoundError(err error) (*NotFoundError, bool) {
	var nfe *NotFoundError
	if stderrors.As(err, &nfe) {
		return nfe, true
	}
	return nil, false
}

type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

func IsConflictError(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if stderrors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

type TooManyRequestsError struct {
	Message string
}

func (e *TooManyRequestsError) Error() string {
	return e.Message
}

func NewTooManyRequestsError(message string) *TooManyRequestsError {
	return &TooManyRequestsError{Message: message}
}

type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{
		Message: message,
		Cause:   cause,
	}
}

// Classify returns the HTTP status for err and whether err is operational,
// i.e. expected and safe to show to the client verbatim.
func Classify(err error) (int, bool) {
	if err == nil {
		return http.StatusOK, true
	}

	var (
		ve  *ValidationError
		be  *BadRequestError
		ue  *UnauthorizedError
		fe  *ForbiddenError
		nfe *NotFoundError
		ce  *ConflictError
		te  *TooManyRequestsError
	)

	switch {
	case stderrors.As(err, &ve), stderrors.As(err, &be):
		return http.StatusBadRequest, true
	case stderrors.As(err, &ue):
		return http.StatusUnauthorized, true
	case stderrors.As(err, &fe):
		return http.StatusForbidden, true
	case stderrors.As(err, &nfe):
		return http.StatusNotFound, true
	case stderrors.As(err, &ce):
		return http.StatusConflict, true
	case stderrors.As(err, &te):
		return http.StatusTooManyRequests, true
	}

	return http.StatusInternalServerError, false
}

// PublicMessage is the message of the outermost operational error in err's chain.
func PublicMessage(err error) string {
	var (
		ve  *ValidationError
		be  *BadRequestError
		ue  *UnauthorizedError
		fe  *ForbiddenError
		nfe *NotFoundError
		ce  *ConflictError
		te  *TooManyRequestsError
	)

	switch {
	case stderrors.As(err, &ve):
		return ve.Message
	case stderrors.As(err, &be):
		return be.Message
	case stderrors.As(err, &ue):
		return ue.Message
	case stderrors.As(err, &fe):
		return fe.Message
	case stderrors.As(err, &nfe):
		return nfe.Message
	case stderrors.As(err, &ce):
		return ce.Message
	case stderrors.As(err, &te):
		return te.Message
	}

	return err.Error()
}
