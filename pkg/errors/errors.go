// Package errors defines the coded errors fourbar reports to users.
//
// An [Error] pairs a stable [Code] with a message meant for people. The CLI
// prints the message; the HTTP API returns both and derives the response
// status from the code with [HTTPStatus]. Call sites may wrap an *Error further
// with fmt.Errorf and %w: [Is], [GetCode] and [UserMessage] look through the
// chain for the outermost *Error.
//
// Solver failures are values, not errors, inside pkg/linkage. The
// SINGULAR_JACOBIAN, MAX_ITER_EXCEEDED and NO_POSITION codes exist for callers
// that choose to surface a failed solve:
//
//	if !res.Converged {
//	    return res.Err() // *Error with ErrCodeMaxIterExceeded or ErrCodeSingularJacobian
//	}
//
// Validation helpers for user-supplied lengths, angles, steps and formats live
// alongside the codes (see validation.go).
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput         Code = "INVALID_INPUT"
	ErrCodeInvalidLinkage       Code = "INVALID_LINKAGE"
	ErrCodeInvalidConfig        Code = "INVALID_CONFIG"
	ErrCodeInvalidConfiguration Code = "INVALID_CONFIGURATION"
	ErrCodeInvalidFormat        Code = "INVALID_FORMAT"
	ErrCodeInvalidStep          Code = "INVALID_STEP"

	// Solver outcomes
	ErrCodeSingularJacobian Code = "SINGULAR_JACOBIAN"
	ErrCodeMaxIterExceeded  Code = "MAX_ITER_EXCEEDED"
	ErrCodeNoPosition       Code = "NO_POSITION"

	// Estimator model errors
	ErrCodeModelLoad  Code = "MODEL_LOAD"
	ErrCodeModelShape Code = "MODEL_SHAPE"

	// Infrastructure errors
	ErrCodeCache    Code = "CACHE"
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error // may be nil
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether the outermost *Error in err's chain carries code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode returns the code of the outermost *Error in err's chain, or "" if
// there is none.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message of the outermost *Error without its code
// prefix, or err.Error() for uncoded errors.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// HTTPStatus maps an error code to the HTTP status the API responds with.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidLinkage, ErrCodeInvalidConfig,
		ErrCodeInvalidConfiguration, ErrCodeInvalidFormat, ErrCodeInvalidStep:
		return http.StatusBadRequest
	case ErrCodeSingularJacobian, ErrCodeMaxIterExceeded, ErrCodeNoPosition:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
