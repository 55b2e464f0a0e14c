// Package errors defines the business error codes carried in API
// responses. Code 0 is success; everything else maps to an HTTP status at
// the response layer.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	Success = 0

	CodeBadRequest         = 40000
	CodeUnauthorized       = 40100
	CodeInvalidCredentials = 40101
	CodeTokenExpired       = 40102
	CodeNotFound           = 40400
	CodeUserExists         = 40900
	CodeInternal           = 50000
	CodeUpstreamFailed     = 50200
)

// Error pairs a business code with a user-facing message and an optional
// wrapped cause.
type Error struct {
	Code    int
	Message string
	cause   error
}

func New(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code int, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// HTTPStatus maps a business code to its transport status.
func (e *Error) HTTPStatus() int {
	switch {
	case e.Code == Success:
		return http.StatusOK
	case e.Code >= 50200:
		return http.StatusBadGateway
	case e.Code >= 50000:
		return http.StatusInternalServerError
	case e.Code >= 40900:
		return http.StatusConflict
	case e.Code >= 40400:
		return http.StatusNotFound
	case e.Code >= 40100:
		return http.StatusUnauthorized
	default:
		return http.StatusBadRequest
	}
}

// FromError extracts an *Error, wrapping unknown errors as internal.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(CodeInternal, "internal error", err)
}
