// Package apperr defines the error taxonomy shared by the admin and public
// APIs: a small closed set of kinds, each with a fixed HTTP status, so every
// handler can translate an error into the same {"error":{code,message}}
// envelope without re-deriving status codes ad hoc.
package apperr

import "net/http"

type Code string

const (
	InvalidArgument Code = "INVALID_ARGUMENT"
	Unauthorized    Code = "UNAUTHORIZED"
	NotFound        Code = "NOT_FOUND"
	Conflict        Code = "CONFLICT"
	Internal        Code = "INTERNAL"
)

// Error is the taxonomy error type. Handlers type-assert for *Error to pick
// an HTTP status; anything else is treated as Internal.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string { return e.Message }

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Invalid(message string) *Error     { return New(InvalidArgument, message) }
func Unauth(message string) *Error      { return New(Unauthorized, message) }
func NotFoundf(message string) *Error   { return New(NotFound, message) }
func Conflictf(message string) *Error   { return New(Conflict, message) }
func Internalf(message string) *Error   { return New(Internal, message) }

// HTTPStatus maps a taxonomy code to the status it surfaces as.
func HTTPStatus(code Code) int {
	switch code {
	case InvalidArgument:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// StatusOf returns the HTTP status for any error, defaulting to 500 for
// errors outside the taxonomy (e.g. raw database errors).
func StatusOf(err error) int {
	if e, ok := err.(*Error); ok {
		return HTTPStatus(e.Code)
	}
	return http.StatusInternalServerError
}

// CodeOf returns the taxonomy code for any error, defaulting to Internal.
func CodeOf(err error) Code {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return Internal
}
