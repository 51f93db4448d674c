// Package status classifies HTTP failure status codes into semantic error
// kinds.
package status

import (
	"fmt"
	"net/http"
)

// Kind is a semantic class of failure response. Kinds are comparable and can
// be used as errors.Is targets for *Error values.
type Kind string

// Error kinds.
const (
	BadRequest           Kind = "bad_request"
	Unauthorized         Kind = "unauthorized"
	Forbidden            Kind = "forbidden"
	NotFound             Kind = "not_found"
	MethodNotAllowed     Kind = "method_not_allowed"
	NotAcceptable        Kind = "not_acceptable"
	RequestTimeout       Kind = "request_timeout"
	Conflict             Kind = "conflict"
	UnsupportedMediaType Kind = "unsupported_media_type"
	InternalServerError  Kind = "internal_server_error"
	GenericRequestError  Kind = "request_error"
)

// Error implements the error interface, so a Kind can be used as a sentinel.
func (k Kind) Error() string {
	return string(k)
}

var kinds = map[int]Kind{
	http.StatusBadRequest:           BadRequest,
	http.StatusUnauthorized:         Unauthorized,
	http.StatusForbidden:            Forbidden,
	http.StatusNotFound:             NotFound,
	http.StatusMethodNotAllowed:     MethodNotAllowed,
	http.StatusNotAcceptable:        NotAcceptable,
	http.StatusRequestTimeout:       RequestTimeout,
	http.StatusConflict:             Conflict,
	http.StatusUnsupportedMediaType: UnsupportedMediaType,
	http.StatusInternalServerError:  InternalServerError,
}

// IsError reports whether code denotes a failure response.
func IsError(code int) bool {
	return code >= http.StatusBadRequest
}

// Classify returns the error kind for code, and false if code is not a
// failure status. Codes >= 400 missing from the table are GenericRequestError.
func Classify(code int) (Kind, bool) {
	if !IsError(code) {
		return "", false
	}
	if k, ok := kinds[code]; ok {
		return k, true
	}
	return GenericRequestError, true
}

// Error is a failure response reported by a remote server. It carries the
// decoded response body, which may be nil.
type Error struct {
	Kind       Kind
	StatusCode int
	Body       any
}

// NewError returns the classified error for code and body, or nil if code is
// not a failure status.
func NewError(code int, body any) *Error {
	k, ok := Classify(code)
	if !ok {
		return nil
	}
	return &Error{Kind: k, StatusCode: code, Body: body}
}

// Error implements the error interface.
func (e *Error) Error() string {
	text := http.StatusText(e.StatusCode)
	if text == "" {
		text = "unknown status"
	}
	return fmt.Sprintf("request failed with status %d %s", e.StatusCode, text)
}

// Is matches the error kind, so errors.Is(err, status.NotFound) works.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}
