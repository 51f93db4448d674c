package handler

import "net/http"

// Error is an HTTP error with a status code and a message returned to the
// client.
type Error struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
}

// NewError creates a new Error with the specified status code and message.
func NewError(statusCode int, message string) *Error {
	return &Error{
		StatusCode: statusCode,
		Message:    message,
	}
}

// Error returns the error message string.
func (e *Error) Error() string {
	return e.Message
}

// String allows text converters to render the error.
func (e *Error) String() string {
	return e.Message
}

// ErrorLevel is the detail level of error messages returned to clients.
type ErrorLevel string

// Error levels.
const (
	// ErrorLevelNone replaces every error message with the status text.
	ErrorLevelNone ErrorLevel = "none"
	// ErrorLevelMinimal replaces the messages of server errors with the status
	// text, and keeps client error messages.
	ErrorLevelMinimal ErrorLevel = "minimal"
	// ErrorLevelFull keeps all error messages intact.
	ErrorLevelFull ErrorLevel = "full"
)

func sanitizeError(err *Error, lvl ErrorLevel) *Error {
	switch {
	case lvl == ErrorLevelNone,
		lvl == ErrorLevelMinimal && err.StatusCode >= http.StatusInternalServerError:
		return NewError(err.StatusCode, http.StatusText(err.StatusCode))
	default:
		return err
	}
}
