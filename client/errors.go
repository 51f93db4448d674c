package client

import (
	"errors"
	"slices"

	aerrors "go.hackfix.me/parley/app/errors"
	"go.hackfix.me/parley/status"
	"go.hackfix.me/parley/transport"
)

// Transaction failures. Errors returned by Execute wrap exactly one of these.
var (
	ErrInvalidRequest  = errors.New("invalid request")
	ErrConverterAbsent = errors.New("no converter for content type")
	ErrSerialization   = errors.New("failed serializing request body")
	ErrDeserialization = errors.New("failed deserializing response body")
	ErrConnection      = errors.New("connection failed")
	ErrTimeout         = timeoutError{}
)

// timeoutError also matches status.RequestTimeout, so both transport and
// server-reported timeouts can be checked the same way.
type timeoutError struct{}

func (timeoutError) Error() string { return "request timed out" }

func (timeoutError) Is(target error) bool {
	return target == status.RequestTimeout //nolint:errorlint // Sentinel comparison.
}

// ioError classifies a transport failure as a timeout or connection error.
func ioError(stage string, err error, fields []any) error {
	fields = append(slices.Clip(fields), "stage", stage)
	if transport.IsTimeout(err) {
		return aerrors.WithCause(ErrTimeout, err, fields...)
	}
	return aerrors.WithCause(ErrConnection, err, fields...)
}
