// Package errors contains the structured error type used across the
// application, and helpers to render errors with slog.
package errors

import (
	"errors"
	"log/slog"
	"sort"
)

// Log logs an error using the default slog logger, extracting metadata if it's
// a StructuredError.
func Log(err error) {
	LogTo(slog.Default(), err)
}

// LogTo logs an error using logger, extracting metadata if it's a
// StructuredError.
func LogTo(logger *slog.Logger, err error) {
	var serr *StructuredError
	if !errors.As(err, &serr) {
		logger.Error(err.Error())
		return
	}

	keys := make([]string, 0, len(serr.metadata))
	for k := range serr.metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		args = append(args, k, serr.metadata[k])
	}

	logger.Error(err.Error(), args...)
}
