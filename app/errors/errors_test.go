package errors_test

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aerrors "go.hackfix.me/parley/app/errors"
)

var errSentinel = errors.New("sentinel")

func TestStructuredError(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")

	tests := []struct {
		name        string
		err         *aerrors.StructuredError
		expMsg      string
		expMetadata map[string]any
		expIs       []error
	}{
		{
			name:        "ok/new_with",
			err:         aerrors.NewWith("failed", "url", "http://x"),
			expMsg:      "failed",
			expMetadata: map[string]any{"url": "http://x"},
		},
		{
			name:        "ok/new_with_cause",
			err:         aerrors.NewWithCause("failed reading", cause, "n", 3),
			expMsg:      "failed reading: connection reset",
			expMetadata: map[string]any{"n": 3},
			expIs:       []error{cause},
		},
		{
			name:        "ok/with_sentinel",
			err:         aerrors.With(errSentinel, "a", 1),
			expMsg:      "sentinel",
			expMetadata: map[string]any{"a": 1},
			expIs:       []error{errSentinel},
		},
		{
			name:        "ok/with_merges",
			err:         aerrors.With(aerrors.With(errSentinel, "a", 1, "b", 2), "b", 3),
			expMsg:      "sentinel",
			expMetadata: map[string]any{"a": 1, "b": 3},
			expIs:       []error{errSentinel},
		},
		{
			name:        "ok/with_cause_sentinel",
			err:         aerrors.WithCause(errSentinel, cause),
			expMsg:      "sentinel: connection reset",
			expMetadata: map[string]any{},
			expIs:       []error{errSentinel, cause},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.EqualError(t, tt.err, tt.expMsg)
			assert.Equal(t, tt.expMetadata, tt.err.Metadata())
			for _, target := range tt.expIs {
				assert.ErrorIs(t, tt.err, target)
			}

			wrapped := fmt.Errorf("outer: %w", tt.err)
			var serr *aerrors.StructuredError
			require.ErrorAs(t, wrapped, &serr)
			assert.Equal(t, tt.expMetadata, serr.Metadata())
		})
	}
}

func TestStructuredErrorPanics(t *testing.T) {
	t.Parallel()

	assert.PanicsWithValue(t, "an even number of fields is required", func() {
		aerrors.NewWith("x", "key")
	})
	assert.PanicsWithValue(t, "keys must be strings", func() {
		aerrors.NewWith("x", 1, 2)
	})
}

func TestLogTo(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))

	err := fmt.Errorf("call failed: %w",
		aerrors.NewWithCause("failed reading", errSentinel, "url", "http://x", "attempt", 2))
	aerrors.LogTo(logger, err)
	aerrors.LogTo(logger, errors.New("plain"))

	assert.Equal(t,
		`level=ERROR msg="call failed: failed reading: sentinel" attempt=2 url=http://x`+"\n"+
			`level=ERROR msg=plain`+"\n",
		buf.String())
}
