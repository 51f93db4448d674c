// Package transport defines the narrow connection abstraction used by the HTTP
// client to perform a single exchange, and a TCP implementation of it.
//
// A Conn is used for exactly one request/response exchange: headers are set,
// the connection is established, the request body is written, and the status,
// headers and body of the response are read. Close must always be called.
package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"time"

	"go.hackfix.me/parley/header"
)

// Conn is a single-use HTTP connection.
type Conn interface {
	// SetConnectTimeout bounds the time spent in Connect.
	SetConnectTimeout(time.Duration)
	// SetReadTimeout bounds each blocking read of the response.
	SetReadTimeout(time.Duration)
	SetMethod(method string)
	// SetHeader sets a request header, replacing existing values.
	SetHeader(key, value string)
	// Header returns the first value of a request header.
	Header(key string) string
	// Connect establishes the connection to the remote host.
	Connect(ctx context.Context) error
	// Writer returns the request body stream. Closing it finishes the body.
	Writer() (io.WriteCloser, error)
	// StatusCode sends the request if it hasn't been sent yet, and returns the
	// response status code.
	StatusCode() (int, error)
	ResponseHeader() (*header.Map, error)
	// Body returns the response body of a successful (< 400) response.
	Body() (io.ReadCloser, error)
	// ErrorBody returns the response body of a failure (>= 400) response. It
	// returns nil if the response is not a failure or has no body.
	ErrorBody() (io.ReadCloser, error)
	// Close releases all resources associated with the connection.
	Close() error
}

// Dialer opens connections to URLs.
type Dialer interface {
	Open(rawURL string) (Conn, error)
}

// ErrNotConnected is returned when an operation requires an established
// connection.
var ErrNotConnected = errors.New("connection not established")

// IsTimeout reports whether err was caused by a connect or read timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
