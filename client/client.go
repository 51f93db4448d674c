// Package client executes HTTP transactions over a transport.Conn, negotiating
// request and response bodies with a codec.Registry.
//
// Execute always returns the ResponseEntity for a completed exchange,
// regardless of its status code. Call additionally unwraps the body, and
// returns a *status.Error for failure responses.
package client

import (
	"fmt"
	"log/slog"
	"time"

	"go.hackfix.me/parley/codec"
	"go.hackfix.me/parley/transport"
)

// Default timeouts applied when neither the request nor the client set one.
const (
	DefaultConnectTimeout = 15 * time.Second
	DefaultReadTimeout    = 15 * time.Second
)

// Client executes HTTP transactions. It holds no per-transaction state, and is
// safe for concurrent use.
type Client struct {
	dialer         transport.Dialer
	registry       *codec.Registry
	connectTimeout time.Duration
	readTimeout    time.Duration
	policy         DecodePolicy
	logger         *slog.Logger
}

// New returns a new Client configured with the given options.
func New(opts ...Option) (*Client, error) {
	c := &Client{}

	opts = append(DefaultOptions(), opts...)
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("failed configuring client: %w", err)
		}
	}

	return c, nil
}

// Registry returns the content negotiation registry used by the client.
func (c *Client) Registry() *codec.Registry {
	return c.registry
}

func (c *Client) timeouts(req Request) (connect, read time.Duration) {
	connect, read = c.connectTimeout, c.readTimeout
	if req.ConnectTimeout > 0 {
		connect = req.ConnectTimeout
	}
	if req.ReadTimeout > 0 {
		read = req.ReadTimeout
	}
	return connect, read
}
