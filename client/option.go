package client

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.hackfix.me/parley/codec"
	"go.hackfix.me/parley/transport"
)

// Option is a function that allows configuring the Client.
type Option func(*Client) error

// WithConnectTimeout sets the default connect timeout. Values <= 0 restore
// DefaultConnectTimeout.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			d = DefaultConnectTimeout
		}
		c.connectTimeout = d
		return nil
	}
}

// WithReadTimeout sets the default read timeout. Values <= 0 restore
// DefaultReadTimeout.
func WithReadTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			d = DefaultReadTimeout
		}
		c.readTimeout = d
		return nil
	}
}

// WithDecodePolicy sets how response bodies without a declared type are decoded.
func WithDecodePolicy(p DecodePolicy) Option {
	return func(c *Client) error {
		if !p.valid() {
			return fmt.Errorf("invalid decode policy %d", p)
		}
		c.policy = p
		return nil
	}
}

// WithRegistry sets the content negotiation registry.
func WithRegistry(r *codec.Registry) Option {
	return func(c *Client) error {
		if r == nil {
			return errors.New("registry is required")
		}
		c.registry = r
		return nil
	}
}

// WithDialer sets the connection dialer.
func WithDialer(d transport.Dialer) Option {
	return func(c *Client) error {
		if d == nil {
			return errors.New("dialer is required")
		}
		c.dialer = d
		return nil
	}
}

// WithLogger sets the logger used by the Client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		c.logger = logger.With("component", "http-client")
		return nil
	}
}

// DefaultOptions returns the default Client options.
func DefaultOptions() []Option {
	return []Option{
		WithConnectTimeout(DefaultConnectTimeout),
		WithReadTimeout(DefaultReadTimeout),
		WithDecodePolicy(Permissive),
		WithRegistry(codec.NewRegistry()),
		WithDialer(&transport.NetDialer{}),
		WithLogger(slog.Default()),
	}
}
