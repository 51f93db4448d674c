package transport

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.hackfix.me/parley/header"
)

// NetDialer opens TCP connections and speaks HTTP/1.1 over them. Connections
// are never reused.
type NetDialer struct {
	// TLSConfig is used for https URLs. If nil, a default config is used.
	TLSConfig *tls.Config
}

var _ Dialer = (*NetDialer)(nil)

// Open prepares a connection to rawURL. No network I/O happens until
// Conn.Connect is called.
//
//nolint:ireturn // Dialer implementations return the Conn interface.
func (d *NetDialer) Open(rawURL string) (Conn, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed parsing URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, errors.New("URL has no host")
	}

	return &netConn{
		url:       u,
		method:    http.MethodGet,
		header:    http.Header{},
		tlsConfig: d.TLSConfig,
	}, nil
}

type netConn struct {
	url            *url.URL
	method         string
	header         http.Header
	tlsConfig      *tls.Config
	connectTimeout time.Duration
	readTimeout    time.Duration

	conn net.Conn
	body *bodyBuffer
	resp *http.Response
}

func (c *netConn) SetConnectTimeout(d time.Duration) { c.connectTimeout = d }
func (c *netConn) SetReadTimeout(d time.Duration)    { c.readTimeout = d }
func (c *netConn) SetMethod(method string)           { c.method = method }
func (c *netConn) SetHeader(key, value string)       { c.header.Set(key, value) }
func (c *netConn) Header(key string) string          { return c.header.Get(key) }

func (c *netConn) hostPort() string {
	if c.url.Port() != "" {
		return c.url.Host
	}
	port := "80"
	if c.url.Scheme == "https" {
		port = "443"
	}
	return net.JoinHostPort(c.url.Hostname(), port)
}

func (c *netConn) Connect(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}

	if c.connectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.connectTimeout)
		defer cancel()
	}

	dialer := &net.Dialer{Timeout: c.connectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.hostPort())
	if err != nil {
		return fmt.Errorf("failed connecting to %s: %w", c.hostPort(), err)
	}

	if c.url.Scheme == "https" {
		cfg := c.tlsConfig
		if cfg == nil {
			cfg = &tls.Config{MinVersion: tls.VersionTLS12}
		} else {
			cfg = cfg.Clone()
		}
		if cfg.ServerName == "" {
			cfg.ServerName = c.url.Hostname()
		}
		tlsConn := tls.Client(conn, cfg)
		if err = tlsConn.HandshakeContext(ctx); err != nil {
			_ = conn.Close()
			return fmt.Errorf("failed TLS handshake with %s: %w", c.hostPort(), err)
		}
		conn = tlsConn
	}

	c.conn = &deadlineConn{Conn: conn, timeout: c.readTimeout}

	return nil
}

func (c *netConn) Writer() (io.WriteCloser, error) {
	if c.conn == nil {
		return nil, ErrNotConnected
	}
	if c.body == nil {
		c.body = &bodyBuffer{}
	}
	return c.body, nil
}

// roundTrip writes the request and reads the response status and headers.
func (c *netConn) roundTrip() error {
	if c.resp != nil {
		return nil
	}
	if c.conn == nil {
		return ErrNotConnected
	}

	req := &http.Request{
		Method:     c.method,
		URL:        c.url,
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     c.header.Clone(),
		Host:       c.url.Host,
		Close:      true,
	}
	if c.body != nil && c.body.Len() > 0 {
		data := c.body.Bytes()
		req.Body = io.NopCloser(bytes.NewReader(data))
		req.ContentLength = int64(len(data))
	}

	if err := req.Write(c.conn); err != nil {
		return fmt.Errorf("failed writing request: %w", err)
	}

	resp, err := http.ReadResponse(bufio.NewReader(c.conn), req)
	if err != nil {
		return fmt.Errorf("failed reading response: %w", err)
	}
	c.resp = resp

	return nil
}

func (c *netConn) StatusCode() (int, error) {
	if err := c.roundTrip(); err != nil {
		return 0, err
	}
	return c.resp.StatusCode, nil
}

func (c *netConn) ResponseHeader() (*header.Map, error) {
	if err := c.roundTrip(); err != nil {
		return nil, err
	}
	h := c.resp.Header.Clone()
	// Go moves the declared length out of the header map for some responses.
	if h.Get(header.ContentLength) == "" && c.resp.ContentLength >= 0 &&
		!strings.EqualFold(c.method, http.MethodHead) {
		h.Set(header.ContentLength, fmt.Sprint(c.resp.ContentLength))
	}
	return header.FromHTTP(h), nil
}

func (c *netConn) Body() (io.ReadCloser, error) {
	if err := c.roundTrip(); err != nil {
		return nil, err
	}
	if c.resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("server returned status %d", c.resp.StatusCode)
	}
	return c.resp.Body, nil
}

func (c *netConn) ErrorBody() (io.ReadCloser, error) {
	if err := c.roundTrip(); err != nil {
		return nil, err
	}
	if c.resp.StatusCode < http.StatusBadRequest || c.resp.Body == http.NoBody {
		return nil, nil
	}
	return c.resp.Body, nil
}

func (c *netConn) Close() error {
	var errs []error
	if c.resp != nil && c.resp.Body != nil {
		errs = append(errs, c.resp.Body.Close())
	}
	if c.conn != nil {
		err := c.conn.Close()
		if !errors.Is(err, net.ErrClosed) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// deadlineConn refreshes the read deadline before every read, so the timeout
// bounds each blocking read rather than the whole exchange.
type deadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (c *deadlineConn) Read(p []byte) (int, error) {
	if c.timeout > 0 {
		if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return 0, err //nolint:wrapcheck // Wrapped by caller.
		}
	}
	return c.Conn.Read(p) //nolint:wrapcheck // Wrapped by caller.
}

func (c *deadlineConn) Write(p []byte) (int, error) {
	if c.timeout > 0 {
		if err := c.Conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
			return 0, err //nolint:wrapcheck // Wrapped by caller.
		}
	}
	return c.Conn.Write(p) //nolint:wrapcheck // Wrapped by caller.
}

type bodyBuffer struct {
	bytes.Buffer
	closed bool
}

func (b *bodyBuffer) Write(p []byte) (int, error) {
	if b.closed {
		return 0, errors.New("write to closed body")
	}
	return b.Buffer.Write(p) //nolint:wrapcheck // Never fails.
}

func (b *bodyBuffer) Close() error {
	b.closed = true
	return nil
}
