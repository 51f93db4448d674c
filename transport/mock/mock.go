// Package mock provides an in-memory transport.Conn for tests. It records
// everything the client does to it and replays a canned response.
package mock

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"go.hackfix.me/parley/header"
	"go.hackfix.me/parley/transport"
)

// Conn is a scripted connection.
type Conn struct {
	// Response
	Status     int
	RespHeader *header.Map
	RespBody   string

	// Fault injection
	ConnectErr error
	WriteErr   error
	StatusErr  error
	BodyErr    error

	// Recorded state
	mx             sync.Mutex
	Method         string
	ReqHeader      http.Header
	Written        bytes.Buffer
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	Connected      bool
	WriterClosed   bool
	Closed         bool
	CloseCount     int
}

var _ transport.Conn = (*Conn)(nil)

// New returns a Conn that responds with status, headers and body.
func New(status int, body string, headers ...header.Pair) *Conn {
	return &Conn{
		Status:     status,
		RespBody:   body,
		RespHeader: header.New(headers...),
		ReqHeader:  http.Header{},
	}
}

func (c *Conn) SetConnectTimeout(d time.Duration) { c.ConnectTimeout = d }
func (c *Conn) SetReadTimeout(d time.Duration)    { c.ReadTimeout = d }
func (c *Conn) SetMethod(m string)                { c.Method = m }

func (c *Conn) SetHeader(key, value string) {
	if c.ReqHeader == nil {
		c.ReqHeader = http.Header{}
	}
	c.ReqHeader.Set(key, value)
}

func (c *Conn) Header(key string) string {
	return c.ReqHeader.Get(key)
}

func (c *Conn) Connect(_ context.Context) error {
	if c.ConnectErr != nil {
		return c.ConnectErr
	}
	c.Connected = true
	return nil
}

func (c *Conn) Writer() (io.WriteCloser, error) {
	if !c.Connected {
		return nil, transport.ErrNotConnected
	}
	return &writer{c: c}, nil
}

func (c *Conn) StatusCode() (int, error) {
	if c.StatusErr != nil {
		return 0, c.StatusErr
	}
	return c.Status, nil
}

func (c *Conn) ResponseHeader() (*header.Map, error) {
	if c.StatusErr != nil {
		return nil, c.StatusErr
	}
	return c.RespHeader, nil
}

func (c *Conn) Body() (io.ReadCloser, error) {
	if c.Status >= http.StatusBadRequest {
		return nil, errors.New("server returned an error status")
	}
	return c.body()
}

func (c *Conn) ErrorBody() (io.ReadCloser, error) {
	if c.Status < http.StatusBadRequest || c.RespBody == "" {
		return nil, nil
	}
	return c.body()
}

func (c *Conn) body() (io.ReadCloser, error) {
	var r io.Reader = bytes.NewBufferString(c.RespBody)
	if c.BodyErr != nil {
		r = io.MultiReader(r, &errReader{c.BodyErr})
	}
	return io.NopCloser(r), nil
}

func (c *Conn) Close() error {
	c.mx.Lock()
	defer c.mx.Unlock()
	c.Closed = true
	c.CloseCount++
	return nil
}

// Dialer hands out Conn. If Conn is nil, each Open returns an empty 200
// response.
type Dialer struct {
	Conn    *Conn
	OpenErr error
	URLs    []string
}

var _ transport.Dialer = (*Dialer)(nil)

// Open records the URL and returns the scripted Conn.
//
//nolint:ireturn // Implements transport.Dialer.
func (d *Dialer) Open(rawURL string) (transport.Conn, error) {
	d.URLs = append(d.URLs, rawURL)
	if d.OpenErr != nil {
		return nil, d.OpenErr
	}
	if d.Conn == nil {
		d.Conn = New(http.StatusOK, "")
	}
	return d.Conn, nil
}

type writer struct {
	c *Conn
}

func (w *writer) Write(p []byte) (int, error) {
	if w.c.WriteErr != nil {
		return 0, w.c.WriteErr
	}
	return w.c.Written.Write(p) //nolint:wrapcheck // Never fails.
}

func (w *writer) Close() error {
	w.c.WriterClosed = true
	return nil
}

type errReader struct {
	err error
}

func (r *errReader) Read([]byte) (int, error) {
	return 0, r.err
}

// TimeoutError is a net.Error that reports a timeout.
type TimeoutError struct{}

func (TimeoutError) Error() string   { return "i/o timeout" }
func (TimeoutError) Timeout() bool   { return true }
func (TimeoutError) Temporary() bool { return true }
