package server

import (
	"bufio"
	"crypto/tls"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"
)

// peekTimeout bounds how long a connection may take to send its first bytes.
const peekTimeout = 5 * time.Second

// PeekConn is a buffered Conn for peeking into the connection.
type PeekConn struct {
	net.Conn
	r *bufio.Reader
}

// Read reads data from the connection using the buffered reader, so that any
// data previously peeked is read from the buffer first.
func (c *PeekConn) Read(b []byte) (int, error) {
	return c.r.Read(b)
}

// Peek returns the next n bytes without advancing the reader.
func (c *PeekConn) Peek(n int) ([]byte, error) {
	return c.r.Peek(n)
}

func newPeekConn(c net.Conn) *PeekConn {
	return &PeekConn{c, bufio.NewReader(c)}
}

// HybridListener inspects the first bytes of each connection to determine
// whether to serve plain HTTP or TLS, so both can share the same port.
// Inspection happens on a goroutine per connection, so a slow client doesn't
// hold back the connections accepted after it.
type HybridListener struct {
	net.Listener
	tlsConfig *tls.Config
	logger    *slog.Logger

	startOnce sync.Once
	closeOnce sync.Once
	conns     chan net.Conn
	errs      chan error
	done      chan struct{}
}

func newHybridListener(ln net.Listener, tlsConfig *tls.Config, logger *slog.Logger) *HybridListener {
	return &HybridListener{
		Listener:  ln,
		tlsConfig: tlsConfig,
		logger:    logger,
		conns:     make(chan net.Conn),
		errs:      make(chan error),
		done:      make(chan struct{}),
	}
}

// Accept returns the next connection whose protocol was detected. TLS
// connections are returned as *tls.Conn. Connections that send nothing within
// peekTimeout are dropped.
func (ln *HybridListener) Accept() (net.Conn, error) {
	ln.startOnce.Do(func() { go ln.acceptLoop() })

	select {
	case c := <-ln.conns:
		return c, nil
	case err := <-ln.errs:
		return nil, err
	case <-ln.done:
		return nil, net.ErrClosed
	}
}

// Close stops accepting connections. Connections still being inspected are
// closed.
func (ln *HybridListener) Close() error {
	ln.closeOnce.Do(func() { close(ln.done) })
	return ln.Listener.Close() //nolint:wrapcheck // Returned to http.Server as is.
}

func (ln *HybridListener) acceptLoop() {
	for {
		conn, err := ln.Listener.Accept()
		if err != nil {
			select {
			case ln.errs <- err:
			case <-ln.done:
				return
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}

		go func() {
			c := ln.detect(newPeekConn(conn))
			if c == nil {
				return
			}
			select {
			case ln.conns <- c:
			case <-ln.done:
				_ = c.Close()
			}
		}()
	}
}

// detect returns pc, or pc wrapped in a TLS server connection. It returns nil
// if pc was closed because nothing could be read from it.
func (ln *HybridListener) detect(pc *PeekConn) net.Conn {
	_ = pc.SetReadDeadline(time.Now().Add(peekTimeout))
	b, err := pc.Peek(3)
	_ = pc.SetReadDeadline(time.Time{})

	if err != nil && (!errors.Is(err, io.EOF) || len(b) == 0) {
		ln.logger.Debug("dropping connection", "remote_addr", pc.RemoteAddr().String(), "error", err.Error())
		_ = pc.Close()
		return nil
	}

	if len(b) == 3 && b[0] == 0x16 && b[1] == 0x03 && b[2] <= 0x04 {
		ln.logger.Debug("accepting TLS connection", "remote_addr", pc.RemoteAddr().String())
		return tls.Server(pc, ln.tlsConfig)
	}

	ln.logger.Debug("accepting HTTP connection", "remote_addr", pc.RemoteAddr().String())
	return pc
}
