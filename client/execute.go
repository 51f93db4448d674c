package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	aerrors "go.hackfix.me/parley/app/errors"
	"go.hackfix.me/parley/codec"
	"go.hackfix.me/parley/header"
	"go.hackfix.me/parley/transport"
)

var validMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodDelete:  true,
	http.MethodPatch:   true,
	http.MethodHead:    true,
	http.MethodOptions: true,
}

// Execute performs the exchange described by req and returns the response,
// whatever its status code. The connection is always released before Execute
// returns. The context is only consulted while connecting; timeouts are the
// only way to interrupt an exchange in progress.
func (c *Client) Execute(ctx context.Context, req Request) (_ *ResponseEntity, rerr error) {
	errFields := []any{"url", req.URL, "method", req.Method}
	if !validMethods[req.Method] {
		return nil, aerrors.WithCause(ErrInvalidRequest,
			fmt.Errorf("unsupported method %q", req.Method), errFields...)
	}

	start := time.Now()
	logger := c.logger.With(errFields...)
	defer func() {
		if rerr != nil {
			logger.Warn("request failed", "error", rerr.Error(), "duration", time.Since(start))
		}
	}()

	conn, err := c.dialer.Open(req.URL)
	if err != nil {
		return nil, aerrors.WithCause(ErrInvalidRequest, err, errFields...)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			logger.Debug("failed releasing connection", "error", cerr.Error())
		}
	}()

	connectTimeout, readTimeout := c.timeouts(req)
	conn.SetConnectTimeout(connectTimeout)
	conn.SetReadTimeout(readTimeout)
	conn.SetMethod(req.Method)

	entity := req.entity()
	for _, key := range entity.Header.Keys() {
		conn.SetHeader(key, entity.Header.Get(key))
	}

	var reqContentType string
	if entity.Body != nil {
		reqContentType = conn.Header(header.ContentType)
		if reqContentType == "" {
			reqContentType = codec.ApplicationJSON
			conn.SetHeader(header.ContentType, reqContentType)
		}
	}

	if err = conn.Connect(ctx); err != nil {
		return nil, ioError("connect", err, errFields)
	}

	if entity.Body != nil {
		if err = c.writeBody(conn, reqContentType, entity.Body, errFields); err != nil {
			return nil, err
		}
	}

	code, err := conn.StatusCode()
	if err != nil {
		return nil, ioError("read status", err, errFields)
	}
	respHeader, err := conn.ResponseHeader()
	if err != nil {
		return nil, ioError("read headers", err, errFields)
	}
	errFields = append(errFields, "status_code", code)

	respContentType := respHeader.Get(header.ContentType)
	if respContentType == "" {
		respContentType = codec.ApplicationJSON
	}

	var stream io.ReadCloser
	if code < http.StatusBadRequest {
		stream, err = conn.Body()
	} else {
		stream, err = conn.ErrorBody()
	}
	if err != nil {
		return nil, ioError("open body", err, errFields)
	}

	var body any
	if stream != nil {
		defer stream.Close()
		if contentLength(respHeader) > 0 {
			policy := c.policy
			if req.policy != nil {
				policy = *req.policy
			}
			body, err = c.readBody(stream, respContentType, req.ResponseTypes[code], policy,
				append(errFields, "content_type", respContentType))
			if err != nil {
				return nil, err
			}
		}
	}

	logger.Debug("request completed", "status_code", code, "duration", time.Since(start))

	return &ResponseEntity{StatusCode: code, Header: respHeader, Body: body}, nil
}

func (c *Client) writeBody(conn transport.Conn, contentType string, body any, errFields []any) error {
	errFields = append(errFields, "content_type", contentType)

	s, ok := c.registry.Serializer(contentType)
	if !ok {
		return aerrors.With(fmt.Errorf("%w %s", ErrConverterAbsent, contentType), errFields...)
	}

	data, err := s.Serialize(body)
	if err != nil {
		return aerrors.WithCause(ErrSerialization, err, errFields...)
	}

	w, err := conn.Writer()
	if err != nil {
		return ioError("open request body", err, errFields)
	}
	if _, err = io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return ioError("write request body", err, errFields)
	}
	if err = w.Close(); err != nil {
		return ioError("close request body", err, errFields)
	}

	return nil
}

func (c *Client) readBody(
	r io.Reader, contentType string, typ Type, policy DecodePolicy, errFields []any,
) (any, error) {
	d, ok := c.registry.Deserializer(contentType)
	if !ok {
		return nil, aerrors.With(fmt.Errorf("%w %s", ErrConverterAbsent, contentType), errFields...)
	}

	if !typ.IsZero() {
		target := typ.newTarget()
		if err := d.Deserialize(r, target); err != nil {
			return nil, deserializationError(err, append(errFields, "type", typ.String()))
		}
		return derefTarget(target), nil
	}

	var text string
	if err := d.Deserialize(r, &text); err != nil {
		return nil, deserializationError(err, errFields)
	}
	if policy == Typed {
		return text, nil
	}

	var generic map[string]any
	if err := d.Deserialize(bytes.NewReader([]byte(text)), &generic); err == nil && generic != nil {
		return generic, nil
	}

	return text, nil
}

// deserializationError keeps network failures while reading the body
// distinguishable from codec faults.
func deserializationError(err error, errFields []any) error {
	var nerr net.Error
	if transport.IsTimeout(err) || errors.As(err, &nerr) {
		return ioError("read body", err, errFields)
	}
	return aerrors.WithCause(ErrDeserialization, err, errFields...)
}

// contentLength returns the declared Content-Length, or 0 if it's missing or
// malformed.
func contentLength(h *header.Map) int64 {
	n, err := strconv.ParseInt(h.Get(header.ContentLength), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
