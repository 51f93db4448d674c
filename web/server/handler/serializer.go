package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"go.hackfix.me/parley/codec"
	"go.hackfix.me/parley/header"
)

const maxBodyReadSize = 1024 * 1024 // 1MiB

// Serializer is the interface for deserializing the raw request body data into
// the typed request value, and for serializing the response value into the raw
// response data.
type Serializer interface {
	Deserialize(ctx context.Context, r *http.Request, target any) (context.Context, error)
	Serialize(ctx context.Context, contentType string, res *Result) (context.Context, error)
}

// RegistrySerializer negotiates request and response bodies with the
// converters of a codec.Registry.
type RegistrySerializer struct {
	registry *codec.Registry
}

var _ Serializer = (*RegistrySerializer)(nil)

// Negotiate returns a serializer backed by reg.
func Negotiate(reg *codec.Registry) RegistrySerializer {
	return RegistrySerializer{registry: reg}
}

// Deserialize decodes the request body into target with the converter
// registered for the request Content-Type, or JSON if it's not set. Requests
// without a body are left alone.
func (s RegistrySerializer) Deserialize(ctx context.Context, r *http.Request, target any) (context.Context, error) {
	if r.Body == nil || r.Body == http.NoBody || r.ContentLength == 0 {
		return ctx, nil
	}

	ct := header.MediaType(r.Header.Get(header.ContentType))
	if ct == "" {
		ct = codec.ApplicationJSON
	}

	d, ok := s.registry.Deserializer(ct)
	if !ok {
		return ctx, NewError(http.StatusUnsupportedMediaType,
			fmt.Sprintf("unsupported content type %s", ct))
	}

	if err := d.Deserialize(io.LimitReader(r.Body, maxBodyReadSize), target); err != nil {
		return ctx, NewError(http.StatusBadRequest,
			fmt.Sprintf("failed decoding request body: %s", err))
	}

	return ctx, nil
}

// Serialize encodes the response body with the converter registered for
// contentType, and stores it in the context for writing.
func (s RegistrySerializer) Serialize(ctx context.Context, contentType string, res *Result) (context.Context, error) {
	body := res.Body
	if res.Err != nil {
		body = res.Err
	}
	if isNil(body) {
		return ctx, nil
	}

	enc, ok := s.registry.Serializer(contentType)
	if !ok {
		return ctx, fmt.Errorf("no serializer for content type %s", contentType)
	}

	data, err := enc.Serialize(body)
	if err != nil {
		return ctx, fmt.Errorf("failed serializing response as %s: %w", contentType, err)
	}

	ctx = setResponseData(ctx, data)
	res.Header.Set(header.ContentType, contentType)

	return ctx, nil
}
