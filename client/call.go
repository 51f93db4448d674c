package client

import (
	"context"
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"

	"go.hackfix.me/parley/status"
)

// Call executes req and unwraps the response body into T. Failure responses
// are returned as a *status.Error carrying the decoded body.
func Call[T any](ctx context.Context, c *Client, req Request) (T, error) {
	resp, err := c.Execute(ctx, req)
	if err != nil {
		var zero T
		return zero, err
	}
	return Unwrap[T](c, resp)
}

// Unwrap returns the body of resp as T, or a *status.Error if resp is a
// failure response. Bodies that aren't already a T are coerced: strings go
// through the scalar converter of the client registry, and maps are decoded
// into structs by their json tags.
func Unwrap[T any](c *Client, resp *ResponseEntity) (T, error) {
	var zero T
	if serr := status.NewError(resp.StatusCode, resp.Body); serr != nil {
		return zero, serr
	}
	if resp.Body == nil {
		return zero, nil
	}

	switch v := resp.Body.(type) {
	case T:
		return v, nil
	case *T:
		if v != nil {
			return *v, nil
		}
		return zero, nil
	case string:
		var out T
		if err := c.registry.Scalar().Parse(v, &out); err != nil {
			return zero, fmt.Errorf("%w: coercing text body into %T: %w", ErrDeserialization, zero, err)
		}
		return out, nil
	}

	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return zero, fmt.Errorf("%w: %w", ErrDeserialization, err)
	}
	if err = dec.Decode(resp.Body); err != nil {
		return zero, fmt.Errorf("%w: coercing %T body into %T: %w",
			ErrDeserialization, resp.Body, zero, err)
	}

	return out, nil
}

// derefTarget returns the value a decoding target points to.
func derefTarget(target any) any {
	return reflect.ValueOf(target).Elem().Interface()
}
