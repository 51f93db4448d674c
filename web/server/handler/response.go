package handler

import (
	"context"
	"net/http"

	"go.hackfix.me/parley/codec"
	"go.hackfix.me/parley/header"
)

// ResponseProcessor processes outgoing responses after the body is encoded,
// and can modify the response or context.
type ResponseProcessor func(ctx context.Context, res *Result) (context.Context, error)

// Result is the response of an endpoint function. Endpoints that return a
// Result control the status code and headers of the response; any other
// returned value becomes the body of a 200 OK response.
type Result struct {
	StatusCode int
	Header     http.Header
	Body       any
	Err        *Error
}

// Reply returns a Result with the given status code and body.
func Reply(statusCode int, body any) *Result {
	return &Result{StatusCode: statusCode, Header: http.Header{}, Body: body}
}

func writeResponse(ctx context.Context, w http.ResponseWriter, res *Result) error {
	data := getResponseData(ctx)

	// Respond with at least some kind of useful response, even if the error
	// couldn't be encoded.
	if len(data) == 0 && res.Err != nil {
		data = []byte(res.Err.Message)
		res.Header.Set(header.ContentType, codec.TextPlain)
	}

	for k, vals := range res.Header {
		w.Header()[k] = vals
	}

	statusCode := res.StatusCode
	if statusCode == 0 {
		statusCode = http.StatusOK
	}
	w.WriteHeader(statusCode)
	if len(data) == 0 {
		return nil
	}

	_, err := w.Write(data)

	return err //nolint:wrapcheck // Wrapped by caller.
}
