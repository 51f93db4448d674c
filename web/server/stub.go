package server

import (
	"context"
	"net/http"

	"go.hackfix.me/parley/route"
	"go.hackfix.me/parley/web/server/handler"
)

// Stub is an endpoint that replies with a fixed status code and body. A stub
// without a body echoes the decoded request body instead.
type Stub struct {
	Route      route.Descriptor
	StatusCode int
	Body       any
}

// Endpoint returns the stub handler bound to its route.
func (s Stub) Endpoint(p *handler.Pipeline) Endpoint {
	return Endpoint{Route: s.Route, Handler: handler.Handle(s.Route, s.reply, p)}
}

func (s Stub) reply(_ context.Context, _ *http.Request, req any) (*handler.Result, error) {
	statusCode := s.StatusCode
	if statusCode == 0 {
		statusCode = http.StatusOK
	}
	body := s.Body
	if body == nil {
		body = req
	}
	return handler.Reply(statusCode, body), nil
}
