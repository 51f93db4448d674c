package handler

import (
	"context"

	"go.hackfix.me/parley/route"
)

type contextKey string

const (
	contextKeyRoute        contextKey = "route"
	contextKeyResponseData contextKey = "response_data"
)

// RouteFrom returns the descriptor of the route being served.
func RouteFrom(ctx context.Context) (route.Descriptor, bool) {
	d, ok := ctx.Value(contextKeyRoute).(route.Descriptor)
	return d, ok
}

func withRoute(ctx context.Context, d route.Descriptor) context.Context {
	return context.WithValue(ctx, contextKeyRoute, d)
}

func getResponseData(ctx context.Context) []byte {
	if v := ctx.Value(contextKeyResponseData); v != nil {
		return v.([]byte) //nolint:errcheck,forcetypeassert // Acceptable risk; only set with constant key.
	}
	return []byte{}
}

func setResponseData(ctx context.Context, data []byte) context.Context {
	return context.WithValue(ctx, contextKeyResponseData, data)
}
