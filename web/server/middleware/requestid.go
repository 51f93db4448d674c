package middleware

import (
	"context"
	"net/http"

	"github.com/nrednav/cuid2"

	"go.hackfix.me/parley/header"
)

type contextKey string

const contextKeyRequestID contextKey = "request_id"

const maxRequestIDLength = 64

// RequestID assigns an ID to every request, and returns it in the response
// X-Request-Id header. IDs received from clients are kept, unless they're
// longer than 64 characters.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(header.RequestID)
			if id == "" || len(id) > maxRequestIDLength {
				id = cuid2.Generate()
			}

			w.Header().Set(header.RequestID, id)
			ctx := context.WithValue(r.Context(), contextKeyRequestID, id)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFrom returns the ID assigned to the request by RequestID.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(contextKeyRequestID).(string)
	return id
}
