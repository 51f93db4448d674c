// Package middleware contains the HTTP middlewares of the web server.
package middleware

import (
	"net/http"
)

// Middleware is a function that wraps an http.Handler to provide additional
// functionality such as logging, request tracing, etc. It takes a handler
// and returns a new handler.
type Middleware func(http.Handler) http.Handler
