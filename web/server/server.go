package server

import (
	"crypto/tls"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"go.hackfix.me/parley/codec"
	"go.hackfix.me/parley/header"
	"go.hackfix.me/parley/route"
	"go.hackfix.me/parley/web/server/handler"
	"go.hackfix.me/parley/web/server/middleware"
)

// Server is a wrapper around http.Server with some custom behavior.
type Server struct {
	*http.Server
	logger *slog.Logger
}

// Endpoint is an HTTP handler bound to a resolved route.
type Endpoint struct {
	Route   route.Descriptor
	Handler http.Handler
}

// New returns a new web Server instance that will listen on addr and serve
// endpoints. If tlsCert is provided, the server will accept both HTTP and
// HTTPS connections on the same port.
func New(addr string, endpoints []Endpoint, tlsCert *tls.Certificate, logger *slog.Logger) *Server {
	var tlsCfg *tls.Config
	if tlsCert != nil {
		tlsCfg = &tls.Config{
			MinVersion:   tls.VersionTLS12,
			Certificates: []tls.Certificate{*tlsCert},
		}
	}

	logger = logger.With("component", "web-server")
	return &Server{
		Server: &http.Server{
			Handler:           SetupHandlers(endpoints, logger),
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      time.Minute,
			TLSConfig:         tlsCfg,
		},
		logger: logger,
	}
}

// Listen starts listening on the server address, and stores the actual listen
// address, which is convenient when the address is dynamically determined by
// the system (e.g. ':0').
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		//nolint:wrapcheck // This is fine.
		return nil, err
	}

	s.Addr = ln.Addr().String()
	s.logger.Info("started listener", "address", s.Addr, "tls", s.TLSConfig != nil)

	if s.TLSConfig == nil {
		return ln, nil
	}

	return newHybridListener(ln, s.TLSConfig, s.logger), nil
}

// ListenAndServe starts either an HTTP or a hybrid HTTP/HTTPS server.
func (s *Server) ListenAndServe() error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}

	//nolint:wrapcheck // This is fine.
	return s.Serve(ln)
}

// SetupHandlers mounts every endpoint on a router at the verb and URI of its
// route. Unknown paths are answered with 404 Not Found, and known paths
// requested with another verb with 405 Method Not Allowed.
func SetupHandlers(endpoints []Endpoint, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer, middleware.RequestID(), middleware.Logger(logger))

	r.NotFound(errorResponse(http.StatusNotFound, logger))
	r.MethodNotAllowed(errorResponse(http.StatusMethodNotAllowed, logger))

	for _, e := range endpoints {
		r.Method(string(e.Route.Verb), e.Route.URI, e.Handler)
	}

	return r
}

func errorResponse(statusCode int, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := codec.JSON().Serialize(
			handler.NewError(statusCode, http.StatusText(statusCode)))
		if err != nil {
			logger.Error("failed encoding error response", "error", err.Error())
		}
		w.Header().Set(header.ContentType, codec.ApplicationJSON)
		w.WriteHeader(statusCode)
		_, _ = w.Write(data)
	}
}
