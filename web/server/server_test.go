package server_test

import (
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/parley/client"
	"go.hackfix.me/parley/codec"
	"go.hackfix.me/parley/route"
	"go.hackfix.me/parley/status"
	"go.hackfix.me/parley/transport"
	"go.hackfix.me/parley/web/server"
	"go.hackfix.me/parley/web/server/handler"
)

type pet struct {
	ID   int    `json:"id"`
	Kind string `json:"kind"`
}

func stubs(t *testing.T) []server.Endpoint {
	t.Helper()

	tbl := route.NewTable("/api", slog.New(slog.DiscardHandler))
	p := handler.NewPipeline(handler.Negotiate(codec.NewRegistry())).
		Logger(slog.New(slog.DiscardHandler))

	decls := []struct {
		h      route.Handler
		status int
		body   any
	}{
		{route.On("get-pet", route.GET, "/pets/{id}", ""), 200, map[string]any{"id": 1, "kind": "cat"}},
		{route.On("echo", route.POST, "/echo", ""), 201, nil},
		{route.On("ping", route.GET, "/ping", "text/plain"), 200, "pong"},
		{route.On("gone", route.DELETE, "/pets/{id}", ""), 404, map[string]any{"error": "missing"}},
	}

	var endpoints []server.Endpoint
	for _, decl := range decls {
		d, err := tbl.Register(decl.h)
		require.NoError(t, err)
		s := server.Stub{Route: d, StatusCode: decl.status, Body: decl.body}
		endpoints = append(endpoints, s.Endpoint(p))
	}

	return endpoints
}

func startServer(t *testing.T, cert *tls.Certificate) *server.Server {
	t.Helper()

	srv := server.New("127.0.0.1:0", stubs(t), cert, slog.New(slog.DiscardHandler))
	ln, err := srv.Listen()
	require.NoError(t, err)

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Errorf("server error: %v", err)
		}
	}()
	t.Cleanup(func() { _ = srv.Close() })

	return srv
}

func TestServer_Stubs(t *testing.T) {
	t.Parallel()

	srv := startServer(t, nil)
	base := "http://" + srv.Addr

	c, err := client.New(client.WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)

	t.Run("ok/typed", func(t *testing.T) {
		t.Parallel()
		p, err := client.Call[pet](t.Context(), c, client.NewRequest(http.MethodGet, base+"/api/pets/1").
			Expect(http.StatusOK, client.TypeOf[pet]()))
		require.NoError(t, err)
		assert.Equal(t, pet{ID: 1, Kind: "cat"}, p)
	})

	t.Run("ok/echo", func(t *testing.T) {
		t.Parallel()
		resp, err := c.Execute(t.Context(), client.NewRequest(http.MethodPost, base+"/api/echo").
			WithBody(pet{ID: 2, Kind: "dog"}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, map[string]any{"id": float64(2), "kind": "dog"}, resp.Body)
		assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
	})

	t.Run("ok/echo_form", func(t *testing.T) {
		t.Parallel()
		resp, err := c.Execute(t.Context(), client.NewRequest(http.MethodPost, base+"/api/echo").
			WithHeader("Content-Type", "application/x-www-form-urlencoded").
			WithBody(map[string]string{"kind": "fish"}))
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"kind": "fish"}, resp.Body)
	})

	t.Run("ok/text", func(t *testing.T) {
		t.Parallel()
		s, err := client.Call[string](t.Context(), c, client.NewRequest(http.MethodGet, base+"/api/ping"))
		require.NoError(t, err)
		assert.Equal(t, "pong", s)
	})

	t.Run("ok/request_id_kept", func(t *testing.T) {
		t.Parallel()
		resp, err := c.Execute(t.Context(), client.NewRequest(http.MethodGet, base+"/api/ping").
			WithHeader("X-Request-Id", "abc123"))
		require.NoError(t, err)
		assert.Equal(t, "abc123", resp.Header.Get("x-request-id"))
	})

	tests := []struct {
		name      string
		req       client.Request
		expStatus int
		expKind   status.Kind
	}{
		{
			name:      "err/stub_error",
			req:       client.NewRequest(http.MethodDelete, base+"/api/pets/1"),
			expStatus: http.StatusNotFound,
			expKind:   status.NotFound,
		},
		{
			name:      "err/unknown_path",
			req:       client.NewRequest(http.MethodGet, base+"/api/nope"),
			expStatus: http.StatusNotFound,
			expKind:   status.NotFound,
		},
		{
			name:      "err/wrong_verb",
			req:       client.NewRequest(http.MethodPut, base+"/api/pets/1"),
			expStatus: http.StatusMethodNotAllowed,
			expKind:   status.MethodNotAllowed,
		},
		{
			name: "err/unsupported_media_type",
			req: client.NewRequest(http.MethodPost, base+"/api/echo").
				WithHeader("Content-Type", "text/csv").
				WithBody("a,b"),
			expStatus: http.StatusUnsupportedMediaType,
			expKind:   status.UnsupportedMediaType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			// The client has no converter for text/csv, so send it as text.
			reg := codec.NewRegistry()
			require.NoError(t, reg.Register("text/csv", codec.Text()))
			c, err := client.New(client.WithRegistry(reg),
				client.WithLogger(slog.New(slog.DiscardHandler)))
			require.NoError(t, err)

			_, err = client.Call[any](t.Context(), c, tt.req)
			require.ErrorIs(t, err, tt.expKind)

			var serr *status.Error
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, tt.expStatus, serr.StatusCode)
			assert.NotNil(t, serr.Body)
		})
	}
}

func TestServer_Hybrid(t *testing.T) {
	t.Parallel()

	// Borrow the test certificate of httptest, which is valid for 127.0.0.1.
	ts := httptest.NewTLSServer(http.NotFoundHandler())
	cert := ts.TLS.Certificates[0]
	roots := ts.Client().Transport.(*http.Transport).TLSClientConfig.RootCAs //nolint:forcetypeassert // Always set by httptest.
	ts.Close()

	srv := startServer(t, &cert)

	for _, scheme := range []string{"http", "https"} {
		t.Run("ok/"+scheme, func(t *testing.T) {
			t.Parallel()
			c, err := client.New(
				client.WithDialer(&transport.NetDialer{TLSConfig: &tls.Config{RootCAs: roots, MinVersion: tls.VersionTLS12}}),
				client.WithLogger(slog.New(slog.DiscardHandler)))
			require.NoError(t, err)

			s, err := client.Call[string](t.Context(), c,
				client.NewRequest(http.MethodGet, scheme+"://"+srv.Addr+"/api/ping"))
			require.NoError(t, err)
			assert.Equal(t, "pong", s)
		})
	}
}

func TestServer_HybridIdleClient(t *testing.T) {
	t.Parallel()

	ts := httptest.NewTLSServer(http.NotFoundHandler())
	cert := ts.TLS.Certificates[0]
	ts.Close()

	srv := startServer(t, &cert)

	// A connection that never sends anything must not hold back others.
	idle, err := net.Dial("tcp", srv.Addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = idle.Close() })

	c, err := client.New(
		client.WithReadTimeout(2*time.Second),
		client.WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)

	start := time.Now()
	s, err := client.Call[string](t.Context(), c,
		client.NewRequest(http.MethodGet, "http://"+srv.Addr+"/api/ping"))
	require.NoError(t, err)
	assert.Equal(t, "pong", s)
	assert.Less(t, time.Since(start), 2*time.Second)
}
