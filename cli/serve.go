package cli

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mandelsoft/vfs/pkg/vfs"

	actx "go.hackfix.me/parley/app/context"
	"go.hackfix.me/parley/web/server"
	"go.hackfix.me/parley/web/server/handler"
)

const shutdownTimeout = 5 * time.Second

// Serve starts the web server.
type Serve struct {
	Address string `arg:"" optional:"" help:"[host]:port to listen on. Default: localhost:8080"`
	Root    string `help:"Root URI the routes are mounted under. Default: /"`
	TLSCert string `help:"Path to a PEM encoded TLS certificate. HTTPS is served on the same port as HTTP."`
	TLSKey  string `help:"Path to the PEM encoded private key of the TLS certificate."`
	//nolint:lll // Long struct tags are unavoidable.
	ErrorLevel handler.ErrorLevel `default:"minimal" enum:"none,minimal,full" help:"Detail level of error messages returned to clients. This doesn't affect response status codes. Valid values: ${enum} \n none: hide all error messages; minimal: hide server error messages; full: keep error messages intact"`
}

// Run the serve command.
func (c *Serve) Run(appCtx *actx.Context) error {
	stubs, err := resolveStubs(appCtx, c.Root)
	if err != nil {
		return err
	}
	if len(stubs) == 0 {
		return fmt.Errorf("no routes configured in %s", appCtx.Config.Path())
	}

	tlsCert, err := c.loadTLSCert(appCtx.FS)
	if err != nil {
		return err
	}

	p := handler.NewPipeline(handler.Negotiate(appCtx.Registry)).
		ErrorLevel(c.ErrorLevel).
		Logger(appCtx.Logger)

	endpoints := make([]server.Endpoint, 0, len(stubs))
	for _, s := range stubs {
		endpoints = append(endpoints, s.Endpoint(p))
	}

	srv := server.New(c.Address, endpoints, tlsCert, appCtx.Logger)

	// Gracefully shutdown the server if a process signal is received, or the
	// main context is done.
	// See https://dev.to/mokiat/proper-http-shutdown-in-go-3fji
	srvDone := make(chan error, 1)
	go func() {
		srvErr := srv.ListenAndServe()
		slog.Debug("web server shutdown")
		srvDone <- srvErr
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case s := <-sigCh:
		slog.Debug("process received signal", "signal", s)
	case <-appCtx.Ctx.Done():
		slog.Debug("app context is done")
	case srvErr := <-srvDone:
		if srvErr != nil && !errors.Is(srvErr, http.ErrServerClosed) {
			return fmt.Errorf("web server error: %w", srvErr)
		}
		return nil
	}

	// The app context may already be done, so it can't bound the shutdown.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	//nolint:contextcheck // See above.
	if err = srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("failed shutting down web server: %w", err)
	}

	return nil
}

func (c *Serve) loadTLSCert(fs vfs.FileSystem) (*tls.Certificate, error) {
	if c.TLSCert == "" && c.TLSKey == "" {
		return nil, nil //nolint:nilnil // No TLS.
	}
	if c.TLSCert == "" || c.TLSKey == "" {
		return nil, errors.New("both a TLS certificate and a private key are required")
	}

	certPEM, err := vfs.ReadFile(fs, c.TLSCert)
	if err != nil {
		return nil, fmt.Errorf("failed reading TLS certificate: %w", err)
	}
	keyPEM, err := vfs.ReadFile(fs, c.TLSKey)
	if err != nil {
		return nil, fmt.Errorf("failed reading TLS private key: %w", err)
	}

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed loading TLS certificate: %w", err)
	}

	return &cert, nil
}
