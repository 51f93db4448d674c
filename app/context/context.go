package context

import (
	"context"
	"io"
	"log/slog"

	"github.com/mandelsoft/vfs/pkg/vfs"

	"go.hackfix.me/parley/app/config"
	"go.hackfix.me/parley/codec"
)

// Context contains common objects used by the application. It is passed around
// the application to avoid direct dependencies on external systems, and make
// testing easier.
type Context struct {
	Ctx      context.Context // global context
	FS       vfs.FileSystem  // filesystem
	Config   *config.Config
	Registry *codec.Registry // content negotiation, shared by client and server
	Logger   *slog.Logger    // global logger

	// Standard streams
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Metadata
	Version *VersionInfo
}
