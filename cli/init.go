package cli

import (
	"fmt"

	"github.com/mandelsoft/vfs/pkg/vfs"

	"go.hackfix.me/parley/app/config"
	actx "go.hackfix.me/parley/app/context"
	"go.hackfix.me/parley/codec"
)

// The Init command writes the configuration file with the default settings,
// and an example route if none are configured.
type Init struct {
	Force bool `help:"Rewrite an existing configuration file, keeping its routes and filling in missing settings."`
}

// Run the init command.
func (c *Init) Run(appCtx *actx.Context) error {
	cfg := appCtx.Config
	path := cfg.Path()

	_, err := appCtx.FS.Stat(path)
	switch {
	case err == nil && !c.Force:
		return fmt.Errorf("configuration file %s already exists", path)
	case err != nil && !vfs.IsErrNotExist(err):
		return fmt.Errorf("failed checking configuration file: %w", err)
	}

	if len(cfg.Routes) == 0 {
		cfg.Routes = []config.Route{{
			Name: "ping", Verb: "GET", URI: "/ping", ResponseType: codec.TextPlain, Body: "pong",
		}}
	}

	if err = cfg.Save(); err != nil {
		return err //nolint:wrapcheck // Already descriptive.
	}

	fmt.Fprintf(appCtx.Stdout, "Wrote configuration file %s\n", path)

	return nil
}
