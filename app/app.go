package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mandelsoft/vfs/pkg/memoryfs"

	"go.hackfix.me/parley/app/config"
	actx "go.hackfix.me/parley/app/context"
	"go.hackfix.me/parley/cli"
	"go.hackfix.me/parley/codec"
)

// App is the application.
type App struct {
	name       string
	configPath string
	ctx        *actx.Context
	cli        *cli.CLI
	// the logging level is set via the CLI, if the app was initialized with the
	// WithLogger option.
	logLevel *slog.LevelVar
}

// New initializes a new application. configPath is the default path of the
// configuration file, which can be overridden from the CLI.
func New(name, configPath string, opts ...Option) (*App, error) {
	version, err := actx.GetVersion()
	if err != nil {
		return nil, err
	}

	defaultCtx := &actx.Context{
		Ctx:      context.Background(),
		FS:       memoryfs.New(),
		Registry: codec.NewRegistry(),
		Logger:   slog.Default(),
		Version:  version,
	}
	app := &App{name: name, configPath: configPath, ctx: defaultCtx}

	for _, opt := range opts {
		opt(app)
	}

	ver := fmt.Sprintf("%s %s", app.name, app.ctx.Version.String())
	app.cli, err = cli.New(app.name, configPath, ver)
	if err != nil {
		return nil, err
	}

	return app, nil
}

// Run initializes the application environment and starts execution of the
// application.
func (app *App) Run(args []string) error {
	if err := app.cli.Parse(args); err != nil {
		return err
	}

	if app.logLevel != nil {
		app.logLevel.Set(app.cli.Log.Level)
		slog.SetLogLoggerLevel(app.cli.Log.Level)
	}

	if app.ctx.Config == nil {
		cfg := config.NewConfig(app.ctx.FS, app.cli.ConfigFile)
		if err := cfg.Load(); err != nil {
			return err
		}
		app.ctx.Config = cfg
	}
	app.ctx.Config.SetDefaults()

	if err := app.cli.Execute(app.ctx); err != nil {
		return err
	}

	return nil
}
