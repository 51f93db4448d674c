package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/alecthomas/kong"

	"go.hackfix.me/parley/app/config"
	actx "go.hackfix.me/parley/app/context"
)

// CLI is the command line interface of Parley.
type CLI struct {
	Init   Init   `kong:"cmd,help='Write the configuration file with default settings.'"`
	Call   Call   `kong:"cmd,help='Send an HTTP request and print the response.'"`
	Routes Routes `kong:"cmd,help='List the configured stub routes.'"`
	Serve  Serve  `kong:"cmd,help='Serve the configured stub routes.'"`

	Log struct {
		Level slog.Level `enum:"DEBUG,INFO,WARN,ERROR" default:"INFO" help:"Set the app logging level."`
	} `embed:"" prefix:"log-"`
	// NOTE: I'm deliberately not using kong.ConfigFlag or its support for reading
	// values from configuration files, since I want to manage configuration
	// independently from the CLI.
	ConfigFile string           `kong:"default='${configFile}',help='Path to the configuration file.'"`
	Version    kong.VersionFlag `kong:"help='Output version and exit.'"`

	kong *kong.Kong
	kctx *kong.Context
}

// New initializes the command-line interface.
func New(name, configFilePath, version string) (*CLI, error) {
	c := &CLI{}
	kparser, err := kong.New(c,
		kong.Name(name),
		kong.UsageOnError(),
		kong.DefaultEnvars(strings.ToUpper(name)),
		kong.NamedMapper("timeout", TimeoutMapper{}),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			Summary:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"configFile": configFilePath,
			"version":    version,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed creating the Kong parser: %w", err)
	}

	c.kong = kparser

	return c, nil
}

// Execute starts the command execution. Parse must be called before this method.
func (c *CLI) Execute(appCtx *actx.Context) error {
	if c.kctx == nil {
		panic("the CLI wasn't initialized properly")
	}
	c.kong.Stdout = appCtx.Stdout
	c.kong.Stderr = appCtx.Stderr

	if appCtx.Config != nil {
		c.ApplyConfig(appCtx.Config)
	}

	//nolint:wrapcheck // This is fine.
	return c.kctx.Run(appCtx)
}

// Parse the given command line arguments. This method must be called before
// Execute.
func (c *CLI) Parse(args []string) error {
	// Reset values from previous runs.
	c.Init, c.Call, c.Routes, c.Serve = Init{}, Call{}, Routes{}, Serve{}

	kctx, err := c.kong.Parse(args)
	if err != nil {
		return fmt.Errorf("failed parsing CLI arguments: %w", err)
	}
	c.kctx = kctx

	return nil
}

// Command returns the full path of the executed command.
func (c *CLI) Command() string {
	if c.kctx == nil {
		panic("the CLI wasn't initialized properly")
	}
	cmdPath := []string{}
	for _, p := range c.kctx.Path {
		if p.Command != nil {
			cmdPath = append(cmdPath, p.Command.Name)
		}
	}

	return strings.Join(cmdPath, " ")
}

// ApplyConfig applies configuration values to the CLI, but only if they weren't
// already set.
func (c *CLI) ApplyConfig(cfg *config.Config) {
	if c.Serve.Address == "" && cfg.Server.Address.Valid {
		c.Serve.Address = cfg.Server.Address.V
	}
	if c.Serve.Root == "" && cfg.Server.RootURI.Valid {
		c.Serve.Root = cfg.Server.RootURI.V
	}
	if c.Serve.TLSCert == "" && cfg.Server.TLSCertFile.Valid {
		c.Serve.TLSCert = cfg.Server.TLSCertFile.V
	}
	if c.Serve.TLSKey == "" && cfg.Server.TLSKeyFile.Valid {
		c.Serve.TLSKey = cfg.Server.TLSKeyFile.V
	}
	if c.Routes.Root == "" && cfg.Server.RootURI.Valid {
		c.Routes.Root = cfg.Server.RootURI.V
	}

	if c.Call.ConnectTimeout == 0 && cfg.Client.ConnectTimeout.Valid {
		c.Call.ConnectTimeout = cfg.Client.ConnectTimeout.V
	}
	if c.Call.ReadTimeout == 0 && cfg.Client.ReadTimeout.Valid {
		c.Call.ReadTimeout = cfg.Client.ReadTimeout.V
	}
	if c.Call.Policy == "" && cfg.Client.DecodePolicy.Valid {
		c.Call.Policy = cfg.Client.DecodePolicy.V.String()
	}
}
