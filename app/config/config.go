package config

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mandelsoft/vfs/pkg/vfs"

	"go.hackfix.me/parley/client"
	"go.hackfix.me/parley/xtime"
)

// Config represents the application configuration, backed by a filesystem for
// persistence.
type Config struct {
	Client Client
	Server Server
	Routes []Route

	fs   vfs.FileSystem
	path string
}

// NewConfig creates a new Config instance with the specified filesystem
// and configuration file path.
func NewConfig(fs vfs.FileSystem, path string) *Config {
	return &Config{fs: fs, path: path}
}

// Load reads and parses the configuration file from the filesystem.
// If the file doesn't exist, it initializes with an empty configuration.
func (c *Config) Load() error {
	if err := c.fs.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("failed creating configuration directory: %w", err)
	}

	configJSON, err := vfs.ReadFile(c.fs, c.path)
	if err != nil && !vfs.IsErrNotExist(err) {
		return fmt.Errorf("failed reading configuration file: %w", err)
	}

	// Ensure that unmarshalling JSON doesn't fail if the file doesn't exist or is empty.
	if len(configJSON) == 0 {
		configJSON = []byte("{}")
	}

	if err = json.Unmarshal(configJSON, c); err != nil {
		return fmt.Errorf("failed parsing configuration file: %w", err)
	}

	if err = c.Validate(); err != nil {
		return fmt.Errorf("invalid configuration file %s: %w", c.path, err)
	}

	return nil
}

// Path returns the filesystem path where the configuration is stored.
func (c *Config) Path() string {
	return c.path
}

// Save writes the current configuration to the filesystem as JSON.
func (c *Config) Save() error {
	if err := c.fs.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("failed creating configuration directory: %w", err)
	}
	configJSON, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed serializing configuration data: %w", err)
	}
	if err = vfs.WriteFile(c.fs, c.path, configJSON, 0o644); err != nil {
		return fmt.Errorf("failed writing configuration file: %w", err)
	}

	return nil
}

// Client defines configuration options specific to the HTTP client.
type Client struct {
	// ConnectTimeout bounds the time spent establishing a connection.
	// It serializes from/to xtime timeout values: integer milliseconds or a
	// duration string.
	ConnectTimeout sql.Null[time.Duration] `json:"connect_timeout"`
	// ReadTimeout bounds the time spent waiting for response data.
	ReadTimeout sql.Null[time.Duration] `json:"read_timeout"`
	// DecodePolicy selects how response bodies without a declared type are
	// decoded.
	DecodePolicy sql.Null[client.DecodePolicy] `json:"decode_policy"`
}

// Server defines configuration options specific to the HTTP server.
type Server struct {
	// Address is the network address in [host]:port format the server will listen on.
	Address sql.Null[string] `json:"address"`
	// RootURI is the path all routes are mounted under.
	RootURI sql.Null[string] `json:"root_uri"`
	// TLSCertFile and TLSKeyFile are the paths to a PEM encoded certificate
	// and private key. If both are set, the server also accepts HTTPS
	// connections on the same port.
	TLSCertFile sql.Null[string] `json:"tls_cert_file"`
	TLSKeyFile  sql.Null[string] `json:"tls_key_file"`
}

// Route is the declaration of a stub route served by the web server.
type Route struct {
	Name         string `json:"name" validate:"required"`
	Verb         string `json:"verb" validate:"required,oneof=GET POST PUT DELETE PATCH"`
	URI          string `json:"uri,omitempty"`
	ResponseType string `json:"response_type,omitempty"`
	Status       int    `json:"status,omitempty" validate:"omitempty,min=100,max=599"`
	Body         any    `json:"body,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the route declarations.
func (c *Config) Validate() error {
	var errs []error
	for i, r := range c.Routes {
		if err := validate.Struct(r); err != nil {
			errs = append(errs, fmt.Errorf("route %d (%s): %w", i, r.Name, err))
		}
	}
	if err := validate.Var(c.Routes, "unique=Name"); err != nil {
		errs = append(errs, errors.New("route names must be unique"))
	}

	return errors.Join(errs...)
}

type cfgWrapper struct {
	Client clientCfgWrapper `json:"client"`
	Server srvCfgWrapper    `json:"server"`
	Routes []Route          `json:"routes,omitempty"`
}
type clientCfgWrapper struct {
	ConnectTimeout timeout `json:"connect_timeout,omitempty"`
	ReadTimeout    timeout `json:"read_timeout,omitempty"`
	DecodePolicy   string  `json:"decode_policy,omitempty"`
}

// timeout is the serialized form of a timeout. It's read from either a JSON
// number of milliseconds or a string accepted by xtime.ParseTimeout.
type timeout string

func (t *timeout) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err //nolint:wrapcheck // This is fine.
		}
		*t = timeout(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("timeout must be a number or a string: %w", err)
	}
	*t = timeout(n.String())

	return nil
}

type srvCfgWrapper struct {
	Address     string `json:"address,omitempty"`
	RootURI     string `json:"root_uri,omitempty"`
	TLSCertFile string `json:"tls_cert_file,omitempty"`
	TLSKeyFile  string `json:"tls_key_file,omitempty"`
}

// MarshalJSON implements custom JSON marshaling to convert sql.Null values
// to their underlying types, omitting invalid/null fields from the output.
func (c Config) MarshalJSON() ([]byte, error) {
	w := cfgWrapper{Routes: c.Routes}

	if c.Client.ConnectTimeout.Valid {
		w.Client.ConnectTimeout = timeout(xtime.FormatTimeout(c.Client.ConnectTimeout.V))
	}
	if c.Client.ReadTimeout.Valid {
		w.Client.ReadTimeout = timeout(xtime.FormatTimeout(c.Client.ReadTimeout.V))
	}
	if c.Client.DecodePolicy.Valid {
		w.Client.DecodePolicy = c.Client.DecodePolicy.V.String()
	}

	if c.Server.Address.Valid {
		w.Server.Address = c.Server.Address.V
	}
	if c.Server.RootURI.Valid {
		w.Server.RootURI = c.Server.RootURI.V
	}
	if c.Server.TLSCertFile.Valid {
		w.Server.TLSCertFile = c.Server.TLSCertFile.V
	}
	if c.Server.TLSKeyFile.Valid {
		w.Server.TLSKeyFile = c.Server.TLSKeyFile.V
	}

	//nolint:wrapcheck // This is fine.
	return json.Marshal(w)
}

// UnmarshalJSON implements custom JSON unmarshaling to convert plain values
// into sql.Null types and parse timeout strings into time.Duration values.
func (c *Config) UnmarshalJSON(data []byte) error {
	var w cfgWrapper
	if err := json.Unmarshal(data, &w); err != nil {
		//nolint:wrapcheck // This is fine.
		return err
	}

	if w.Client.ConnectTimeout != "" {
		dur, err := xtime.ParseTimeout(string(w.Client.ConnectTimeout))
		if err != nil {
			return fmt.Errorf("failed parsing client connect timeout: %w", err)
		}
		c.Client.ConnectTimeout = sql.Null[time.Duration]{V: dur, Valid: true}
	}
	if w.Client.ReadTimeout != "" {
		dur, err := xtime.ParseTimeout(string(w.Client.ReadTimeout))
		if err != nil {
			return fmt.Errorf("failed parsing client read timeout: %w", err)
		}
		c.Client.ReadTimeout = sql.Null[time.Duration]{V: dur, Valid: true}
	}
	if w.Client.DecodePolicy != "" {
		p, err := client.ParseDecodePolicy(w.Client.DecodePolicy)
		if err != nil {
			return fmt.Errorf("failed parsing client decode policy: %w", err)
		}
		c.Client.DecodePolicy = sql.Null[client.DecodePolicy]{V: p, Valid: true}
	}

	if w.Server.Address != "" {
		c.Server.Address = sql.Null[string]{V: w.Server.Address, Valid: true}
	}
	if w.Server.RootURI != "" {
		c.Server.RootURI = sql.Null[string]{V: w.Server.RootURI, Valid: true}
	}
	if w.Server.TLSCertFile != "" {
		c.Server.TLSCertFile = sql.Null[string]{V: w.Server.TLSCertFile, Valid: true}
	}
	if w.Server.TLSKeyFile != "" {
		c.Server.TLSKeyFile = sql.Null[string]{V: w.Server.TLSKeyFile, Valid: true}
	}

	c.Routes = w.Routes
	for i := range c.Routes {
		c.Routes[i].Verb = strings.ToUpper(strings.TrimSpace(c.Routes[i].Verb))
	}

	return nil
}

// SetDefaults sets default configuration values if they weren't set already.
func (c *Config) SetDefaults() {
	if !c.Client.ConnectTimeout.Valid {
		c.Client.ConnectTimeout = sql.Null[time.Duration]{V: client.DefaultConnectTimeout, Valid: true}
	}
	if !c.Client.ReadTimeout.Valid {
		c.Client.ReadTimeout = sql.Null[time.Duration]{V: client.DefaultReadTimeout, Valid: true}
	}
	if !c.Client.DecodePolicy.Valid {
		c.Client.DecodePolicy = sql.Null[client.DecodePolicy]{V: client.Permissive, Valid: true}
	}
	if !c.Server.Address.Valid {
		c.Server.Address = sql.Null[string]{V: "localhost:8080", Valid: true}
	}
	if !c.Server.RootURI.Valid {
		c.Server.RootURI = sql.Null[string]{V: "/", Valid: true}
	}
}
