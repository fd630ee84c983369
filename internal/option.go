package internal

import (
	"io"

	"github.com/starford/quicknote/internal/settings"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config     *Config
	configPath string
	version    string
	logOutput  io.Writer
}

// WithConfig sets a fixed application configuration. It takes precedence
// over WithConfigFile and disables hot reload.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithConfigFile loads configuration from path and reloads it on change.
func WithConfigFile(path string) Option {
	return func(a *application) {
		a.configPath = path
	}
}

// WithVersion sets the version reported to MCP clients.
func WithVersion(v string) Option {
	return func(a *application) {
		a.version = v
	}
}

// WithLogOutput redirects the JSON log stream (stderr by default).
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOutput = w
	}
}

func (a *application) settingsStore() (*settings.Store[Config], error) {
	if a.config != nil {
		return settings.Static(a.config), nil
	}
	return settings.NewStore(a.configPath, LoadConfig)
}
