package internal

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/quicknote/internal/joplin"
	"github.com/starford/quicknote/internal/noteservice"
	"github.com/starford/quicknote/internal/notesync"
	pkgconfig "github.com/starford/quicknote/pkg/config"
)

// TokenEnv names the environment variable that fills an empty Joplin token.
const TokenEnv = "JOPLIN_TOKEN"

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app" toml:"app"`
	Joplin  JoplinConfig      `yaml:"joplin" toml:"joplin"`
	Notes   NotesConfig       `yaml:"notes" toml:"notes"`
	History HistoryConfig     `yaml:"history" toml:"history"`
	Auth    AuthConfig        `yaml:"auth" toml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Joplin.Validate(); err != nil {
		return err
	}
	if err := c.Notes.Validate(); err != nil {
		return err
	}
	if err := c.History.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ServiceSettings returns the per-run settings snapshot for the note service.
func (c *Config) ServiceSettings() noteservice.Settings {
	return noteservice.Settings{
		BaseURL:         c.Joplin.BaseURL(),
		Port:            c.Joplin.Port,
		Token:           strings.TrimSpace(c.Joplin.Token),
		Timeout:         c.Joplin.Timeout,
		DefaultNotebook: strings.TrimSpace(c.Notes.DefaultNotebook),
		MaxPages:        c.Notes.MaxPages,
		PageSize:        c.Notes.PageSize,
		DedupeInFlight:  c.Notes.DedupeInFlight,
	}
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level" toml:"log_level"`
	HTTP     HTTPConfig `yaml:"http" toml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port" toml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// JoplinConfig describes how to reach the Joplin Web Clipper service.
type JoplinConfig struct {
	Host    string        `yaml:"host" toml:"host"`
	Port    int           `yaml:"port" toml:"port"`
	Token   string        `yaml:"token" toml:"token"`
	Timeout time.Duration `yaml:"timeout" toml:"timeout"`
}

// BaseURL returns the Web Clipper base URL.
func (c *JoplinConfig) BaseURL() string {
	return "http://" + net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// HasToken reports whether an API token is configured.
func (c *JoplinConfig) HasToken() bool {
	return strings.TrimSpace(c.Token) != ""
}

// Validate validates the Joplin configuration. An empty token is allowed;
// note runs then report missing credentials.
func (c *JoplinConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Host, validation.Required),
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0)), validation.Max(time.Minute)),
	)
}

// NotesConfig holds note synchronization settings.
//
// MaxPages × PageSize is the number of notes scanned when looking for an
// existing title (1000 by default).
type NotesConfig struct {
	DefaultNotebook string `yaml:"default_notebook" toml:"default_notebook"`
	MaxPages        int    `yaml:"max_pages" toml:"max_pages"`
	PageSize        int    `yaml:"page_size" toml:"page_size"`
	DedupeInFlight  bool   `yaml:"dedupe_in_flight" toml:"dedupe_in_flight"`
}

// Validate validates the notes configuration.
func (c *NotesConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxPages, validation.Required, validation.Min(1), validation.Max(1000)),
		validation.Field(&c.PageSize, validation.Required, validation.Min(1), validation.Max(joplin.DefaultPageSize)),
	)
}

// HistoryConfig holds the SQLite run history location.
type HistoryConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// Validate validates the history configuration.
func (c *HistoryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration for the local HTTP API.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode" toml:"mode"`
	Token string `yaml:"token" toml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Joplin: JoplinConfig{
			Host:    "127.0.0.1",
			Port:    joplin.DefaultPort,
			Timeout: joplin.DefaultTimeout,
		},
		Notes: NotesConfig{
			MaxPages: notesync.DefaultMaxPages,
			PageSize: joplin.DefaultPageSize,
		},
		History: HistoryConfig{
			Path: "./quicknote.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}

// LoadConfig reads path over the defaults. A missing file yields the defaults;
// an empty joplin.token is taken from JOPLIN_TOKEN.
func LoadConfig(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	if err := pkgconfig.LoadOptional(path, cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Joplin.Token) == "" {
		cfg.Joplin.Token = os.Getenv(TokenEnv)
	}
	return cfg, nil
}
