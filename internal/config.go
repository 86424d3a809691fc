package internal

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/mia/internal/hubservice"
	"github.com/starford/mia/internal/notion"
	"github.com/starford/mia/internal/schema"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig    `yaml:"app"`
	Notion  NotionConfig         `yaml:"notion"`
	Hubs    map[string]HubConfig `yaml:"hubs"`
	Filters FiltersConfig        `yaml:"filters"`
	Auth    AuthConfig           `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Notion.Validate(); err != nil {
		return err
	}
	if err := c.validateHubs(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

func (c *Config) validateHubs() error {
	known := make([]string, 0, len(schema.All()))
	for _, col := range schema.All() {
		known = append(known, col.Name)
	}
	names := make([]string, 0, len(c.Hubs))
	for name := range c.Hubs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !slices.Contains(known, name) {
			return fmt.Errorf("hubs: unknown hub %q", name)
		}
	}
	return nil
}

// Bindings pairs every built-in hub schema with its configured database,
// applying column overrides.
func (c *Config) Bindings() ([]hubservice.Binding, error) {
	var out []hubservice.Binding
	for _, col := range schema.All() {
		hc := c.Hubs[col.Name]
		bound := col
		if len(hc.Columns) > 0 {
			var err error
			if bound, err = col.WithColumns(hc.Columns); err != nil {
				return nil, fmt.Errorf("hubs.%s.columns: %w", col.Name, err)
			}
		}
		out = append(out, hubservice.Binding{Collection: bound, DatabaseID: hc.DatabaseID})
	}
	return out, nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
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

// NotionConfig holds the Notion API credentials and transport settings.
type NotionConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Version string        `yaml:"version"`
	Timeout time.Duration `yaml:"timeout"`
}

// Validate validates the Notion configuration.
func (c *NotionConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.APIKey, validation.Required),
		validation.Field(&c.BaseURL, validation.Required),
		validation.Field(&c.Version, validation.Required),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// HubConfig binds one hub to a Notion database. Columns maps field names to
// column names that differ from the built-in schema.
type HubConfig struct {
	DatabaseID string            `yaml:"database_id"`
	Columns    map[string]string `yaml:"columns"`
}

// FiltersConfig controls query parameter handling.
//
// With Strict set, conflicting date parameters (overdue, date, from/to) are
// rejected. Otherwise the first in that order wins.
type FiltersConfig struct {
	Strict bool `yaml:"strict"`
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
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
		Notion: NotionConfig{
			BaseURL: notion.DefaultBaseURL,
			Version: notion.DefaultVersion,
			Timeout: 30 * time.Second,
		},
		Hubs: map[string]HubConfig{},
		Filters: FiltersConfig{
			Strict: true,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
