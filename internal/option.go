package internal

import "github.com/starford/mia/internal/notion"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	store   notion.Store
	version string
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithStore replaces the Notion client built from the config.
func WithStore(store notion.Store) Option {
	return func(a *application) {
		a.store = store
	}
}

// WithVersion sets the version reported to MCP clients.
func WithVersion(version string) Option {
	return func(a *application) {
		a.version = version
	}
}
