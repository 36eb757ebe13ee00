package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - backend.go: external backend API client
//   - session.go: session storage and cookie retention
//   - database.go: Redis and (dev backend only) Postgres
//   - http.go: HTTP server configuration
//   - studio.go: style-transfer studio limits
//   - theme.go: light/dark palettes
type AppConfig struct {
	// IsDev controls development mode behavior (template hot reloading, verbose errors).
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// HTTP server configuration
	HTTP HTTPConfig

	// External backend API
	Backend BackendConfig `envPrefix:"BACKEND_"`

	// Session storage
	Session SessionConfig `envPrefix:"SESSION_"`
	Redis   RedisConfig   `envPrefix:"REDIS_"`

	Studio StudioConfig `envPrefix:"STUDIO_"`
	Theme  ThemeConfig  `envPrefix:"THEME_"`

	// Observability configuration
	Observability ObservabilityConfig

	// DevBackend configures cmd/artisan-devbackend only.
	DevBackend DevBackendConfig `envPrefix:"DEVBACKEND_"`
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.HTTP.Sanitize()
	c.Backend.Sanitize()
	c.Session.Sanitize()
	c.Studio.Sanitize()
	c.Theme.Sanitize()
	c.Observability.Sanitize()
	c.DevBackend.Sanitize()

	// Check NODE_ENV for dev mode
	c.detectDevMode()
}

// Validate reports configuration that cannot be repaired by Sanitize.
func (c *AppConfig) Validate() error {
	return c.Backend.Validate()
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}
