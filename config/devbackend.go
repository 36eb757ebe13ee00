package config

import (
	"strings"
	"time"
)

// DevBackendConfig configures the local stand-in for the backend API.
type DevBackendConfig struct {
	Addr string `env:"ADDR" envDefault:":8000"`

	// JWTSecret signs access tokens. The default is only suitable for local use.
	JWTSecret string        `env:"JWT_SECRET" envDefault:"artisan-dev-secret"`
	TokenTTL  time.Duration `env:"TOKEN_TTL"  envDefault:"30m"`

	// BlendAlpha is the style weight in the simulated style transfer.
	BlendAlpha float64 `env:"BLEND_ALPHA" envDefault:"0.3"`

	Database DBConfig `envPrefix:"DATABASE_"`
}

// Sanitize clamps values into range.
func (c *DevBackendConfig) Sanitize() {
	if strings.TrimSpace(c.Addr) == "" {
		c.Addr = ":8000"
	}
	if c.TokenTTL <= 0 {
		c.TokenTTL = 30 * time.Minute
	}
	if c.BlendAlpha < 0 || c.BlendAlpha > 1 {
		c.BlendAlpha = 0.3
	}
	c.Database.URL = strings.TrimSpace(c.Database.URL)
}
