package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// BackendConfig points the front-end at the backend API that owns users,
// tokens and the style-transfer endpoint.
type BackendConfig struct {
	BaseURL string        `env:"BASE_URL" envDefault:"http://localhost:8000"`
	Timeout time.Duration `env:"TIMEOUT"  envDefault:"10s"`

	// StyleTransferTimeout is longer than Timeout: inference is slow.
	StyleTransferTimeout time.Duration `env:"STYLE_TRANSFER_TIMEOUT" envDefault:"120s"`

	LoginPath         string `env:"LOGIN_PATH"          envDefault:"/api/login"`
	SignupPath        string `env:"SIGNUP_PATH"         envDefault:"/api/signup"`
	StyleTransferPath string `env:"STYLE_TRANSFER_PATH" envDefault:"/api/style-transfer"`

	// JMESPath expressions evaluated against JSON response bodies.
	TokenPath    string `env:"TOKEN_PATH"    envDefault:"access_token"`
	UsernamePath string `env:"USERNAME_PATH" envDefault:"username"`
	DetailPath   string `env:"DETAIL_PATH"   envDefault:"detail"`
	ImagePath    string `env:"IMAGE_PATH"    envDefault:"image"`
}

// Sanitize trims values and restores defaults for blank fields.
func (c *BackendConfig) Sanitize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.StyleTransferTimeout <= 0 {
		c.StyleTransferTimeout = 120 * time.Second
	}
	c.LoginPath = defaultPath(c.LoginPath, "/api/login")
	c.SignupPath = defaultPath(c.SignupPath, "/api/signup")
	c.StyleTransferPath = defaultPath(c.StyleTransferPath, "/api/style-transfer")
	c.TokenPath = defaultString(c.TokenPath, "access_token")
	c.UsernamePath = defaultString(c.UsernamePath, "username")
	c.DetailPath = defaultString(c.DetailPath, "detail")
	c.ImagePath = defaultString(c.ImagePath, "image")
}

// Validate ensures the base URL is absolute.
func (c *BackendConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("BACKEND_BASE_URL is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("parse BACKEND_BASE_URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("BACKEND_BASE_URL must be http or https, got %q", u.Scheme)
	}
	return nil
}

func defaultPath(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	if !strings.HasPrefix(v, "/") {
		return "/" + v
	}
	return v
}

func defaultString(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}
