package config

import "time"

const (
	defaultMaxUploadBytes = 10 << 20
	minMaxUploadBytes     = 1 << 10
)

// StudioConfig bounds the style-transfer studio.
type StudioConfig struct {
	// MaxUploadBytes caps a single source image.
	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`

	// ImageTTL bounds how long uploaded and generated images are retained.
	ImageTTL time.Duration `env:"IMAGE_TTL" envDefault:"2h"`
}

// Sanitize clamps limits to workable values.
func (c *StudioConfig) Sanitize() {
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = defaultMaxUploadBytes
	}
	if c.MaxUploadBytes < minMaxUploadBytes {
		c.MaxUploadBytes = minMaxUploadBytes
	}
	if c.ImageTTL <= 0 {
		c.ImageTTL = 2 * time.Hour
	}
}
