package config

import (
	"fmt"
	"strings"
	"time"
)

// StoreMode selects the backing store for sessions, studio flows and images.
type StoreMode string

const (
	// StoreModeRedis persists state in Redis and fans out session events over pub/sub.
	StoreModeRedis StoreMode = "redis"
	// StoreModeMemory keeps state in process (single instance, development only).
	StoreModeMemory StoreMode = "memory"
)

// UnmarshalText implements encoding.TextUnmarshaler for StoreMode.
func (m *StoreMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "redis", "memory":
		*m = StoreMode(v)
		return nil
	default:
		return fmt.Errorf("invalid StoreMode: %q (valid options: redis, memory)", v)
	}
}

// SessionConfig controls where sessions live and how long they are retained.
type SessionConfig struct {
	Store StoreMode `env:"STORE" envDefault:"redis"`

	// TTL bounds storage retention. Zero keeps sessions until logout.
	TTL time.Duration `env:"TTL" envDefault:"0s"`

	// KeyPrefix namespaces session keys in Redis.
	KeyPrefix string `env:"KEY_PREFIX" envDefault:"session:"`
}

// Sanitize applies defaults.
func (c *SessionConfig) Sanitize() {
	if c.Store == "" {
		c.Store = StoreModeRedis
	}
	if c.TTL < 0 {
		c.TTL = 0
	}
	if strings.TrimSpace(c.KeyPrefix) == "" {
		c.KeyPrefix = "session:"
	}
}
