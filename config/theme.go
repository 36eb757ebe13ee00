package config

import (
	"fmt"
	"strings"
)

// Theme is a colour scheme name.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme returns the theme named by s, or false when s is not a known theme.
func ParseTheme(s string) (Theme, bool) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case ThemeLight:
		return ThemeLight, true
	case ThemeDark:
		return ThemeDark, true
	default:
		return "", false
	}
}

// UnmarshalText implements encoding.TextUnmarshaler for Theme.
func (t *Theme) UnmarshalText(text []byte) error {
	v, ok := ParseTheme(string(text))
	if !ok {
		return fmt.Errorf("invalid Theme: %q (valid options: light, dark)", string(text))
	}
	*t = v
	return nil
}

// Toggle returns the opposite theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// Palette is the set of colours a theme renders as CSS custom properties.
type Palette struct {
	Background string `env:"BACKGROUND"`
	Surface    string `env:"SURFACE"`
	Text       string `env:"TEXT"`
	Muted      string `env:"MUTED"`
	Accent     string `env:"ACCENT"`
	Border     string `env:"BORDER"`
}

// DefaultLightPalette is used for any light palette colour left unset.
func DefaultLightPalette() Palette {
	return Palette{
		Background: "#faf8f5",
		Surface:    "#ffffff",
		Text:       "#1c1917",
		Muted:      "#78716c",
		Accent:     "#7c3aed",
		Border:     "#e7e5e4",
	}
}

// DefaultDarkPalette is used for any dark palette colour left unset.
func DefaultDarkPalette() Palette {
	return Palette{
		Background: "#0c0a09",
		Surface:    "#1c1917",
		Text:       "#f5f5f4",
		Muted:      "#a8a29e",
		Accent:     "#a78bfa",
		Border:     "#292524",
	}
}

func (p *Palette) fill(def Palette) {
	p.Background = defaultString(p.Background, def.Background)
	p.Surface = defaultString(p.Surface, def.Surface)
	p.Text = defaultString(p.Text, def.Text)
	p.Muted = defaultString(p.Muted, def.Muted)
	p.Accent = defaultString(p.Accent, def.Accent)
	p.Border = defaultString(p.Border, def.Border)
}

// ThemeConfig holds the palettes for both colour schemes and the scheme used
// when the visitor has not picked one.
type ThemeConfig struct {
	Default Theme   `env:"DEFAULT" envDefault:"light"`
	Light   Palette `envPrefix:"LIGHT_"`
	Dark    Palette `envPrefix:"DARK_"`
}

// Sanitize fills unset colours from the built-in palettes.
func (c *ThemeConfig) Sanitize() {
	if c.Default == "" {
		c.Default = ThemeLight
	}
	c.Light.fill(DefaultLightPalette())
	c.Dark.fill(DefaultDarkPalette())
}

// Palette returns the palette for t.
func (c ThemeConfig) Palette(t Theme) Palette {
	if t == ThemeDark {
		return c.Dark
	}
	return c.Light
}
