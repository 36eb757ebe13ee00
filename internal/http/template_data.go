package httpx

import (
	"net/http"

	"github.com/prakritea/artisan-studio/config"
	"github.com/prakritea/artisan-studio/internal/http/ui/viewmodel"
)

// PageMeta contains metadata for page rendering.
type PageMeta struct {
	Title       string
	CurrentPage string
	// Protected marks pages behind RequireSession.
	Protected bool
}

// themeFor resolves the visitor's colour scheme: the theme cookie when it
// names a known theme, otherwise the configured default.
func themeFor(r *http.Request, cfg config.ThemeConfig) config.Theme {
	if c, err := r.Cookie(ThemeCookieName); err == nil {
		if t, ok := config.ParseTheme(c.Value); ok {
			return t
		}
	}
	if cfg.Default != "" {
		return cfg.Default
	}
	return config.ThemeLight
}

// buildLayout constructs shared layout metadata from the request/session context.
func buildLayout(r *http.Request, themes config.ThemeConfig, meta PageMeta) viewmodel.Layout {
	theme := themeFor(r, themes)
	layout := viewmodel.Layout{
		Title:       meta.Title,
		CurrentPage: meta.CurrentPage,
		CSRFToken:   GetCSRFToken(r),
		Protected:   meta.Protected,
		Theme:       theme,
		Palette:     themes.Palette(theme),
		Links:       viewmodel.PrimaryLinks(),
	}

	if session := GetSessionFromContext(r.Context()); session != nil {
		layout.IsAuthenticated = true
		layout.Username = session.Username
	}

	return layout
}

// basePageData constructs the common page data map with user context.
func basePageData(r *http.Request, themes config.ThemeConfig, meta PageMeta) map[string]any {
	layout := buildLayout(r, themes, meta)
	return map[string]any{
		"Title":           layout.Title,
		"CurrentPage":     layout.CurrentPage,
		"CSRFToken":       layout.CSRFToken,
		"IsAuthenticated": layout.IsAuthenticated,
		"Username":        layout.Username,
		"Protected":       layout.Protected,
		"Theme":           string(layout.Theme),
		"NextTheme":       string(layout.NextTheme()),
		"Palette":         layout.Palette,
		"Links":           layout.Links,
	}
}

// TemplateDataBuilder provides a fluent API for building template data maps.
type TemplateDataBuilder struct {
	data map[string]any
}

// NewTemplateData creates a new TemplateDataBuilder initialized with basePageData.
func NewTemplateData(r *http.Request, themes config.ThemeConfig, meta PageMeta) *TemplateDataBuilder {
	return &TemplateDataBuilder{data: basePageData(r, themes, meta)}
}

// WithError sets a general error message. An empty message is ignored.
func (b *TemplateDataBuilder) WithError(msg string) *TemplateDataBuilder {
	if msg == "" {
		return b
	}
	b.data["Error"] = true
	b.data["ErrorMessage"] = msg
	return b
}

// WithFieldErrors adds field-level validation errors.
func (b *TemplateDataBuilder) WithFieldErrors(errs map[string]string) *TemplateDataBuilder {
	if len(errs) > 0 {
		b.data["Errors"] = errs
	}
	return b
}

// WithFormErrors applies both halves of a FormErrors.
func (b *TemplateDataBuilder) WithFormErrors(fe FormErrors) *TemplateDataBuilder {
	return b.WithFieldErrors(fe.Fields).WithError(fe.General)
}

// With adds a custom field to the template data.
func (b *TemplateDataBuilder) With(key string, value any) *TemplateDataBuilder {
	b.data[key] = value
	return b
}

// Build returns the final template data map.
func (b *TemplateDataBuilder) Build() map[string]any {
	return b.data
}
