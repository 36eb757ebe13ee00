package httpx

import (
	"bytes"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"maps"
	"net/http"

	httpassets "github.com/prakritea/artisan-studio/internal/http/assets"
	assetfuncs "github.com/prakritea/artisan-studio/internal/http/templates/assets"
	corefuncs "github.com/prakritea/artisan-studio/internal/http/templates/core"
)

// AssetResolver aliases the asset resolver so callers only import httpx.
type AssetResolver = httpassets.AssetResolver

// NewAssetResolverFromFS fingerprints the static files in fsys.
func NewAssetResolverFromFS(fsys fs.FS) (*AssetResolver, error) {
	return httpassets.NewAssetResolverFromFS(fsys)
}

// TemplateRenderer renders HTML templates for UI responses.
type TemplateRenderer struct {
	t        *template.Template
	resolver *AssetResolver
	devMode  bool
	logger   *slog.Logger
}

// TemplateRendererConfig holds configuration for creating a TemplateRenderer.
type TemplateRendererConfig struct {
	TemplateFS fs.FS          // Filesystem containing templates (required)
	Resolver   *AssetResolver // Asset fingerprints (optional)
	DevMode    bool           // Recompute fingerprints on each lookup
	Logger     *slog.Logger   // Logger for template errors (optional)
}

// NewTemplateRenderer constructs a renderer by parsing the layout, pages and
// partials from cfg.TemplateFS.
func NewTemplateRenderer(cfg TemplateRendererConfig) (*TemplateRenderer, error) {
	if cfg.TemplateFS == nil {
		return nil, errors.New("TemplateFS is required")
	}

	renderer := &TemplateRenderer{
		resolver: cfg.Resolver,
		devMode:  cfg.DevMode,
		logger:   cfg.Logger,
	}

	var t *template.Template
	funcs := createTemplateFuncs(&t, renderer)
	var err error
	t, err = template.New("root").Funcs(funcs).ParseFS(cfg.TemplateFS,
		"*.tmpl",
		"pages/*.tmpl",
		"partials/*.tmpl",
	)
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Error("template parsing failed",
				slog.Any("error", err),
				slog.String("phase", "initialization"),
			)
		}
		return nil, err
	}
	renderer.t = t
	return renderer, nil
}

// RenderFull renders the full page (layout + page content).
func (r *TemplateRenderer) RenderFull(w http.ResponseWriter, status int, data any) error {
	return r.renderTemplate(w, templateLayout, status, data)
}

// RenderPartial renders a named fragment such as the nav or the studio panel.
func (r *TemplateRenderer) RenderPartial(w http.ResponseWriter, name string, status int, data any) error {
	return r.renderTemplate(w, name, status, data)
}

// RenderError renders an error page using the error template.
func (r *TemplateRenderer) RenderError(w http.ResponseWriter, status int, data any) error {
	return r.renderTemplate(w, templateErrorLayout, status, data)
}

// HasTemplate reports whether name was parsed.
func (r *TemplateRenderer) HasTemplate(name string) bool {
	return r != nil && r.t != nil && r.t.Lookup(name) != nil
}

// renderTemplate buffers the output so a failing template never leaves a
// half-written page behind.
func (r *TemplateRenderer) renderTemplate(w http.ResponseWriter, templateName string, status int, data any) error {
	var buf bytes.Buffer
	if err := r.t.ExecuteTemplate(&buf, templateName, data); err != nil {
		r.logTemplateError(templateName, err)
		return err
	}

	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		if r.logger != nil {
			r.logger.Error("failed to write rendered template",
				slog.String("template", templateName),
				slog.Any("error", err),
			)
		}
		return err
	}

	return nil
}

func (r *TemplateRenderer) logTemplateError(templateName string, err error) {
	if r.logger == nil || err == nil {
		return
	}
	r.logger.Error("template execution failed",
		slog.String("template", templateName),
		slog.Any("error", err),
	)
}

func createTemplateFuncs(t **template.Template, renderer *TemplateRenderer) template.FuncMap {
	funcs := template.FuncMap{}
	maps.Copy(funcs, corefuncs.Funcs(corefuncs.Deps{
		Template:           t,
		ContentTemplateFor: ContentTemplateFor,
	}))
	maps.Copy(funcs, assetfuncs.Funcs(assetfuncs.Options{
		Resolver: renderer.resolver,
		DevMode:  renderer.devMode,
	}))
	return funcs
}
