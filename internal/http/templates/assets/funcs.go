package assets

import (
	"html/template"

	httpassets "github.com/prakritea/artisan-studio/internal/http/assets"
)

// Options configures asset-related template helpers.
type Options struct {
	Resolver *httpassets.AssetResolver
	DevMode  bool
}

// Funcs returns template helpers for asset resolution.
func Funcs(opts Options) template.FuncMap {
	return template.FuncMap{
		"asset": func(logicalName string) string {
			return httpassets.ResolveAsset(opts.Resolver, logicalName, opts.DevMode)
		},
	}
}
