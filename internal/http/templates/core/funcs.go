package core

import (
	"bytes"
	"errors"
	"html/template"
	"regexp"
	"strings"
	"time"

	"github.com/prakritea/artisan-studio/internal/http/uiutil"
)

// Deps holds optional dependencies for constructing the core template func map.
type Deps struct {
	Template           **template.Template
	ContentTemplateFor func(string) string
}

// Funcs returns a template.FuncMap containing helpers that are broadly useful across templates.
func Funcs(deps Deps) template.FuncMap {
	funcs := template.FuncMap{
		"friendlyTime": friendlyTime,
		"add":          func(a, b int) int { return a + b },
		"formatBytes":  uiutil.FormatBytes,
		"truncateText": uiutil.TruncateWithEllipsis,
		"cssColor":     CSSColor,
		"year":         func() int { return time.Now().Year() },
	}

	addRenderFuncs(funcs, deps)
	return funcs
}

func addRenderFuncs(funcs template.FuncMap, deps Deps) {
	funcs["renderSection"] = func(page string, data any) (template.HTML, error) {
		if deps.Template == nil || *deps.Template == nil {
			return "", errors.New("template not initialized")
		}
		var buf bytes.Buffer
		if err := (*deps.Template).ExecuteTemplate(&buf, deps.ContentTemplateFor(page), data); err != nil {
			return "", err
		}
		// #nosec G203 - rendered by our own html/template set; values were escaped during ExecuteTemplate.
		return template.HTML(buf.String()), nil
	}
}

func friendlyTime(ts any) string {
	switch v := ts.(type) {
	case time.Time:
		return uiutil.FormatFriendlyDateTime(v)
	case *time.Time:
		if v != nil {
			return uiutil.FormatFriendlyDateTime(*v)
		}
	}
	return ""
}

var colorPattern = regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}|(rgb|rgba|hsl|hsla)\([0-9.,%\s/]+\)|[a-zA-Z]{3,20})$`)

// fallbackColor keeps the stylesheet parseable when a configured colour is rejected.
const fallbackColor = "inherit"

// CSSColor passes through colour values that are safe to place in a style
// block: hex, rgb()/hsl() functions and named colours.
func CSSColor(v string) template.CSS {
	v = strings.TrimSpace(v)
	if !colorPattern.MatchString(v) {
		return fallbackColor
	}
	// #nosec G203 - v matched colorPattern, which admits no quotes, semicolons or braces.
	return template.CSS(v)
}
