package httpx

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/prakritea/artisan-studio/config"
)

// ToggleTheme switches between the light and dark palettes and remembers the
// choice in a cookie. An explicit "theme" form value wins over toggling.
// POST /theme.
func (h *UIHandlers) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	next := themeFor(r, h.Theme).Toggle()
	if t, ok := config.ParseTheme(r.PostFormValue("theme")); ok {
		next = t
	}
	setThemeCookie(w, r, h.Cookies, string(next))

	if IsHTMX(r) {
		// Palettes live in the document head, so the whole page re-renders.
		w.Header().Set("Hx-Refresh", "true")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, safeRedirectPath(r.PostFormValue("return_to")), http.StatusSeeOther)
}

// safeRedirectPath only allows same-origin absolute paths; anything else
// becomes "/".
func safeRedirectPath(p string) string {
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return "/"
	}
	u, err := url.Parse(p)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "/"
	}
	return u.RequestURI()
}
