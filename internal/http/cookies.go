package httpx

import (
	"net/http"
	"strings"
	"time"
)

// defaultSessionCookieMaxAge keeps the session cookie across browser restarts
// when the session store itself has no retention limit.
const defaultSessionCookieMaxAge = 30 * 24 * time.Hour

// themeCookieMaxAge remembers the visitor's colour scheme for a year.
const themeCookieMaxAge = 365 * 24 * time.Hour

// CookieConfig controls the attributes of cookies this package sets.
type CookieConfig struct {
	Domain string
	// SessionMaxAge is the session cookie lifetime. Zero uses 30 days.
	SessionMaxAge time.Duration
}

func (c CookieConfig) sessionMaxAge() time.Duration {
	if c.SessionMaxAge > 0 {
		return c.SessionMaxAge
	}
	return defaultSessionCookieMaxAge
}

// isSecureRequest reports whether the request arrived over HTTPS, accounting for proxies.
func isSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	for _, proto := range strings.Split(r.Header.Get("X-Forwarded-Proto"), ",") {
		if strings.EqualFold(strings.TrimSpace(proto), "https") {
			return true
		}
	}
	return false
}

// setSessionCookie writes the opaque session id.
func setSessionCookie(w http.ResponseWriter, r *http.Request, cfg CookieConfig, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		Domain:   cfg.Domain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(cfg.sessionMaxAge().Seconds()),
	})
}

// clearCookie clears a cookie by setting it to expire immediately.
// It mirrors key attributes (Secure, Path, Domain, SameSite) used when setting cookies
// to maximize compatibility across browsers during deletion.
func clearCookie(w http.ResponseWriter, r *http.Request, cfg CookieConfig, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   cfg.Domain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

// setThemeCookie remembers the chosen colour scheme. Scripts read it, so it is not HttpOnly.
func setThemeCookie(w http.ResponseWriter, r *http.Request, cfg CookieConfig, theme string) {
	http.SetCookie(w, &http.Cookie{
		Name:     ThemeCookieName,
		Value:    theme,
		Path:     "/",
		Domain:   cfg.Domain,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(themeCookieMaxAge.Seconds()),
	})
}

// sessionIDFromCookie returns the session_id cookie value, or "".
func sessionIDFromCookie(r *http.Request) string {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}
