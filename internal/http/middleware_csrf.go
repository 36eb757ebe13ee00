package httpx

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultCSRFCookieName is the default name for the CSRF cookie.
	DefaultCSRFCookieName = "csrf_token"
	// DefaultCSRFHeaderName is the default name for the CSRF header (canonical form).
	DefaultCSRFHeaderName = "X-Csrf-Token"
	// DefaultCSRFTokenLength is the default length of the CSRF token in bytes.
	DefaultCSRFTokenLength = 32
	// defaultCSRFMaxFormBytes bounds how much of a form body is read to find the token.
	defaultCSRFMaxFormBytes = 32 << 20
	csrfCookieMaxAge        = 12 * time.Hour
)

// CSRFConfig holds configuration for CSRF protection middleware.
type CSRFConfig struct {
	// CookieName is the name of the CSRF cookie (default: "csrf_token")
	CookieName string
	// HeaderName is the name of the CSRF header to check (default: "X-Csrf-Token")
	HeaderName string
	// FormFieldName is the name of the form field to check (default: "csrf_token")
	FormFieldName string
	// CookieDomain is the domain for the CSRF cookie
	CookieDomain string
	// TokenLength is the length of the CSRF token in bytes (default: 32)
	TokenLength int
	// MaxFormBytes caps the body read when the token travels in a form field.
	MaxFormBytes int64
}

func (cfg *CSRFConfig) applyDefaults() {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCSRFCookieName
	}
	if cfg.HeaderName == "" {
		cfg.HeaderName = DefaultCSRFHeaderName
	}
	if cfg.FormFieldName == "" {
		cfg.FormFieldName = DefaultCSRFCookieName
	}
	if cfg.TokenLength <= 0 {
		cfg.TokenLength = DefaultCSRFTokenLength
	}
	if cfg.MaxFormBytes <= 0 {
		cfg.MaxFormBytes = defaultCSRFMaxFormBytes
	}
}

// CSRFProtection returns a middleware that protects against CSRF attacks using the double-submit cookie pattern.
// The token can be submitted via:
// - X-Csrf-Token header (htmx and the studio script)
// - csrf_token form field (plain form submissions)
//
// GET, HEAD, OPTIONS, and TRACE requests are exempt from CSRF validation.
func CSRFProtection(cfg CSRFConfig) func(http.Handler) http.Handler {
	cfg.applyDefaults()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := cookieValue(r, cfg.CookieName)
			if token == "" {
				var err error
				token, err = generateCSRFToken(cfg.TokenLength)
				if err != nil {
					http.Error(w, "unable to generate CSRF token", http.StatusInternalServerError)
					return
				}
				setCSRFCookie(w, r, cfg, token)
			}

			r = r.WithContext(setCSRFTokenInContext(r.Context(), token))

			if requiresCSRFValidation(r.Method) && !validateCSRFToken(w, r, token, cfg) {
				http.Error(w, "CSRF token validation failed", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// requiresCSRFValidation returns true if the HTTP method requires CSRF validation.
func requiresCSRFValidation(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return false
	default:
		return true
	}
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// generateCSRFToken fails closed: there is no fallback to a predictable token.
func generateCSRFToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("csrf token generation failed: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func setCSRFCookie(w http.ResponseWriter, r *http.Request, cfg CSRFConfig, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    token,
		Path:     "/",
		Domain:   cfg.CookieDomain,
		HttpOnly: false, // read by page scripts for fetch and htmx headers
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(csrfCookieMaxAge.Seconds()),
	})
}

// validateCSRFToken compares the submitted token to the cookie in constant time.
// The header wins; the form field is only read for form-encoded bodies.
func validateCSRFToken(w http.ResponseWriter, r *http.Request, cookieToken string, cfg CSRFConfig) bool {
	if cookieToken == "" {
		return false
	}

	if headerToken := r.Header.Get(cfg.HeaderName); headerToken != "" {
		return subtle.ConstantTimeCompare([]byte(headerToken), []byte(cookieToken)) == 1
	}

	contentType := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "application/x-www-form-urlencoded"):
		r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxFormBytes)
		if err := r.ParseForm(); err != nil {
			return false
		}
	case strings.HasPrefix(contentType, "multipart/form-data"):
		r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxFormBytes)
		if err := r.ParseMultipartForm(cfg.MaxFormBytes); err != nil {
			return false
		}
	default:
		return false
	}

	formToken := r.PostFormValue(cfg.FormFieldName)
	if formToken == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(formToken), []byte(cookieToken)) == 1
}

// csrfTokenKey is an unexported context key type for CSRF token storage.
type csrfTokenKey struct{}

func setCSRFTokenInContext(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfTokenKey{}, token)
}

// GetCSRFToken retrieves the CSRF token from the request context for templates.
func GetCSRFToken(r *http.Request) string {
	if token, ok := r.Context().Value(csrfTokenKey{}).(string); ok {
		return token
	}
	return ""
}
