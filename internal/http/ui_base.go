package httpx

import (
	"context"
	"html"
	"log/slog"
	"net/http"

	"github.com/prakritea/artisan-studio/config"
	domainauth "github.com/prakritea/artisan-studio/internal/domain/auth"
	"github.com/prakritea/artisan-studio/internal/domain/studio"
	"github.com/prakritea/artisan-studio/internal/service"
)

// AuthUIService is the subset of AuthService the auth pages need.
type AuthUIService interface {
	Login(ctx context.Context, sessionID string, creds domainauth.Credentials) (domainauth.Session, error)
	Signup(ctx context.Context, creds domainauth.Credentials) error
	Logout(ctx context.Context, sessionID string) error
}

// SessionsUIService reads, clears and follows sessions.
type SessionsUIService interface {
	SessionReader
	Clear(ctx context.Context, sessionID string) error
	Subscribe(ctx context.Context, sessionID string) (<-chan domainauth.SessionEvent, error)
}

// StudioUIService is the subset of StudioService the studio page needs.
type StudioUIService interface {
	MaxUploadBytes() int64
	Flow(ctx context.Context, flowID string) (studio.Flow, error)
	SetImage(ctx context.Context, flowID string, in service.ImageUpload) (service.SetImageResult, error)
	Generate(ctx context.Context, flowID string) (studio.Flow, error)
	Reset(ctx context.Context, flowID string) (studio.Flow, error)
	Image(ctx context.Context, flowID, imageID string) (studio.Image, error)
	Result(ctx context.Context, flowID string) (studio.Image, error)
	CameraDenied(ctx context.Context, flowID, reason string) error
}

// Compile-time interface assertions to ensure concrete services satisfy their UI interfaces.
var (
	_ AuthUIService     = (*service.AuthService)(nil)
	_ SessionsUIService = (*service.SessionService)(nil)
	_ StudioUIService   = (*service.StudioService)(nil)
)

// UIHandlers serves browser-facing routes.
type UIHandlers struct {
	T        *TemplateRenderer
	Auth     AuthUIService
	Sessions SessionsUIService
	Studio   StudioUIService
	Theme    config.ThemeConfig
	Cookies  CookieConfig
	// NewSessionID mints the id a session is rotated to on sign-in.
	NewSessionID func() string
	IsDev        bool // Development mode flag for enhanced error reporting
	Logger       *slog.Logger
}

// logger returns the configured logger or falls back to slog.Default().
func (h *UIHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *UIHandlers) newSessionID() string {
	if h.NewSessionID != nil {
		return h.NewSessionID()
	}
	return service.NewSessionID()
}

// pageData starts the template data for a page.
func (h *UIHandlers) pageData(r *http.Request, meta PageMeta) *TemplateDataBuilder {
	return NewTemplateData(r, h.Theme, meta)
}

// PageSpec defines metadata and an optional fetch for page-specific data.
type PageSpec struct {
	Meta  PageMeta
	Fetch func(ctx context.Context, data map[string]any) error
}

// Page builds base data, optionally fetches content data, and renders.
func (h *UIHandlers) Page(w http.ResponseWriter, r *http.Request, spec PageSpec) {
	data := basePageData(r, h.Theme, spec.Meta)
	if spec.Fetch != nil {
		if err := spec.Fetch(r.Context(), data); err != nil {
			h.logger().ErrorContext(r.Context(), "page data fetch failed", "page", spec.Meta.CurrentPage, "error", err)
			markPageError(data)
		}
	}
	h.render(w, r, http.StatusOK, data)
}

// render writes a page with status. htmx requests get only the page content
// preceded by a <title> so document.title follows the swap.
func (h *UIHandlers) render(w http.ResponseWriter, r *http.Request, status int, data map[string]any) {
	if !WantsPartial(r) {
		if err := h.T.RenderFull(w, status, data); err != nil {
			h.logAndRenderTemplateError(w, r, err, "full page render")
		}
		return
	}

	page, _ := data["CurrentPage"].(string)
	title, _ := data["Title"].(string)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(`<title>` + html.EscapeString(title) + `</title>`)); err != nil {
		h.logger().Error("failed to write partial document title", "error", err)
		return
	}
	if err := h.T.t.ExecuteTemplate(w, ContentTemplateFor(page), data); err != nil {
		h.logger().Error("partial content render failed", "page", page, "error", err)
	}
}

// renderPartial writes a named fragment.
func (h *UIHandlers) renderPartial(w http.ResponseWriter, r *http.Request, name string, status int, data any) {
	if err := h.T.RenderPartial(w, name, status, data); err != nil {
		h.logAndRenderTemplateError(w, r, err, name)
	}
}

func markPageError(data map[string]any) {
	data["Error"] = true
	if _, ok := data["ErrorMessage"]; ok {
		return
	}
	data["ErrorMessage"] = "An unexpected error occurred. Please try again."
}

// NotFound renders the 404 page inside the layout.
func (h *UIHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	data := h.pageData(r, PageMeta{Title: "Page not found", CurrentPage: PageNotFound}).Build()
	h.render(w, r, http.StatusNotFound, data)
}

// renderErrorPage renders the standalone error page for non-page endpoints
// that fail for a browser. API clients get JSON.
func (h *UIHandlers) renderErrorPage(w http.ResponseWriter, r *http.Request, status int, message string) {
	if !IsBrowserRequest(r) {
		WriteError(w, ErrorParams{Code: status, ErrCode: errCodeForStatus(status), Message: message})
		return
	}
	data := h.pageData(r, PageMeta{Title: http.StatusText(status)}).
		With("Status", status).
		With("Message", message).
		Build()
	if err := h.T.RenderError(w, status, data); err != nil {
		h.logger().Error("error page render failed", "error", err)
		http.Error(w, message, status)
	}
}

func errCodeForStatus(status int) string {
	switch status {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusConflict:
		return "conflict"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusUnauthorized:
		return "authentication_required"
	case http.StatusBadGateway:
		return "backend_unavailable"
	case http.StatusGatewayTimeout:
		return "timeout"
	default:
		return "internal_error"
	}
}

// logAndRenderTemplateError logs template errors and renders them in dev mode.
func (h *UIHandlers) logAndRenderTemplateError(w http.ResponseWriter, r *http.Request, err error, context string) {
	h.logger().Error("template rendering failed",
		"error", err,
		"context", context,
		"path", r.URL.Path,
		"method", r.Method,
	)

	// In dev mode, show detailed error in the response
	if h.IsDev {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		errHTML := html.EscapeString(err.Error())
		pathHTML := html.EscapeString(r.URL.Path)
		contextHTML := html.EscapeString(context)
		if _, writeErr := w.Write([]byte(`
			<div style="padding: 20px; background: #fee; border: 2px solid #c33; border-radius: 4px; margin: 20px; font-family: monospace;">
				<h2 style="color: #c33; margin-top: 0;">Template Rendering Error</h2>
				<p><strong>Context:</strong> ` + contextHTML + `</p>
				<p><strong>Path:</strong> ` + pathHTML + `</p>
				<pre style="background: #fff; padding: 10px; border: 1px solid #ccc; overflow-x: auto;">` + errHTML + `</pre>
			</div>
		`)); writeErr != nil {
			h.logger().Error("failed to write template error response", "error", writeErr)
		}
		return
	}

	http.Error(w, "internal server error", http.StatusInternalServerError)
}
