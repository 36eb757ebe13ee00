package httpx

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	artisan "github.com/prakritea/artisan-studio"
	"github.com/prakritea/artisan-studio/config"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth     AuthUIService     // Required
	Sessions SessionsUIService // Required
	Studio   StudioUIService   // Required

	Theme         config.ThemeConfig
	CookieDomain  string
	SessionMaxAge time.Duration
	// Compression enables gzip for text responses when non-nil.
	Compression *CompressionConfig
	// HealthChecks are run by /healthz, keyed by dependency name.
	HealthChecks map[string]HealthCheck

	// TemplateFS and StaticFS override the embedded (or, in dev, on-disk) frontend.
	TemplateFS fs.FS
	StaticFS   fs.FS

	IsDev  bool         // Development mode flag for hot reloading, etc.
	Logger *slog.Logger // Logger for template and HTTP errors (optional)
}

func (s RouterServices) validate() error {
	if s.Auth == nil || s.Sessions == nil || s.Studio == nil {
		return errors.New("auth, sessions and studio services are required")
	}
	return nil
}

// NewRouter creates and configures a new HTTP router with browser middleware.
func NewRouter(services RouterServices) (http.Handler, error) {
	if err := services.validate(); err != nil {
		return nil, err
	}
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	templateFS, staticFS, err := frontendFS(services)
	if err != nil {
		return nil, err
	}
	resolver, err := NewAssetResolverFromFS(staticFS)
	if err != nil {
		logger.Warn("fingerprinting static assets failed; serving plain asset paths", "error", err)
		resolver = nil
	}
	if resolver != nil {
		resolver.SetLogger(logger)
	}
	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: templateFS,
		Resolver:   resolver,
		DevMode:    services.IsDev,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create template renderer: %w", err)
	}

	cookies := CookieConfig{Domain: services.CookieDomain, SessionMaxAge: services.SessionMaxAge}
	ui := &UIHandlers{
		T:        tr,
		Auth:     services.Auth,
		Sessions: services.Sessions,
		Studio:   services.Studio,
		Theme:    services.Theme,
		Cookies:  cookies,
		IsDev:    services.IsDev,
		Logger:   logger,
	}
	guard := SessionGuard{Sessions: services.Sessions, Cookies: cookies, Logger: logger}
	cfg := routeConfig{
		csrf:     CSRFProtection(CSRFConfig{CookieDomain: services.CookieDomain}),
		optional: OptionalSession(guard),
		require:  RequireSession(guard),
	}

	mux := http.NewServeMux()
	health := newHealthHandler(services.HealthChecks, logger)
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)
	mux.Handle("GET /static/", staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))))

	registerPublicRoutes(mux, ui, cfg)
	registerAuthRoutes(mux, ui, cfg)
	registerStudioRoutes(mux, ui, cfg)

	mws := []func(http.Handler) http.Handler{Recover(logger), Logging(logger)}
	if services.Compression != nil {
		cc := *services.Compression
		if cc.Logger == nil {
			cc.Logger = logger
		}
		mws = append(mws, Compression(cc))
	}
	mws = append(mws, BrowserDetection())
	return Chain(mux, mws...), nil
}

// frontendFS picks the template and static filesystems: explicit overrides,
// then the working tree in dev mode, then the embedded copies.
func frontendFS(services RouterServices) (fs.FS, fs.FS, error) {
	templateFS, staticFS := services.TemplateFS, services.StaticFS
	if services.IsDev {
		if templateFS == nil {
			templateFS = os.DirFS(TemplatePathFromRoot)
		}
		if staticFS == nil {
			staticFS = os.DirFS(StaticPathFromRoot)
		}
	}

	var err error
	if templateFS == nil {
		if templateFS, err = fs.Sub(artisan.TemplateFS, TemplatePathFromRoot); err != nil {
			return nil, nil, fmt.Errorf("templates sub-filesystem: %w", err)
		}
	}
	if staticFS == nil {
		if staticFS, err = fs.Sub(artisan.StaticFS, StaticPathFromRoot); err != nil {
			return nil, nil, fmt.Errorf("static sub-filesystem: %w", err)
		}
	}
	return templateFS, staticFS, nil
}

// staticWithCacheHeaders caches fingerprinted requests (?v=<hash>) for a year
// and asks browsers to revalidate everything else.
func staticWithCacheHeaders(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("v") != "" {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			w.Header().Set("Cache-Control", "no-cache")
		}
		handler.ServeHTTP(w, r)
	})
}

// routeConfig holds the per-route middleware.
type routeConfig struct {
	csrf     func(http.Handler) http.Handler
	optional func(http.Handler) http.Handler
	require  func(http.Handler) http.Handler
}

// page wraps a route every visitor may reach.
func (cfg routeConfig) page(h http.HandlerFunc) http.Handler {
	return Chain(h, cfg.csrf, cfg.optional)
}

// protected wraps a route that needs a signed-in session.
func (cfg routeConfig) protected(h http.HandlerFunc) http.Handler {
	return Chain(h, cfg.csrf, cfg.optional, cfg.require)
}

func registerPublicRoutes(mux *http.ServeMux, h *UIHandlers, cfg routeConfig) {
	// "GET /" also catches unknown paths; Home renders the 404 page for them.
	mux.Handle("GET /", cfg.page(h.Home))
	mux.Handle("GET /how-it-works", cfg.page(h.HowItWorks))
	mux.Handle("GET /pricing", cfg.page(h.Pricing))
	mux.Handle("GET /forgot-password", cfg.page(h.ForgotPassword))
	mux.Handle("POST /theme", cfg.page(h.ToggleTheme))
	mux.Handle("GET /partials/nav", cfg.page(h.NavPartial))
	mux.Handle("GET /events/session", cfg.page(h.SessionEvents))
}

func registerAuthRoutes(mux *http.ServeMux, h *UIHandlers, cfg routeConfig) {
	mux.Handle("GET /login", cfg.page(h.LoginPage))
	mux.Handle("POST /login", cfg.page(h.Login))
	mux.Handle("GET /signup", cfg.page(h.SignupPage))
	mux.Handle("POST /signup", cfg.page(h.Signup))
	mux.Handle("POST /logout", cfg.page(h.Logout))
	mux.Handle("GET /auth/status", cfg.page(h.Status))
}

func registerStudioRoutes(mux *http.ServeMux, h *UIHandlers, cfg routeConfig) {
	mux.Handle("GET /studio", cfg.protected(h.StudioPage))
	mux.Handle("POST /studio/images/{slot}", cfg.protected(h.UploadImage))
	mux.Handle("GET /studio/images/{id}", cfg.protected(h.StudioImage))
	mux.Handle("POST /studio/generate", cfg.protected(h.Generate))
	mux.Handle("POST /studio/reset", cfg.protected(h.Reset))
	mux.Handle("GET /studio/result", cfg.protected(h.StudioResult))
	mux.Handle("GET /studio/result/download", cfg.protected(h.DownloadResult))
	mux.Handle("POST /studio/camera/denied", cfg.protected(h.CameraDenied))
}
