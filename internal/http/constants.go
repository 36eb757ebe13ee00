package httpx

// CurrentPage constants define the page identifiers used in templates and navigation.
const (
	PageHome           = "home"
	PageHowItWorks     = "how-it-works"
	PagePricing        = "pricing"
	PageLogin          = "login"
	PageSignup         = "signup"
	PageForgotPassword = "forgot-password"
	PageStudio         = "studio"
	PageNotFound       = "not-found"
)

// Template paths used for loading templates in tests and production.
const (
	TemplatePathFromRoot = "frontend/templates"       // From project root
	TemplatePathFromTest = "../../frontend/templates" // From internal/http test files
	StaticPathFromRoot   = "frontend/static"
)

// Cookie names.
const (
	SessionCookieName = "session_id"
	ThemeCookieName   = "theme"
)

// Template names rendered outside the page layout.
const (
	templateLayout      = "layout"
	templateErrorLayout = "error-layout"
	templateNav         = "nav"
	templateStudioPanel = "studio-panel"
)

// Content templates are defined once and reused to avoid per-call allocations.
//
//nolint:gochecknoglobals // static read-only lookup for templates
var contentTemplates = map[string]string{
	PageHome:           "home-content",
	PageHowItWorks:     "how-it-works-content",
	PagePricing:        "pricing-content",
	PageLogin:          "login-content",
	PageSignup:         "signup-content",
	PageForgotPassword: "forgot-password-content",
	PageStudio:         "studio-content",
	PageNotFound:       "not-found-content",
}

// ContentTemplateMap returns the mapping from CurrentPage to template name.
func ContentTemplateMap() map[string]string { return contentTemplates }

// ContentTemplateFor returns the content template for the given CurrentPage.
// Falls back to not-found-content for unknown pages.
func ContentTemplateFor(currentPage string) string {
	if name, ok := ContentTemplateMap()[currentPage]; ok {
		return name
	}
	return "not-found-content"
}
