package httpx

import (
	"context"
	"net/http"
)

// PricingPlan is one column of the pricing table.
type PricingPlan struct {
	Name      string
	Price     string
	Period    string
	Features  []string
	CTA       string
	CTAHref   string
	Highlight bool
}

func pricingPlans() []PricingPlan {
	return []PricingPlan{
		{
			Name:     "Starter",
			Price:    "Free",
			Features: []string{"5 artworks per month", "Standard resolution", "Community styles"},
			CTA:      "Get started",
			CTAHref:  "/signup",
		},
		{
			Name:      "Pro",
			Price:     "$19",
			Period:    "/mo",
			Features:  []string{"Unlimited artworks", "High resolution downloads", "Camera capture", "Priority processing"},
			CTA:       "Go Pro",
			CTAHref:   "/signup",
			Highlight: true,
		},
		{
			Name:     "Enterprise",
			Price:    "Custom",
			Features: []string{"Team workspaces", "API access", "Dedicated support"},
			CTA:      "Contact sales",
			CTAHref:  "mailto:sales@artisan.studio",
		},
	}
}

// HowItWorksStep is one numbered step on the how-it-works page.
type HowItWorksStep struct {
	Title string
	Body  string
}

func howItWorksSteps() []HowItWorksStep {
	return []HowItWorksStep{
		{Title: "Pick a photo", Body: "Upload, drop or snap the picture you want to transform."},
		{Title: "Choose a style", Body: "Add a painting or texture whose look you love."},
		{Title: "Generate", Body: "We blend the two into a new artwork in seconds."},
		{Title: "Download", Body: "Save the result as a PNG and share it anywhere."},
	}
}

// Home renders the landing page.
// GET /.
func (h *UIHandlers) Home(w http.ResponseWriter, r *http.Request) {
	// The catch-all pattern "/" lands here for unknown paths too.
	if r.URL.Path != "/" {
		h.NotFound(w, r)
		return
	}
	h.Page(w, r, PageSpec{Meta: PageMeta{Title: "Artisan Studio", CurrentPage: PageHome}})
}

// HowItWorks renders the informational page.
// GET /how-it-works.
func (h *UIHandlers) HowItWorks(w http.ResponseWriter, r *http.Request) {
	h.Page(w, r, PageSpec{
		Meta: PageMeta{Title: "How it works", CurrentPage: PageHowItWorks},
		Fetch: func(_ context.Context, data map[string]any) error {
			data["Steps"] = howItWorksSteps()
			return nil
		},
	})
}

// Pricing renders the plans.
// GET /pricing.
func (h *UIHandlers) Pricing(w http.ResponseWriter, r *http.Request) {
	h.Page(w, r, PageSpec{
		Meta: PageMeta{Title: "Pricing", CurrentPage: PagePricing},
		Fetch: func(_ context.Context, data map[string]any) error {
			data["Plans"] = pricingPlans()
			return nil
		},
	})
}

// ForgotPassword renders a placeholder; password recovery is not offered yet.
// GET /forgot-password.
func (h *UIHandlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	h.Page(w, r, PageSpec{Meta: PageMeta{Title: "Forgot password", CurrentPage: PageForgotPassword}})
}

// NavPartial renders the navigation bar alone so pages can refresh it when
// the session changes.
// GET /partials/nav.
func (h *UIHandlers) NavPartial(w http.ResponseWriter, r *http.Request) {
	page := r.URL.Query().Get("page")
	if _, ok := ContentTemplateMap()[page]; !ok {
		page = ""
	}
	data := h.pageData(r, PageMeta{CurrentPage: page}).Build()
	w.Header().Set("Cache-Control", "no-store")
	h.renderPartial(w, r, templateNav, http.StatusOK, data)
}
