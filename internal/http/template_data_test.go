package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prakritea/artisan-studio/config"
	domainauth "github.com/prakritea/artisan-studio/internal/domain/auth"
)

func testThemes() config.ThemeConfig {
	cfg := config.ThemeConfig{Default: config.ThemeLight}
	cfg.Sanitize()
	return cfg
}

func TestNewTemplateData_Guest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/pricing", nil)

	data := NewTemplateData(r, testThemes(), PageMeta{Title: "Pricing", CurrentPage: PagePricing}).Build()

	assert.Equal(t, "Pricing", data["Title"])
	assert.Equal(t, PagePricing, data["CurrentPage"])
	assert.Equal(t, false, data["IsAuthenticated"])
	assert.Equal(t, "", data["Username"])
	assert.Equal(t, "light", data["Theme"])
	assert.Equal(t, "dark", data["NextTheme"])
	assert.Equal(t, config.DefaultLightPalette(), data["Palette"])
}

func TestNewTemplateData_SignedIn(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/studio", nil)
	sess := &domainauth.Session{ID: "sid", Token: "tok123", Username: "artist1"}
	r = r.WithContext(SetSessionInContext(r.Context(), sess))

	data := NewTemplateData(r, testThemes(), PageMeta{Title: "Studio", CurrentPage: PageStudio, Protected: true}).Build()

	assert.Equal(t, true, data["IsAuthenticated"])
	assert.Equal(t, "artist1", data["Username"])
	assert.Equal(t, true, data["Protected"])
}

func TestNewTemplateData_TokenlessSessionIsGuest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(SetSessionInContext(r.Context(), &domainauth.Session{ID: "sid", Username: "artist1"}))

	data := NewTemplateData(r, testThemes(), PageMeta{CurrentPage: PageHome}).Build()

	assert.Equal(t, false, data["IsAuthenticated"])
}

func TestThemeFor(t *testing.T) {
	themes := testThemes()
	tests := []struct {
		name   string
		cookie string
		want   config.Theme
	}{
		{name: "no cookie", want: config.ThemeLight},
		{name: "dark cookie", cookie: "dark", want: config.ThemeDark},
		{name: "unknown cookie falls back", cookie: "sepia", want: config.ThemeLight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: ThemeCookieName, Value: tt.cookie})
			}
			assert.Equal(t, tt.want, themeFor(r, themes))
		})
	}
}

func TestTemplateDataBuilder_Errors(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/login", nil)

	data := NewTemplateData(r, testThemes(), PageMeta{CurrentPage: PageLogin}).
		WithFormErrors(FormErrors{Fields: map[string]string{"username": "Please enter your username"}}).
		With("FormUsername", "x").
		Build()

	assert.Equal(t, map[string]string{"username": "Please enter your username"}, data["Errors"])
	assert.NotContains(t, data, "Error", "an empty general message is not rendered")
	assert.Equal(t, "x", data["FormUsername"])

	data = NewTemplateData(r, testThemes(), PageMeta{CurrentPage: PageLogin}).WithError("Invalid credentials").Build()
	assert.Equal(t, true, data["Error"])
	assert.Equal(t, "Invalid credentials", data["ErrorMessage"])
	assert.NotContains(t, data, "Errors")
}
