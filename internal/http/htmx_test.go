package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMX_RequestDetection(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	assert.False(t, IsHTMX(r))
	assert.False(t, WantsPartial(r))

	r.Header.Set("Hx-Request", "TRUE")
	assert.True(t, IsHTMX(r))
	assert.True(t, WantsPartial(r))
}

func TestHTMX_Trigger(t *testing.T) {
	w := httptest.NewRecorder()
	HTMX(w).Trigger("session-changed", map[string]string{"kind": "signed_in"})

	var payload map[string]map[string]string
	require.NoError(t, json.Unmarshal([]byte(w.Header().Get("Hx-Trigger")), &payload))
	assert.Equal(t, "signed_in", payload["session-changed"]["kind"])

	w = httptest.NewRecorder()
	SetHXTrigger(w, "refresh", nil)
	assert.JSONEq(t, `{"refresh":true}`, w.Header().Get("Hx-Trigger"))
}

func TestRedirect(t *testing.T) {
	t.Run("browser gets 303", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/login", nil)
		w := httptest.NewRecorder()
		redirect(w, r, "/")
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))
		assert.Empty(t, w.Header().Get("Hx-Redirect"))
	})

	t.Run("htmx gets HX-Redirect", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/logout", nil)
		r.Header.Set("Hx-Request", "true")
		w := httptest.NewRecorder()
		redirect(w, r, "/login")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Hx-Redirect"))
		assert.Empty(t, w.Header().Get("Location"))
	})
}
