package httpx

import (
	"encoding/json"
	"net/http"
	"strings"
)

// IsHTMX reports whether the request was initiated by htmx (Hx-Request: true).
// The studio script sends the same header from its fetch calls.
func IsHTMX(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Hx-Request"), "true")
}

// WantsPartial returns true when the handler should return only a fragment
// instead of the full layout.
func WantsPartial(r *http.Request) bool {
	return IsHTMX(r)
}

// SetHXRedirect instructs htmx to redirect the browser to the given URL.
func SetHXRedirect(w http.ResponseWriter, url string) { w.Header().Set("Hx-Redirect", url) }

// SetHXTrigger triggers a client-side event after swap with optional payload.
// It sets the Hx-Trigger response header as a JSON object: {"<event>": <payload>}.
// If payload is nil, the value true is used for the event.
func SetHXTrigger(w http.ResponseWriter, event string, payload any) {
	var value any = true
	if payload != nil {
		value = payload
	}
	b, err := json.Marshal(map[string]any{event: value})
	if err != nil {
		w.Header().Set("Hx-Trigger", `{"`+event+`":true}`)
		return
	}
	w.Header().Set("Hx-Trigger", string(b))
}

// HTMXResponse provides a fluent API for building HTMX responses.
type HTMXResponse struct {
	w http.ResponseWriter
}

// HTMX creates a new HTMXResponse for fluent response building.
func HTMX(w http.ResponseWriter) *HTMXResponse {
	return &HTMXResponse{w: w}
}

// Redirect sets HX-Redirect and answers 204 No Content. The handler should
// return immediately afterwards.
func (h *HTMXResponse) Redirect(url string) {
	SetHXRedirect(h.w, url)
	h.w.WriteHeader(http.StatusNoContent)
}

// Trigger triggers a client-side event after swap. This method is chainable.
func (h *HTMXResponse) Trigger(event string, payload any) *HTMXResponse {
	SetHXTrigger(h.w, event, payload)
	return h
}

// redirect sends the browser to url: HX-Redirect for htmx requests, 303 See
// Other for everything else so a POST is followed by a GET.
func redirect(w http.ResponseWriter, r *http.Request, url string) {
	if IsHTMX(r) {
		HTMX(w).Redirect(url)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}
