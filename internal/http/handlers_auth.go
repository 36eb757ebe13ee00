package httpx

import (
	"net/http"
	"strings"

	domainauth "github.com/prakritea/artisan-studio/internal/domain/auth"
	apperrors "github.com/prakritea/artisan-studio/internal/errors"
)

const (
	msgAccountCreated = "Account created successfully! Please sign in."
	// maxAuthFormBytes bounds login and signup bodies.
	maxAuthFormBytes = 64 << 10
)

func credentialsFromForm(r *http.Request) domainauth.Credentials {
	return domainauth.Credentials{
		Identifier:      r.PostFormValue("username"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	}.Normalized()
}

func parseAuthForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxAuthFormBytes)
	if err := r.ParseForm(); err != nil {
		return apperrors.Validation("Invalid form submission")
	}
	return nil
}

// LoginPage renders the login form.
// GET /login.
func (h *UIHandlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	b := h.pageData(r, PageMeta{Title: "Log in", CurrentPage: PageLogin})
	if r.URL.Query().Get("created") == "1" {
		b.With("Notice", msgAccountCreated)
	}
	h.render(w, r, http.StatusOK, b.Build())
}

// Login exchanges the credentials for a token and starts a session.
// POST /login.
//
// The session id is rotated on success: the token is stored under a fresh id,
// the cookie is replaced, and the pre-login id is cleared so tabs following
// it refresh.
func (h *UIHandlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := parseAuthForm(w, r); err != nil {
		h.renderLoginError(w, r, "", err)
		return
	}
	creds := credentialsFromForm(r)

	newID := h.newSessionID()
	sess, err := h.Auth.Login(r.Context(), newID, creds)
	if err != nil {
		h.renderLoginError(w, r, creds.Identifier, err)
		return
	}

	setSessionCookie(w, r, h.Cookies, sess.ID)
	if oldID := SessionIDFromContext(r.Context()); oldID != "" && oldID != sess.ID {
		if clearErr := h.Sessions.Clear(r.Context(), oldID); clearErr != nil {
			h.logger().WarnContext(r.Context(), "clearing pre-login session failed", "error", clearErr)
		}
	}

	h.logger().InfoContext(r.Context(), "user signed in", "username", sess.Username)
	redirect(w, r, "/")
}

func (h *UIHandlers) renderLoginError(w http.ResponseWriter, r *http.Request, username string, err error) {
	h.logFormError(r, "login", err)
	data := h.pageData(r, PageMeta{Title: "Log in", CurrentPage: PageLogin}).
		WithFormErrors(NewFormErrors(err)).
		With("FormUsername", username).
		Build()
	h.render(w, r, StatusForError(err), data)
}

// SignupPage renders the signup form.
// GET /signup.
func (h *UIHandlers) SignupPage(w http.ResponseWriter, r *http.Request) {
	data := h.pageData(r, PageMeta{Title: "Sign up", CurrentPage: PageSignup}).Build()
	h.render(w, r, http.StatusOK, data)
}

// Signup registers an account. No token is issued; the visitor is sent to
// the login form with a confirmation notice.
// POST /signup.
func (h *UIHandlers) Signup(w http.ResponseWriter, r *http.Request) {
	if err := parseAuthForm(w, r); err != nil {
		h.renderSignupError(w, r, "", err)
		return
	}
	creds := credentialsFromForm(r)

	if err := h.Auth.Signup(r.Context(), creds); err != nil {
		h.renderSignupError(w, r, creds.Identifier, err)
		return
	}

	redirect(w, r, "/login?created=1")
}

func (h *UIHandlers) renderSignupError(w http.ResponseWriter, r *http.Request, username string, err error) {
	h.logFormError(r, "signup", err)
	data := h.pageData(r, PageMeta{Title: "Sign up", CurrentPage: PageSignup}).
		WithFormErrors(NewFormErrors(err)).
		With("FormUsername", username).
		Build()
	h.render(w, r, StatusForError(err), data)
}

// logFormError logs failures the visitor cannot fix at Warn and expected
// rejections at Debug. Credentials are never logged.
func (h *UIHandlers) logFormError(r *http.Request, form string, err error) {
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeValidation, apperrors.ErrCodeAuth:
		h.logger().DebugContext(r.Context(), "form rejected", "form", form, "error", err)
	default:
		h.logger().WarnContext(r.Context(), "form submission failed", "form", form, "error", err)
	}
}

// Logout discards the local session and expires the cookie. No backend call
// is made.
// POST /logout.
func (h *UIHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if id := SessionIDFromContext(r.Context()); id != "" {
		if err := h.Auth.Logout(r.Context(), id); err != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", err)
		}
	}
	clearCookie(w, r, h.Cookies, SessionCookieName)
	redirect(w, r, "/login")
}

// Status returns the current authentication status.
// GET /auth/status.
func (h *UIHandlers) Status(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"authenticated": false}
	if sess := GetSessionFromContext(r.Context()); sess != nil {
		body["authenticated"] = true
		if name := strings.TrimSpace(sess.Username); name != "" {
			body["username"] = name
		}
	}
	WriteJSON(w, http.StatusOK, body)
}
