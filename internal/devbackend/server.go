package devbackend

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	httpx "github.com/prakritea/artisan-studio/internal/http"
)

// Response messages. The web app surfaces detail strings verbatim.
const (
	MsgUserCreated        = "User created successfully"
	MsgUserExists         = "Username already exists"
	MsgInvalidCredentials = "Invalid credentials"
	MsgFieldsRequired     = "Username and password are required"
	MsgImagesRequired     = "Both content and style images are required"
)

const (
	maxCredentialBytes = 16 << 10
	defaultMaxUpload   = 32 << 20
)

// Options configures the dev backend handler.
type Options struct {
	Users  UserStore    // Required
	Tokens *TokenIssuer // Required
	// Alpha is the style weight of the blend. Zero selects DefaultBlendAlpha.
	Alpha float64
	// MaxUploadBytes caps a style-transfer request body.
	MaxUploadBytes int64
	Logger         *slog.Logger
}

// Server implements the backend API contract.
type Server struct {
	users     UserStore
	tokens    *TokenIssuer
	alpha     float64
	maxUpload int64
	logger    *slog.Logger
	now       func() time.Time
}

// NewServer validates opts and returns a Server.
func NewServer(opts Options) (*Server, error) {
	if opts.Users == nil || opts.Tokens == nil {
		return nil, errors.New("user store and token issuer are required")
	}
	s := &Server{
		users:     opts.Users,
		tokens:    opts.Tokens,
		alpha:     opts.Alpha,
		maxUpload: opts.MaxUploadBytes,
		logger:    opts.Logger,
		now:       time.Now,
	}
	if s.alpha == 0 {
		s.alpha = DefaultBlendAlpha
	}
	if s.maxUpload <= 0 {
		s.maxUpload = defaultMaxUpload
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "devbackend")
	return s, nil
}

// Handler returns the routed handler with recovery and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Server is running"})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("POST /api/signup", s.Signup)
	mux.HandleFunc("POST /api/login", s.Login)
	mux.HandleFunc("POST /api/style-transfer", s.StyleTransfer)
	mux.HandleFunc("POST /stylize", s.Stylize)

	return httpx.Chain(mux, httpx.Recover(s.logger), httpx.Logging(s.logger))
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Username    string `json:"username"`
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	httpx.WriteJSON(w, status, map[string]string{"detail": detail})
}

// readCredentials accepts a JSON body or a urlencoded form.
func readCredentials(w http.ResponseWriter, r *http.Request) (credentials, error) {
	var c credentials
	r.Body = http.MaxBytesReader(w, r.Body, maxCredentialBytes)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			return c, fmt.Errorf("decode credentials: %w", err)
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return c, fmt.Errorf("parse credentials form: %w", err)
		}
		c.Username, c.Password = r.PostForm.Get("username"), r.PostForm.Get("password")
	}
	c.Username = strings.TrimSpace(c.Username)
	if c.Username == "" || c.Password == "" {
		return c, errors.New(MsgFieldsRequired)
	}
	return c, nil
}

// Signup creates an account.
func (s *Server) Signup(w http.ResponseWriter, r *http.Request) {
	creds, err := readCredentials(w, r)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, MsgFieldsRequired)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		// bcrypt rejects passwords longer than 72 bytes.
		writeDetail(w, http.StatusBadRequest, "Password is too long")
		return
	}

	err = s.users.Create(r.Context(), User{
		ID:           uuid.NewString(),
		Username:     creds.Username,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	})
	switch {
	case errors.Is(err, ErrUserExists):
		writeDetail(w, http.StatusBadRequest, MsgUserExists)
		return
	case err != nil:
		s.logger.ErrorContext(r.Context(), "signup failed", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Could not create user")
		return
	}

	s.logger.InfoContext(r.Context(), "user created", "username", creds.Username)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": MsgUserCreated})
}

// Login verifies the password and issues an access token.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	creds, err := readCredentials(w, r)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, MsgFieldsRequired)
		return
	}

	user, err := s.users.GetByUsername(r.Context(), creds.Username)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		s.logger.ErrorContext(r.Context(), "load user failed", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Could not sign in")
		return
	}
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)) != nil {
		writeDetail(w, http.StatusUnauthorized, MsgInvalidCredentials)
		return
	}

	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "issue token failed", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Could not sign in")
		return
	}
	if err := s.users.RecordLogin(r.Context(), user.ID, s.now().UTC()); err != nil {
		s.logger.WarnContext(r.Context(), "record login failed", "error", err)
	}

	httpx.WriteJSON(w, http.StatusOK, loginResponse{AccessToken: token, TokenType: "bearer", Username: user.Username})
}

// StyleTransfer blends the uploaded images and returns the PNG.
func (s *Server) StyleTransfer(w http.ResponseWriter, r *http.Request) {
	out, ok := s.blendUpload(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// Stylize blends the uploaded images and returns them as a data URL.
func (s *Server) Stylize(w http.ResponseWriter, r *http.Request) {
	out, ok := s.blendUpload(w, r)
	if !ok {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"image": "data:image/png;base64," + base64.StdEncoding.EncodeToString(out),
	})
}

func (s *Server) blendUpload(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		writeDetail(w, http.StatusBadRequest, "Expected a multipart upload")
		return nil, false
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	content, cerr := formFile(r.MultipartForm, "content_image", "content")
	style, serr := formFile(r.MultipartForm, "style_image", "style")
	if cerr != nil || serr != nil {
		writeDetail(w, http.StatusBadRequest, MsgImagesRequired)
		return nil, false
	}

	start := s.now()
	out, err := Blend(content, style, s.alpha)
	if err != nil {
		s.logger.InfoContext(r.Context(), "style transfer rejected", "error", err)
		status := http.StatusBadRequest
		if errors.Is(err, ErrUnsupportedFormat) {
			status = http.StatusUnsupportedMediaType
		}
		writeDetail(w, status, "Could not process image: "+err.Error())
		return nil, false
	}
	s.logger.InfoContext(r.Context(), "style transfer complete",
		"duration", s.now().Sub(start), "bytes", len(out))
	return out, true
}

// formFile reads the first present field among names.
func formFile(form *multipart.Form, names ...string) ([]byte, error) {
	for _, name := range names {
		headers := form.File[name]
		if len(headers) == 0 {
			continue
		}
		f, err := headers[0].Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
		return data, nil
	}
	return nil, fmt.Errorf("missing file %q", names[0])
}
