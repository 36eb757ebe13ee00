package httpx

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/net/html"

	"github.com/prakritea/artisan-studio/internal/adapters/memory"
	"github.com/prakritea/artisan-studio/internal/mocks"
	"github.com/prakritea/artisan-studio/internal/service"
)

const (
	staticPathFromTest = "../../frontend/static"
	testCSRFToken      = "test-csrf-token"
	testMaxUpload      = 1 << 20
)

// testApp is the full router over memory stores with mocked backend APIs.
type testApp struct {
	handler  http.Handler
	sessions *service.SessionService
	events   *memory.SessionEvents
	studio   *service.StudioService
	authAPI  *mocks.MockAuthBackend
	styleAPI *mocks.MockStyleTransferBackend
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	if _, err := os.Stat(TemplatePathFromTest); os.IsNotExist(err) {
		t.Skip("Templates not available, skipping")
	}

	ctrl := gomock.NewController(t)
	events := memory.NewSessionEvents()
	sessions := service.NewSessionService(service.SessionServiceOptions{
		Store:  memory.NewSessionStore(0),
		Events: events,
		Logger: discardLogger(),
	})
	authAPI := mocks.NewMockAuthBackend(ctrl)
	styleAPI := mocks.NewMockStyleTransferBackend(ctrl)
	studioSvc := service.NewStudioService(service.StudioServiceOptions{
		Backend: styleAPI,
		Stores: service.StudioStores{
			Flows:  memory.NewFlowStore(0),
			Images: memory.NewImageStore(time.Hour),
		},
		Config: service.StudioConfig{MaxUploadBytes: testMaxUpload, Logger: discardLogger()},
	})

	handler, err := NewRouter(RouterServices{
		Auth:       service.NewAuthService(service.AuthServiceOptions{Backend: authAPI, Sessions: sessions}),
		Sessions:   sessions,
		Studio:     studioSvc,
		Theme:      testThemes(),
		TemplateFS: os.DirFS(TemplatePathFromTest),
		StaticFS:   os.DirFS(staticPathFromTest),
		Logger:     discardLogger(),
	})
	require.NoError(t, err)

	return &testApp{
		handler:  handler,
		sessions: sessions,
		events:   events,
		studio:   studioSvc,
		authAPI:  authAPI,
		styleAPI: styleAPI,
	}
}

func (a *testApp) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

// signIn stores a session for id as if artist1 had logged in.
func (a *testApp) signIn(t *testing.T, id string) {
	t.Helper()
	_, err := a.sessions.Set(context.Background(), id, "tok123", "artist1")
	require.NoError(t, err)
}

// newPageRequest builds a browser GET carrying the session cookie when sessionID is set.
func newPageRequest(target, sessionID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("Accept", "text/html")
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sessionID})
	}
	return req
}

// newFormRequest builds a CSRF-valid urlencoded POST.
func newFormRequest(target string, values url.Values, sessionID string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")
	withCSRF(req)
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sessionID})
	}
	return req
}

// newUploadRequest builds the studio script's multipart upload.
func newUploadRequest(t *testing.T, slot, source, filename string, data []byte, sessionID string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("source", source))
	part, err := mw.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/studio/images/"+slot, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Hx-Request", "true")
	withCSRF(req)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sessionID})
	return req
}

func withCSRF(req *http.Request) {
	req.Header.Set(DefaultCSRFHeaderName, testCSRFToken)
	req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: testCSRFToken})
}

// responseCookie returns the last cookie set under name, or nil.
func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	res := rec.Result()
	defer res.Body.Close()
	var found *http.Cookie
	for _, c := range res.Cookies() {
		if c.Name == name {
			found = c
		}
	}
	return found
}

// pngBytes returns a small valid PNG.
func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func parseHTML(t *testing.T, body string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(body))
	require.NoError(t, err)
	return doc
}

// findByID returns the first element with the given id, or nil.
func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode && attr(n, "id") == id {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

// textContent concatenates the text below n with whitespace collapsed.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
