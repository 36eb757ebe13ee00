package devbackend

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"image/color"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postJSON(t *testing.T, h http.Handler, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestSignupAndLogin(t *testing.T) {
	srv, users := newTestServer(t)
	h := srv.Handler()

	rec := postJSON(t, h, "/api/signup", `{"username":"artist1","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, MsgUserCreated, decodeBody(t, rec)["message"])

	stored, err := users.GetByUsername(context.Background(), "artist1")
	require.NoError(t, err)
	assert.NotEqual(t, "pw", stored.PasswordHash, "passwords are stored hashed")
	assert.Nil(t, stored.LastLoginAt)

	rec = postJSON(t, h, "/api/login", `{"username":"artist1","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "bearer", body["token_type"])
	assert.Equal(t, "artist1", body["username"])

	sub, err := srv.tokens.Subject(body["access_token"])
	require.NoError(t, err)
	assert.Equal(t, "artist1", sub)

	stored, err = users.GetByUsername(context.Background(), "artist1")
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLoginAt)
}

func TestSignup_DuplicateUsername(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	require.Equal(t, http.StatusOK, postJSON(t, h, "/api/signup", `{"username":"artist1","password":"pw"}`).Code)

	rec := postJSON(t, h, "/api/signup", `{"username":"artist1","password":"other"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, MsgUserExists, decodeBody(t, rec)["detail"])
}

func TestLogin_InvalidCredentials(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()
	require.Equal(t, http.StatusOK, postJSON(t, h, "/api/signup", `{"username":"artist1","password":"pw"}`).Code)

	tests := map[string]string{
		"wrong password": `{"username":"artist1","password":"nope"}`,
		"unknown user":   `{"username":"ghost","password":"pw"}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			rec := postJSON(t, h, "/api/login", body)

			require.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, MsgInvalidCredentials, decodeBody(t, rec)["detail"])
		})
	}
}

func TestCredentials_Validation(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	for _, target := range []string{"/api/signup", "/api/login"} {
		t.Run(target, func(t *testing.T) {
			for _, body := range []string{`{"username":"  ","password":"pw"}`, `{"username":"a"}`, `not json`} {
				rec := postJSON(t, h, target, body)
				assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, body)
			}
		})
	}
}

func TestSignup_AcceptsForm(t *testing.T) {
	srv, _ := newTestServer(t)
	form := url.Values{"username": {"artist2"}, "password": {"pw"}}
	req := httptest.NewRequest(http.MethodPost, "/api/signup", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStyleTransfer(t *testing.T) {
	srv, _ := newTestServer(t)
	content := solidPNG(t, 5, 4, color.RGBA{R: 255, A: 255})
	style := solidPNG(t, 2, 2, color.RGBA{B: 255, A: 255})

	t.Run("returns png", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, uploadRequest(t, "/api/style-transfer", map[string][]byte{
			"content_image": content,
			"style_image":   style,
		}))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		img := decodePNG(t, rec.Body.Bytes())
		assert.Equal(t, 5, img.Bounds().Dx())
	})

	t.Run("missing style", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, uploadRequest(t, "/api/style-transfer", map[string][]byte{
			"content_image": content,
		}))

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, MsgImagesRequired, decodeBody(t, rec)["detail"])
	})

	t.Run("not an image", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, uploadRequest(t, "/api/style-transfer", map[string][]byte{
			"content_image": []byte("hello"),
			"style_image":   style,
		}))

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.NotEmpty(t, decodeBody(t, rec)["detail"])
	})

	t.Run("unsupported format", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, uploadRequest(t, "/api/style-transfer", map[string][]byte{
			"content_image": []byte("RIFF\x24\x00\x00\x00WEBPVP8 \x18\x00\x00\x00"),
			"style_image":   style,
		}))

		require.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
		assert.Contains(t, decodeBody(t, rec)["detail"], "PNG, JPEG and GIF")
	})

	t.Run("not multipart", func(t *testing.T) {
		rec := postJSON(t, srv.Handler(), "/api/style-transfer", `{}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestStylize_ReturnsDataURL(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, uploadRequest(t, "/stylize", map[string][]byte{
		"content": solidPNG(t, 3, 3, color.RGBA{G: 255, A: 255}),
		"style":   solidPNG(t, 3, 3, color.RGBA{R: 255, A: 255}),
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	dataURL := decodeBody(t, rec)["image"]
	payload, ok := strings.CutPrefix(dataURL, "data:image/png;base64,")
	require.True(t, ok, dataURL)
	raw, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)
	assert.Equal(t, 3, decodePNG(t, raw).Bounds().Dx())
}

func TestRoot(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Server is running", decodeBody(t, rec)["message"])
}

func TestNewServer_RequiresCollaborators(t *testing.T) {
	_, err := NewServer(Options{})
	require.Error(t, err)
}
