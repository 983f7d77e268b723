package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leca/ace-image-gateway/internal/api"
	"github.com/leca/ace-image-gateway/internal/config"
	"github.com/leca/ace-image-gateway/internal/database"
	"github.com/leca/ace-image-gateway/internal/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

const metadataBody = `{"aspects":{"atex.Files":{"data":{"files":{"apa.jpg":{"fileUri":"http://cdn.example/img1"}}}}}}`

func newUpstreamServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ace/content/contentid/onecms:123", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(metadataBody))
	})
	mux.HandleFunc("/ace/file/http/cdn.example/img1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(jpegBytes)
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	ts := newUpstreamServer(t)

	cfg := &config.Config{
		MetadataBaseURL:   ts.URL,
		FileBaseURL:       ts.URL,
		FilesAspect:       "atex.Files",
		RoutePrefix:       "/",
		UnavailableStatus: http.StatusNotFound,
	}
	if mutate != nil {
		mutate(cfg)
	}

	db, err := database.NewSQLiteDB("")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	up := upstream.NewClient(upstream.Config{
		MetadataBaseURL: cfg.MetadataBaseURL,
		FileBaseURL:     cfg.FileBaseURL,
		FilesAspect:     cfg.FilesAspect,
	})
	return New(db, up, cfg)
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestDeliverImage_RootPrefix(t *testing.T) {
	s := newTestServer(t, nil)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/onecms:123/apa.jpg", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, jpegBytes, w.Body.Bytes())
	assert.NotEmpty(t, w.Header().Get(api.HeaderRequestID))
}

func TestDeliverImage_CustomPrefix(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.RoutePrefix = "/images/" })

	w := serve(s, httptest.NewRequest(http.MethodGet, "/images/onecms:123/apa.jpg", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, jpegBytes, w.Body.Bytes())

	w = serve(s, httptest.NewRequest(http.MethodGet, "/onecms:123/apa.jpg", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeliverImage_BarePrefixIsBadRequest(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.RoutePrefix = "/images" })

	for _, target := range []string{"/images", "/images/", "/images/onecms:123"} {
		w := serve(s, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, target)

		var resp api.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), target)
		assert.False(t, resp.Success)
	}
}

func TestDeliverImage_PostNotAllowed(t *testing.T) {
	s := newTestServer(t, nil)

	w := serve(s, httptest.NewRequest(http.MethodPost, "/onecms:123/apa.jpg", strings.NewReader("x")))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestStats_RoutedBeforeImageWildcard(t *testing.T) {
	s := newTestServer(t, nil)
	serve(s, httptest.NewRequest(http.MethodGet, "/onecms:123/apa.jpg", nil))

	w := serve(s, httptest.NewRequest(http.MethodGet, "/stats", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"deliveries"`)
	assert.Contains(t, w.Body.String(), `"ok":1`)
}

func TestStats_RequiresAdminToken(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.AdminToken = "secret" })

	w := serve(s, httptest.NewRequest(http.MethodGet, "/stats/recent", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/stats/recent", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = serve(s, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeliverImage_NotBehindAdminToken(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.AdminToken = "secret" })

	w := serve(s, httptest.NewRequest(http.MethodGet, "/onecms:123/apa.jpg", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/onecms:123/apa.jpg", nil)
	req.Header.Set("Origin", "https://site.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := serve(s, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodGet)
}
