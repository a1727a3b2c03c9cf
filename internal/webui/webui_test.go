package webui

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, opts Options) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r, err := NewRouter(opts)
	require.NoError(t, err)
	return r
}

func get(r http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestServesEmbeddedAssets(t *testing.T) {
	r := newTestRouter(t, Options{})

	w := get(r, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, htmlCacheControl, w.Header().Get("Cache-Control"))
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "KYC Platform")

	w = get(r, "/app.js")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, assetCacheControl, w.Header().Get("Cache-Control"))
	assert.Contains(t, w.Body.String(), "POLL_INTERVAL_MS = 3000")
}

func TestClientRoutesFallBackToIndex(t *testing.T) {
	r := newTestRouter(t, Options{})

	for _, path := range []string{"/dashboard", "/onboarding", "/missing.js", "/api/health"} {
		w := get(r, path)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, htmlCacheControl, w.Header().Get("Cache-Control"), path)
		assert.Contains(t, w.Body.String(), `<script src="/app.js">`, path)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/dashboard", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStaticDirOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<p>custom build</p>"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assets", "main.css"), []byte("body{}"), 0o600))

	r := newTestRouter(t, Options{StaticDir: dir})

	w := get(r, "/")
	assert.Equal(t, "<p>custom build</p>", w.Body.String())

	w = get(r, "/assets/main.css")
	assert.Equal(t, "body{}", w.Body.String())
	assert.Equal(t, assetCacheControl, w.Header().Get("Cache-Control"))

	w = get(r, "/assets")
	assert.Equal(t, "<p>custom build</p>", w.Body.String())
}

func TestNewRouterRejectsBadOptions(t *testing.T) {
	gin.SetMode(gin.TestMode)

	_, err := NewRouter(Options{StaticDir: filepath.Join(t.TempDir(), "absent")})
	assert.Error(t, err)

	_, err = NewRouter(Options{APIBaseURL: "api.internal:8080"})
	assert.Error(t, err)
}

// fetch drives r through a real server so the proxy gets a connection-backed writer.
func fetch(t *testing.T, r http.Handler, path string) (int, string) {
	t.Helper()
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestProxiesAPIRequests(t *testing.T) {
	var gotPath, gotQuery, gotHost string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotHost = r.Host
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer backend.Close()

	r := newTestRouter(t, Options{APIBaseURL: backend.URL + "/api"})

	status, body := fetch(t, r, "/api/onboardings?status=verified&limit=5")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"success":true}`, body)
	assert.Equal(t, "/api/onboardings", gotPath)
	assert.Equal(t, "status=verified&limit=5", gotQuery)

	u, err := url.Parse(backend.URL)
	require.NoError(t, err)
	assert.Equal(t, u.Host, gotHost)

	status, body = fetch(t, r, "/dashboard")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "KYC Platform")
}

func TestProxyUnavailableBackend(t *testing.T) {
	backend := httptest.NewServer(http.NotFoundHandler())
	target := backend.URL
	backend.Close()

	r := newTestRouter(t, Options{APIBaseURL: target})
	status, _ := fetch(t, r, "/api/health")
	assert.Equal(t, http.StatusBadGateway, status)
}
