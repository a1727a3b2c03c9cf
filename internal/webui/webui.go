// Package webui serves the browser wizard and dashboard, optionally proxying
// /api to the onboarding API.
package webui

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"kyc-backend/internal/shared/server/middleware"
	"kyc-backend/internal/shared/telemetry"
)

//go:embed static
var embedded embed.FS

const (
	indexFile = "index.html"

	htmlCacheControl  = "no-cache, no-store, must-revalidate"
	assetCacheControl = "public, max-age=31536000"
)

// Options configures the UI server.
type Options struct {
	// StaticDir overrides the embedded assets when set.
	StaticDir string
	// APIBaseURL enables the /api proxy when set.
	APIBaseURL string
}

// NewRouter builds the UI engine.
func NewRouter(opts Options) (*gin.Engine, error) {
	assets, err := assetFS(opts.StaticDir)
	if err != nil {
		return nil, err
	}

	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logging(), middleware.Recovery())

	if opts.APIBaseURL != "" {
		proxy, err := apiProxy(opts.APIBaseURL)
		if err != nil {
			return nil, err
		}
		r.Any("/api/*path", proxy)
	}

	r.NoRoute(staticHandler(assets))
	return r, nil
}

func assetFS(dir string) (fs.FS, error) {
	if dir == "" {
		return fs.Sub(embedded, "static")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("static dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("static dir %s is not a directory", dir)
	}
	return os.DirFS(dir), nil
}

// apiProxy forwards /api/<rest> to <target>/<rest> with the target's Host.
func apiProxy(rawURL string) (gin.HandlerFunc, error) {
	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse API_BASE_URL: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("API_BASE_URL %q must be an absolute URL", rawURL)
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	direct := proxy.Director
	proxy.Director = func(req *http.Request) {
		direct(req)
		req.Host = target.Host
	}
	proxy.ErrorHandler = func(w http.ResponseWriter, req *http.Request, err error) {
		telemetry.Error("webui.proxy_failed", map[string]any{
			"path":  req.URL.Path,
			"error": err.Error(),
		})
		w.WriteHeader(http.StatusBadGateway)
	}

	return func(c *gin.Context) {
		rest := c.Param("path")
		req := c.Request.Clone(c.Request.Context())
		req.URL.Path = rest
		req.URL.RawPath = ""
		proxy.ServeHTTP(c.Writer, req)
	}, nil
}

func staticHandler(assets fs.FS) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.Status(http.StatusNotFound)
			return
		}

		name := strings.TrimPrefix(path.Clean("/"+c.Request.URL.Path), "/")
		if name == "" {
			name = indexFile
		}
		err := serveFile(c, assets, name)
		if err == nil {
			return
		}
		if !errors.Is(err, fs.ErrNotExist) {
			_ = c.Error(err)
			c.Status(http.StatusInternalServerError)
			return
		}

		// Client-side routes fall back to the wizard shell.
		if err := serveFile(c, assets, indexFile); err != nil {
			_ = c.Error(err)
			c.Status(http.StatusNotFound)
		}
	}
}

func serveFile(c *gin.Context, assets fs.FS, name string) error {
	info, err := fs.Stat(assets, name)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fs.ErrNotExist
	}
	data, err := fs.ReadFile(assets, name)
	if err != nil {
		return err
	}

	h := c.Writer.Header()
	if strings.HasSuffix(name, ".html") {
		h.Set("Cache-Control", htmlCacheControl)
		h.Set("Pragma", "no-cache")
		h.Set("Expires", "0")
	} else {
		h.Set("Cache-Control", assetCacheControl)
	}
	http.ServeContent(c.Writer, c.Request, name, info.ModTime(), bytes.NewReader(data))
	return nil
}

