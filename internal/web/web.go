// Package web serves the built single-page app.
package web

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const (
	revalidate = "no-cache"
	longLived  = "public, max-age=31536000, immutable"
)

// SPA serves files from dir and falls back to index.html for unknown paths
// so client-side routes load the app. HTML, scripts, styles and the service
// worker are always revalidated; other assets are cached for a year.
func SPA(dir string) http.Handler {
	root := http.Dir(dir)
	files := http.FileServer(root)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		clean := path.Clean("/" + r.URL.Path)
		if clean != "/" && !exists(dir, clean) {
			if path.Ext(clean) != "" {
				http.NotFound(w, r)
				return
			}
			clean = "/"
		}

		if clean == "/" {
			w.Header().Set("Cache-Control", revalidate)
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}

		w.Header().Set("Cache-Control", CacheControl(clean))
		files.ServeHTTP(w, r)
	})
}

// CacheControl picks the cache policy for a request path.
func CacheControl(p string) string {
	if path.Base(p) == "sw.js" {
		return revalidate
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".html", ".js", ".mjs", ".css", ".webmanifest", ".json":
		return revalidate
	default:
		return longLived
	}
}

func exists(dir, p string) bool {
	info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(p)))
	return err == nil && !info.IsDir()
}
