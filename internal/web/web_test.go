package web

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/config"
)

func writeSite(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"index.html":         "<html>app</html>",
		"sw.js":              "self.addEventListener('message', () => {})",
		"assets/app-1a2b.js": "console.log('app')",
		"assets/logo.png":    "png",
	}
	for name, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestSPAFallsBackToIndex(t *testing.T) {
	h := SPA(writeSite(t))

	for _, target := range []string{"/", "/order", "/admin/orders"} {
		rec := get(h, target)
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "app") {
			t.Errorf("%s: expected index, got %d %q", target, rec.Code, rec.Body)
		}
		if rec.Header().Get("Cache-Control") != "no-cache" {
			t.Errorf("%s: index must be revalidated", target)
		}
	}
}

func TestSPAMissingAssetIs404(t *testing.T) {
	rec := get(SPA(writeSite(t)), "/assets/missing.js")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}

func TestSPACacheHeaders(t *testing.T) {
	h := SPA(writeSite(t))

	tests := map[string]string{
		"/sw.js":              "no-cache",
		"/assets/app-1a2b.js": "no-cache",
		"/assets/logo.png":    "public, max-age=31536000, immutable",
	}
	for target, want := range tests {
		rec := get(h, target)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", target, rec.Code)
		}
		if got := rec.Header().Get("Cache-Control"); got != want {
			t.Errorf("%s: Cache-Control = %q, want %q", target, got, want)
		}
	}
}

func TestSPARejectsWrites(t *testing.T) {
	rec := httptest.NewRecorder()
	SPA(writeSite(t)).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}

func TestSiteConfig(t *testing.T) {
	sc := NewSiteConfig(&config.Config{
		ShopName:         "Slagerij",
		SiteURL:          "https://slagerij.be",
		BusinessWhatsApp: "0470 12 34 56",
	})
	if sc.WhatsAppPhone != "32470123456" {
		t.Errorf("Expected normalized phone, got %q", sc.WhatsAppPhone)
	}

	rec := httptest.NewRecorder()
	sc.Handler(rec, httptest.NewRequest(http.MethodGet, "/api/site-config", nil))
	body := rec.Body.String()
	if !strings.Contains(body, `"whatsapp_phone":"32470123456"`) || strings.Contains(body, "analytics_id") {
		t.Errorf("Unexpected body %s", body)
	}

	if NewSiteConfig(&config.Config{}).WhatsAppPhone != "" {
		t.Error("Expected no phone when none is configured")
	}
}
