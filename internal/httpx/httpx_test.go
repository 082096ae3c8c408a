package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

func TestCORSPreflight(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/api/contact", func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler must not run for preflight")
	}).Methods("POST", "OPTIONS")
	router.Use(CORSMiddleware("https://slagerij.be"))

	req := httptest.NewRequest(http.MethodOptions, "/api/contact", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://slagerij.be" {
		t.Errorf("Unexpected origin header %q", got)
	}
}

func TestRespondWithDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondWithDetails(rec, http.StatusBadRequest, "validation failed", map[string]string{"name": "is required"})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Success || body.Error != "validation failed" || body.Details == nil {
		t.Errorf("Unexpected body %+v", body)
	}
}

func TestLoggingMiddlewareKeepsStatus(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	h := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("Expected 418, got %d", rec.Code)
	}
}
