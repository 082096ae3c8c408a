package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/GabiMuresan22/slagereij-order-craft-sub000/pkg/models"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func TestFetchOrdersSendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode([]models.Order{{ID: "a"}, {ID: "b"}})
	}))
	defer srv.Close()

	orders, err := NewClient(srv.URL, "secret", quietLogger()).FetchOrders(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(orders) != 2 {
		t.Errorf("Expected 2 orders, got %d", len(orders))
	}

	if _, err := NewClient(srv.URL, "wrong", quietLogger()).FetchOrders(context.Background()); err == nil {
		t.Error("Expected error for rejected token")
	}
}

func TestSubscribeDecodesFrames(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteJSON(map[string]interface{}{"type": "noise", "data": "x"})
		conn.WriteJSON(map[string]interface{}{
			"type": "INSERT",
			"data": models.OrderChange{Type: models.ChangeInsert, OrderID: "n", Order: &models.Order{ID: "n"}},
		})
		time.Sleep(100 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var got []models.OrderChange
	NewClient(srv.URL, "", quietLogger()).Subscribe(ctx, func(c models.OrderChange) {
		got = append(got, c)
	})

	if len(got) != 1 || got[0].OrderID != "n" {
		t.Errorf("Unexpected changes %+v", got)
	}
}

func TestWebsocketURL(t *testing.T) {
	tests := map[string]string{
		"http://localhost:8080/api/admin/ws": "ws://localhost:8080/api/admin/ws",
		"https://shop.example/api/admin/ws":  "wss://shop.example/api/admin/ws",
	}
	for in, want := range tests {
		got, err := websocketURL(in)
		if err != nil || got != want {
			t.Errorf("websocketURL(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := websocketURL("ftp://x"); err == nil {
		t.Error("Expected error for ftp scheme")
	}
}
