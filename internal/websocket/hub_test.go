package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/GabiMuresan22/slagereij-order-craft-sub000/pkg/models"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

func startHub(t *testing.T, allowedOrigin string) (*Hub, *httptest.Server) {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(allowedOrigin, "test", logger)
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("Expected %d clients, have %d", n, hub.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBroadcastOrderChangeReachesClient(t *testing.T) {
	hub, srv := startHub(t, "*")

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	waitForClients(t, hub, 1)

	hub.BroadcastOrderChange(models.OrderChange{
		Type:    models.ChangeInsert,
		OrderID: "o-1",
		Order:   &models.Order{ID: "o-1", CustomerName: "Ana", Status: models.StatusPending},
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	var msg struct {
		Type   string             `json:"type"`
		Source string             `json:"source"`
		Data   models.OrderChange `json:"data"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Invalid frame %s: %v", data, err)
	}
	if msg.Type != "INSERT" || msg.Source != "test" || msg.Data.Order.CustomerName != "Ana" {
		t.Errorf("Unexpected message %+v", msg)
	}
}

func TestClientDisconnectUnregisters(t *testing.T) {
	hub, srv := startHub(t, "*")

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestOriginCheck(t *testing.T) {
	_, srv := startHub(t, "https://slagerij.be")
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	header := http.Header{"Origin": []string{"https://evil.example"}}
	if _, resp, err := websocket.DefaultDialer.Dial(wsURL, header); err == nil {
		t.Fatal("Expected foreign origin to be rejected")
	} else if resp != nil && resp.StatusCode != http.StatusForbidden {
		t.Errorf("Expected 403, got %d", resp.StatusCode)
	}

	header = http.Header{"Origin": []string{"https://slagerij.be"}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("Expected shop origin to be accepted: %v", err)
	}
	conn.Close()
}
