package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/events"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/pkg/models"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Client talks to the shop API as an admin: full reloads over HTTP and the
// change stream over a websocket.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	dialer     *websocket.Dialer
	logger     *logrus.Logger
}

func NewClient(baseURL, token string, logger *logrus.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

func (c *Client) authHeader() http.Header {
	h := http.Header{}
	if c.token != "" {
		h.Set("Authorization", "Bearer "+c.token)
	}
	return h
}

// FetchOrders loads every order, newest first.
func (c *Client) FetchOrders(ctx context.Context) ([]models.Order, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/admin/orders", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header = c.authHeader()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("shop API returned error status: %d", resp.StatusCode)
	}

	var orders []models.Order
	if err := json.NewDecoder(resp.Body).Decode(&orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}

	c.logger.WithField("count", len(orders)).Debug("Fetched orders")
	return orders, nil
}

// Subscribe opens the change stream and calls fn for each change until ctx
// is cancelled or the connection drops.
func (c *Client) Subscribe(ctx context.Context, fn func(models.OrderChange)) error {
	wsURL, err := websocketURL(c.baseURL + "/api/admin/ws")
	if err != nil {
		return err
	}

	conn, _, err := c.dialer.DialContext(ctx, wsURL, c.authHeader())
	if err != nil {
		return fmt.Errorf("failed to open live feed: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			conn.Close()
		case <-done:
		}
	}()

	for {
		var frame struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := conn.ReadJSON(&frame); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("live feed closed: %w", err)
		}

		change, err := events.DecodeOrderChange(frame.Data)
		if err != nil {
			c.logger.WithError(err).WithField("type", frame.Type).Warn("Ignoring unknown feed frame")
			continue
		}
		fn(change)
	}
}

func websocketURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return u.String(), nil
}
