package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ResendClient talks to a Resend-compatible HTTP email API.
type ResendClient struct {
	baseURL     string
	apiKey      string
	defaultFrom string
	httpClient  *http.Client
	logger      *logrus.Logger
}

func NewResendClient(baseURL, apiKey, defaultFrom string, logger *logrus.Logger) *ResendClient {
	return &ResendClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		defaultFrom: defaultFrom,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

type resendError struct {
	Message string `json:"message"`
	Name    string `json:"name"`
}

func (c *ResendClient) Send(ctx context.Context, msg Message) (*Result, error) {
	if len(msg.To) == 0 {
		return nil, ErrNoRecipient
	}
	if msg.From == "" {
		msg.From = c.defaultFrom
	}

	jsonData, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to mail provider: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, fmt.Errorf("failed to read mail provider response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var apiErr resendError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("mail provider returned status %d: %s", resp.StatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("mail provider returned error status: %d", resp.StatusCode)
	}

	var result Result
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode mail provider response: %w", err)
	}
	result.Provider = "resend"

	c.logger.WithFields(logrus.Fields{
		"email_id": result.ID,
		"subject":  msg.Subject,
	}).Info("Email accepted by provider")

	return &result, nil
}
