package auth

import (
	"bufio"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const breachCheckTimeout = 5 * time.Second

// BreachChecker looks a password up in a k-anonymity range API: only the
// first five hex characters of its SHA-1 leave the process.
type BreachChecker struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewBreachChecker(baseURL string, logger *logrus.Logger) *BreachChecker {
	return &BreachChecker{
		baseURL:    strings.TrimRight(baseURL, "/") + "/",
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// Breached reports whether the password appears in a known breach. Any
// lookup failure, including the timeout, counts as not breached.
func (b *BreachChecker) Breached(ctx context.Context, password string) bool {
	ctx, cancel := context.WithTimeout(ctx, breachCheckTimeout)
	defer cancel()

	found, err := b.lookup(ctx, password)
	if err != nil {
		b.logger.WithError(err).Warn("Password breach check unavailable, allowing password")
		return false
	}
	return found
}

func (b *BreachChecker) lookup(ctx context.Context, password string) (bool, error) {
	sum := sha1.Sum([]byte(password))
	digest := strings.ToUpper(hex.EncodeToString(sum[:]))
	prefix, suffix := digest[:5], digest[5:]

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+prefix, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Add-Padding", "true")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("breach API returned status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		hash, count, ok := strings.Cut(strings.TrimSpace(scanner.Text()), ":")
		if ok && strings.EqualFold(hash, suffix) && count != "0" {
			return true, nil
		}
	}
	return false, scanner.Err()
}
