package pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/breaker"
	"github.com/sirupsen/logrus"
)

const (
	fetchTimeout    = 10 * time.Second
	maxImageBytes   = 10 << 20
	maxHostBreakers = 256
)

var (
	ErrUnsupportedImage = errors.New("image must be PNG or JPEG")
	ErrImageTooLarge    = errors.New("image exceeds 10 MiB")
	ErrHostNotAllowed   = errors.New("image host is not allowed")
)

// StatusError is a non-200 answer from an image host.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("image host returned status %d", e.Code)
}

// Fetcher downloads images for the assembler. Each image host gets its own
// breaker, so one failing host does not block fetches from the others.
type Fetcher struct {
	httpClient    *http.Client
	breakers      *breaker.Manager
	breakerConfig breaker.Config
	allowedHosts  map[string]bool
	logger        *logrus.Logger

	mu    sync.Mutex
	hosts map[string]*breaker.Breaker
}

// NewFetcher allows every host when allowedHosts is empty. Breakers are
// registered in breakers as "images:<host[:port]>" with config.
func NewFetcher(breakers *breaker.Manager, config breaker.Config, allowedHosts []string, logger *logrus.Logger) *Fetcher {
	hosts := make(map[string]bool, len(allowedHosts))
	for _, h := range allowedHosts {
		hosts[strings.ToLower(strings.TrimSpace(h))] = true
	}
	return &Fetcher{
		httpClient:    &http.Client{Timeout: fetchTimeout},
		breakers:      breakers,
		breakerConfig: config,
		allowedHosts:  hosts,
		logger:        logger,
		hosts:         make(map[string]*breaker.Breaker),
	}
}

// breakerFor returns the host's breaker. Past maxHostBreakers distinct hosts
// the remaining ones share "images:other".
func (f *Fetcher) breakerFor(host string) *breaker.Breaker {
	f.mu.Lock()
	defer f.mu.Unlock()

	if cb, ok := f.hosts[host]; ok {
		return cb
	}
	if len(f.hosts) >= maxHostBreakers {
		return f.breakers.GetOrCreate("images:other", f.breakerConfig)
	}
	cb := f.breakers.GetOrCreate("images:"+host, f.breakerConfig)
	f.hosts[host] = cb
	return cb
}

// CheckURL accepts absolute http(s) URLs on an allowed host.
func (f *Fetcher) CheckURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return errors.New("must be an absolute URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("must use http or https")
	}
	if len(f.allowedHosts) > 0 && !f.allowedHosts[strings.ToLower(u.Hostname())] {
		return ErrHostNotAllowed
	}
	return nil
}

func (f *Fetcher) Fetch(ctx context.Context, name, rawURL string) (Image, error) {
	if err := f.CheckURL(rawURL); err != nil {
		return Image{}, err
	}

	u, _ := url.Parse(rawURL)
	cb := f.breakerFor(strings.ToLower(u.Host))

	// Only network errors and 5xx answers count against the host's breaker.
	var img Image
	var contentErr error
	err := cb.Execute(ctx, func(ctx context.Context) error {
		var err error
		img, err = f.download(ctx, name, rawURL)
		if callerError(err) {
			contentErr = err
			return nil
		}
		return err
	})
	if err != nil {
		return Image{}, err
	}
	return img, contentErr
}

func callerError(err error) bool {
	if errors.Is(err, ErrUnsupportedImage) || errors.Is(err, ErrImageTooLarge) {
		return true
	}
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Code < http.StatusInternalServerError
}

func (f *Fetcher) download(ctx context.Context, name, rawURL string) (Image, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Image{}, err
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Image{}, &StatusError{Code: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return Image{}, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > maxImageBytes {
		return Image{}, ErrImageTooLarge
	}

	var kind string
	switch http.DetectContentType(data) {
	case "image/jpeg":
		kind = "JPG"
	case "image/png":
		kind = "PNG"
	default:
		return Image{}, ErrUnsupportedImage
	}

	f.logger.WithFields(logrus.Fields{
		"image": name,
		"type":  kind,
		"bytes": len(data),
	}).Debug("Image fetched")

	return Image{Name: name, Type: kind, Data: data}, nil
}
