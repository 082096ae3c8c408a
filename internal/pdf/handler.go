package pdf

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/breaker"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/httpx"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/validation"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

type Request struct {
	Image1URL string `json:"image1Url" validate:"required,url,max=2048"`
	Image2URL string `json:"image2Url" validate:"required,url,max=2048"`
	Image3URL string `json:"image3Url" validate:"required,url,max=2048"`
}

func (r Request) urls() []string {
	return []string{r.Image1URL, r.Image2URL, r.Image3URL}
}

// ImageFetcher downloads one image.
type ImageFetcher interface {
	CheckURL(raw string) error
	Fetch(ctx context.Context, name, rawURL string) (Image, error)
}

type Handler struct {
	fetcher  ImageFetcher
	validate *validator.Validate
	logger   *logrus.Logger
}

func NewHandler(fetcher ImageFetcher, logger *logrus.Logger) *Handler {
	return &Handler{
		fetcher:  fetcher,
		validate: validation.New(),
		logger:   logger,
	}
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := httpx.DecodeJSON(w, r, 8<<10, &req); err != nil {
		httpx.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondWithDetails(w, http.StatusBadRequest, "Invalid image URLs", validation.Fields(err))
		return
	}

	details := validation.Errors{}
	for i, u := range req.urls() {
		if err := h.fetcher.CheckURL(u); err != nil {
			details[fmt.Sprintf("image%dUrl", i+1)] = err.Error()
		}
	}
	if len(details) > 0 {
		httpx.RespondWithDetails(w, http.StatusBadRequest, "Invalid image URLs", details)
		return
	}

	images, err := h.fetchAll(r.Context(), req.urls())
	if err != nil {
		h.logger.WithError(err).Warn("Image fetch failed")
		code := http.StatusInternalServerError
		if errors.Is(err, ErrUnsupportedImage) || errors.Is(err, ErrImageTooLarge) {
			code = http.StatusBadRequest
		}
		if errors.Is(err, breaker.ErrOpen) {
			code = http.StatusServiceUnavailable
		}
		httpx.RespondWithDetails(w, code, "Failed to fetch images", err.Error())
		return
	}

	doc, pages, err := Assemble(images)
	if err != nil {
		h.logger.WithError(err).Error("PDF assembly failed")
		httpx.RespondWithDetails(w, http.StatusInternalServerError, "Failed to generate PDF", err.Error())
		return
	}

	h.logger.WithFields(logrus.Fields{
		"pages": pages,
		"bytes": len(doc),
	}).Info("PDF generated")

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="document.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(doc)))
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

// fetchAll downloads the images concurrently and returns them in request
// order. The first error wins.
func (h *Handler) fetchAll(ctx context.Context, urls []string) ([]Image, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	images := make([]Image, len(urls))
	errs := make([]error, len(urls))

	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			img, err := h.fetcher.Fetch(ctx, fmt.Sprintf("image%d", i+1), u)
			if err != nil {
				errs[i] = fmt.Errorf("image%dUrl: %w", i+1, err)
				cancel()
				return
			}
			images[i] = img
		}(i, u)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil && !errors.Is(err, context.Canceled) {
			return nil, err
		}
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return images, nil
}
