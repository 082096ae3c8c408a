package notify

import (
	"net/http"
	"strings"

	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/httpx"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/validation"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 64 << 10

type ContactRequest struct {
	Name    string `json:"name" validate:"required,min=6,max=100"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Phone   string `json:"phone" validate:"omitempty,phone"`
	Message string `json:"message" validate:"required,min=10,max=2000"`
}

func (c *ContactRequest) trim() {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Message = strings.TrimSpace(c.Message)
}

var spamMarkers = []string{"viagra", "casino", "bitcoin", "crypto investment", "seo services", "backlinks", "payday loan"}

const maxLinks = 3

// looksLikeSpam is a keyword and link count heuristic.
func looksLikeSpam(c ContactRequest) bool {
	text := strings.ToLower(c.Name + " " + c.Message)
	for _, marker := range spamMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return strings.Count(text, "http://")+strings.Count(text, "https://") > maxLinks
}

type Handler struct {
	notifier *Notifier
	validate *validator.Validate
	logger   *logrus.Logger
}

func NewHandler(notifier *Notifier, logger *logrus.Logger) *Handler {
	return &Handler{
		notifier: notifier,
		validate: validation.New(),
		logger:   logger,
	}
}

func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	var req ContactRequest
	if err := httpx.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		httpx.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.trim()

	if err := h.validate.Struct(req); err != nil {
		httpx.RespondWithDetails(w, http.StatusBadRequest, "Validation failed", validation.Fields(err))
		return
	}
	if looksLikeSpam(req) {
		h.logger.WithField("email", req.Email).Warn("Contact message rejected as spam")
		httpx.RespondWithError(w, http.StatusBadRequest, ErrSpam.Error())
		return
	}

	res, err := h.notifier.SendContact(r.Context(), req)
	if err != nil {
		h.logger.WithError(err).Error("Failed to relay contact message")
		httpx.RespondWithError(w, http.StatusInternalServerError, "Failed to send message")
		return
	}

	h.logger.WithField("email_id", res.ID).Info("Contact message relayed")
	httpx.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true, "id": res.ID})
}

func (h *Handler) OrderStatus(w http.ResponseWriter, r *http.Request) {
	var payload StatusPayload
	if err := httpx.DecodeJSON(w, r, maxBodyBytes, &payload); err != nil {
		httpx.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.RespondWithDetails(w, http.StatusBadRequest, "Validation failed", validation.Fields(err))
		return
	}

	res, err := h.notifier.SendOrderStatus(r.Context(), payload)
	if err != nil {
		httpx.RespondWithError(w, http.StatusInternalServerError, "Failed to send email")
		return
	}
	httpx.RespondWithJSON(w, http.StatusOK, res)
}
