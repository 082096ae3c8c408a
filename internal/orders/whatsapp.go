package orders

import (
	"errors"
	"net/http"

	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/httpx"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/store"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/whatsapp"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// fallbackTemplate is used when no template is stored for the status.
const fallbackTemplate = "Beste {customerName}, uw bestelling {orderId} is nu: {status}. Afhaling op {pickupDate} om {pickupTime}."

type whatsAppResponse struct {
	URL     string `json:"url"`
	Message string `json:"message"`
	Phone   string `json:"phone"`
}

// WhatsAppLink renders the status template for an order into a click-to-chat
// link for the admin to open.
func (h *Handler) WhatsAppLink(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	order, err := h.store.GetOrder(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		httpx.RespondWithError(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("order_id", id).Error("Failed to load order")
		httpx.RespondWithError(w, http.StatusInternalServerError, "Failed to load order")
		return
	}

	text := fallbackTemplate
	tmpl, err := h.store.GetTemplate(r.Context(), order.Status)
	switch {
	case err == nil:
		text = tmpl.Template
	case !errors.Is(err, store.ErrNotFound):
		h.logger.WithError(err).WithField("status", order.Status).Warn("Failed to load WhatsApp template, using fallback")
	}

	message := whatsapp.Render(text, order, order.Language)
	link, err := whatsapp.Link(order.CustomerPhone, message)
	if err != nil {
		httpx.RespondWithError(w, http.StatusUnprocessableEntity, "Order has no usable phone number")
		return
	}
	phone, _ := whatsapp.NormalizePhone(order.CustomerPhone)

	h.logger.WithFields(logrus.Fields{
		"order_id": order.ID,
		"status":   order.Status,
	}).Info("WhatsApp link generated")

	httpx.RespondWithJSON(w, http.StatusOK, whatsAppResponse{URL: link, Message: message, Phone: phone})
}
