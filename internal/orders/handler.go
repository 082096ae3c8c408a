// Package orders exposes the order wizard to the storefront and the order
// list to the admin dashboard.
package orders

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/auth"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/events"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/httpx"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/notify"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/ordering"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/store"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/pkg/models"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 64 << 10

// Store is the persistence the handlers need.
type Store interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	ListOrders(ctx context.Context) ([]*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status models.Status) (*models.Order, error)
	DeleteOrder(ctx context.Context, id string) error
	GetTemplate(ctx context.Context, status models.Status) (*models.WhatsAppTemplate, error)
}

// StatusNotifier emails the customer about their order.
type StatusNotifier interface {
	SendOrderStatus(ctx context.Context, p notify.StatusPayload) (*notify.StatusResult, error)
}

type Handler struct {
	store     Store
	publisher events.Publisher
	notifier  StatusNotifier
	schedule  ordering.Schedule
	loc       *time.Location
	now       func() time.Time
	logger    *logrus.Logger
}

func NewHandler(st Store, publisher events.Publisher, notifier StatusNotifier, schedule ordering.Schedule, loc *time.Location, logger *logrus.Logger) *Handler {
	return &Handler{
		store:     st,
		publisher: publisher,
		notifier:  notifier,
		schedule:  schedule,
		loc:       loc,
		now:       time.Now,
		logger:    logger,
	}
}

func (h *Handler) wizard(ctx context.Context) (*ordering.Wizard, []models.Product, error) {
	products, err := h.store.ListProducts(ctx)
	if err != nil {
		return nil, nil, err
	}
	return ordering.NewWizard(products, h.schedule, h.loc, h.now), products, nil
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.ListProducts(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list products")
		httpx.RespondWithError(w, http.StatusInternalServerError, "Failed to load products")
		return
	}
	httpx.RespondWithJSON(w, http.StatusOK, products)
}

type slotsResponse struct {
	Date  string   `json:"date"`
	Slots []string `json:"slots"`
}

func (h *Handler) Slots(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	date, err := ordering.ParseDate(raw, h.loc)
	if err != nil {
		httpx.RespondWithError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	httpx.RespondWithJSON(w, http.StatusOK, slotsResponse{Date: raw, Slots: h.schedule.Slots(date)})
}

type estimateRequest struct {
	Items    []models.OrderItem `json:"items"`
	Language models.Language    `json:"language"`
}

// Estimate prices the wizard's rows for the running total.
func (h *Handler) Estimate(w http.ResponseWriter, r *http.Request) {
	var req estimateRequest
	if err := httpx.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		httpx.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	products, err := h.store.ListProducts(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list products")
		httpx.RespondWithError(w, http.StatusInternalServerError, "Failed to load products")
		return
	}
	httpx.RespondWithJSON(w, http.StatusOK, ordering.QuoteItems(req.Items, products, models.ParseLanguage(string(req.Language))))
}

type validateResponse struct {
	Valid    bool          `json:"valid"`
	Step     ordering.Step `json:"step"`
	NextStep ordering.Step `json:"next_step"`
}

// ValidateStep checks one wizard step so the storefront can advance.
func (h *Handler) ValidateStep(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.URL.Query().Get("step"))
	step := ordering.Step(n)
	if err != nil || step < ordering.StepProducts || step > ordering.StepConfirm {
		httpx.RespondWithError(w, http.StatusBadRequest, ordering.ErrInvalidStep.Error())
		return
	}

	var draft ordering.Draft
	if err := httpx.DecodeJSON(w, r, maxBodyBytes, &draft); err != nil {
		httpx.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	wiz, _, err := h.wizard(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list products")
		httpx.RespondWithError(w, http.StatusInternalServerError, "Failed to load products")
		return
	}

	if err := wiz.ValidateStep(step, &draft); err != nil {
		h.respondWithStepError(w, err)
		return
	}

	next := step + 1
	if next > ordering.StepConfirm {
		next = ordering.StepConfirm
	}
	httpx.RespondWithJSON(w, http.StatusOK, validateResponse{Valid: true, Step: step, NextStep: next})
}

func (h *Handler) respondWithStepError(w http.ResponseWriter, err error) {
	var stepErr *ordering.StepError
	if errors.As(err, &stepErr) {
		httpx.RespondWithJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "Validation failed",
			"step":    stepErr.Step,
			"details": stepErr.Fields,
		})
		return
	}
	httpx.RespondWithError(w, http.StatusBadRequest, err.Error())
}

// CreateOrder submits the wizard. The order row is written first; the
// change event and the confirmation email follow on a best-effort basis and
// never undo the write.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var draft ordering.Draft
	if err := httpx.DecodeJSON(w, r, maxBodyBytes, &draft); err != nil {
		h.logger.WithError(err).Warn("Failed to decode order request")
		httpx.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	wiz, products, err := h.wizard(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list products")
		httpx.RespondWithError(w, http.StatusInternalServerError, "Failed to load products")
		return
	}
	if err := wiz.ValidateAll(&draft); err != nil {
		h.respondWithStepError(w, err)
		return
	}

	order := draft.Order()
	if claims, ok := auth.UserFromContext(r.Context()); ok {
		uid := claims.UserID()
		order.UserID = &uid
	}

	if err := h.store.CreateOrder(r.Context(), order); err != nil {
		h.logger.WithError(err).Error("Failed to create order")
		httpx.RespondWithError(w, http.StatusInternalServerError, "Failed to place order")
		return
	}

	total := ordering.QuoteItems(order.Items, products, order.Language).Total
	h.logger.WithFields(logrus.Fields{
		"order_id":    order.ID,
		"items_count": len(order.Items),
		"pickup":      order.PickupDate + " " + order.PickupTime,
		"total":       total.StringFixed(2),
	}).Info("Order placed")

	h.publish(r.Context(), models.ChangeInsert, order)
	emailSent := h.sendStatusEmail(r.Context(), order, true)

	message := "Order placed"
	if !emailSent {
		message = "Order placed, but the confirmation email could not be sent"
	}
	httpx.RespondWithJSON(w, http.StatusCreated, models.OrderResponse{
		Success:   true,
		Message:   message,
		Order:     order,
		Total:     total,
		EmailSent: emailSent,
	})
}

func (h *Handler) publish(ctx context.Context, kind models.ChangeType, order *models.Order) {
	change := models.OrderChange{Type: kind, Order: order, OrderID: order.ID, EventTime: time.Now().UTC()}
	if kind == models.ChangeDelete {
		change.Order = nil
	}
	if err := h.publisher.PublishOrderChange(ctx, change); err != nil {
		h.logger.WithError(err).WithField("order_id", order.ID).Warn("Failed to publish order change")
	}
}

// sendStatusEmail mails the customer. newOrder also sends the business copy.
func (h *Handler) sendStatusEmail(ctx context.Context, order *models.Order, newOrder bool) bool {
	if h.notifier == nil {
		return false
	}
	payload := notify.PayloadFromOrder(order)
	payload.NewOrder = newOrder
	if _, err := h.notifier.SendOrderStatus(ctx, payload); err != nil {
		h.logger.WithError(err).WithField("order_id", order.ID).Warn("Order status email failed")
		return false
	}
	return true
}

// MyOrders lists the signed-in customer's own orders.
func (h *Handler) MyOrders(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.UserFromContext(r.Context())
	orders, err := h.store.ListOrdersByUser(r.Context(), claims.UserID())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list customer orders")
		httpx.RespondWithError(w, http.StatusInternalServerError, "Failed to load orders")
		return
	}
	httpx.RespondWithJSON(w, http.StatusOK, orders)
}

// ListOrders is the admin dashboard's full reload.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.store.ListOrders(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list orders")
		httpx.RespondWithError(w, http.StatusInternalServerError, "Failed to load orders")
		return
	}
	httpx.RespondWithJSON(w, http.StatusOK, orders)
}

type statusRequest struct {
	Status string `json:"status"`
}

type statusResponse struct {
	Success   bool          `json:"success"`
	Order     *models.Order `json:"order"`
	EmailSent bool          `json:"email_sent"`
}

// UpdateStatus writes the new status, then notifies. A failed email is
// logged and leaves the status in place.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req statusRequest
	if err := httpx.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		httpx.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	status, err := models.ParseStatus(req.Status)
	if err != nil {
		httpx.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.store.UpdateOrderStatus(r.Context(), id, status)
	if errors.Is(err, store.ErrNotFound) {
		httpx.RespondWithError(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("order_id", id).Error("Failed to update order status")
		httpx.RespondWithError(w, http.StatusInternalServerError, "Failed to update order")
		return
	}

	h.logger.WithFields(logrus.Fields{
		"order_id": order.ID,
		"status":   order.Status,
	}).Info("Order status updated")

	h.publish(r.Context(), models.ChangeUpdate, order)
	emailSent := h.sendStatusEmail(r.Context(), order, false)

	httpx.RespondWithJSON(w, http.StatusOK, statusResponse{Success: true, Order: order, EmailSent: emailSent})
}

func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	err := h.store.DeleteOrder(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		httpx.RespondWithError(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("order_id", id).Error("Failed to delete order")
		httpx.RespondWithError(w, http.StatusInternalServerError, "Failed to delete order")
		return
	}

	h.logger.WithField("order_id", id).Info("Order deleted")
	h.publish(r.Context(), models.ChangeDelete, &models.Order{ID: id})
	w.WriteHeader(http.StatusNoContent)
}
