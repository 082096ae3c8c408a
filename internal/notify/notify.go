// Package notify sends the shop's transactional email: order status updates
// for customers, new-order copies for the business and contact form relays.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/i18n"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/mailer"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/ordering"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ProductSource supplies current catalog prices.
type ProductSource interface {
	ProductsByKeys(ctx context.Context, keys []string) ([]models.Product, error)
}

type StatusItem struct {
	ProductKey string `json:"productKey" validate:"max=64"`
	CustomName string `json:"customName" validate:"max=200"`
	Quantity   string `json:"quantity" validate:"required,max=20"`
	Unit       string `json:"unit" validate:"max=20"`
	// Price is accepted for compatibility and never used.
	Price *decimal.Decimal `json:"price,omitempty"`
}

// StatusPayload is the body of an order status notification.
type StatusPayload struct {
	CustomerName    string                `json:"customerName" validate:"required,min=2,max=100"`
	CustomerEmail   string                `json:"customerEmail" validate:"required,email,max=255"`
	CustomerPhone   string                `json:"customerPhone" validate:"omitempty,phone"`
	OrderID         string                `json:"orderId" validate:"required,max=64"`
	Status          models.Status         `json:"status" validate:"required,oneof=pending confirmed ready completed cancelled"`
	OrderItems      []StatusItem          `json:"orderItems" validate:"required,min=1,max=50,dive"`
	PickupDate      string                `json:"pickupDate" validate:"required,max=10"`
	PickupTime      string                `json:"pickupTime" validate:"required,max=5"`
	Language        models.Language       `json:"language" validate:"omitempty,oneof=nl ro"`
	DeliveryMethod  models.DeliveryMethod `json:"deliveryMethod" validate:"omitempty,oneof=pickup delivery"`
	DeliveryAddress string                `json:"deliveryAddress" validate:"max=300"`
	// NewOrder marks the first notification of a freshly submitted order,
	// the only one that also goes to the business address.
	NewOrder        bool                  `json:"newOrder"`
}

// PayloadFromOrder builds the notification for a stored order.
func PayloadFromOrder(o *models.Order) StatusPayload {
	items := make([]StatusItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, StatusItem{
			ProductKey: it.ProductKey,
			CustomName: it.CustomName,
			Quantity:   it.Quantity,
			Unit:       it.Unit,
		})
	}
	return StatusPayload{
		CustomerName:    o.CustomerName,
		CustomerEmail:   o.CustomerEmail,
		CustomerPhone:   o.CustomerPhone,
		OrderID:         o.ID,
		Status:          o.Status,
		OrderItems:      items,
		PickupDate:      o.PickupDate,
		PickupTime:      o.PickupTime,
		Language:        o.Language,
		DeliveryMethod:  o.DeliveryMethod,
		DeliveryAddress: o.DeliveryAddress,
	}
}

func (p StatusPayload) orderItems() []models.OrderItem {
	items := make([]models.OrderItem, 0, len(p.OrderItems))
	for _, it := range p.OrderItems {
		items = append(items, models.OrderItem{
			ProductKey: it.ProductKey,
			CustomName: it.CustomName,
			Quantity:   it.Quantity,
			Unit:       it.Unit,
		})
	}
	return items
}

// StatusResult reports what was sent. BusinessSent is only set when a
// business copy was due.
type StatusResult struct {
	ID           string          `json:"id"`
	Total        decimal.Decimal `json:"total"`
	BusinessSent *bool           `json:"business_sent,omitempty"`
}

type Notifier struct {
	products      ProductSource
	mailer        mailer.Mailer
	businessEmail string
	shopName      string
	logger        *logrus.Logger
}

func NewNotifier(products ProductSource, m mailer.Mailer, businessEmail, shopName string, logger *logrus.Logger) *Notifier {
	return &Notifier{
		products:      products,
		mailer:        m,
		businessEmail: businessEmail,
		shopName:      shopName,
		logger:        logger,
	}
}

// SendOrderStatus emails the customer about their order. On a new order
// (status pending) it also emails a Dutch copy to the business. The two
// sends are independent: only the customer send decides the returned error.
func (n *Notifier) SendOrderStatus(ctx context.Context, p StatusPayload) (*StatusResult, error) {
	lang := models.ParseLanguage(string(p.Language))
	items := p.orderItems()

	keys := make([]string, 0, len(items))
	for _, it := range items {
		if !it.IsCustom() {
			keys = append(keys, it.ProductKey)
		}
	}
	products, err := n.products.ProductsByKeys(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to load prices: %w", err)
	}

	view := statusView{
		Lang:          lang,
		Payload:       p,
		Quote:         ordering.QuoteItems(items, products, lang),
		StatusMessage: i18n.StatusMessage(lang, p.Status),
		ShortID:       shortID(p.OrderID),
		ShopName:      n.shopName,
	}

	result := &StatusResult{Total: view.Quote.Total}
	logger := n.logger.WithFields(logrus.Fields{"order_id": p.OrderID, "status": p.Status})

	var customerErr error
	html, err := render("customer", view)
	if err != nil {
		customerErr = fmt.Errorf("failed to render email: %w", err)
	} else {
		res, err := n.mailer.Send(ctx, mailer.Message{
			To:      []string{p.CustomerEmail},
			Subject: i18n.T(lang, "email.subject.status", "#"+view.ShortID, i18n.StatusLabel(lang, p.Status)),
			HTML:    html,
			ReplyTo: n.businessEmail,
		})
		if err != nil {
			customerErr = err
		} else {
			result.ID = res.ID
		}
	}

	if p.NewOrder && n.businessEmail != "" {
		sent := n.sendBusinessCopy(ctx, view, products)
		result.BusinessSent = &sent
	}

	if customerErr != nil {
		logger.WithError(customerErr).Error("Customer status email failed")
		return result, customerErr
	}
	logger.Info("Customer status email sent")
	return result, nil
}

func (n *Notifier) sendBusinessCopy(ctx context.Context, view statusView, products []models.Product) bool {
	view.Lang = models.LanguageDutch
	view.Quote = ordering.QuoteItems(view.Payload.orderItems(), products, models.LanguageDutch)

	logger := n.logger.WithField("order_id", view.Payload.OrderID)

	html, err := render("business", view)
	if err != nil {
		logger.WithError(err).Error("Failed to render business email")
		return false
	}
	_, err = n.mailer.Send(ctx, mailer.Message{
		To:      []string{n.businessEmail},
		Subject: i18n.T(models.LanguageDutch, "email.subject.business", view.Payload.CustomerName),
		HTML:    html,
		ReplyTo: view.Payload.CustomerEmail,
	})
	if err != nil {
		logger.WithError(err).Warn("Business copy failed")
		return false
	}
	return true
}

var ErrSpam = errors.New("message rejected")

// SendContact relays a contact form message to the business address.
func (n *Notifier) SendContact(ctx context.Context, c ContactRequest) (*mailer.Result, error) {
	html, err := render("contact", c)
	if err != nil {
		return nil, fmt.Errorf("failed to render email: %w", err)
	}
	return n.mailer.Send(ctx, mailer.Message{
		To:      []string{n.businessEmail},
		Subject: i18n.T(models.LanguageDutch, "email.subject.contact", c.Name),
		HTML:    html,
		ReplyTo: c.Email,
	})
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
