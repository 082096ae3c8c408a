package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusReady     Status = "ready"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// AllStatuses lists every order status in lifecycle order.
var AllStatuses = []Status{StatusPending, StatusConfirmed, StatusReady, StatusCompleted, StatusCancelled}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusReady, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown order status %q", raw)
	}
	return s, nil
}

type Language string

const (
	LanguageDutch    Language = "nl"
	LanguageRomanian Language = "ro"
)

// ParseLanguage falls back to Dutch for anything it does not recognise.
func ParseLanguage(raw string) Language {
	if Language(raw) == LanguageRomanian {
		return LanguageRomanian
	}
	return LanguageDutch
}

type DeliveryMethod string

const (
	DeliveryPickup   DeliveryMethod = "pickup"
	DeliveryDelivery DeliveryMethod = "delivery"
)

type Order struct {
	ID              string         `json:"id"`
	CustomerName    string         `json:"customer_name"`
	CustomerEmail   string         `json:"customer_email"`
	CustomerPhone   string         `json:"customer_phone"`
	Items           []OrderItem    `json:"items"`
	PickupDate      string         `json:"pickup_date"`
	PickupTime      string         `json:"pickup_time"`
	Notes           string         `json:"notes,omitempty"`
	Status          Status         `json:"status"`
	UserID          *string        `json:"user_id,omitempty"`
	Language        Language       `json:"language"`
	DeliveryMethod  DeliveryMethod `json:"delivery_method"`
	DeliveryAddress string         `json:"delivery_address,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// OrderItem is one wizard row. A row with an empty ProductKey is a custom
// free-text row described by CustomName.
type OrderItem struct {
	ProductKey string           `json:"product_key,omitempty"`
	CustomName string           `json:"custom_name,omitempty"`
	Quantity   string           `json:"quantity"`
	Unit       string           `json:"unit,omitempty"`
	Price      *decimal.Decimal `json:"price,omitempty"`
}

func (i OrderItem) IsCustom() bool {
	return i.ProductKey == ""
}

type OrderResponse struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Order     *Order          `json:"order,omitempty"`
	Total     decimal.Decimal `json:"total"`
	EmailSent bool            `json:"email_sent"`
}
