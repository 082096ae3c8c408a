package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	Key       string          `json:"key"`
	NameNL    string          `json:"name_nl"`
	NameRO    string          `json:"name_ro"`
	Price     decimal.Decimal `json:"price"`
	Unit      string          `json:"unit"`
	Available bool            `json:"available"`
}

func (p Product) Name(lang Language) string {
	if lang == LanguageRomanian && p.NameRO != "" {
		return p.NameRO
	}
	return p.NameNL
}

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Profile struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// WhatsAppTemplate holds the outreach message for one order status.
type WhatsAppTemplate struct {
	Status   Status `json:"status"`
	Template string `json:"template"`
}

type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// OrderChange is one realtime notification on the orders table.
type OrderChange struct {
	Type      ChangeType `json:"type"`
	Order     *Order     `json:"order,omitempty"`
	OrderID   string     `json:"order_id"`
	EventTime time.Time  `json:"event_time"`
}
