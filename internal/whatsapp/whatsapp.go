// Package whatsapp builds the click-to-chat links the admin dashboard opens
// to message a customer about their order.
package whatsapp

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/i18n"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/pkg/models"
)

const (
	belgianCountryCode = "32"
	linkBase           = "https://wa.me/"
	displayDateLayout  = "02/01/2006"
)

var ErrNoPhone = errors.New("phone number has no digits")

// NormalizePhone rewrites a Belgian number into international digits without
// a plus sign: "0470 12 34 56" and "0032470123456" both become "32470123456".
// Numbers that already start with a country code are left alone.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return "", ErrNoPhone
	}

	switch {
	case strings.HasPrefix(strings.TrimSpace(raw), "+"):
		return digits, nil
	case strings.HasPrefix(digits, "00"):
		return digits[2:], nil
	case strings.HasPrefix(digits, "0"):
		return belgianCountryCode + digits[1:], nil
	default:
		return digits, nil
	}
}

// Render substitutes the order placeholders in a stored template. Values are
// inserted verbatim.
func Render(template string, order *models.Order, lang models.Language) string {
	pickupDate := order.PickupDate
	if d, err := time.Parse("2006-01-02", order.PickupDate); err == nil {
		pickupDate = d.Format(displayDateLayout)
	}

	r := strings.NewReplacer(
		"{customerName}", order.CustomerName,
		"{pickupDate}", pickupDate,
		"{pickupTime}", order.PickupTime,
		"{orderId}", shortID(order.ID),
		"{status}", i18n.StatusLabel(lang, order.Status),
	)
	return r.Replace(template)
}

// Link returns the wa.me deep link for phone with message prefilled.
func Link(phone, message string) (string, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return "", err
	}
	return linkBase + normalized + "?text=" + strings.ReplaceAll(url.QueryEscape(message), "+", "%20"), nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
