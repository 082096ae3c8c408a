package ordering

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/GabiMuresan22/slagereij-order-craft-sub000/pkg/models"
	"github.com/shopspring/decimal"
)

// Thursday 2026-10-15 10:10 UTC.
func fixedNow() time.Time {
	return time.Date(2026, 10, 15, 10, 10, 0, 0, time.UTC)
}

func validDraft() *Draft {
	return &Draft{
		Items:         []models.OrderItem{{ProductKey: "steak", Quantity: "1"}},
		PickupDate:    "2026-10-17",
		PickupTime:    "09:30",
		CustomerName:  "Ana Popescu",
		CustomerEmail: "ana@example.com",
		CustomerPhone: "0470 12 34 56",
		Language:      models.LanguageRomanian,
	}
}

func newTestWizard() *Wizard {
	return NewWizard(testProducts(), DefaultSchedule(), time.UTC, fixedNow)
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("Expected StepError, got %v", err)
	}
	return stepErr.Fields
}

func TestWizardAdvancesThroughAllSteps(t *testing.T) {
	w := newTestWizard()
	d := validDraft()

	for _, want := range []Step{StepPickup, StepContact, StepConfirm} {
		if err := w.Next(d); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if w.Step() != want {
			t.Fatalf("Expected step %s, got %s", want, w.Step())
		}
	}

	if err := w.Next(d); err != nil || w.Step() != StepConfirm {
		t.Errorf("Expected to stay on confirm, got step %s err %v", w.Step(), err)
	}
}

func TestWizardBlocksInvalidStep(t *testing.T) {
	w := newTestWizard()
	d := validDraft()
	d.Items = nil

	err := w.Next(d)
	if err == nil {
		t.Fatal("Expected validation error")
	}
	if w.Step() != StepProducts {
		t.Errorf("Expected to stay on products, got %s", w.Step())
	}
	if _, ok := fieldsOf(t, err)["items"]; !ok {
		t.Error("Expected items field error")
	}
}

func TestWizardBackIsUnrestricted(t *testing.T) {
	w := newTestWizard()
	d := validDraft()
	_ = w.Next(d)
	_ = w.Next(d)

	d.CustomerEmail = "broken"
	w.Back()
	w.Back()
	w.Back()
	if w.Step() != StepProducts {
		t.Errorf("Expected products, got %s", w.Step())
	}
}

func TestWizardProductRows(t *testing.T) {
	w := newTestWizard()
	d := validDraft()
	d.Items = []models.OrderItem{
		{ProductKey: "ham", Quantity: "1"},
		{ProductKey: "nope", Quantity: "1"},
		{CustomName: "  ", Quantity: "1"},
		{ProductKey: "mici", Quantity: "0"},
		{CustomName: "Varkenskop", Quantity: "1"},
	}

	fields := fieldsOf(t, w.ValidateStep(StepProducts, d))
	for _, key := range []string{"items[0].product_key", "items[1].product_key", "items[2].custom_name", "items[3].quantity"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("Expected error for %s, got %v", key, fields)
		}
	}
	if _, ok := fields["items[4].custom_name"]; ok {
		t.Error("Custom row with text should be valid")
	}
}

func TestWizardRejectsExponentQuantities(t *testing.T) {
	w := newTestWizard()
	d := validDraft()
	d.Items = []models.OrderItem{
		{ProductKey: "mici", Quantity: "1e3"},
		{ProductKey: "mici", Quantity: "1e9"},
		{ProductKey: "mici", Quantity: "1e20000000"},
		{ProductKey: "mici", Quantity: "5000"},
		{ProductKey: "mici", Quantity: "12"},
	}

	fields := fieldsOf(t, w.ValidateStep(StepProducts, d))
	for i := 0; i < 4; i++ {
		key := fmt.Sprintf("items[%d].quantity", i)
		if _, ok := fields[key]; !ok {
			t.Errorf("Expected error for %s, got %v", key, fields)
		}
	}
	if _, ok := fields["items[4].quantity"]; ok {
		t.Error("Plain quantity should be valid")
	}
}

func TestWizardPickupClosedDay(t *testing.T) {
	w := newTestWizard()
	d := validDraft()
	d.PickupDate = "2026-10-19" // Monday

	fields := fieldsOf(t, w.ValidateStep(StepPickup, d))
	if fields["pickup_date"] != ErrNoSlots.Error() {
		t.Errorf("Expected no-slots error, got %v", fields)
	}
}

func TestWizardPickupRules(t *testing.T) {
	w := newTestWizard()

	tests := []struct {
		name  string
		date  string
		time  string
		field string
	}{
		{"past date", "2026-10-14", "09:00", "pickup_date"},
		{"bad date", "17/10/2026", "09:00", "pickup_date"},
		{"closing time", "2026-10-17", "13:00", "pickup_time"},
		{"slot already started today", "2026-10-15", "10:00", "pickup_time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			d.PickupDate = tt.date
			d.PickupTime = tt.time
			fields := fieldsOf(t, w.ValidateStep(StepPickup, d))
			if _, ok := fields[tt.field]; !ok {
				t.Errorf("Expected %s error, got %v", tt.field, fields)
			}
		})
	}

	d := validDraft()
	d.PickupDate = "2026-10-15"
	d.PickupTime = "10:30"
	if err := w.ValidateStep(StepPickup, d); err != nil {
		t.Errorf("Later slot today should be valid: %v", err)
	}
}

func TestWizardContactStep(t *testing.T) {
	w := newTestWizard()
	d := validDraft()
	d.CustomerEmail = "not-an-email"
	d.CustomerPhone = "12"
	d.DeliveryMethod = models.DeliveryDelivery

	fields := fieldsOf(t, w.ValidateStep(StepContact, d))
	for _, key := range []string{"customer_email", "customer_phone", "delivery_address"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("Expected error for %s, got %v", key, fields)
		}
	}
}

func TestDraftOrderIsPending(t *testing.T) {
	order := validDraft().Order()
	if order.Status != models.StatusPending {
		t.Errorf("Expected pending, got %s", order.Status)
	}
	if order.DeliveryMethod != models.DeliveryPickup {
		t.Errorf("Expected pickup default, got %s", order.DeliveryMethod)
	}
	if order.Language != models.LanguageRomanian {
		t.Errorf("Expected ro, got %s", order.Language)
	}
}

func TestDraftOrderDropsClientPrices(t *testing.T) {
	d := validDraft()
	price := decimal.RequireFromString("0.01")
	d.Items[0].Price = &price

	order := d.Order()
	if order.Items[0].Price != nil {
		t.Error("Client price must not be stored")
	}
	if d.Items[0].Price == nil {
		t.Error("Draft items must not be modified")
	}
}
