package validation

import (
	"errors"
	"testing"
)

type contact struct {
	Name  string `json:"name" validate:"required,min=6,max=100"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"omitempty,phone"`
	Items []item `json:"items" validate:"dive"`
}

type item struct {
	Quantity string `json:"quantity" validate:"required"`
}

func TestFieldsUsesJSONNames(t *testing.T) {
	err := New().Struct(contact{
		Name:  "Ana",
		Email: "not-an-email",
		Phone: "abc",
		Items: []item{{}},
	})

	fields := Fields(err)
	expected := map[string]string{
		"name":              "must be at least 6 characters",
		"email":             "must be a valid email address",
		"phone":             "must be a valid phone number",
		"items[0].quantity": "is required",
	}
	for field, msg := range expected {
		if fields[field] != msg {
			t.Errorf("Field %s: expected %q, got %q", field, msg, fields[field])
		}
	}
}

func TestPhoneTag(t *testing.T) {
	v := New()
	valid := []string{"0470 12 34 56", "+32 (0)470/12.34.56", "0032470123456"}
	invalid := []string{"1234", "0470-abc-123", "+32 470 12 34 56 78 90 12"}

	for _, p := range valid {
		if err := v.Var(p, "phone"); err != nil {
			t.Errorf("Expected %q to be valid: %v", p, err)
		}
	}
	for _, p := range invalid {
		if err := v.Var(p, "phone"); err == nil {
			t.Errorf("Expected %q to be rejected", p)
		}
	}
}

func TestFieldsWrapsOtherErrors(t *testing.T) {
	fields := Fields(errors.New("boom"))
	if fields["_"] != "boom" {
		t.Errorf("Unexpected fields %v", fields)
	}
	if Fields(nil) != nil {
		t.Error("Expected nil for nil error")
	}
}
