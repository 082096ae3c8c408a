package ordering

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/validation"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/pkg/models"
	"github.com/go-playground/validator/v10"
)

type Step int

const (
	StepProducts Step = iota + 1
	StepPickup
	StepContact
	StepConfirm
)

const maxItems = 50

func (s Step) String() string {
	switch s {
	case StepProducts:
		return "products"
	case StepPickup:
		return "pickup"
	case StepContact:
		return "contact"
	case StepConfirm:
		return "confirm"
	default:
		return "unknown"
	}
}

var (
	ErrNoSlots     = errors.New("no pickup slots on the chosen date")
	ErrInvalidStep = errors.New("invalid wizard step")
)

// StepError reports the fields that kept a step from validating.
type StepError struct {
	Step   Step
	Fields validation.Errors
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: %s", e.Step, e.Fields.Error())
}

// Draft is the order being assembled by the wizard.
type Draft struct {
	Items           []models.OrderItem    `json:"items"`
	PickupDate      string                `json:"pickup_date"`
	PickupTime      string                `json:"pickup_time"`
	CustomerName    string                `json:"customer_name"`
	CustomerEmail   string                `json:"customer_email"`
	CustomerPhone   string                `json:"customer_phone"`
	Notes           string                `json:"notes"`
	Language        models.Language       `json:"language"`
	DeliveryMethod  models.DeliveryMethod `json:"delivery_method"`
	DeliveryAddress string                `json:"delivery_address"`
}

type contactFields struct {
	CustomerName    string `json:"customer_name" validate:"required,min=2,max=100"`
	CustomerEmail   string `json:"customer_email" validate:"required,email,max=255"`
	CustomerPhone   string `json:"customer_phone" validate:"required,phone"`
	Notes           string `json:"notes" validate:"max=1000"`
	DeliveryMethod  string `json:"delivery_method" validate:"omitempty,oneof=pickup delivery"`
	DeliveryAddress string `json:"delivery_address" validate:"required_if=DeliveryMethod delivery,max=300"`
}

// Order turns a validated draft into a new pending order row.
func (d Draft) Order() *models.Order {
	method := d.DeliveryMethod
	if method == "" {
		method = models.DeliveryPickup
	}
	// Prices are never stored; they are looked up whenever a total is needed.
	items := make([]models.OrderItem, len(d.Items))
	for i, it := range d.Items {
		it.Price = nil
		items[i] = it
	}
	return &models.Order{
		CustomerName:    strings.TrimSpace(d.CustomerName),
		CustomerEmail:   strings.TrimSpace(d.CustomerEmail),
		CustomerPhone:   strings.TrimSpace(d.CustomerPhone),
		Items:           items,
		PickupDate:      d.PickupDate,
		PickupTime:      d.PickupTime,
		Notes:           strings.TrimSpace(d.Notes),
		Status:          models.StatusPending,
		Language:        models.ParseLanguage(string(d.Language)),
		DeliveryMethod:  method,
		DeliveryAddress: strings.TrimSpace(d.DeliveryAddress),
	}
}

// Wizard validates a Draft one step at a time. Moving forward requires the
// current step to validate; moving back is always allowed.
type Wizard struct {
	step     Step
	products map[string]models.Product
	schedule Schedule
	loc      *time.Location
	now      func() time.Time
	validate *validator.Validate
}

func NewWizard(products []models.Product, schedule Schedule, loc *time.Location, now func() time.Time) *Wizard {
	index := make(map[string]models.Product, len(products))
	for _, p := range products {
		index[p.Key] = p
	}
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Wizard{
		step:     StepProducts,
		products: index,
		schedule: schedule,
		loc:      loc,
		now:      now,
		validate: validation.New(),
	}
}

func (w *Wizard) Step() Step {
	return w.step
}

func (w *Wizard) Next(d *Draft) error {
	if w.step == StepConfirm {
		return nil
	}
	if err := w.ValidateStep(w.step, d); err != nil {
		return err
	}
	w.step++
	return nil
}

func (w *Wizard) Back() {
	if w.step > StepProducts {
		w.step--
	}
}

// ValidateAll runs every data-collecting step, as a submit does.
func (w *Wizard) ValidateAll(d *Draft) error {
	for _, step := range []Step{StepProducts, StepPickup, StepContact} {
		if err := w.ValidateStep(step, d); err != nil {
			return err
		}
	}
	return nil
}

func (w *Wizard) ValidateStep(step Step, d *Draft) error {
	var fields validation.Errors
	switch step {
	case StepProducts:
		fields = w.validateProducts(d)
	case StepPickup:
		fields = w.validatePickup(d)
	case StepContact:
		fields = w.validateContact(d)
	case StepConfirm:
		return nil
	default:
		return ErrInvalidStep
	}

	if len(fields) > 0 {
		return &StepError{Step: step, Fields: fields}
	}
	return nil
}

func (w *Wizard) validateProducts(d *Draft) validation.Errors {
	fields := validation.Errors{}
	if len(d.Items) == 0 {
		fields["items"] = "add at least one product"
		return fields
	}
	if len(d.Items) > maxItems {
		fields["items"] = fmt.Sprintf("at most %d rows", maxItems)
		return fields
	}

	for i, item := range d.Items {
		prefix := fmt.Sprintf("items[%d]", i)
		if item.IsCustom() {
			if strings.TrimSpace(item.CustomName) == "" {
				fields[prefix+".custom_name"] = "is required"
			} else if len(item.CustomName) > 200 {
				fields[prefix+".custom_name"] = "must be at most 200 characters"
			}
		} else {
			product, ok := w.products[item.ProductKey]
			if !ok {
				fields[prefix+".product_key"] = "unknown product"
			} else if !product.Available {
				fields[prefix+".product_key"] = "product is not available"
			}
		}
		if _, ok := ParseQuantity(item.Quantity); !ok {
			fields[prefix+".quantity"] = "must be a number between 0 and 1000"
		}
	}
	return fields
}

func (w *Wizard) validatePickup(d *Draft) validation.Errors {
	fields := validation.Errors{}

	date, err := ParseDate(d.PickupDate, w.loc)
	if err != nil {
		fields["pickup_date"] = "must be a date (YYYY-MM-DD)"
		return fields
	}

	now := w.now().In(w.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, w.loc)
	if date.Before(today) {
		fields["pickup_date"] = "must not be in the past"
		return fields
	}

	slots := w.schedule.Slots(date)
	if len(slots) == 0 {
		fields["pickup_date"] = ErrNoSlots.Error()
		return fields
	}

	if !w.schedule.HasSlot(date, d.PickupTime) {
		fields["pickup_time"] = "choose one of the available slots"
		return fields
	}

	if date.Equal(today) {
		slotStart, _ := time.ParseInLocation(DateLayout+" 15:04", d.PickupDate+" "+d.PickupTime, w.loc)
		if !slotStart.After(now) {
			fields["pickup_time"] = "slot has already started"
		}
	}
	return fields
}

func (w *Wizard) validateContact(d *Draft) validation.Errors {
	err := w.validate.Struct(contactFields{
		CustomerName:    strings.TrimSpace(d.CustomerName),
		CustomerEmail:   strings.TrimSpace(d.CustomerEmail),
		CustomerPhone:   strings.TrimSpace(d.CustomerPhone),
		Notes:           d.Notes,
		DeliveryMethod:  string(d.DeliveryMethod),
		DeliveryAddress: strings.TrimSpace(d.DeliveryAddress),
	})
	if err == nil {
		return nil
	}
	return validation.Fields(err)
}
