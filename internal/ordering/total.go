package ordering

import (
	"regexp"
	"strings"

	"github.com/GabiMuresan22/slagereij-order-craft-sub000/pkg/models"
	"github.com/shopspring/decimal"
)

// QuotedLine is an order row priced against a product list.
type QuotedLine struct {
	Item      models.OrderItem `json:"item"`
	Name      string           `json:"name"`
	Unit      string           `json:"unit"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
	LineTotal decimal.Decimal  `json:"line_total"`
	Priced    bool             `json:"priced"`
}

type Quote struct {
	Lines []QuotedLine    `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

// MaxQuantity is the largest amount a single row may ask for.
var MaxQuantity = decimal.NewFromInt(1000)

var quantityPattern = regexp.MustCompile(`^[0-9]{1,4}([.,][0-9]{1,3})?$`)

// ParseQuantity accepts plain decimals such as "1.5" and "1,5", up to
// MaxQuantity. Exponents and signs are rejected.
func ParseQuantity(raw string) (decimal.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	if !quantityPattern.MatchString(raw) {
		return decimal.Zero, false
	}
	q, err := decimal.NewFromString(strings.Replace(raw, ",", ".", 1))
	if err != nil || !q.IsPositive() || q.GreaterThan(MaxQuantity) {
		return decimal.Zero, false
	}
	return q, true
}

// QuoteItems prices each row with the price of the matching product in
// products. Client-submitted prices on the items are ignored. Custom rows,
// rows whose product is not in the list and rows with an unparseable
// quantity contribute zero.
func QuoteItems(items []models.OrderItem, products []models.Product, lang models.Language) Quote {
	index := make(map[string]models.Product, len(products))
	for _, p := range products {
		index[p.Key] = p
	}

	quote := Quote{Lines: make([]QuotedLine, 0, len(items)), Total: decimal.Zero}
	for _, item := range items {
		line := QuotedLine{Item: item, Name: item.CustomName, Unit: item.Unit, LineTotal: decimal.Zero}

		if product, ok := index[item.ProductKey]; ok && !item.IsCustom() {
			price := product.Price
			line.Name = product.Name(lang)
			line.Unit = product.Unit
			line.UnitPrice = &price
			if qty, ok := ParseQuantity(item.Quantity); ok {
				line.LineTotal = price.Mul(qty)
				line.Priced = true
			}
		} else if line.Name == "" {
			line.Name = item.ProductKey
		}

		quote.Total = quote.Total.Add(line.LineTotal)
		quote.Lines = append(quote.Lines, line)
	}

	quote.Total = quote.Total.Round(2)
	return quote
}

// EstimateTotal is the wizard's running total. It is a best-effort figure.
func EstimateTotal(items []models.OrderItem, products []models.Product) decimal.Decimal {
	return QuoteItems(items, products, models.LanguageDutch).Total
}
