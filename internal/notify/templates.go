package notify

import (
	"bytes"
	"html/template"

	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/i18n"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/ordering"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/pkg/models"
	"github.com/shopspring/decimal"
)

var templates = template.Must(template.New("email").Funcs(template.FuncMap{
	"t":     i18n.T,
	"money": formatMoney,
}).Parse(`
{{define "items"}}
<table style="border-collapse:collapse;width:100%">
  <tr>
    <th align="left">{{t .Lang "email.product"}}</th>
    <th align="right">{{t .Lang "email.quantity"}}</th>
    <th align="right">{{t .Lang "email.price"}}</th>
  </tr>
  {{range .Quote.Lines}}
  <tr>
    <td>{{.Name}}</td>
    <td align="right">{{.Item.Quantity}} {{.Unit}}</td>
    <td align="right">{{if .Priced}}{{money .LineTotal}}{{else}}<em>{{t $.Lang "email.custom_price"}}</em>{{end}}</td>
  </tr>
  {{end}}
  <tr>
    <td colspan="2"><strong>{{t .Lang "email.total"}}</strong></td>
    <td align="right"><strong>{{money .Quote.Total}}</strong></td>
  </tr>
</table>
{{end}}

{{define "when"}}
{{if eq .Payload.DeliveryMethod "delivery"}}{{t .Lang "email.delivery" .Payload.PickupDate .Payload.PickupTime .Payload.DeliveryAddress}}{{else}}{{t .Lang "email.pickup" .Payload.PickupDate .Payload.PickupTime}}{{end}}
{{end}}

{{define "customer"}}
<div style="font-family:Arial,sans-serif;max-width:600px">
  <p>{{t .Lang "email.greeting" .Payload.CustomerName}}</p>
  <p>{{.StatusMessage}}</p>
  <p><strong>{{template "when" .}}</strong></p>
  {{template "items" .}}
  <p>{{t .Lang "email.signature"}}<br>{{.ShopName}}</p>
</div>
{{end}}

{{define "business"}}
<div style="font-family:Arial,sans-serif;max-width:600px">
  <h2>Nieuwe bestelling #{{.ShortID}}</h2>
  <p>
    <strong>{{.Payload.CustomerName}}</strong><br>
    {{.Payload.CustomerEmail}}<br>
    {{if .Payload.CustomerPhone}}{{.Payload.CustomerPhone}}<br>{{end}}
  </p>
  <p><strong>{{template "when" .}}</strong></p>
  {{template "items" .}}
</div>
{{end}}

{{define "contact"}}
<div style="font-family:Arial,sans-serif;max-width:600px">
  <h2>Nieuw contactbericht</h2>
  <p>
    <strong>{{.Name}}</strong><br>
    {{.Email}}<br>
    {{if .Phone}}{{.Phone}}<br>{{end}}
  </p>
  <p style="white-space:pre-wrap">{{.Message}}</p>
</div>
{{end}}
`))

type statusView struct {
	Lang          models.Language
	Payload       StatusPayload
	Quote         ordering.Quote
	StatusMessage string
	ShortID       string
	ShopName      string
}

func render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func formatMoney(d decimal.Decimal) string {
	return "€ " + d.StringFixed(2)
}
