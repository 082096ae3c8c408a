// Package i18n holds the shop's Dutch and Romanian strings. Translations are
// compiled in; lookups fall back to Dutch and then to the key itself.
package i18n

import (
	"fmt"

	"github.com/GabiMuresan22/slagereij-order-craft-sub000/pkg/models"
)

const DefaultLang = models.LanguageDutch

func T(lang models.Language, key string, args ...interface{}) string {
	entry, ok := dictionary[key]
	if !ok {
		return key
	}

	tmpl, ok := entry[lang]
	if !ok {
		if tmpl, ok = entry[DefaultLang]; !ok {
			return key
		}
	}

	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

// StatusLabel is exhaustive over models.Status so a new status fails loudly
// in review rather than silently rendering an empty label.
func StatusLabel(lang models.Language, status models.Status) string {
	switch status {
	case models.StatusPending:
		return T(lang, "status.pending")
	case models.StatusConfirmed:
		return T(lang, "status.confirmed")
	case models.StatusReady:
		return T(lang, "status.ready")
	case models.StatusCompleted:
		return T(lang, "status.completed")
	case models.StatusCancelled:
		return T(lang, "status.cancelled")
	default:
		return string(status)
	}
}

// StatusMessage is the sentence used in the customer email body.
func StatusMessage(lang models.Language, status models.Status) string {
	switch status {
	case models.StatusPending:
		return T(lang, "email.status.pending")
	case models.StatusConfirmed:
		return T(lang, "email.status.confirmed")
	case models.StatusReady:
		return T(lang, "email.status.ready")
	case models.StatusCompleted:
		return T(lang, "email.status.completed")
	case models.StatusCancelled:
		return T(lang, "email.status.cancelled")
	default:
		return ""
	}
}

var dictionary = map[string]map[models.Language]string{
	"status.pending": {
		models.LanguageDutch:    "In afwachting",
		models.LanguageRomanian: "În așteptare",
	},
	"status.confirmed": {
		models.LanguageDutch:    "Bevestigd",
		models.LanguageRomanian: "Confirmată",
	},
	"status.ready": {
		models.LanguageDutch:    "Klaar voor afhaling",
		models.LanguageRomanian: "Gata de ridicare",
	},
	"status.completed": {
		models.LanguageDutch:    "Afgerond",
		models.LanguageRomanian: "Finalizată",
	},
	"status.cancelled": {
		models.LanguageDutch:    "Geannuleerd",
		models.LanguageRomanian: "Anulată",
	},
	"email.subject.status": {
		models.LanguageDutch:    "Uw bestelling %s: %s",
		models.LanguageRomanian: "Comanda dumneavoastră %s: %s",
	},
	"email.subject.business": {
		models.LanguageDutch: "Nieuwe bestelling van %s",
	},
	"email.subject.contact": {
		models.LanguageDutch: "Nieuw contactbericht van %s",
	},
	"email.greeting": {
		models.LanguageDutch:    "Beste %s,",
		models.LanguageRomanian: "Dragă %s,",
	},
	"email.status.pending": {
		models.LanguageDutch:    "Bedankt voor uw bestelling. We hebben ze goed ontvangen en bevestigen ze zo snel mogelijk.",
		models.LanguageRomanian: "Vă mulțumim pentru comandă. Am primit-o și o vom confirma cât mai curând.",
	},
	"email.status.confirmed": {
		models.LanguageDutch:    "Uw bestelling is bevestigd.",
		models.LanguageRomanian: "Comanda dumneavoastră a fost confirmată.",
	},
	"email.status.ready": {
		models.LanguageDutch:    "Uw bestelling staat klaar om af te halen.",
		models.LanguageRomanian: "Comanda dumneavoastră este gata de ridicare.",
	},
	"email.status.completed": {
		models.LanguageDutch:    "Uw bestelling is afgerond. Smakelijk!",
		models.LanguageRomanian: "Comanda dumneavoastră a fost finalizată. Poftă bună!",
	},
	"email.status.cancelled": {
		models.LanguageDutch:    "Uw bestelling werd geannuleerd. Neem gerust contact met ons op bij vragen.",
		models.LanguageRomanian: "Comanda dumneavoastră a fost anulată. Vă rugăm să ne contactați pentru întrebări.",
	},
	"email.pickup": {
		models.LanguageDutch:    "Afhaling op %s om %s",
		models.LanguageRomanian: "Ridicare pe %s la ora %s",
	},
	"email.delivery": {
		models.LanguageDutch:    "Levering op %s om %s naar %s",
		models.LanguageRomanian: "Livrare pe %s la ora %s la adresa %s",
	},
	"email.total": {
		models.LanguageDutch:    "Geschat totaal",
		models.LanguageRomanian: "Total estimat",
	},
	"email.product": {
		models.LanguageDutch:    "Product",
		models.LanguageRomanian: "Produs",
	},
	"email.quantity": {
		models.LanguageDutch:    "Hoeveelheid",
		models.LanguageRomanian: "Cantitate",
	},
	"email.price": {
		models.LanguageDutch:    "Prijs",
		models.LanguageRomanian: "Preț",
	},
	"email.custom_price": {
		models.LanguageDutch:    "prijs bij afhaling",
		models.LanguageRomanian: "preț la ridicare",
	},
	"email.signature": {
		models.LanguageDutch:    "Met vriendelijke groeten,",
		models.LanguageRomanian: "Cu stimă,",
	},
}
