package web

import (
	"net/http"

	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/config"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/httpx"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/whatsapp"
)

// SiteConfig is the public runtime configuration the storefront reads on
// boot. The analytics id is only used after the visitor consents.
type SiteConfig struct {
	ShopName      string `json:"shop_name"`
	SiteURL       string `json:"site_url"`
	WhatsAppPhone string `json:"whatsapp_phone,omitempty"`
	AnalyticsID   string `json:"analytics_id,omitempty"`
}

func NewSiteConfig(cfg *config.Config) SiteConfig {
	sc := SiteConfig{
		ShopName:    cfg.ShopName,
		SiteURL:     cfg.SiteURL,
		AnalyticsID: cfg.AnalyticsID,
	}
	if phone, err := whatsapp.NormalizePhone(cfg.BusinessWhatsApp); err == nil {
		sc.WhatsAppPhone = phone
	}
	return sc
}

// Handler serves GET /api/site-config.
func (sc SiteConfig) Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", revalidate)
	httpx.RespondWithJSON(w, http.StatusOK, sc)
}
