package main

import (
	"net/http"

	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/auth"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/breaker"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/config"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/httpx"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/notify"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/orders"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/pdf"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/ratelimit"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/sitemap"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/store"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/web"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/websocket"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/pkg/models"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type app struct {
	cfg      *config.Config
	store    *store.Store
	breakers *breaker.Manager
	hub      *websocket.Hub
	limiter  ratelimit.Limiter
	tokens   *auth.Tokens

	orders *orders.Handler
	auth   *auth.Handler
	notify *notify.Handler
	pdf    *pdf.Handler
	site   web.SiteConfig

	logger *logrus.Logger
}

func (a *app) routes() *mux.Router {
	router := mux.NewRouter()
	router.Use(httpx.CORSMiddleware(a.cfg.AllowedOrigin))
	router.Use(httpx.LoggingMiddleware(a.logger))

	limited := func(scope string, h http.Handler) http.Handler {
		return ratelimit.Middleware(a.limiter, scope, a.logger)(h)
	}

	router.HandleFunc("/health", a.health).Methods("GET", "OPTIONS")
	router.HandleFunc("/sitemap.xml", sitemap.Handler(a.cfg.SiteURL, a.logger)).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/site-config", a.site.Handler).Methods("GET", "OPTIONS")
	api.HandleFunc("/products", a.orders.ListProducts).Methods("GET", "OPTIONS")
	api.HandleFunc("/slots", a.orders.Slots).Methods("GET", "OPTIONS")
	api.HandleFunc("/orders/estimate", a.orders.Estimate).Methods("POST", "OPTIONS")
	api.HandleFunc("/orders/validate", a.orders.ValidateStep).Methods("POST", "OPTIONS")
	api.Handle("/orders", limited("orders", a.tokens.OptionalAuthenticate(http.HandlerFunc(a.orders.CreateOrder)))).Methods("POST", "OPTIONS")

	api.Handle("/auth/register", limited("register", http.HandlerFunc(a.auth.Register))).Methods("POST", "OPTIONS")
	api.Handle("/auth/login", limited("login", http.HandlerFunc(a.auth.Login))).Methods("POST", "OPTIONS")

	api.Handle("/contact", limited("contact", http.HandlerFunc(a.notify.Contact))).Methods("POST", "OPTIONS")
	api.Handle("/notify/order-status", limited("order-status", http.HandlerFunc(a.notify.OrderStatus))).Methods("POST", "OPTIONS")
	api.Handle("/pdf", limited("pdf", http.HandlerFunc(a.pdf.Generate))).Methods("POST", "OPTIONS")

	account := api.PathPrefix("/account").Subrouter()
	account.Use(a.tokens.Authenticate)
	account.HandleFunc("/profile", a.auth.GetProfile).Methods("GET", "OPTIONS")
	account.HandleFunc("/profile", a.auth.UpdateProfile).Methods("PUT", "OPTIONS")
	account.HandleFunc("/orders", a.orders.MyOrders).Methods("GET", "OPTIONS")

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(a.tokens.Authenticate)
	admin.Use(auth.RequireRole(a.store, models.RoleAdmin, a.logger))
	admin.HandleFunc("/orders", a.orders.ListOrders).Methods("GET", "OPTIONS")
	admin.HandleFunc("/orders/{id}/status", a.orders.UpdateStatus).Methods("PATCH", "OPTIONS")
	admin.HandleFunc("/orders/{id}/whatsapp", a.orders.WhatsAppLink).Methods("GET", "OPTIONS")
	admin.HandleFunc("/orders/{id}", a.orders.DeleteOrder).Methods("DELETE", "OPTIONS")
	admin.HandleFunc("/ws", a.hub.HandleWebSocket).Methods("GET")

	if a.cfg.StaticDir != "" {
		router.PathPrefix("/").Handler(web.SPA(a.cfg.StaticDir))
		a.logger.WithField("dir", a.cfg.StaticDir).Info("Serving storefront")
	}

	return router
}

func (a *app) health(w http.ResponseWriter, r *http.Request) {
	if err := a.store.Ping(r.Context()); err != nil {
		a.logger.WithError(err).Warn("Health check: database unreachable")
		httpx.RespondWithJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "unhealthy",
			"service": "shop-api",
			"error":   "database connection failed",
		})
		return
	}

	httpx.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":           "healthy",
		"service":          "shop-api",
		"circuit_breakers": a.breakers.AllStats(),
		"feed_clients":     a.hub.ClientCount(),
	})
}
