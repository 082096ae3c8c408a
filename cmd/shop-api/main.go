package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/auth"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/breaker"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/config"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/events"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/mailer"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/notify"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/ordering"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/orders"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/pdf"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/ratelimit"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/store"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/web"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/websocket"
	"github.com/sirupsen/logrus"
	_ "time/tzdata"
)

func main() {
	cfg := config.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	db, err := store.Open(ctx, store.Options{
		URL:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := store.Migrate(db, logger); err != nil {
		logger.WithError(err).Fatal("Failed to migrate database")
	}
	st := store.New(db, logger)

	breakers := breaker.NewManager(logger)
	onStateChange := func(name string, from, to breaker.State) {
		logger.WithFields(logrus.Fields{
			"circuit_breaker": name,
			"from":            from.String(),
			"to":              to.String(),
		}).Warn("Circuit breaker state changed")
	}
	mailBreaker := breakers.GetOrCreate("mail", breaker.Config{
		MaxFailures:   5,
		OpenTimeout:   30 * time.Second,
		OnStateChange: onStateChange,
	})
	imageBreakerConfig := breaker.Config{
		MaxFailures:   5,
		OpenTimeout:   time.Minute,
		HalfOpenMax:   2,
		OnStateChange: onStateChange,
	}

	notifier := notify.NewNotifier(st, mailer.New(cfg, mailBreaker, logger), cfg.BusinessEmail, cfg.ShopName, logger)

	hub := websocket.NewHub(cfg.AllowedOrigin, "shop-api", logger)
	go hub.Run(ctx)

	publisher, closeEvents := startEvents(ctx, cfg, hub, logger)
	defer closeEvents()

	limiter := startLimiter(ctx, cfg, logger)

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)
	if cfg.JWTSecret == config.DevJWTSecret {
		logger.Warn("JWT_SECRET is not set, using the development secret")
	}

	loc := ordering.ShopLocation()
	app := &app{
		cfg:      cfg,
		store:    st,
		breakers: breakers,
		hub:      hub,
		limiter:  limiter,
		tokens:   tokens,
		orders:   orders.NewHandler(st, publisher, notifier, ordering.DefaultSchedule(), loc, logger),
		auth:     auth.NewHandler(st, tokens, auth.NewBreachChecker(cfg.BreachCheckURL, logger), logger),
		notify:   notify.NewHandler(notifier, logger),
		pdf:      pdf.NewHandler(pdf.NewFetcher(breakers, imageBreakerConfig, cfg.PDFAllowedHosts, logger), logger),
		site:     web.NewSiteConfig(cfg),
		logger:   logger,
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      app.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.HTTPPort).Info("Starting shop API")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
	stop()

	logger.Info("Server gracefully stopped")
}

// startEvents publishes order changes through Kafka when brokers are
// configured, and consumes them back so every instance's hub sees every
// change. Without brokers changes go straight to the local hub.
func startEvents(ctx context.Context, cfg *config.Config, hub *websocket.Hub, logger *logrus.Logger) (events.Publisher, func()) {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("KAFKA_BROKERS not set, order changes stay in this instance")
		return events.NewLocalPublisher(hub), func() {}
	}

	producer, err := events.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaOrderTopic, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create Kafka producer")
	}

	consumer, err := events.NewKafkaConsumer(cfg.KafkaBrokers, cfg.KafkaOrderTopic, events.InstanceGroupID("shop-api"), hub, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create Kafka consumer")
	}
	go func() {
		if err := consumer.Start(ctx); err != nil {
			logger.WithError(err).Error("Kafka consumer stopped")
		}
	}()

	return producer, func() {
		if err := consumer.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close Kafka consumer")
		}
		if err := producer.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close Kafka producer")
		}
	}
}

// startLimiter shares rate-limit windows through Redis when REDIS_URL is
// set and keeps them in memory otherwise.
func startLimiter(ctx context.Context, cfg *config.Config, logger *logrus.Logger) ratelimit.Limiter {
	if cfg.RedisURL != "" {
		rdb, err := ratelimit.NewRedisClient(ctx, cfg.RedisURL)
		if err == nil {
			logger.Info("Rate limiting through Redis")
			return ratelimit.NewRedisLimiter(rdb, cfg.RateLimitRequests, cfg.RateLimitWindow)
		}
		logger.WithError(err).Warn("Redis unavailable, rate limiting in memory")
	}

	limiter := ratelimit.NewMemoryLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow, cfg.RateLimitMaxKeys, logger)
	go limiter.Run(ctx, cfg.RateLimitWindow)
	return limiter
}
