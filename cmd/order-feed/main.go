package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/feed"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/internal/i18n"
	"github.com/GabiMuresan22/slagereij-order-craft-sub000/pkg/models"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	_ = godotenv.Load()

	apiURL := flag.String("api", getEnv("SHOP_API_URL", "http://localhost:8080"), "shop API base URL")
	token := flag.String("token", os.Getenv("ADMIN_TOKEN"), "admin bearer token")
	reconcileEvery := flag.Duration("reconcile", 5*time.Minute, "how often to check the live list against a full reload")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stderr)

	if err := checkFlags(*token, *reconcileEvery); err != nil {
		logger.WithError(err).Fatal("Invalid flags")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	list := feed.NewList()
	client := feed.NewClient(*apiURL, *token, logger)

	done := make(chan struct{})
	go func() {
		defer close(done)
		client.Follow(ctx, list, func(o models.Order) {
			fmt.Printf("\n=== New order ===\n")
			fmt.Printf("Time: %s\n", time.Now().Format(time.RFC3339))
			fmt.Printf("Customer: %s (%s)\n", o.CustomerName, o.CustomerPhone)
			fmt.Printf("Pickup: %s %s\n", o.PickupDate, o.PickupTime)
			fmt.Printf("Items: %d\n", len(o.Items))
			fmt.Printf("=================\n\n")
		})
	}()

	logger.WithField("api", *apiURL).Info("Order feed started")

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	reconcile := time.NewTicker(*reconcileEvery)
	defer reconcile.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			fields := logrus.Fields{"total": list.Len()}
			for status, n := range list.CountByStatus() {
				fields[i18n.StatusLabel(models.LanguageDutch, status)] = n
			}
			logger.WithFields(fields).Info("Order list summary")
		case <-reconcile.C:
			if _, err := client.Reconcile(ctx, list); err != nil {
				logger.WithError(err).Warn("Reconcile failed")
			}
		case <-sigChan:
			logger.Info("Shutting down order feed...")
			cancel()
			<-done
			return
		}
	}
}

func checkFlags(token string, reconcileEvery time.Duration) error {
	if token == "" {
		return errors.New("an admin token is required (-token or ADMIN_TOKEN)")
	}
	if reconcileEvery <= 0 {
		return fmt.Errorf("-reconcile must be positive, got %s", reconcileEvery)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
