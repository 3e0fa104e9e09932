package main

import (
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stayhive/hotel-booking-backend/internal/config"
	"github.com/stayhive/hotel-booking-backend/internal/database"
	"github.com/stayhive/hotel-booking-backend/internal/services"
	"github.com/stayhive/hotel-booking-backend/pkg/telegram"
)

// One-shot no-show sweep plus an outbox drain. The server schedules the same
// sweep daily; this binary exists for operators and external schedulers.
func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	pgDB, ok := db.(*database.PostgresDB)
	if !ok {
		logger.Fatal("Failed to cast database connection to PostgresDB")
	}

	bookingRepository := database.NewBookingRepository(pgDB.DB)
	intentRepository := database.NewIntentRepository(pgDB.DB)

	lifecycleService := services.NewLifecycleService(bookingRepository, bookingRepository, cfg.Booking, logger)
	stripeService := services.NewStripeService(&cfg.Stripe, logger)
	telegramGateway := telegram.NewBotGateway(telegram.BotConfig{
		APIURL: cfg.Telegram.APIBaseURL,
		Token:  cfg.Telegram.BotToken,
	})
	dispatcherService := services.NewDispatcherService(
		intentRepository,
		bookingRepository,
		stripeService,
		telegramGateway,
		cfg.Scheduler,
		cfg.Telegram.ChatID,
		logger,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := lifecycleService.SweepNoShows(ctx, time.Now().UTC())
	if err != nil {
		logger.Fatalf("No-show sweep failed: %v", err)
	}

	// Deliver the intents the sweep just emitted
	delivered, err := dispatcherService.DispatchPending(ctx)
	if err != nil {
		logger.Fatalf("Intent dispatch failed: %v", err)
	}

	logger.WithFields(logrus.Fields{
		"examined":  result.Examined,
		"marked":    result.Marked,
		"failed":    result.Failed,
		"delivered": delivered,
	}).Info("Sweep run finished")

	if result.Failed > 0 {
		os.Exit(1)
	}
}
