package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "eventix/docs"
	"eventix/internal/booking"
	"eventix/internal/config"
	"eventix/internal/db"
	"eventix/internal/email"
	"eventix/internal/event"
	"eventix/internal/logger"
	"eventix/internal/payment"
	"eventix/internal/queue"
	"eventix/internal/server"
	"eventix/internal/settlement"
	"eventix/internal/user"
	"eventix/internal/wallet"

	"github.com/redis/go-redis/v9"
)

// @title Eventix API
// @version 1.0
// @description Event ticketing with a custodial wallet ledger.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()
	logger.Info("Starting Eventix application")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	logger.Info("Connecting to database...")
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer database.Close()
	logger.Info("Database connected")

	version, err := db.RunMigrations(database, cfg.MigrationsPath)
	if err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed", "version", version)

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	emailService := email.New(rdb, email.Config{
		From:     cfg.EmailFrom,
		FromName: cfg.EmailFromName,
		SMTPHost: cfg.SMTPHost,
		SMTPPort: cfg.SMTPPort,
		SMTPUser: cfg.SMTPUser,
		SMTPPass: cfg.SMTPPass,
	})
	defer emailService.Close()
	logger.Info("Email service initialized", "redis", cfg.RedisAddr)

	publisher := newPublisher(cfg.RabbitMQURL)
	defer publisher.Close()

	gateway := newGateway(cfg)

	tx := db.NewTxRunner(database)

	users := user.NewRepository(database)
	events := event.NewRepository()
	bookings := booking.NewRepository()

	ledger := wallet.NewLedger(wallet.NewRepository(cfg.Currency), database, tx, gateway)
	engine := booking.NewEngine(bookings, events, database)
	notifier := settlement.NewNotifier(publisher, emailService, users)
	coordinator := settlement.NewCoordinator(tx, engine, ledger, users, notifier)

	srv := server.New(cfg, server.Handlers{
		Users:      user.NewHandler(user.NewService(users, cfg.JWTSecret)),
		Events:     event.NewHandler(event.NewService(events, database, tx)),
		Wallet:     wallet.NewHandler(settlement.NewWallets(ledger, notifier)),
		Bookings:   booking.NewHandler(engine),
		Sales:      booking.NewSalesHandler(booking.NewSalesReport(database)),
		Settlement: settlement.NewHandler(coordinator),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go emailService.Start(ctx)

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}

	logger.Info("Server stopped")
}

func newPublisher(url string) queue.Publisher {
	if url == "" {
		logger.Warn("RABBITMQ_URL not set, settlement events will not be published")
		return queue.NopPublisher{}
	}
	p, err := queue.NewRabbitMQPublisher(url)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "error", err)
	}
	logger.Info("RabbitMQ publisher ready", "exchange", queue.SettlementExchange)
	return p
}

func newGateway(cfg *config.Config) payment.Gateway {
	if cfg.PaymentGateway == config.GatewaySandbox {
		logger.Warn("PAYMENT_GATEWAY=sandbox: top-ups succeed without a real payment")
		sb := payment.NewSandbox()
		sb.Currency = cfg.Currency
		return sb
	}
	return payment.NewStripeGateway(cfg.StripeSecretKey, cfg.Currency, cfg.PaymentTimeout, nil)
}
