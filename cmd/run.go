package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"rollhouse/api"
	"rollhouse/config"
	"rollhouse/database"
	"rollhouse/events"
	"rollhouse/games"
	"rollhouse/notify"
	"rollhouse/repository"
	"rollhouse/service"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting rollhouse...")

	// Load configuration
	cfg := config.Get()

	// Reward tables are static configuration; refuse to start on bad weights
	if err := games.ValidateTables(); err != nil {
		return fmt.Errorf("invalid reward tables: %w", err)
	}

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize event bus
	eventBus := events.NewBus()

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize services
	log.Println("Initializing services...")
	sampler := games.NewSampler()
	ledger := service.NewLedger(uowFactory)
	userService := service.NewUserService(uowFactory)
	upgradeService := service.NewUpgradeService(ledger, sampler)
	rollsService := service.NewRollsService(uowFactory, ledger, sampler, eventBus)
	caseService := service.NewCaseService(uowFactory, ledger, sampler)
	referralService := service.NewReferralService(uowFactory)
	depositService := service.NewDepositService(uowFactory, ledger)
	withdrawalService := service.NewWithdrawalService(uowFactory, ledger)
	statsService := service.NewStatsService(uowFactory)

	// Initialize Telegram notifier
	var notifier service.Notifier
	if cfg.BotToken != "" {
		tg, err := notify.NewTelegramNotifier(cfg.BotToken, cfg.AdminChatID)
		if err != nil {
			return fmt.Errorf("failed to initialize Telegram notifier: %w", err)
		}
		notifier = tg
	} else {
		log.Println("BOT_TOKEN not set, notifications disabled")
		notifier = notify.NopNotifier{}
	}
	notify.RegisterHandlers(eventBus, notifier)

	inventoryService := service.NewInventoryService(uowFactory, ledger, notifier)
	log.Println("Services initialized successfully")

	// Start the round resolution driver
	rollsService.Start(ctx)

	// Initialize HTTP server
	server := api.NewServer(userService, rollsService, upgradeService,
		caseService, inventoryService, referralService, depositService,
		withdrawalService, statsService, cfg.AdminToken)

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.Handler(),
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("HTTP server listening on %s in %s mode...", cfg.ListenAddr, cfg.Environment)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for shutdown signal or a server failure
	select {
	case err := <-serverErr:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
	}

	// Cleanup resources
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}

	// Stop the round driver before closing the database so in-flight
	// settlements can finish
	rollsService.Stop()

	log.Println("Closing database connection...")
	db.Close()

	log.Println("Shutdown completed")
	return nil
}
