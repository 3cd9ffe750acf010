package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// Config holds all application configuration
type Config struct {
	// HTTP server
	ListenAddr string

	// Database configuration
	DatabaseURL string

	// Telegram notification configuration
	BotToken    string
	AdminChatID int64

	// AdminToken guards the admin HTTP routes. Empty disables them.
	AdminToken string

	// Rolls round timing
	RollsWindow        time.Duration // full betting window
	RollsLockoutMargin time.Duration // no new bets in the final margin

	// Platform rules, amounts in 0.0001 TON minor units
	MinWithdrawal       int64
	MinReferralWithdraw int64
	CaseAccessDeposit   int64 // total_deposited gate for paid cases
	DefaultRefPercent   float64
	BotWalletAddress    string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		ListenAddr:  os.Getenv("LISTEN_ADDR"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		BotToken:    os.Getenv("BOT_TOKEN"),
		AdminToken:  os.Getenv("ADMIN_TOKEN"),

		// Round timing defaults: 10 second window, 1 second lockout
		RollsWindow:        10 * time.Second,
		RollsLockoutMargin: 1 * time.Second,

		MinWithdrawal:       100_000, // 10 TON
		MinReferralWithdraw: 30_000,  // 3 TON
		CaseAccessDeposit:   50_000,  // 5 TON
		DefaultRefPercent:   10.0,
		BotWalletAddress:    os.Getenv("BOT_WALLET_ADDRESS"),

		Environment: os.Getenv("ENVIRONMENT"),
	}

	if config.ListenAddr == "" {
		config.ListenAddr = ":8080"
	}
	if config.Environment == "" {
		config.Environment = "development"
	}

	if chatID := os.Getenv("ADMIN_CHAT_ID"); chatID != "" {
		parsed, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_CHAT_ID: %w", err)
		}
		config.AdminChatID = parsed
	}
	if window := os.Getenv("ROLLS_WINDOW_SECONDS"); window != "" {
		if parsed, err := strconv.Atoi(window); err == nil && parsed > 0 {
			config.RollsWindow = time.Duration(parsed) * time.Second
		}
	}
	if margin := os.Getenv("ROLLS_LOCKOUT_SECONDS"); margin != "" {
		if parsed, err := strconv.Atoi(margin); err == nil && parsed >= 0 {
			config.RollsLockoutMargin = time.Duration(parsed) * time.Second
		}
	}
	if min := os.Getenv("MIN_WITHDRAWAL"); min != "" {
		if parsed, err := strconv.ParseInt(min, 10, 64); err == nil {
			config.MinWithdrawal = parsed
		}
	}

	if config.RollsLockoutMargin >= config.RollsWindow {
		return nil, fmt.Errorf("rolls lockout margin %s must be shorter than the window %s",
			config.RollsLockoutMargin, config.RollsWindow)
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}
