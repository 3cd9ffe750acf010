package models

import (
	"time"
)

// User represents a Telegram user with a balance
type User struct {
	TelegramID     int64      `db:"telegram_id"`
	FirstName      string     `db:"first_name"`
	LastName       string     `db:"last_name"`
	Username       string     `db:"username"`
	PhotoURL       string     `db:"photo_url"`
	Balance        int64      `db:"balance"`
	TotalDeposited int64      `db:"total_deposited"`
	GamesPlayed    int64      `db:"games_played"`
	RefID          *int64     `db:"ref_id"`      // who referred this user
	RefPercent     float64    `db:"ref_percent"` // commission rate applied when this user refers others
	RefBalance     int64      `db:"ref_balance"` // accrued, unclaimed commission
	FreeCaseLast   *time.Time `db:"free_case_last"`
	CreatedAt      time.Time  `db:"created_at"`
	LastOnline     time.Time  `db:"last_online"`
}

// UserProfile carries the mutable profile fields supplied by the client on init.
type UserProfile struct {
	FirstName string
	LastName  string
	Username  string
	PhotoURL  string
}
