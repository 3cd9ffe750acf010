package models

import (
	"time"
)

// GameType identifies which game (or balance-mutating path) produced a settlement
type GameType string

const (
	GameTypeUpgrade          GameType = "upgrade"
	GameTypeRolls            GameType = "rolls"
	GameTypeCase             GameType = "case"
	GameTypeDeposit          GameType = "deposit"
	GameTypeWithdrawal       GameType = "withdrawal"
	GameTypeInventorySale    GameType = "inventory_sale"
	GameTypeReferralWithdraw GameType = "referral_withdraw"
	GameTypeAdminAdjust      GameType = "admin_adjust"
)

// Settlement is the immutable record of one outcome applied to one account.
// Append-only audit trail; never mutated after creation.
type Settlement struct {
	ID            int64          `db:"id"`
	TelegramID    int64          `db:"telegram_id"`
	GameType      GameType       `db:"game_type"`
	Stake         int64          `db:"stake"`
	Payout        int64          `db:"payout"`
	NetResult     int64          `db:"net_result"`
	BalanceBefore int64          `db:"balance_before"`
	BalanceAfter  int64          `db:"balance_after"`
	Multiplier    *float64       `db:"multiplier"`
	Metadata      map[string]any `db:"metadata"`
	CreatedAt     time.Time      `db:"created_at"`
}

// UpgradeResult represents the outcome of an upgrade spin (returned to the user)
type UpgradeResult struct {
	Won        bool
	Stake      int64
	Multiplier float64
	WinChance  float64
	NetResult  int64
	NewBalance int64
}
