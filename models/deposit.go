package models

import "time"

// DepositMethod is the payment path a deposit arrived through
type DepositMethod string

const (
	DepositMethodTON   DepositMethod = "ton"
	DepositMethodStars DepositMethod = "stars"
)

// DepositStatus tracks the lifecycle of a deposit record
type DepositStatus string

const (
	DepositStatusPending   DepositStatus = "pending"
	DepositStatusCompleted DepositStatus = "completed"
)

// DepositRecord is the bookkeeping row for one deposit
type DepositRecord struct {
	ID         int64         `db:"id"`
	TelegramID int64         `db:"telegram_id"`
	Amount     int64         `db:"amount"`
	Method     DepositMethod `db:"method"`
	Status     DepositStatus `db:"status"`
	Memo       string        `db:"memo"`
	CreatedAt  time.Time     `db:"created_at"`
}
