package models

import "time"

// WithdrawalStatus tracks the lifecycle of a withdrawal request
type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "pending"
	WithdrawalStatusApproved WithdrawalStatus = "approved"
	WithdrawalStatusRejected WithdrawalStatus = "rejected"
)

// WithdrawalRequest is a user's request to move balance off-platform. The
// amount is debited when the request is created and refunded on rejection.
type WithdrawalRequest struct {
	ID            int64            `db:"id"`
	TelegramID    int64            `db:"telegram_id"`
	Amount        int64            `db:"amount"`
	WalletAddress string           `db:"wallet_address"`
	Status        WithdrawalStatus `db:"status"`
	AdminNote     string           `db:"admin_note"`
	CreatedAt     time.Time        `db:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at"`
}
