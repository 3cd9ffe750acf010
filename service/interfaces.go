package service

import (
	"context"
	"time"

	"rollhouse/events"
	"rollhouse/games"
	"rollhouse/models"
)

// UserRepository defines the interface for account data access
type UserRepository interface {
	// GetByTelegramID retrieves a user by their Telegram ID, nil if absent
	GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)

	// Create creates a new user with a zero balance
	Create(ctx context.Context, telegramID int64, profile models.UserProfile) (*models.User, error)

	// UpdateProfile refreshes the mutable profile fields and last_online
	UpdateProfile(ctx context.Context, telegramID int64, profile models.UserProfile) error

	// SetReferrer records the upstream referrer, only if none is set yet
	SetReferrer(ctx context.Context, telegramID, refID int64) error

	// AddBalance adds to a user's balance atomically and returns the
	// post-update balance
	AddBalance(ctx context.Context, telegramID int64, amount int64) (int64, error)

	// DeductBalance deducts from a user's balance atomically and returns the
	// post-update balance. Returns ErrInsufficientFunds if the balance
	// measured at transaction time is smaller than the amount.
	DeductBalance(ctx context.Context, telegramID int64, amount int64) (int64, error)

	// SetBalance overwrites a user's balance (admin adjustments only)
	SetBalance(ctx context.Context, telegramID int64, newBalance int64) error

	// CreditDeposit adds amount to both balance and total_deposited,
	// returning the post-update balance
	CreditDeposit(ctx context.Context, telegramID int64, amount int64) (int64, error)

	// IncrementGamesPlayed bumps the games_played counter
	IncrementGamesPlayed(ctx context.Context, telegramID int64) error

	// AddRefBalance accrues referral commission on the referrer
	AddRefBalance(ctx context.Context, telegramID int64, amount int64) error

	// ClaimRefBalance atomically moves the whole ref_balance into balance,
	// returning the amount moved
	ClaimRefBalance(ctx context.Context, telegramID int64) (int64, error)

	// ClaimFreeCase stamps the free case opening, but only when the
	// previous stamp is absent or at least cooldown old. Returns
	// ErrFreeCaseClaimed when the guard rejects the stamp.
	ClaimFreeCase(ctx context.Context, telegramID int64, at time.Time, cooldown time.Duration) error

	// SetRefPercent changes a user's referral commission rate
	SetRefPercent(ctx context.Context, telegramID int64, percent float64) error

	// GetReferrals returns the users referred by telegramID
	GetReferrals(ctx context.Context, telegramID int64) ([]*models.User, error)

	// TopByDeposited returns the leaderboard ordered by total_deposited
	TopByDeposited(ctx context.Context, limit int) ([]*models.User, error)

	// PlatformStats aggregates platform-wide counters
	PlatformStats(ctx context.Context) (*models.PlatformStats, error)
}

// SettlementRepository defines the append-only settlement audit trail
type SettlementRepository interface {
	// Record appends one settlement, filling ID and CreatedAt
	Record(ctx context.Context, s *models.Settlement) error

	// GetByUser returns the most recent settlements for a user
	GetByUser(ctx context.Context, telegramID int64, limit int) ([]*models.Settlement, error)

	// GetLastByUser returns the single most recent settlement, nil if none
	GetLastByUser(ctx context.Context, telegramID int64) (*models.Settlement, error)
}

// InventoryRepository defines collectible item storage
type InventoryRepository interface {
	// Add inserts a new item, filling ID and ObtainedAt
	Add(ctx context.Context, item *models.InventoryItem) error

	// GetByUser returns a user's items, most recent first
	GetByUser(ctx context.Context, telegramID int64) ([]*models.InventoryItem, error)

	// GetByID retrieves one item, nil if absent
	GetByID(ctx context.Context, id int64) (*models.InventoryItem, error)

	// Remove deletes an item (sold or withdrawn)
	Remove(ctx context.Context, id int64) error
}

// DepositRepository defines deposit bookkeeping
type DepositRepository interface {
	Create(ctx context.Context, rec *models.DepositRecord) error
	GetByID(ctx context.Context, id int64) (*models.DepositRecord, error)
	MarkCompleted(ctx context.Context, id int64) error
}

// WithdrawalRepository defines withdrawal request bookkeeping
type WithdrawalRepository interface {
	Create(ctx context.Context, req *models.WithdrawalRequest) error
	GetByID(ctx context.Context, id int64) (*models.WithdrawalRequest, error)
	GetByUser(ctx context.Context, telegramID int64) ([]*models.WithdrawalRequest, error)
	GetPending(ctx context.Context) ([]*models.WithdrawalRequest, error)
	UpdateStatus(ctx context.Context, id int64, status models.WithdrawalStatus, note string) error
}

// SettleRequest describes one atomic balance settlement
type SettleRequest struct {
	TelegramID int64
	Stake      int64
	Payout     int64
	GameType   models.GameType
	Multiplier *float64
	Metadata   map[string]any

	// Post, when set, runs inside the same transaction after the settlement
	// is recorded. Used for side effects that must commit or fail with the
	// settlement, like granting an inventory item.
	Post func(ctx context.Context, uow UnitOfWork) error
}

// Ledger applies atomic balance mutations. It is the only component allowed
// to write balance fields.
type Ledger interface {
	// Settle debits the stake, credits the payout, and appends one
	// settlement record in a single transaction. The debit is checked
	// against the balance at transaction time; on ErrInsufficientFunds
	// nothing is applied.
	Settle(ctx context.Context, req SettleRequest) (*models.Settlement, error)

	// Deposit credits balance and total_deposited, then triggers the
	// referral commission as a second, independent step that never fails
	// the deposit
	Deposit(ctx context.Context, telegramID int64, amount int64, method models.DepositMethod) (*models.Settlement, error)

	// CreditReferral accrues depositAmount * ref_percent / 100 on the
	// referrer's claimable balance
	CreditReferral(ctx context.Context, referrerID int64, depositAmount int64) error
}

// UserService defines account lifecycle operations
type UserService interface {
	// GetOrCreateUser upserts the profile and binds the referrer once
	GetOrCreateUser(ctx context.Context, telegramID int64, profile models.UserProfile, refID *int64) (*models.User, error)

	// GetUser returns a user or ErrNotFound
	GetUser(ctx context.Context, telegramID int64) (*models.User, error)
}

// RollsService owns the shared Rolls round state machine
type RollsService interface {
	// PlaceBet stakes amount on a color in the currently open round. The
	// stake is debited immediately; a rebet in the same round refunds the
	// previous stake and replaces the bet.
	PlaceBet(ctx context.Context, telegramID int64, color models.Color, amount int64) (*models.User, error)

	// Snapshot returns the current round view, triggering resolution if
	// the round deadline has passed
	Snapshot(ctx context.Context) (*models.RollsSnapshot, error)

	// Start launches the background resolution driver
	Start(ctx context.Context)

	// Stop halts the background driver and waits for it to exit
	Stop()
}

// UpgradeService resolves upgrade roulette spins, stateless per call
type UpgradeService interface {
	Spin(ctx context.Context, telegramID int64, stake int64, multiplier float64) (*models.UpgradeResult, error)
}

// CaseResult is the outcome of opening one case
type CaseResult struct {
	Reward          games.Reward
	NewBalance      int64
	InventoryItemID *int64 // set when the reward became a collectible
}

// FreeCaseStatus reports free case availability
type FreeCaseStatus struct {
	Available        bool
	RemainingSeconds int64
}

// CaseService resolves loot case openings, stateless per call
type CaseService interface {
	// OpenCase charges the case cost and applies one drawn reward
	OpenCase(ctx context.Context, telegramID int64, caseType games.CaseType) (*CaseResult, error)

	// GetFreeCaseStatus reports whether the free case cooldown has elapsed
	GetFreeCaseStatus(ctx context.Context, telegramID int64) (*FreeCaseStatus, error)

	// CheckAccess reports whether paid cases are unlocked for the user
	CheckAccess(ctx context.Context, telegramID int64) (bool, error)
}

// InventoryService manages collectible items
type InventoryService interface {
	ListItems(ctx context.Context, telegramID int64) ([]*models.InventoryItem, error)

	// SellItem removes the item and credits its sell price
	SellItem(ctx context.Context, telegramID int64, itemID int64) (soldPrice int64, newBalance int64, err error)

	// WithdrawItem returns out-of-band fulfillment instructions
	WithdrawItem(ctx context.Context, telegramID int64, itemID int64) (string, error)
}

// ReferralService exposes referral earnings
type ReferralService interface {
	GetSummary(ctx context.Context, telegramID int64) (*models.ReferralSummary, error)

	// WithdrawBalance moves the accrued commission into the main balance,
	// subject to the configured minimum
	WithdrawBalance(ctx context.Context, telegramID int64) (newBalance int64, err error)
}

// TONDepositInvoice tells the client where to send a pending TON deposit
type TONDepositInvoice struct {
	DepositID     int64
	WalletAddress string
	Memo          string
	Amount        int64
}

// DepositService handles both deposit paths
type DepositService interface {
	// DepositStars converts and credits a Telegram Stars purchase
	DepositStars(ctx context.Context, telegramID int64, stars int64) (credited int64, newBalance int64, err error)

	// InitiateTON opens a pending TON deposit with a unique memo
	InitiateTON(ctx context.Context, telegramID int64, amount int64) (*TONDepositInvoice, error)

	// ConfirmDeposit credits a pending TON deposit (admin or webhook)
	ConfirmDeposit(ctx context.Context, depositID int64) (newBalance int64, err error)
}

// WithdrawalService handles balance withdrawal requests
type WithdrawalService interface {
	CreateRequest(ctx context.Context, telegramID int64, amount int64, walletAddress string) (*models.WithdrawalRequest, error)
	ListByUser(ctx context.Context, telegramID int64) ([]*models.WithdrawalRequest, error)
	ListPending(ctx context.Context) ([]*models.WithdrawalRequest, error)

	// Resolve approves or rejects a pending request; rejection refunds
	Resolve(ctx context.Context, requestID int64, approve bool, note string) error
}

// StatsService exposes leaderboard and admin reporting
type StatsService interface {
	GetLeaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error)
	GetPlatformStats(ctx context.Context) (*models.PlatformStats, error)
	GetUserDetail(ctx context.Context, telegramID int64) (*models.UserDetail, error)

	// AdjustUser applies admin changes; non-nil fields are applied
	AdjustUser(ctx context.Context, telegramID int64, balanceAdd *int64, balanceSet *int64, refPercent *float64) (newBalance int64, err error)
}

// Notifier delivers fire-and-forget messages. Implementations must swallow
// delivery failures; they are never propagated to the caller.
type Notifier interface {
	NotifyUser(telegramID int64, text string)
	NotifyAdmin(text string)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	SettlementRepository() SettlementRepository
	InventoryRepository() InventoryRepository
	DepositRepository() DepositRepository
	WithdrawalRepository() WithdrawalRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
