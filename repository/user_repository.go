package repository

import (
	"context"
	"fmt"
	"time"

	"rollhouse/database"
	"rollhouse/models"
	"rollhouse/service"
	"github.com/jackc/pgx/v5"
)

const userColumns = `telegram_id, first_name, last_name, username, photo_url, balance,
		total_deposited, games_played, ref_id, ref_percent, ref_balance,
		free_case_last, created_at, last_online`

// UserRepository implements the service.UserRepository interface
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository with a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.TelegramID,
		&user.FirstName,
		&user.LastName,
		&user.Username,
		&user.PhotoURL,
		&user.Balance,
		&user.TotalDeposited,
		&user.GamesPlayed,
		&user.RefID,
		&user.RefPercent,
		&user.RefBalance,
		&user.FreeCaseLast,
		&user.CreatedAt,
		&user.LastOnline,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByTelegramID retrieves a user by their Telegram ID
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE telegram_id = $1`, userColumns)

	user, err := scanUser(r.q.QueryRow(ctx, query, telegramID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", telegramID, err)
	}
	return user, nil
}

// Create creates a new user with a zero balance
func (r *UserRepository) Create(ctx context.Context, telegramID int64, profile models.UserProfile) (*models.User, error) {
	query := fmt.Sprintf(`
		INSERT INTO users (telegram_id, first_name, last_name, username, photo_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING %s`, userColumns)

	user, err := scanUser(r.q.QueryRow(ctx, query,
		telegramID, profile.FirstName, profile.LastName, profile.Username, profile.PhotoURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create user %d: %w", telegramID, err)
	}
	return user, nil
}

// UpdateProfile refreshes profile fields and bumps last_online. Empty fields
// are left untouched, matching the client sending partial profiles.
func (r *UserRepository) UpdateProfile(ctx context.Context, telegramID int64, profile models.UserProfile) error {
	query := `
		UPDATE users
		SET first_name = COALESCE(NULLIF($1, ''), first_name),
		    last_name = COALESCE(NULLIF($2, ''), last_name),
		    username = COALESCE(NULLIF($3, ''), username),
		    photo_url = COALESCE(NULLIF($4, ''), photo_url),
		    last_online = NOW()
		WHERE telegram_id = $5
	`

	result, err := r.q.Exec(ctx, query,
		profile.FirstName, profile.LastName, profile.Username, profile.PhotoURL, telegramID)
	if err != nil {
		return fmt.Errorf("failed to update profile for user %d: %w", telegramID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("update profile for user %d: %w", telegramID, service.ErrNotFound)
	}
	return nil
}

// SetReferrer records the upstream referrer once. Self-referrals and
// already-referred users are silently ignored.
func (r *UserRepository) SetReferrer(ctx context.Context, telegramID, refID int64) error {
	query := `
		UPDATE users
		SET ref_id = $1
		WHERE telegram_id = $2 AND ref_id IS NULL AND telegram_id <> $1
	`

	if _, err := r.q.Exec(ctx, query, refID, telegramID); err != nil {
		return fmt.Errorf("failed to set referrer for user %d: %w", telegramID, err)
	}
	return nil
}

// AddBalance adds to a user's balance atomically and returns the post-update
// balance, so audit rows never carry a stale figure.
func (r *UserRepository) AddBalance(ctx context.Context, telegramID int64, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE users
		SET balance = balance + $1
		WHERE telegram_id = $2
		RETURNING balance
	`

	var balance int64
	err := r.q.QueryRow(ctx, query, amount, telegramID).Scan(&balance)
	if err == pgx.ErrNoRows {
		return 0, fmt.Errorf("add balance for user %d: %w", telegramID, service.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to add balance for user %d: %w", telegramID, err)
	}
	return balance, nil
}

// DeductBalance deducts from a user's balance atomically and returns the
// post-update balance. The balance check happens in the UPDATE itself, so the
// race between reading a balance and debiting it cannot produce a negative
// balance.
func (r *UserRepository) DeductBalance(ctx context.Context, telegramID int64, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE users
		SET balance = balance - $1
		WHERE telegram_id = $2 AND balance >= $1
		RETURNING balance
	`

	var balance int64
	err := r.q.QueryRow(ctx, query, amount, telegramID).Scan(&balance)
	if err == pgx.ErrNoRows {
		user, err := r.GetByTelegramID(ctx, telegramID)
		if err != nil {
			return 0, fmt.Errorf("failed to check user %d: %w", telegramID, err)
		}
		if user == nil {
			return 0, fmt.Errorf("deduct balance for user %d: %w", telegramID, service.ErrNotFound)
		}
		return 0, fmt.Errorf("have %s, need %s: %w",
			models.FormatTON(user.Balance), models.FormatTON(amount), service.ErrInsufficientFunds)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to deduct balance for user %d: %w", telegramID, err)
	}
	return balance, nil
}

// SetBalance overwrites a user's balance (admin adjustments only)
func (r *UserRepository) SetBalance(ctx context.Context, telegramID int64, newBalance int64) error {
	if newBalance < 0 {
		return fmt.Errorf("balance cannot be negative")
	}

	result, err := r.q.Exec(ctx, `UPDATE users SET balance = $1 WHERE telegram_id = $2`, newBalance, telegramID)
	if err != nil {
		return fmt.Errorf("failed to set balance for user %d: %w", telegramID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("set balance for user %d: %w", telegramID, service.ErrNotFound)
	}
	return nil
}

// CreditDeposit adds amount to both balance and total_deposited, returning
// the post-update balance
func (r *UserRepository) CreditDeposit(ctx context.Context, telegramID int64, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE users
		SET balance = balance + $1, total_deposited = total_deposited + $1
		WHERE telegram_id = $2
		RETURNING balance
	`

	var balance int64
	err := r.q.QueryRow(ctx, query, amount, telegramID).Scan(&balance)
	if err == pgx.ErrNoRows {
		return 0, fmt.Errorf("credit deposit for user %d: %w", telegramID, service.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to credit deposit for user %d: %w", telegramID, err)
	}
	return balance, nil
}

// IncrementGamesPlayed bumps the games_played counter
func (r *UserRepository) IncrementGamesPlayed(ctx context.Context, telegramID int64) error {
	result, err := r.q.Exec(ctx, `UPDATE users SET games_played = games_played + 1 WHERE telegram_id = $1`, telegramID)
	if err != nil {
		return fmt.Errorf("failed to increment games played for user %d: %w", telegramID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("increment games played for user %d: %w", telegramID, service.ErrNotFound)
	}
	return nil
}

// AddRefBalance accrues referral commission on the referrer
func (r *UserRepository) AddRefBalance(ctx context.Context, telegramID int64, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	result, err := r.q.Exec(ctx, `UPDATE users SET ref_balance = ref_balance + $1 WHERE telegram_id = $2`, amount, telegramID)
	if err != nil {
		return fmt.Errorf("failed to add ref balance for user %d: %w", telegramID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("add ref balance for user %d: %w", telegramID, service.ErrNotFound)
	}
	return nil
}

// ClaimRefBalance atomically moves the whole ref_balance into balance.
// The row is locked first so concurrent claims cannot double-credit; callers
// run this inside a unit of work.
func (r *UserRepository) ClaimRefBalance(ctx context.Context, telegramID int64) (int64, error) {
	var claimed int64
	err := r.q.QueryRow(ctx, `SELECT ref_balance FROM users WHERE telegram_id = $1 FOR UPDATE`, telegramID).Scan(&claimed)
	if err == pgx.ErrNoRows {
		return 0, fmt.Errorf("claim ref balance for user %d: %w", telegramID, service.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read ref balance for user %d: %w", telegramID, err)
	}

	if claimed == 0 {
		return 0, nil
	}

	_, err = r.q.Exec(ctx, `UPDATE users SET balance = balance + ref_balance, ref_balance = 0 WHERE telegram_id = $1`, telegramID)
	if err != nil {
		return 0, fmt.Errorf("failed to claim ref balance for user %d: %w", telegramID, err)
	}
	return claimed, nil
}

// ClaimFreeCase stamps the last free case opening. The guard runs against the
// row at transaction time, so two concurrent opens cannot both claim.
func (r *UserRepository) ClaimFreeCase(ctx context.Context, telegramID int64, at time.Time, cooldown time.Duration) error {
	query := `
		UPDATE users
		SET free_case_last = $1
		WHERE telegram_id = $2
		  AND (free_case_last IS NULL OR free_case_last <= $3)
	`
	result, err := r.q.Exec(ctx, query, at, telegramID, at.Add(-cooldown))
	if err != nil {
		return fmt.Errorf("failed to claim free case for user %d: %w", telegramID, err)
	}
	if result.RowsAffected() == 0 {
		user, err := r.GetByTelegramID(ctx, telegramID)
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("claim free case for user %d: %w", telegramID, service.ErrNotFound)
		}
		return service.ErrFreeCaseClaimed
	}
	return nil
}

// SetRefPercent changes a user's referral commission rate
func (r *UserRepository) SetRefPercent(ctx context.Context, telegramID int64, percent float64) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("ref percent must be within [0, 100]")
	}

	result, err := r.q.Exec(ctx, `UPDATE users SET ref_percent = $1 WHERE telegram_id = $2`, percent, telegramID)
	if err != nil {
		return fmt.Errorf("failed to set ref percent for user %d: %w", telegramID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("set ref percent for user %d: %w", telegramID, service.ErrNotFound)
	}
	return nil
}

// GetReferrals returns the users referred by telegramID
func (r *UserRepository) GetReferrals(ctx context.Context, telegramID int64) ([]*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE ref_id = $1 ORDER BY created_at DESC`, userColumns)

	rows, err := r.q.Query(ctx, query, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get referrals for user %d: %w", telegramID, err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan referral: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate referrals: %w", err)
	}
	return users, nil
}

// TopByDeposited returns the leaderboard ordered by total_deposited
func (r *UserRepository) TopByDeposited(ctx context.Context, limit int) ([]*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users ORDER BY total_deposited DESC LIMIT $1`, userColumns)

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leaderboard: %w", err)
	}
	return users, nil
}

// PlatformStats aggregates platform-wide counters
func (r *UserRepository) PlatformStats(ctx context.Context) (*models.PlatformStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE last_online >= NOW() - INTERVAL '24 hours'),
			COUNT(*) FILTER (WHERE last_online >= NOW() - INTERVAL '5 minutes'),
			COALESCE(SUM(total_deposited), 0)
		FROM users
	`

	var stats models.PlatformStats
	err := r.q.QueryRow(ctx, query).Scan(
		&stats.TotalUsers,
		&stats.Online24h,
		&stats.OnlineNow,
		&stats.TotalDeposited,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get platform stats: %w", err)
	}
	return &stats, nil
}
