package repository

import (
	"context"
	"fmt"

	"rollhouse/database"
	"rollhouse/models"
	"rollhouse/service"
	"github.com/jackc/pgx/v5"
)

// WithdrawalRepository implements the service.WithdrawalRepository interface
type WithdrawalRepository struct {
	q queryable
}

// NewWithdrawalRepository creates a new withdrawal repository
func NewWithdrawalRepository(db *database.DB) *WithdrawalRepository {
	return &WithdrawalRepository{q: db.Pool}
}

// newWithdrawalRepositoryWithTx creates a new withdrawal repository with a transaction
func newWithdrawalRepositoryWithTx(tx queryable) *WithdrawalRepository {
	return &WithdrawalRepository{q: tx}
}

const withdrawalColumns = `id, telegram_id, amount, wallet_address, status, admin_note, created_at, updated_at`

// Create inserts a pending withdrawal request, filling ID and timestamps
func (r *WithdrawalRepository) Create(ctx context.Context, req *models.WithdrawalRequest) error {
	query := `
		INSERT INTO withdrawal_requests (telegram_id, amount, wallet_address, status, admin_note)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		req.TelegramID, req.Amount, req.WalletAddress, req.Status, req.AdminNote,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create withdrawal request for user %d: %w", req.TelegramID, err)
	}
	return nil
}

// GetByID retrieves one withdrawal request, nil if absent
func (r *WithdrawalRepository) GetByID(ctx context.Context, id int64) (*models.WithdrawalRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM withdrawal_requests WHERE id = $1`, withdrawalColumns)

	req, err := scanWithdrawal(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal request %d: %w", id, err)
	}
	return req, nil
}

// GetByUser returns a user's withdrawal requests, most recent first
func (r *WithdrawalRepository) GetByUser(ctx context.Context, telegramID int64) ([]*models.WithdrawalRequest, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM withdrawal_requests
		WHERE telegram_id = $1
		ORDER BY created_at DESC
	`, withdrawalColumns)

	rows, err := r.q.Query(ctx, query, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to query withdrawals for user %d: %w", telegramID, err)
	}
	defer rows.Close()

	return collectWithdrawals(rows)
}

// GetPending returns all requests awaiting review, oldest first
func (r *WithdrawalRepository) GetPending(ctx context.Context) ([]*models.WithdrawalRequest, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM withdrawal_requests
		WHERE status = $1
		ORDER BY created_at ASC
	`, withdrawalColumns)

	rows, err := r.q.Query(ctx, query, models.WithdrawalStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending withdrawals: %w", err)
	}
	defer rows.Close()

	return collectWithdrawals(rows)
}

// UpdateStatus resolves a pending request. The status guard makes resolution
// idempotent: a second approve or reject finds no pending row.
func (r *WithdrawalRepository) UpdateStatus(ctx context.Context, id int64, status models.WithdrawalStatus, note string) error {
	query := `
		UPDATE withdrawal_requests
		SET status = $1, admin_note = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4
	`

	result, err := r.q.Exec(ctx, query, status, note, id, models.WithdrawalStatusPending)
	if err != nil {
		return fmt.Errorf("failed to update withdrawal request %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("resolve withdrawal request %d: no pending record: %w", id, service.ErrNotFound)
	}
	return nil
}

func scanWithdrawal(row pgx.Row) (*models.WithdrawalRequest, error) {
	var req models.WithdrawalRequest
	err := row.Scan(
		&req.ID, &req.TelegramID, &req.Amount, &req.WalletAddress,
		&req.Status, &req.AdminNote, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func collectWithdrawals(rows pgx.Rows) ([]*models.WithdrawalRequest, error) {
	var requests []*models.WithdrawalRequest
	for rows.Next() {
		req, err := scanWithdrawal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan withdrawal request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate withdrawal requests: %w", err)
	}
	return requests, nil
}
