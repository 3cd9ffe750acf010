package repository

import (
	"context"
	"fmt"

	"rollhouse/database"
	"rollhouse/models"
	"rollhouse/service"
	"github.com/jackc/pgx/v5"
)

// DepositRepository implements the service.DepositRepository interface
type DepositRepository struct {
	q queryable
}

// NewDepositRepository creates a new deposit repository
func NewDepositRepository(db *database.DB) *DepositRepository {
	return &DepositRepository{q: db.Pool}
}

// newDepositRepositoryWithTx creates a new deposit repository with a transaction
func newDepositRepositoryWithTx(tx queryable) *DepositRepository {
	return &DepositRepository{q: tx}
}

// Create inserts a deposit record, filling ID and CreatedAt
func (r *DepositRepository) Create(ctx context.Context, rec *models.DepositRecord) error {
	query := `
		INSERT INTO deposits (telegram_id, amount, method, status, memo)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		rec.TelegramID, rec.Amount, rec.Method, rec.Status, rec.Memo,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create deposit for user %d: %w", rec.TelegramID, err)
	}
	return nil
}

// GetByID retrieves one deposit record, nil if absent
func (r *DepositRepository) GetByID(ctx context.Context, id int64) (*models.DepositRecord, error) {
	query := `
		SELECT id, telegram_id, amount, method, status, memo, created_at
		FROM deposits
		WHERE id = $1
	`

	var rec models.DepositRecord
	err := r.q.QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.TelegramID, &rec.Amount, &rec.Method, &rec.Status, &rec.Memo, &rec.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deposit %d: %w", id, err)
	}
	return &rec, nil
}

// MarkCompleted transitions a pending deposit to completed. The status guard
// makes confirmation idempotent: a second confirm finds no pending row.
func (r *DepositRepository) MarkCompleted(ctx context.Context, id int64) error {
	query := `
		UPDATE deposits
		SET status = $1
		WHERE id = $2 AND status = $3
	`

	result, err := r.q.Exec(ctx, query, models.DepositStatusCompleted, id, models.DepositStatusPending)
	if err != nil {
		return fmt.Errorf("failed to complete deposit %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("complete deposit %d: no pending record: %w", id, service.ErrNotFound)
	}
	return nil
}
