package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"rollhouse/database"
	"rollhouse/models"
	"github.com/jackc/pgx/v5"
)

// SettlementRepository implements the service.SettlementRepository interface
type SettlementRepository struct {
	q queryable
}

// NewSettlementRepository creates a new settlement repository
func NewSettlementRepository(db *database.DB) *SettlementRepository {
	return &SettlementRepository{q: db.Pool}
}

// newSettlementRepositoryWithTx creates a new settlement repository with a transaction
func newSettlementRepositoryWithTx(tx queryable) *SettlementRepository {
	return &SettlementRepository{q: tx}
}

// Record appends one settlement. Settlements are append-only; there is no
// update or delete path.
func (r *SettlementRepository) Record(ctx context.Context, s *models.Settlement) error {
	metadataJSON, err := json.Marshal(s.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal settlement metadata: %w", err)
	}

	query := `
		INSERT INTO settlements (telegram_id, game_type, stake, payout, net_result,
			balance_before, balance_after, multiplier, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query,
		s.TelegramID, s.GameType, s.Stake, s.Payout, s.NetResult,
		s.BalanceBefore, s.BalanceAfter, s.Multiplier, metadataJSON,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record settlement for user %d: %w", s.TelegramID, err)
	}
	return nil
}

func scanSettlement(rows pgx.Rows) (*models.Settlement, error) {
	var s models.Settlement
	var metadataJSON []byte
	err := rows.Scan(
		&s.ID,
		&s.TelegramID,
		&s.GameType,
		&s.Stake,
		&s.Payout,
		&s.NetResult,
		&s.BalanceBefore,
		&s.BalanceAfter,
		&s.Multiplier,
		&metadataJSON,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &s.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal settlement metadata: %w", err)
		}
	}
	return &s, nil
}

const settlementColumns = `id, telegram_id, game_type, stake, payout, net_result,
		balance_before, balance_after, multiplier, metadata, created_at`

// GetByUser returns the most recent settlements for a user
func (r *SettlementRepository) GetByUser(ctx context.Context, telegramID int64, limit int) ([]*models.Settlement, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM settlements
		WHERE telegram_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, settlementColumns)

	rows, err := r.q.Query(ctx, query, telegramID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get settlements for user %d: %w", telegramID, err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		s, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}
	return settlements, nil
}

// GetLastByUser returns the single most recent settlement, nil if none
func (r *SettlementRepository) GetLastByUser(ctx context.Context, telegramID int64) (*models.Settlement, error) {
	settlements, err := r.GetByUser(ctx, telegramID, 1)
	if err != nil {
		return nil, err
	}
	if len(settlements) == 0 {
		return nil, nil
	}
	return settlements[0], nil
}
