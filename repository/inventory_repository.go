package repository

import (
	"context"
	"fmt"

	"rollhouse/database"
	"rollhouse/models"
	"rollhouse/service"
	"github.com/jackc/pgx/v5"
)

// InventoryRepository implements the service.InventoryRepository interface
type InventoryRepository struct {
	q queryable
}

// NewInventoryRepository creates a new inventory repository
func NewInventoryRepository(db *database.DB) *InventoryRepository {
	return &InventoryRepository{q: db.Pool}
}

// newInventoryRepositoryWithTx creates a new inventory repository with a transaction
func newInventoryRepositoryWithTx(tx queryable) *InventoryRepository {
	return &InventoryRepository{q: tx}
}

// Add inserts a new item, filling ID and ObtainedAt
func (r *InventoryRepository) Add(ctx context.Context, item *models.InventoryItem) error {
	query := `
		INSERT INTO inventory_items (telegram_id, gift_name, gift_image, sell_price)
		VALUES ($1, $2, $3, $4)
		RETURNING id, obtained_at
	`

	err := r.q.QueryRow(ctx, query,
		item.TelegramID, item.GiftName, item.GiftImage, item.SellPrice,
	).Scan(&item.ID, &item.ObtainedAt)
	if err != nil {
		return fmt.Errorf("failed to add inventory item for user %d: %w", item.TelegramID, err)
	}
	return nil
}

// GetByUser returns a user's items, most recent first
func (r *InventoryRepository) GetByUser(ctx context.Context, telegramID int64) ([]*models.InventoryItem, error) {
	query := `
		SELECT id, telegram_id, gift_name, gift_image, sell_price, obtained_at
		FROM inventory_items
		WHERE telegram_id = $1
		ORDER BY obtained_at DESC
	`

	rows, err := r.q.Query(ctx, query, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory for user %d: %w", telegramID, err)
	}
	defer rows.Close()

	var items []*models.InventoryItem
	for rows.Next() {
		var item models.InventoryItem
		if err := rows.Scan(&item.ID, &item.TelegramID, &item.GiftName, &item.GiftImage, &item.SellPrice, &item.ObtainedAt); err != nil {
			return nil, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate inventory: %w", err)
	}
	return items, nil
}

// GetByID retrieves one item, nil if absent
func (r *InventoryRepository) GetByID(ctx context.Context, id int64) (*models.InventoryItem, error) {
	query := `
		SELECT id, telegram_id, gift_name, gift_image, sell_price, obtained_at
		FROM inventory_items
		WHERE id = $1
	`

	var item models.InventoryItem
	err := r.q.QueryRow(ctx, query, id).Scan(
		&item.ID, &item.TelegramID, &item.GiftName, &item.GiftImage, &item.SellPrice, &item.ObtainedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory item %d: %w", id, err)
	}
	return &item, nil
}

// Remove deletes an item (sold or withdrawn)
func (r *InventoryRepository) Remove(ctx context.Context, id int64) error {
	result, err := r.q.Exec(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to remove inventory item %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("remove inventory item %d: %w", id, service.ErrNotFound)
	}
	return nil
}
