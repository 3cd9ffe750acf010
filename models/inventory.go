package models

import "time"

// InventoryItem is a collectible reward owned by a user until sold or withdrawn
type InventoryItem struct {
	ID         int64     `db:"id"`
	TelegramID int64     `db:"telegram_id"`
	GiftName   string    `db:"gift_name"`
	GiftImage  string    `db:"gift_image"`
	SellPrice  int64     `db:"sell_price"`
	ObtainedAt time.Time `db:"obtained_at"`
}
