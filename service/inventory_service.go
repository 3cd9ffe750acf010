package service

import (
	"context"
	"fmt"

	"rollhouse/models"

	log "github.com/sirupsen/logrus"
)

type inventoryService struct {
	uowFactory UnitOfWorkFactory
	ledger     Ledger
	notifier   Notifier
}

// NewInventoryService creates the collectible inventory service. Item
// withdrawals are fulfilled out-of-band, so the notifier tells the operator.
func NewInventoryService(uowFactory UnitOfWorkFactory, ledger Ledger, notifier Notifier) InventoryService {
	return &inventoryService{
		uowFactory: uowFactory,
		ledger:     ledger,
		notifier:   notifier,
	}
}

func (s *inventoryService) ListItems(ctx context.Context, telegramID int64) ([]*models.InventoryItem, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	items, err := uow.InventoryRepository().GetByUser(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	return items, nil
}

func (s *inventoryService) SellItem(ctx context.Context, telegramID int64, itemID int64) (int64, int64, error) {
	item, err := s.getOwnedItem(ctx, telegramID, itemID)
	if err != nil {
		return 0, 0, err
	}

	// Removal rides in the settlement transaction, so the item cannot be
	// sold twice or sold without the credit landing
	settlement, err := s.ledger.Settle(ctx, SettleRequest{
		TelegramID: telegramID,
		Stake:      0,
		Payout:     item.SellPrice,
		GameType:   models.GameTypeInventorySale,
		Metadata: map[string]any{
			"item_id": item.ID,
			"item":    item.GiftName,
		},
		Post: func(ctx context.Context, uow UnitOfWork) error {
			return uow.InventoryRepository().Remove(ctx, item.ID)
		},
	})
	if err != nil {
		return 0, 0, err
	}

	log.WithFields(log.Fields{
		"user":    telegramID,
		"item":    item.GiftName,
		"price":   models.FormatTON(item.SellPrice),
		"balance": models.FormatTON(settlement.BalanceAfter),
	}).Info("Inventory item sold")

	return item.SellPrice, settlement.BalanceAfter, nil
}

func (s *inventoryService) WithdrawItem(ctx context.Context, telegramID int64, itemID int64) (string, error) {
	item, err := s.getOwnedItem(ctx, telegramID, itemID)
	if err != nil {
		return "", err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.InventoryRepository().Remove(ctx, item.ID); err != nil {
		return "", fmt.Errorf("failed to remove inventory item: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"user": telegramID,
		"item": item.GiftName,
	}).Info("Inventory item withdrawal requested")

	s.notifier.NotifyAdmin(fmt.Sprintf("Gift withdrawal: user %d wants %s delivered", telegramID, item.GiftName))

	return fmt.Sprintf("Withdrawal of %s requested. Our team will deliver the gift to your account shortly.", item.GiftName), nil
}

// getOwnedItem loads an item and verifies ownership. A foreign item reads the
// same as a missing one, so item IDs cannot be probed.
func (s *inventoryService) getOwnedItem(ctx context.Context, telegramID int64, itemID int64) (*models.InventoryItem, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	item, err := uow.InventoryRepository().GetByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory item: %w", err)
	}
	if item == nil || item.TelegramID != telegramID {
		return nil, fmt.Errorf("inventory item %d: %w", itemID, ErrNotFound)
	}
	return item, nil
}
