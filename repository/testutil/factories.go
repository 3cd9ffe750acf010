package testutil

import (
	"time"

	"rollhouse/models"
)

// CreateTestUser creates a test user with default values
func CreateTestUser(telegramID int64, username string) *models.User {
	now := time.Now()
	return &models.User{
		TelegramID: telegramID,
		FirstName:  "Test",
		Username:   username,
		Balance:    100 * models.MinorUnitsPerTON,
		RefPercent: 10.0,
		CreatedAt:  now,
		LastOnline: now,
	}
}

// CreateTestUserWithBalance creates a test user with a specific balance
func CreateTestUserWithBalance(telegramID int64, username string, balance int64) *models.User {
	user := CreateTestUser(telegramID, username)
	user.Balance = balance
	return user
}

// CreateTestSettlement creates a test settlement entry
func CreateTestSettlement(telegramID int64, gameType models.GameType) *models.Settlement {
	return &models.Settlement{
		TelegramID:    telegramID,
		GameType:      gameType,
		Stake:         10 * models.MinorUnitsPerTON,
		Payout:        20 * models.MinorUnitsPerTON,
		NetResult:     10 * models.MinorUnitsPerTON,
		BalanceBefore: 100 * models.MinorUnitsPerTON,
		BalanceAfter:  110 * models.MinorUnitsPerTON,
		Metadata: map[string]any{
			"test": true,
		},
		CreatedAt: time.Now(),
	}
}

// CreateTestSettlementWithAmounts creates a test settlement with specific amounts
func CreateTestSettlementWithAmounts(telegramID int64, stake, payout, before, after int64, gameType models.GameType) *models.Settlement {
	s := CreateTestSettlement(telegramID, gameType)
	s.Stake = stake
	s.Payout = payout
	s.NetResult = payout - stake
	s.BalanceBefore = before
	s.BalanceAfter = after
	return s
}

// CreateTestInventoryItem creates a test collectible item
func CreateTestInventoryItem(telegramID int64, name string, sellPrice int64) *models.InventoryItem {
	return &models.InventoryItem{
		TelegramID: telegramID,
		GiftName:   name,
		GiftImage:  "items/" + name + ".png",
		SellPrice:  sellPrice,
		ObtainedAt: time.Now(),
	}
}
