package service

import (
	"context"
	"testing"
	"time"

	"rollhouse/games"
	"rollhouse/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// caseFixture wires the case service with a fake ledger and a mocked user
// read path.
func caseFixture(t *testing.T, user *models.User, balance int64, src func() float64) (CaseService, *fakeLedger, *MockInventoryRepository, *MockUserRepository) {
	t.Helper()

	ledger := newFakeLedger(map[int64]int64{user.TelegramID: balance})

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockInventoryRepo := new(MockInventoryRepository)
	mockUoW.SetRepositories(mockUserRepo, nil, mockInventoryRepo, nil, nil)

	ledger.uow = mockUoW

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", mock.Anything).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockUserRepo.On("GetByTelegramID", mock.Anything, user.TelegramID).Return(user, nil)

	svc := NewCaseService(mockFactory, ledger, games.NewSamplerWithSource(src))
	return svc, ledger, mockInventoryRepo, mockUserRepo
}

func TestCaseService_OpenRegularCase_TONReward(t *testing.T) {
	ctx := context.Background()
	user := &models.User{TelegramID: 1, TotalDeposited: 60_000}
	// Roll 50 lands on the 1 TON entry (cumulative 5.36 + 79.0 = 84.36)
	svc, ledger, mockInventoryRepo, _ := caseFixture(t, user, 100_000, func() float64 { return 0.50 })

	result, err := svc.OpenCase(ctx, 1, games.CaseRegular)
	require.NoError(t, err)

	assert.Equal(t, "1 TON", result.Reward.Name)
	assert.Equal(t, games.RewardTON, result.Reward.Kind)
	assert.Nil(t, result.InventoryItemID)

	// 100_000 - 50_000 cost + 10_000 reward
	assert.Equal(t, int64(60_000), result.NewBalance)
	assert.Equal(t, int64(60_000), ledger.balance(1))

	mockInventoryRepo.AssertNotCalled(t, "Add")
}

func TestCaseService_OpenRegularCase_NFTGoesToInventory(t *testing.T) {
	ctx := context.Background()
	user := &models.User{TelegramID: 1, TotalDeposited: 60_000}
	// Roll 2 lands on Jolly Chimp (cumulative 5.36)
	svc, ledger, mockInventoryRepo, _ := caseFixture(t, user, 100_000, func() float64 { return 0.02 })

	mockInventoryRepo.On("Add", mock.Anything, mock.MatchedBy(func(item *models.InventoryItem) bool {
		return item.TelegramID == 1 && item.GiftName == "Jolly Chimp" && item.SellPrice == 5_000
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.InventoryItem).ID = 42
	}).Return(nil)

	result, err := svc.OpenCase(ctx, 1, games.CaseRegular)
	require.NoError(t, err)

	assert.Equal(t, "Jolly Chimp", result.Reward.Name)
	assert.Equal(t, games.RewardNFT, result.Reward.Kind)
	require.NotNil(t, result.InventoryItemID)
	assert.Equal(t, int64(42), *result.InventoryItemID)

	// NFT pulls only pay the case cost
	assert.Equal(t, int64(50_000), ledger.balance(1))

	mockInventoryRepo.AssertExpectations(t)
}

func TestCaseService_OpenCase_DepositGate(t *testing.T) {
	ctx := context.Background()
	user := &models.User{TelegramID: 1, TotalDeposited: 10_000} // 1 TON, below the 5 TON gate
	svc, ledger, _, _ := caseFixture(t, user, 100_000, func() float64 { return 0.5 })

	_, err := svc.OpenCase(ctx, 1, games.CaseRegular)

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, int64(100_000), ledger.balance(1))
}

func TestCaseService_OpenCase_InsufficientFunds(t *testing.T) {
	ctx := context.Background()
	user := &models.User{TelegramID: 1, TotalDeposited: 60_000}
	svc, ledger, _, _ := caseFixture(t, user, 1_000, func() float64 { return 0.5 })

	_, err := svc.OpenCase(ctx, 1, games.CaseSnoop)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, int64(1_000), ledger.balance(1))
}

func TestCaseService_FreeCase_CooldownEnforced(t *testing.T) {
	ctx := context.Background()
	recent := time.Now().Add(-2 * time.Hour)
	user := &models.User{TelegramID: 1, FreeCaseLast: &recent}
	svc, ledger, _, _ := caseFixture(t, user, 0, func() float64 { return 0.5 })

	_, err := svc.OpenCase(ctx, 1, games.CaseFree)
	require.Error(t, err)

	var cooldown *CooldownError
	require.ErrorAs(t, err, &cooldown)
	assert.Greater(t, cooldown.Remaining, 21*time.Hour)
	assert.Equal(t, int64(0), ledger.balance(1))
}

func TestCaseService_FreeCase_OpensAfterCooldown(t *testing.T) {
	ctx := context.Background()
	old := time.Now().Add(-25 * time.Hour)
	user := &models.User{TelegramID: 1, FreeCaseLast: &old}
	svc, ledger, _, mockUserRepo := caseFixture(t, user, 0, func() float64 { return 0.5 })

	mockUserRepo.On("ClaimFreeCase", mock.Anything, int64(1), mock.Anything, freeCaseCooldown).Return(nil)

	result, err := svc.OpenCase(ctx, 1, games.CaseFree)
	require.NoError(t, err)

	// The free case costs nothing and always pays 0.05 TON
	assert.Equal(t, "0.05 TON", result.Reward.Name)
	assert.Equal(t, int64(500), result.NewBalance)
	assert.Equal(t, int64(500), ledger.balance(1))

	mockUserRepo.AssertCalled(t, "ClaimFreeCase", mock.Anything, int64(1), mock.Anything, freeCaseCooldown)
}

func TestCaseService_FreeCase_LosingConcurrentClaimIsCooldown(t *testing.T) {
	ctx := context.Background()
	old := time.Now().Add(-25 * time.Hour)
	user := &models.User{TelegramID: 1, FreeCaseLast: &old}
	svc, ledger, _, mockUserRepo := caseFixture(t, user, 0, func() float64 { return 0.5 })

	// The pre-read saw an expired stamp, but another open claimed it
	// before our settlement transaction ran the guarded update.
	mockUserRepo.On("ClaimFreeCase", mock.Anything, int64(1), mock.Anything, freeCaseCooldown).
		Return(ErrFreeCaseClaimed)

	_, err := svc.OpenCase(ctx, 1, games.CaseFree)
	require.Error(t, err)

	var cooldown *CooldownError
	require.ErrorAs(t, err, &cooldown)
	assert.Equal(t, int64(0), ledger.balance(1))
}

func TestCaseService_FreeCase_FirstOpenNeedsNoDeposit(t *testing.T) {
	ctx := context.Background()
	user := &models.User{TelegramID: 1} // never deposited, never opened
	svc, _, _, mockUserRepo := caseFixture(t, user, 0, func() float64 { return 0.5 })

	mockUserRepo.On("ClaimFreeCase", mock.Anything, int64(1), mock.Anything, freeCaseCooldown).Return(nil)

	result, err := svc.OpenCase(ctx, 1, games.CaseFree)
	require.NoError(t, err)
	assert.Equal(t, games.RewardTON, result.Reward.Kind)
}

func TestCaseService_OpenCase_UnknownType(t *testing.T) {
	ctx := context.Background()
	user := &models.User{TelegramID: 1, TotalDeposited: 60_000}
	svc, _, _, _ := caseFixture(t, user, 100_000, func() float64 { return 0.5 })

	_, err := svc.OpenCase(ctx, 1, games.CaseType("mystery"))

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestCaseService_GetFreeCaseStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("never opened", func(t *testing.T) {
		user := &models.User{TelegramID: 1}
		svc, _, _, _ := caseFixture(t, user, 0, func() float64 { return 0.5 })

		status, err := svc.GetFreeCaseStatus(ctx, 1)
		require.NoError(t, err)
		assert.True(t, status.Available)
		assert.Zero(t, status.RemainingSeconds)
	})

	t.Run("on cooldown", func(t *testing.T) {
		recent := time.Now().Add(-1 * time.Hour)
		user := &models.User{TelegramID: 1, FreeCaseLast: &recent}
		svc, _, _, _ := caseFixture(t, user, 0, func() float64 { return 0.5 })

		status, err := svc.GetFreeCaseStatus(ctx, 1)
		require.NoError(t, err)
		assert.False(t, status.Available)
		assert.InDelta(t, (23 * time.Hour).Seconds(), float64(status.RemainingSeconds), 5)
	})

	t.Run("cooldown elapsed", func(t *testing.T) {
		old := time.Now().Add(-30 * time.Hour)
		user := &models.User{TelegramID: 1, FreeCaseLast: &old}
		svc, _, _, _ := caseFixture(t, user, 0, func() float64 { return 0.5 })

		status, err := svc.GetFreeCaseStatus(ctx, 1)
		require.NoError(t, err)
		assert.True(t, status.Available)
	})
}

func TestCaseService_CheckAccess(t *testing.T) {
	ctx := context.Background()

	t.Run("unlocked at the gate", func(t *testing.T) {
		user := &models.User{TelegramID: 1, TotalDeposited: 50_000}
		svc, _, _, _ := caseFixture(t, user, 0, func() float64 { return 0.5 })

		ok, err := svc.CheckAccess(ctx, 1)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("locked below the gate", func(t *testing.T) {
		user := &models.User{TelegramID: 1, TotalDeposited: 49_999}
		svc, _, _, _ := caseFixture(t, user, 0, func() float64 { return 0.5 })

		ok, err := svc.CheckAccess(ctx, 1)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
