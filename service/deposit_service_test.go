package service

import (
	"context"
	"strings"
	"testing"

	"rollhouse/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func depositFixture(t *testing.T, balance int64) (DepositService, *fakeLedger, *MockDepositRepository, *MockUserRepository) {
	t.Helper()

	ledger := newFakeLedger(map[int64]int64{1: balance})

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockDepositRepo := new(MockDepositRepository)
	mockUoW.SetRepositories(mockUserRepo, nil, nil, mockDepositRepo, nil)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", mock.Anything).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	svc := NewDepositService(mockFactory, ledger)
	return svc, ledger, mockDepositRepo, mockUserRepo
}

func TestDepositService_DepositStars_Conversion(t *testing.T) {
	ctx := context.Background()
	svc, ledger, mockDepositRepo, _ := depositFixture(t, 0)

	mockDepositRepo.On("Create", mock.Anything, mock.MatchedBy(func(rec *models.DepositRecord) bool {
		return rec.Method == models.DepositMethodStars &&
			rec.Status == models.DepositStatusCompleted &&
			rec.Amount == 10_990
	})).Return(nil)

	// 100 stars buy 1.099 TON
	credited, newBalance, err := svc.DepositStars(ctx, 1, 100)
	require.NoError(t, err)

	assert.Equal(t, int64(10_990), credited)
	assert.Equal(t, int64(10_990), newBalance)
	assert.Equal(t, int64(10_990), ledger.balance(1))
}

func TestDepositService_DepositStars_SmallAmounts(t *testing.T) {
	ctx := context.Background()
	svc, _, mockDepositRepo, _ := depositFixture(t, 0)

	mockDepositRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	// 1 star is 109.9 minor units, truncated to whole units
	credited, _, err := svc.DepositStars(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(109), credited)

	_, _, err = svc.DepositStars(ctx, 1, 0)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestDepositService_InitiateTON_CreatesPendingWithMemo(t *testing.T) {
	ctx := context.Background()
	svc, _, mockDepositRepo, mockUserRepo := depositFixture(t, 0)

	mockUserRepo.On("GetByTelegramID", mock.Anything, int64(1)).Return(&models.User{TelegramID: 1}, nil)
	mockDepositRepo.On("Create", mock.Anything, mock.MatchedBy(func(rec *models.DepositRecord) bool {
		return rec.Method == models.DepositMethodTON &&
			rec.Status == models.DepositStatusPending &&
			strings.HasPrefix(rec.Memo, "DEP-1-")
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.DepositRecord).ID = 33
	}).Return(nil)

	invoice, err := svc.InitiateTON(ctx, 1, 50_000)
	require.NoError(t, err)

	assert.Equal(t, int64(33), invoice.DepositID)
	assert.Equal(t, int64(50_000), invoice.Amount)
	assert.True(t, strings.HasPrefix(invoice.Memo, "DEP-1-"))
}

func TestDepositService_ConfirmDeposit_CreditsOnce(t *testing.T) {
	ctx := context.Background()
	svc, ledger, mockDepositRepo, _ := depositFixture(t, 0)

	pending := &models.DepositRecord{
		ID:         33,
		TelegramID: 1,
		Amount:     50_000,
		Method:     models.DepositMethodTON,
		Status:     models.DepositStatusPending,
	}

	mockDepositRepo.On("GetByID", mock.Anything, int64(33)).Return(pending, nil)
	mockDepositRepo.On("MarkCompleted", mock.Anything, int64(33)).Return(nil)

	newBalance, err := svc.ConfirmDeposit(ctx, 33)
	require.NoError(t, err)

	assert.Equal(t, int64(50_000), newBalance)
	assert.Equal(t, int64(50_000), ledger.balance(1))
}

func TestDepositService_ConfirmDeposit_UnknownRecord(t *testing.T) {
	ctx := context.Background()
	svc, _, mockDepositRepo, _ := depositFixture(t, 0)

	mockDepositRepo.On("GetByID", mock.Anything, int64(99)).Return(nil, nil)

	_, err := svc.ConfirmDeposit(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDepositService_ConfirmDeposit_DoubleConfirmFails(t *testing.T) {
	ctx := context.Background()
	svc, ledger, mockDepositRepo, _ := depositFixture(t, 0)

	completed := &models.DepositRecord{
		ID:         33,
		TelegramID: 1,
		Amount:     50_000,
		Method:     models.DepositMethodTON,
		Status:     models.DepositStatusCompleted,
	}

	mockDepositRepo.On("GetByID", mock.Anything, int64(33)).Return(completed, nil)
	// The status guard rejects a second completion
	mockDepositRepo.On("MarkCompleted", mock.Anything, int64(33)).
		Return(ErrNotFound)

	_, err := svc.ConfirmDeposit(ctx, 33)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int64(0), ledger.balance(1))
}
