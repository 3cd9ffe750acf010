package service

import (
	"context"
	"testing"

	"rollhouse/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestWithdrawalService_CreateRequest_HoldsAmount(t *testing.T) {
	ctx := context.Background()

	ledger := newFakeLedger(map[int64]int64{1: 200_000})

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockWithdrawalRepo := new(MockWithdrawalRepository)
	mockUoW.SetRepositories(nil, nil, nil, nil, mockWithdrawalRepo)
	ledger.uow = mockUoW

	mockWithdrawalRepo.On("Create", mock.Anything, mock.MatchedBy(func(req *models.WithdrawalRequest) bool {
		return req.TelegramID == 1 &&
			req.Amount == 150_000 &&
			req.Status == models.WithdrawalStatusPending
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.WithdrawalRequest).ID = 7
	}).Return(nil)

	svc := NewWithdrawalService(mockFactory, ledger)

	req, err := svc.CreateRequest(ctx, 1, 150_000, "UQabc123")
	require.NoError(t, err)

	assert.Equal(t, int64(7), req.ID)
	// The requested amount is debited the moment the request exists
	assert.Equal(t, int64(50_000), ledger.balance(1))

	mockWithdrawalRepo.AssertExpectations(t)
}

func TestWithdrawalService_CreateRequest_BelowMinimum(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger(map[int64]int64{1: 200_000})
	svc := NewWithdrawalService(new(MockUnitOfWorkFactory), ledger)

	// Minimum is 10 TON
	_, err := svc.CreateRequest(ctx, 1, 50_000, "UQabc123")

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, int64(200_000), ledger.balance(1))
}

func TestWithdrawalService_CreateRequest_MissingWallet(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger(map[int64]int64{1: 200_000})
	svc := NewWithdrawalService(new(MockUnitOfWorkFactory), ledger)

	_, err := svc.CreateRequest(ctx, 1, 150_000, "")

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestWithdrawalService_CreateRequest_InsufficientFunds(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger(map[int64]int64{1: 50_000})
	svc := NewWithdrawalService(new(MockUnitOfWorkFactory), ledger)

	_, err := svc.CreateRequest(ctx, 1, 150_000, "UQabc123")
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, int64(50_000), ledger.balance(1))
}

func TestWithdrawalService_Resolve_RejectRefunds(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockSettlementRepo := new(MockSettlementRepository)
	mockWithdrawalRepo := new(MockWithdrawalRepository)
	mockUoW.SetRepositories(mockUserRepo, mockSettlementRepo, nil, nil, mockWithdrawalRepo)

	svc := NewWithdrawalService(mockFactory, newFakeLedger(nil))

	pending := &models.WithdrawalRequest{
		ID:         7,
		TelegramID: 1,
		Amount:     150_000,
		Status:     models.WithdrawalStatusPending,
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockWithdrawalRepo.On("GetByID", ctx, int64(7)).Return(pending, nil)
	mockWithdrawalRepo.On("UpdateStatus", ctx, int64(7), models.WithdrawalStatusRejected, "suspicious").Return(nil)
	mockUserRepo.On("AddBalance", ctx, int64(1), int64(150_000)).Return(int64(200_000), nil)
	mockSettlementRepo.On("Record", ctx, mock.MatchedBy(func(s *models.Settlement) bool {
		return s.Payout == 150_000 && s.GameType == models.GameTypeWithdrawal &&
			s.BalanceBefore == 50_000 && s.BalanceAfter == 200_000
	})).Return(nil)

	err := svc.Resolve(ctx, 7, false, "suspicious")
	assert.NoError(t, err)

	mockUserRepo.AssertExpectations(t)
	mockSettlementRepo.AssertExpectations(t)
}

func TestWithdrawalService_Resolve_ApproveDoesNotRefund(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockWithdrawalRepo := new(MockWithdrawalRepository)
	mockUoW.SetRepositories(mockUserRepo, nil, nil, nil, mockWithdrawalRepo)

	svc := NewWithdrawalService(mockFactory, newFakeLedger(nil))

	pending := &models.WithdrawalRequest{ID: 7, TelegramID: 1, Amount: 150_000, Status: models.WithdrawalStatusPending}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockWithdrawalRepo.On("GetByID", ctx, int64(7)).Return(pending, nil)
	mockWithdrawalRepo.On("UpdateStatus", ctx, int64(7), models.WithdrawalStatusApproved, "sent").Return(nil)

	err := svc.Resolve(ctx, 7, true, "sent")
	assert.NoError(t, err)

	mockUserRepo.AssertNotCalled(t, "AddBalance")
}

func TestWithdrawalService_Resolve_UnknownRequest(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockWithdrawalRepo := new(MockWithdrawalRepository)
	mockUoW.SetRepositories(nil, nil, nil, nil, mockWithdrawalRepo)

	svc := NewWithdrawalService(mockFactory, newFakeLedger(nil))

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockWithdrawalRepo.On("GetByID", ctx, int64(99)).Return(nil, nil)

	err := svc.Resolve(ctx, 99, true, "")
	assert.ErrorIs(t, err, ErrNotFound)
}
