package service

import (
	"context"
	"time"

	"rollhouse/events"
	"rollhouse/models"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, telegramID int64, profile models.UserProfile) (*models.User, error) {
	args := m.Called(ctx, telegramID, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, telegramID int64, profile models.UserProfile) error {
	args := m.Called(ctx, telegramID, profile)
	return args.Error(0)
}

func (m *MockUserRepository) SetReferrer(ctx context.Context, telegramID, refID int64) error {
	args := m.Called(ctx, telegramID, refID)
	return args.Error(0)
}

func (m *MockUserRepository) AddBalance(ctx context.Context, telegramID int64, amount int64) (int64, error) {
	args := m.Called(ctx, telegramID, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) DeductBalance(ctx context.Context, telegramID int64, amount int64) (int64, error) {
	args := m.Called(ctx, telegramID, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) SetBalance(ctx context.Context, telegramID int64, newBalance int64) error {
	args := m.Called(ctx, telegramID, newBalance)
	return args.Error(0)
}

func (m *MockUserRepository) CreditDeposit(ctx context.Context, telegramID int64, amount int64) (int64, error) {
	args := m.Called(ctx, telegramID, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) IncrementGamesPlayed(ctx context.Context, telegramID int64) error {
	args := m.Called(ctx, telegramID)
	return args.Error(0)
}

func (m *MockUserRepository) AddRefBalance(ctx context.Context, telegramID int64, amount int64) error {
	args := m.Called(ctx, telegramID, amount)
	return args.Error(0)
}

func (m *MockUserRepository) ClaimRefBalance(ctx context.Context, telegramID int64) (int64, error) {
	args := m.Called(ctx, telegramID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) ClaimFreeCase(ctx context.Context, telegramID int64, at time.Time, cooldown time.Duration) error {
	args := m.Called(ctx, telegramID, at, cooldown)
	return args.Error(0)
}

func (m *MockUserRepository) SetRefPercent(ctx context.Context, telegramID int64, percent float64) error {
	args := m.Called(ctx, telegramID, percent)
	return args.Error(0)
}

func (m *MockUserRepository) GetReferrals(ctx context.Context, telegramID int64) ([]*models.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserRepository) TopByDeposited(ctx context.Context, limit int) ([]*models.User, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserRepository) PlatformStats(ctx context.Context) (*models.PlatformStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlatformStats), args.Error(1)
}

// MockSettlementRepository is a mock implementation of SettlementRepository
type MockSettlementRepository struct {
	mock.Mock
}

func (m *MockSettlementRepository) Record(ctx context.Context, s *models.Settlement) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSettlementRepository) GetByUser(ctx context.Context, telegramID int64, limit int) ([]*models.Settlement, error) {
	args := m.Called(ctx, telegramID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Settlement), args.Error(1)
}

func (m *MockSettlementRepository) GetLastByUser(ctx context.Context, telegramID int64) (*models.Settlement, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Settlement), args.Error(1)
}

// MockInventoryRepository is a mock implementation of InventoryRepository
type MockInventoryRepository struct {
	mock.Mock
}

func (m *MockInventoryRepository) Add(ctx context.Context, item *models.InventoryItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockInventoryRepository) GetByUser(ctx context.Context, telegramID int64) ([]*models.InventoryItem, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.InventoryItem), args.Error(1)
}

func (m *MockInventoryRepository) GetByID(ctx context.Context, id int64) (*models.InventoryItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InventoryItem), args.Error(1)
}

func (m *MockInventoryRepository) Remove(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockDepositRepository is a mock implementation of DepositRepository
type MockDepositRepository struct {
	mock.Mock
}

func (m *MockDepositRepository) Create(ctx context.Context, rec *models.DepositRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockDepositRepository) GetByID(ctx context.Context, id int64) (*models.DepositRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DepositRecord), args.Error(1)
}

func (m *MockDepositRepository) MarkCompleted(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockWithdrawalRepository is a mock implementation of WithdrawalRepository
type MockWithdrawalRepository struct {
	mock.Mock
}

func (m *MockWithdrawalRepository) Create(ctx context.Context, req *models.WithdrawalRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockWithdrawalRepository) GetByID(ctx context.Context, id int64) (*models.WithdrawalRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WithdrawalRequest), args.Error(1)
}

func (m *MockWithdrawalRepository) GetByUser(ctx context.Context, telegramID int64) ([]*models.WithdrawalRequest, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WithdrawalRequest), args.Error(1)
}

func (m *MockWithdrawalRepository) GetPending(ctx context.Context) ([]*models.WithdrawalRequest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WithdrawalRequest), args.Error(1)
}

func (m *MockWithdrawalRepository) UpdateStatus(ctx context.Context, id int64, status models.WithdrawalStatus, note string) error {
	args := m.Called(ctx, id, status, note)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockNotifier is a mock implementation of Notifier for testing
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyUser(telegramID int64, text string) {
	m.Called(telegramID, text)
}

func (m *MockNotifier) NotifyAdmin(text string) {
	m.Called(text)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repository getters
// return the instances set with SetRepositories rather than going through the
// expectation machinery.
type MockUnitOfWork struct {
	mock.Mock

	userRepo       UserRepository
	settlementRepo SettlementRepository
	inventoryRepo  InventoryRepository
	depositRepo    DepositRepository
	withdrawalRepo WithdrawalRepository
	eventBus       EventPublisher
}

// SetRepositories configures which repository mocks the getters return.
// Nil entries are replaced with fresh mocks so tests only wire what they use.
func (m *MockUnitOfWork) SetRepositories(
	userRepo UserRepository,
	settlementRepo SettlementRepository,
	inventoryRepo InventoryRepository,
	depositRepo DepositRepository,
	withdrawalRepo WithdrawalRepository,
) {
	if userRepo == nil {
		userRepo = new(MockUserRepository)
	}
	if settlementRepo == nil {
		settlementRepo = new(MockSettlementRepository)
	}
	if inventoryRepo == nil {
		inventoryRepo = new(MockInventoryRepository)
	}
	if depositRepo == nil {
		depositRepo = new(MockDepositRepository)
	}
	if withdrawalRepo == nil {
		withdrawalRepo = new(MockWithdrawalRepository)
	}
	m.userRepo = userRepo
	m.settlementRepo = settlementRepo
	m.inventoryRepo = inventoryRepo
	m.depositRepo = depositRepo
	m.withdrawalRepo = withdrawalRepo
}

// SetEventBus configures the event publisher returned by EventBus
func (m *MockUnitOfWork) SetEventBus(bus EventPublisher) {
	m.eventBus = bus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() UserRepository {
	return m.userRepo
}

func (m *MockUnitOfWork) SettlementRepository() SettlementRepository {
	return m.settlementRepo
}

func (m *MockUnitOfWork) InventoryRepository() InventoryRepository {
	return m.inventoryRepo
}

func (m *MockUnitOfWork) DepositRepository() DepositRepository {
	return m.depositRepo
}

func (m *MockUnitOfWork) WithdrawalRepository() WithdrawalRepository {
	return m.withdrawalRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	if m.eventBus == nil {
		m.eventBus = &nopPublisher{}
	}
	return m.eventBus
}

type nopPublisher struct{}

func (p *nopPublisher) Publish(events.Event) {}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
