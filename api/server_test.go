package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rollhouse/games"
	"rollhouse/models"
	"rollhouse/service"
)

type mockUserService struct {
	mock.Mock
}

func (m *mockUserService) GetOrCreateUser(ctx context.Context, telegramID int64, profile models.UserProfile, refID *int64) (*models.User, error) {
	args := m.Called(ctx, telegramID, profile, refID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserService) GetUser(ctx context.Context, telegramID int64) (*models.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type mockRollsService struct {
	mock.Mock
}

func (m *mockRollsService) PlaceBet(ctx context.Context, telegramID int64, color models.Color, amount int64) (*models.User, error) {
	args := m.Called(ctx, telegramID, color, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockRollsService) Snapshot(ctx context.Context) (*models.RollsSnapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RollsSnapshot), args.Error(1)
}

func (m *mockRollsService) Start(ctx context.Context) {
	m.Called(ctx)
}

func (m *mockRollsService) Stop() {
	m.Called()
}

type mockUpgradeService struct {
	mock.Mock
}

func (m *mockUpgradeService) Spin(ctx context.Context, telegramID int64, stake int64, multiplier float64) (*models.UpgradeResult, error) {
	args := m.Called(ctx, telegramID, stake, multiplier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UpgradeResult), args.Error(1)
}

type mockCaseService struct {
	mock.Mock
}

func (m *mockCaseService) OpenCase(ctx context.Context, telegramID int64, caseType games.CaseType) (*service.CaseResult, error) {
	args := m.Called(ctx, telegramID, caseType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CaseResult), args.Error(1)
}

func (m *mockCaseService) GetFreeCaseStatus(ctx context.Context, telegramID int64) (*service.FreeCaseStatus, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.FreeCaseStatus), args.Error(1)
}

func (m *mockCaseService) CheckAccess(ctx context.Context, telegramID int64) (bool, error) {
	args := m.Called(ctx, telegramID)
	return args.Bool(0), args.Error(1)
}

type mockInventoryService struct {
	mock.Mock
}

func (m *mockInventoryService) ListItems(ctx context.Context, telegramID int64) ([]*models.InventoryItem, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.InventoryItem), args.Error(1)
}

func (m *mockInventoryService) SellItem(ctx context.Context, telegramID int64, itemID int64) (int64, int64, error) {
	args := m.Called(ctx, telegramID, itemID)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *mockInventoryService) WithdrawItem(ctx context.Context, telegramID int64, itemID int64) (string, error) {
	args := m.Called(ctx, telegramID, itemID)
	return args.String(0), args.Error(1)
}

type mockReferralService struct {
	mock.Mock
}

func (m *mockReferralService) GetSummary(ctx context.Context, telegramID int64) (*models.ReferralSummary, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReferralSummary), args.Error(1)
}

func (m *mockReferralService) WithdrawBalance(ctx context.Context, telegramID int64) (int64, error) {
	args := m.Called(ctx, telegramID)
	return args.Get(0).(int64), args.Error(1)
}

type mockDepositService struct {
	mock.Mock
}

func (m *mockDepositService) DepositStars(ctx context.Context, telegramID int64, stars int64) (int64, int64, error) {
	args := m.Called(ctx, telegramID, stars)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *mockDepositService) InitiateTON(ctx context.Context, telegramID int64, amount int64) (*service.TONDepositInvoice, error) {
	args := m.Called(ctx, telegramID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TONDepositInvoice), args.Error(1)
}

func (m *mockDepositService) ConfirmDeposit(ctx context.Context, depositID int64) (int64, error) {
	args := m.Called(ctx, depositID)
	return args.Get(0).(int64), args.Error(1)
}

type mockWithdrawalService struct {
	mock.Mock
}

func (m *mockWithdrawalService) CreateRequest(ctx context.Context, telegramID int64, amount int64, walletAddress string) (*models.WithdrawalRequest, error) {
	args := m.Called(ctx, telegramID, amount, walletAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WithdrawalRequest), args.Error(1)
}

func (m *mockWithdrawalService) ListByUser(ctx context.Context, telegramID int64) ([]*models.WithdrawalRequest, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WithdrawalRequest), args.Error(1)
}

func (m *mockWithdrawalService) ListPending(ctx context.Context) ([]*models.WithdrawalRequest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WithdrawalRequest), args.Error(1)
}

func (m *mockWithdrawalService) Resolve(ctx context.Context, requestID int64, approve bool, note string) error {
	args := m.Called(ctx, requestID, approve, note)
	return args.Error(0)
}

type mockStatsService struct {
	mock.Mock
}

func (m *mockStatsService) GetLeaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LeaderboardEntry), args.Error(1)
}

func (m *mockStatsService) GetPlatformStats(ctx context.Context) (*models.PlatformStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlatformStats), args.Error(1)
}

func (m *mockStatsService) GetUserDetail(ctx context.Context, telegramID int64) (*models.UserDetail, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserDetail), args.Error(1)
}

func (m *mockStatsService) AdjustUser(ctx context.Context, telegramID int64, balanceAdd *int64, balanceSet *int64, refPercent *float64) (int64, error) {
	args := m.Called(ctx, telegramID, balanceAdd, balanceSet, refPercent)
	return args.Get(0).(int64), args.Error(1)
}

// serverFixture bundles the mocked services behind a ready-to-use router
type serverFixture struct {
	users       *mockUserService
	rolls       *mockRollsService
	upgrade     *mockUpgradeService
	cases       *mockCaseService
	inventory   *mockInventoryService
	referrals   *mockReferralService
	deposits    *mockDepositService
	withdrawals *mockWithdrawalService
	stats       *mockStatsService
	handler     http.Handler
}

func newServerFixture(adminToken string) *serverFixture {
	f := &serverFixture{
		users:       &mockUserService{},
		rolls:       &mockRollsService{},
		upgrade:     &mockUpgradeService{},
		cases:       &mockCaseService{},
		inventory:   &mockInventoryService{},
		referrals:   &mockReferralService{},
		deposits:    &mockDepositService{},
		withdrawals: &mockWithdrawalService{},
		stats:       &mockStatsService{},
	}
	srv := NewServer(f.users, f.rolls, f.upgrade, f.cases, f.inventory,
		f.referrals, f.deposits, f.withdrawals, f.stats, adminToken)
	f.handler = srv.Handler()
	return f
}

func (f *serverFixture) do(t *testing.T, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func sampleUser() *models.User {
	return &models.User{
		TelegramID: 42,
		FirstName:  "Test",
		Username:   "tester",
		Balance:    250_000,
		RefPercent: 10.0,
		CreatedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestHealth(t *testing.T) {
	f := newServerFixture("")
	rec := f.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInit_UpsertsUser(t *testing.T) {
	f := newServerFixture("")
	f.users.On("GetOrCreateUser", mock.Anything, int64(42), models.UserProfile{
		FirstName: "Test",
		Username:  "tester",
	}, (*int64)(nil)).Return(sampleUser(), nil)

	rec := f.do(t, http.MethodPost, "/api/init", map[string]interface{}{
		"telegram_id": 42,
		"first_name":  "Test",
		"username":    "tester",
	}, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, float64(250_000), body["balance"])
	assert.Equal(t, "25", body["balance_ton"])
	f.users.AssertExpectations(t)
}

func TestInit_MissingTelegramID(t *testing.T) {
	f := newServerFixture("")
	rec := f.do(t, http.MethodPost, "/api/init", map[string]interface{}{
		"first_name": "Test",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	f.users.AssertNotCalled(t, "GetOrCreateUser")
}

func TestInit_MalformedBody(t *testing.T) {
	f := newServerFixture("")
	req := httptest.NewRequest(http.MethodPost, "/api/init", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetUser_NotFoundMapsTo404(t *testing.T) {
	f := newServerFixture("")
	f.users.On("GetUser", mock.Anything, int64(9)).Return(nil, service.ErrNotFound)

	rec := f.do(t, http.MethodGet, "/api/users/9", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetUser_InvalidID(t *testing.T) {
	f := newServerFixture("")
	rec := f.do(t, http.MethodGet, "/api/users/abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpgradeSpin_ReturnsResult(t *testing.T) {
	f := newServerFixture("")
	f.upgrade.On("Spin", mock.Anything, int64(42), int64(10_000), 2.0).Return(&models.UpgradeResult{
		Won:        true,
		Stake:      10_000,
		Multiplier: 2.0,
		WinChance:  0.5,
		NetResult:  10_000,
		NewBalance: 260_000,
	}, nil)

	rec := f.do(t, http.MethodPost, "/api/upgrade/spin", map[string]interface{}{
		"telegram_id": 42,
		"stake":       10_000,
		"multiplier":  2.0,
	}, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, true, body["won"])
	assert.Equal(t, float64(260_000), body["new_balance"])
}

func TestUpgradeSpin_InsufficientFundsMapsTo402(t *testing.T) {
	f := newServerFixture("")
	f.upgrade.On("Spin", mock.Anything, int64(42), int64(10_000), 2.0).
		Return(nil, service.ErrInsufficientFunds)

	rec := f.do(t, http.MethodPost, "/api/upgrade/spin", map[string]interface{}{
		"telegram_id": 42,
		"stake":       10_000,
		"multiplier":  2.0,
	}, nil)

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
}

func TestUpgradeSpin_ValidationMapsTo400(t *testing.T) {
	f := newServerFixture("")
	f.upgrade.On("Spin", mock.Anything, int64(42), int64(0), 1.1).
		Return(nil, service.Validationf("multiplier must be between 1.3 and 20"))

	rec := f.do(t, http.MethodPost, "/api/upgrade/spin", map[string]interface{}{
		"telegram_id": 42,
		"multiplier":  1.1,
	}, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeResponse(t, rec)
	errObj := body["error"].(map[string]interface{})
	assert.Contains(t, errObj["message"], "multiplier")
}

func TestRollsBet_ClosedMapsTo409(t *testing.T) {
	f := newServerFixture("")
	f.rolls.On("PlaceBet", mock.Anything, int64(42), models.ColorRed, int64(5_000)).
		Return(nil, &service.BettingClosedError{Remaining: 700 * time.Millisecond})

	rec := f.do(t, http.MethodPost, "/api/rolls/bet", map[string]interface{}{
		"telegram_id": 42,
		"color":       "red",
		"amount":      5_000,
	}, nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRollsState_ReturnsSnapshot(t *testing.T) {
	f := newServerFixture("")
	last := models.ColorGreen
	f.rolls.On("Snapshot", mock.Anything).Return(&models.RollsSnapshot{
		CountdownSeconds: 4.2,
		LastResult:       &last,
		History:          []models.Color{models.ColorGreen, models.ColorRed},
		GreenCount:       1,
	}, nil)

	rec := f.do(t, http.MethodGet, "/api/rolls/state", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, 4.2, body["countdown"])
	assert.Equal(t, "green", body["last_result"])
}

func TestCaseOpen_CooldownMapsTo429(t *testing.T) {
	f := newServerFixture("")
	f.cases.On("OpenCase", mock.Anything, int64(42), games.CaseFree).
		Return(nil, &service.CooldownError{Remaining: 3 * time.Hour})

	rec := f.do(t, http.MethodPost, "/api/cases/open", map[string]interface{}{
		"telegram_id": 42,
		"case_type":   "free",
	}, nil)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestCaseOpen_ReturnsReward(t *testing.T) {
	f := newServerFixture("")
	itemID := int64(7)
	f.cases.On("OpenCase", mock.Anything, int64(42), games.CaseRegular).
		Return(&service.CaseResult{
			Reward: games.Reward{
				Name:      "Jolly Chimp",
				Kind:      games.RewardNFT,
				SellPrice: 5_000,
			},
			NewBalance:      200_000,
			InventoryItemID: &itemID,
		}, nil)

	rec := f.do(t, http.MethodPost, "/api/cases/open", map[string]interface{}{
		"telegram_id": 42,
		"case_type":   "regular",
	}, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, float64(7), body["inventory_item_id"])
	reward := body["reward"].(map[string]interface{})
	assert.Equal(t, "Jolly Chimp", reward["name"])
}

func TestCaseStatus(t *testing.T) {
	f := newServerFixture("")
	f.cases.On("GetFreeCaseStatus", mock.Anything, int64(42)).
		Return(&service.FreeCaseStatus{Available: false, RemainingSeconds: 7200}, nil)
	f.cases.On("CheckAccess", mock.Anything, int64(42)).Return(true, nil)

	rec := f.do(t, http.MethodGet, "/api/cases/status/42", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, false, body["free_available"])
	assert.Equal(t, float64(7200), body["free_remaining_sec"])
	assert.Equal(t, true, body["paid_unlocked"])
}

func TestInventorySell(t *testing.T) {
	f := newServerFixture("")
	f.inventory.On("SellItem", mock.Anything, int64(42), int64(3)).
		Return(int64(5_000), int64(255_000), nil)

	rec := f.do(t, http.MethodPost, "/api/inventory/sell", map[string]interface{}{
		"telegram_id": 42,
		"item_id":     3,
	}, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, float64(5_000), body["sold_price"])
	assert.Equal(t, float64(255_000), body["new_balance"])
}

func TestDepositTON_ReturnsInvoice(t *testing.T) {
	f := newServerFixture("")
	f.deposits.On("InitiateTON", mock.Anything, int64(42), int64(100_000)).
		Return(&service.TONDepositInvoice{
			DepositID:     11,
			WalletAddress: "UQhouse",
			Memo:          "DEP-42-abcd1234",
			Amount:        100_000,
		}, nil)

	rec := f.do(t, http.MethodPost, "/api/deposits/ton", map[string]interface{}{
		"telegram_id": 42,
		"amount":      100_000,
	}, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, "UQhouse", body["wallet_address"])
	assert.Equal(t, "DEP-42-abcd1234", body["memo"])
}

func TestWithdrawalCreate(t *testing.T) {
	f := newServerFixture("")
	f.withdrawals.On("CreateRequest", mock.Anything, int64(42), int64(150_000), "UQdest").
		Return(&models.WithdrawalRequest{
			ID:            5,
			TelegramID:    42,
			Amount:        150_000,
			WalletAddress: "UQdest",
			Status:        models.WithdrawalStatusPending,
			CreatedAt:     time.Now(),
		}, nil)

	rec := f.do(t, http.MethodPost, "/api/withdrawals", map[string]interface{}{
		"telegram_id":    42,
		"amount":         150_000,
		"wallet_address": "UQdest",
	}, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, "pending", body["status"])
}

func TestAdminRoutes_RequireToken(t *testing.T) {
	f := newServerFixture("secret")

	rec := f.do(t, http.MethodGet, "/api/admin/stats", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/admin/stats", nil, map[string]string{"X-Admin-Token": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	f.stats.On("GetPlatformStats", mock.Anything).Return(&models.PlatformStats{TotalUsers: 10}, nil)
	rec = f.do(t, http.MethodGet, "/api/admin/stats", nil, map[string]string{"X-Admin-Token": "secret"})
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, float64(10), body["total_users"])
}

func TestAdminRoutes_DisabledWithoutToken(t *testing.T) {
	f := newServerFixture("")
	rec := f.do(t, http.MethodGet, "/api/admin/stats", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminResolve(t *testing.T) {
	f := newServerFixture("secret")
	f.withdrawals.On("Resolve", mock.Anything, int64(5), false, "suspicious").Return(nil)

	rec := f.do(t, http.MethodPost, "/api/admin/withdrawals/5/resolve", map[string]interface{}{
		"approve": false,
		"note":    "suspicious",
	}, map[string]string{"X-Admin-Token": "secret"})

	assert.Equal(t, http.StatusOK, rec.Code)
	f.withdrawals.AssertExpectations(t)
}

func TestLeaderboard_InvalidLimit(t *testing.T) {
	f := newServerFixture("")
	rec := f.do(t, http.MethodGet, "/api/leaderboard?limit=bogus", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLeaderboard(t *testing.T) {
	f := newServerFixture("")
	f.stats.On("GetLeaderboard", mock.Anything, 5).Return([]*models.LeaderboardEntry{
		{Rank: 1, TelegramID: 42, Name: "Test", TotalDeposited: 500_000},
	}, nil)

	rec := f.do(t, http.MethodGet, "/api/leaderboard?limit=5", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeResponse(t, rec)
	entries := body["leaderboard"].([]interface{})
	require.Len(t, entries, 1)
	first := entries[0].(map[string]interface{})
	assert.Equal(t, float64(1), first["rank"])
}
