package api

import (
	"strconv"
	"time"

	"rollhouse/models"
)

func parseInt64(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

// userResponse is the client view of an account. Balances are minor units;
// the formatted fields are a convenience for display.
type userResponse struct {
	TelegramID     int64   `json:"telegram_id"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	Username       string  `json:"username"`
	PhotoURL       string  `json:"photo_url"`
	Balance        int64   `json:"balance"`
	BalanceTON     string  `json:"balance_ton"`
	TotalDeposited int64   `json:"total_deposited"`
	GamesPlayed    int64   `json:"games_played"`
	RefBalance     int64   `json:"ref_balance"`
	RefPercent     float64 `json:"ref_percent"`
	CreatedAt      string  `json:"created_at"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		TelegramID:     u.TelegramID,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Username:       u.Username,
		PhotoURL:       u.PhotoURL,
		Balance:        u.Balance,
		BalanceTON:     models.FormatTON(u.Balance),
		TotalDeposited: u.TotalDeposited,
		GamesPlayed:    u.GamesPlayed,
		RefBalance:     u.RefBalance,
		RefPercent:     u.RefPercent,
		CreatedAt:      u.CreatedAt.Format(time.RFC3339),
	}
}

type inventoryItemResponse struct {
	ID         int64  `json:"id"`
	GiftName   string `json:"gift_name"`
	GiftImage  string `json:"gift_image"`
	SellPrice  int64  `json:"sell_price"`
	ObtainedAt string `json:"obtained_at"`
}

func toInventoryResponse(items []*models.InventoryItem) []inventoryItemResponse {
	out := make([]inventoryItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, inventoryItemResponse{
			ID:         it.ID,
			GiftName:   it.GiftName,
			GiftImage:  it.GiftImage,
			SellPrice:  it.SellPrice,
			ObtainedAt: it.ObtainedAt.Format(time.RFC3339),
		})
	}
	return out
}

type withdrawalResponse struct {
	ID            int64  `json:"id"`
	TelegramID    int64  `json:"telegram_id"`
	Amount        int64  `json:"amount"`
	WalletAddress string `json:"wallet_address"`
	Status        string `json:"status"`
	AdminNote     string `json:"admin_note,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func toWithdrawalResponse(req *models.WithdrawalRequest) withdrawalResponse {
	return withdrawalResponse{
		ID:            req.ID,
		TelegramID:    req.TelegramID,
		Amount:        req.Amount,
		WalletAddress: req.WalletAddress,
		Status:        string(req.Status),
		AdminNote:     req.AdminNote,
		CreatedAt:     req.CreatedAt.Format(time.RFC3339),
	}
}

func toWithdrawalListResponse(reqs []*models.WithdrawalRequest) []withdrawalResponse {
	out := make([]withdrawalResponse, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, toWithdrawalResponse(r))
	}
	return out
}
