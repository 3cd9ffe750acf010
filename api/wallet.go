package api

import (
	"net/http"
)

func (s *Server) handleInventoryList(w http.ResponseWriter, r *http.Request) {
	telegramID, ok := pathID(w, r, "telegramID")
	if !ok {
		return
	}
	items, err := s.inventory.ListItems(r.Context(), telegramID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": toInventoryResponse(items)})
}

type inventoryItemRequest struct {
	TelegramID int64 `json:"telegram_id"`
	ItemID     int64 `json:"item_id"`
}

func (s *Server) handleInventorySell(w http.ResponseWriter, r *http.Request) {
	var req inventoryItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	soldPrice, newBalance, err := s.inventory.SellItem(r.Context(), req.TelegramID, req.ItemID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sold_price":  soldPrice,
		"new_balance": newBalance,
	})
}

func (s *Server) handleInventoryWithdraw(w http.ResponseWriter, r *http.Request) {
	var req inventoryItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	message, err := s.inventory.WithdrawItem(r.Context(), req.TelegramID, req.ItemID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": message})
}

func (s *Server) handleReferralSummary(w http.ResponseWriter, r *http.Request) {
	telegramID, ok := pathID(w, r, "telegramID")
	if !ok {
		return
	}
	summary, err := s.referrals.GetSummary(r.Context(), telegramID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type referralWithdrawRequest struct {
	TelegramID int64 `json:"telegram_id"`
}

func (s *Server) handleReferralWithdraw(w http.ResponseWriter, r *http.Request) {
	var req referralWithdrawRequest
	if !decodeBody(w, r, &req) {
		return
	}
	newBalance, err := s.referrals.WithdrawBalance(r.Context(), req.TelegramID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"new_balance": newBalance})
}

type depositStarsRequest struct {
	TelegramID int64 `json:"telegram_id"`
	Stars      int64 `json:"stars"`
}

func (s *Server) handleDepositStars(w http.ResponseWriter, r *http.Request) {
	var req depositStarsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	credited, newBalance, err := s.deposits.DepositStars(r.Context(), req.TelegramID, req.Stars)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"credited":    credited,
		"new_balance": newBalance,
	})
}

type depositTONRequest struct {
	TelegramID int64 `json:"telegram_id"`
	Amount     int64 `json:"amount"`
}

func (s *Server) handleDepositTON(w http.ResponseWriter, r *http.Request) {
	var req depositTONRequest
	if !decodeBody(w, r, &req) {
		return
	}
	invoice, err := s.deposits.InitiateTON(r.Context(), req.TelegramID, req.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"deposit_id":     invoice.DepositID,
		"wallet_address": invoice.WalletAddress,
		"memo":           invoice.Memo,
		"amount":         invoice.Amount,
	})
}

type withdrawalCreateRequest struct {
	TelegramID    int64  `json:"telegram_id"`
	Amount        int64  `json:"amount"`
	WalletAddress string `json:"wallet_address"`
}

func (s *Server) handleWithdrawalCreate(w http.ResponseWriter, r *http.Request) {
	var req withdrawalCreateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	created, err := s.withdrawals.CreateRequest(r.Context(), req.TelegramID, req.Amount, req.WalletAddress)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWithdrawalResponse(created))
}

func (s *Server) handleWithdrawalList(w http.ResponseWriter, r *http.Request) {
	telegramID, ok := pathID(w, r, "telegramID")
	if !ok {
		return
	}
	reqs, err := s.withdrawals.ListByUser(r.Context(), telegramID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"withdrawals": toWithdrawalListResponse(reqs)})
}
