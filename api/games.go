package api

import (
	"net/http"

	"rollhouse/games"
	"rollhouse/models"
)

type upgradeSpinRequest struct {
	TelegramID int64   `json:"telegram_id"`
	Stake      int64   `json:"stake"`
	Multiplier float64 `json:"multiplier"`
}

type upgradeSpinResponse struct {
	Won        bool    `json:"won"`
	Stake      int64   `json:"stake"`
	Multiplier float64 `json:"multiplier"`
	WinChance  float64 `json:"win_chance"`
	NetResult  int64   `json:"net_result"`
	NewBalance int64   `json:"new_balance"`
}

func (s *Server) handleUpgradeSpin(w http.ResponseWriter, r *http.Request) {
	var req upgradeSpinRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.upgrade.Spin(r.Context(), req.TelegramID, req.Stake, req.Multiplier)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, upgradeSpinResponse{
		Won:        result.Won,
		Stake:      result.Stake,
		Multiplier: result.Multiplier,
		WinChance:  result.WinChance,
		NetResult:  result.NetResult,
		NewBalance: result.NewBalance,
	})
}

func (s *Server) handleRollsState(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.rolls.Snapshot(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

type rollsBetRequest struct {
	TelegramID int64  `json:"telegram_id"`
	Color      string `json:"color"`
	Amount     int64  `json:"amount"`
}

func (s *Server) handleRollsBet(w http.ResponseWriter, r *http.Request) {
	var req rollsBetRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := s.rolls.PlaceBet(r.Context(), req.TelegramID, models.Color(req.Color), req.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"balance": user.Balance,
	})
}

type caseOpenRequest struct {
	TelegramID int64  `json:"telegram_id"`
	CaseType   string `json:"case_type"`
}

type caseOpenResponse struct {
	Reward          games.Reward `json:"reward"`
	NewBalance      int64        `json:"new_balance"`
	InventoryItemID *int64       `json:"inventory_item_id,omitempty"`
}

func (s *Server) handleCaseOpen(w http.ResponseWriter, r *http.Request) {
	var req caseOpenRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.cases.OpenCase(r.Context(), req.TelegramID, games.CaseType(req.CaseType))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, caseOpenResponse{
		Reward:          result.Reward,
		NewBalance:      result.NewBalance,
		InventoryItemID: result.InventoryItemID,
	})
}

func (s *Server) handleCaseStatus(w http.ResponseWriter, r *http.Request) {
	telegramID, ok := pathID(w, r, "telegramID")
	if !ok {
		return
	}

	free, err := s.cases.GetFreeCaseStatus(r.Context(), telegramID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	unlocked, err := s.cases.CheckAccess(r.Context(), telegramID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"free_available":     free.Available,
		"free_remaining_sec": free.RemainingSeconds,
		"paid_unlocked":      unlocked,
	})
}
