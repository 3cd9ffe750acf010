package api

import (
	"net/http"
	"time"

	"rollhouse/models"
)

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.stats.GetPlatformStats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleAdminUserDetail(w http.ResponseWriter, r *http.Request) {
	telegramID, ok := pathID(w, r, "telegramID")
	if !ok {
		return
	}
	detail, err := s.stats.GetUserDetail(r.Context(), telegramID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":            toUserResponse(detail.User),
		"referrals":       detail.Referrals,
		"recent_activity": toSettlementResponse(detail.RecentActivity),
	})
}

type settlementResponse struct {
	ID        int64  `json:"id"`
	GameType  string `json:"game_type"`
	Stake     int64  `json:"stake"`
	Payout    int64  `json:"payout"`
	NetResult int64  `json:"net_result"`
	CreatedAt string `json:"created_at"`
}

func toSettlementResponse(settlements []*models.Settlement) []settlementResponse {
	out := make([]settlementResponse, 0, len(settlements))
	for _, s := range settlements {
		out = append(out, settlementResponse{
			ID:        s.ID,
			GameType:  string(s.GameType),
			Stake:     s.Stake,
			Payout:    s.Payout,
			NetResult: s.NetResult,
			CreatedAt: s.CreatedAt.Format(time.RFC3339),
		})
	}
	return out
}

type adminAdjustRequest struct {
	BalanceAdd *int64   `json:"balance_add,omitempty"`
	BalanceSet *int64   `json:"balance_set,omitempty"`
	RefPercent *float64 `json:"ref_percent,omitempty"`
}

func (s *Server) handleAdminAdjust(w http.ResponseWriter, r *http.Request) {
	telegramID, ok := pathID(w, r, "telegramID")
	if !ok {
		return
	}
	var req adminAdjustRequest
	if !decodeBody(w, r, &req) {
		return
	}
	newBalance, err := s.stats.AdjustUser(r.Context(), telegramID, req.BalanceAdd, req.BalanceSet, req.RefPercent)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"new_balance": newBalance})
}

func (s *Server) handleAdminWithdrawals(w http.ResponseWriter, r *http.Request) {
	reqs, err := s.withdrawals.ListPending(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"withdrawals": toWithdrawalListResponse(reqs)})
}

type adminResolveRequest struct {
	Approve bool   `json:"approve"`
	Note    string `json:"note"`
}

func (s *Server) handleAdminResolve(w http.ResponseWriter, r *http.Request) {
	requestID, ok := pathID(w, r, "requestID")
	if !ok {
		return
	}
	var req adminResolveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.withdrawals.Resolve(r.Context(), requestID, req.Approve, req.Note); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "resolved"})
}

func (s *Server) handleAdminConfirmDeposit(w http.ResponseWriter, r *http.Request) {
	depositID, ok := pathID(w, r, "depositID")
	if !ok {
		return
	}
	newBalance, err := s.deposits.ConfirmDeposit(r.Context(), depositID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"new_balance": newBalance})
}
