package api

import (
	"net/http"
	"strconv"

	"rollhouse/models"
)

type initRequest struct {
	TelegramID int64  `json:"telegram_id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Username   string `json:"username"`
	PhotoURL   string `json:"photo_url"`
	RefID      *int64 `json:"ref_id,omitempty"`
}

// handleInit upserts the account from the client's Telegram profile and binds
// the referrer on first contact
func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	var req initRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.TelegramID <= 0 {
		writeError(w, http.StatusBadRequest, "telegram_id is required")
		return
	}

	profile := models.UserProfile{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		PhotoURL:  req.PhotoURL,
	}
	user, err := s.users.GetOrCreateUser(r.Context(), req.TelegramID, profile, req.RefID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	telegramID, ok := pathID(w, r, "telegramID")
	if !ok {
		return
	}
	user, err := s.users.GetUser(r.Context(), telegramID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	entries, err := s.stats.GetLeaderboard(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"leaderboard": entries})
}
