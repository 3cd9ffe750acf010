// Package api exposes the platform over HTTP as thin JSON handlers on top of
// the service layer. Handlers never touch repositories directly.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"rollhouse/service"
)

// Server holds the services the HTTP handlers delegate to
type Server struct {
	users       service.UserService
	rolls       service.RollsService
	upgrade     service.UpgradeService
	cases       service.CaseService
	inventory   service.InventoryService
	referrals   service.ReferralService
	deposits    service.DepositService
	withdrawals service.WithdrawalService
	stats       service.StatsService

	adminToken string
}

// NewServer creates an API server over the given services. An empty
// adminToken disables the admin routes entirely.
func NewServer(
	users service.UserService,
	rolls service.RollsService,
	upgrade service.UpgradeService,
	cases service.CaseService,
	inventory service.InventoryService,
	referrals service.ReferralService,
	deposits service.DepositService,
	withdrawals service.WithdrawalService,
	stats service.StatsService,
	adminToken string,
) *Server {
	return &Server{
		users:       users,
		rolls:       rolls,
		upgrade:     upgrade,
		cases:       cases,
		inventory:   inventory,
		referrals:   referrals,
		deposits:    deposits,
		withdrawals: withdrawals,
		stats:       stats,
		adminToken:  adminToken,
	}
}

// Handler returns the chi router with all routes mounted
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/init", s.handleInit)
		r.Get("/users/{telegramID}", s.handleGetUser)

		r.Post("/upgrade/spin", s.handleUpgradeSpin)

		r.Get("/rolls/state", s.handleRollsState)
		r.Post("/rolls/bet", s.handleRollsBet)

		r.Post("/cases/open", s.handleCaseOpen)
		r.Get("/cases/status/{telegramID}", s.handleCaseStatus)

		r.Get("/inventory/{telegramID}", s.handleInventoryList)
		r.Post("/inventory/sell", s.handleInventorySell)
		r.Post("/inventory/withdraw", s.handleInventoryWithdraw)

		r.Get("/leaderboard", s.handleLeaderboard)

		r.Get("/referrals/{telegramID}", s.handleReferralSummary)
		r.Post("/referrals/withdraw", s.handleReferralWithdraw)

		r.Post("/deposits/stars", s.handleDepositStars)
		r.Post("/deposits/ton", s.handleDepositTON)

		r.Post("/withdrawals", s.handleWithdrawalCreate)
		r.Get("/withdrawals/{telegramID}", s.handleWithdrawalList)
	})

	if s.adminToken != "" {
		r.Route("/api/admin", func(r chi.Router) {
			r.Use(s.adminOnly)
			r.Get("/stats", s.handleAdminStats)
			r.Get("/users/{telegramID}", s.handleAdminUserDetail)
			r.Post("/users/{telegramID}/adjust", s.handleAdminAdjust)
			r.Get("/withdrawals", s.handleAdminWithdrawals)
			r.Post("/withdrawals/{requestID}/resolve", s.handleAdminResolve)
			r.Post("/deposits/{depositID}/confirm", s.handleAdminConfirmDeposit)
		})
	}

	return r
}

// adminOnly rejects requests without the configured admin token
func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Admin-Token") != s.adminToken {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Admin-Token")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// writeServiceError maps service layer errors to HTTP statuses
func writeServiceError(w http.ResponseWriter, err error) {
	var validationErr *service.ValidationError
	var closedErr *service.BettingClosedError
	var cooldownErr *service.CooldownError

	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Msg)
	case errors.Is(err, service.ErrInsufficientFunds):
		writeError(w, http.StatusPaymentRequired, "insufficient funds")
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.As(err, &closedErr):
		writeError(w, http.StatusConflict, closedErr.Error())
	case errors.As(err, &cooldownErr):
		writeError(w, http.StatusTooManyRequests, cooldownErr.Error())
	default:
		log.WithError(err).Error("Unhandled service error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeBody parses a JSON request body into dst
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}

// pathID parses a numeric chi URL parameter
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := parseInt64(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}
