package service

import (
	"context"
	"fmt"

	"rollhouse/models"

	log "github.com/sirupsen/logrus"
)

// recentActivityLimit caps how many settlements the admin user view carries
const recentActivityLimit = 20

// defaultLeaderboardLimit is how many rows the leaderboard shows by default
const defaultLeaderboardLimit = 35

type statsService struct {
	uowFactory UnitOfWorkFactory
}

// NewStatsService creates the leaderboard and admin reporting service
func NewStatsService(uowFactory UnitOfWorkFactory) StatsService {
	return &statsService{
		uowFactory: uowFactory,
	}
}

func (s *statsService) GetLeaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	users, err := uow.UserRepository().TopByDeposited(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}

	entries := make([]*models.LeaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, &models.LeaderboardEntry{
			Rank:           i + 1,
			TelegramID:     u.TelegramID,
			Name:           u.FirstName,
			Username:       u.Username,
			PhotoURL:       u.PhotoURL,
			TotalDeposited: u.TotalDeposited,
		})
	}
	return entries, nil
}

func (s *statsService) GetPlatformStats(ctx context.Context) (*models.PlatformStats, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	stats, err := uow.UserRepository().PlatformStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get platform stats: %w", err)
	}
	return stats, nil
}

func (s *statsService) GetUserDetail(ctx context.Context, telegramID int64) (*models.UserDetail, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", telegramID, ErrNotFound)
	}

	referred, err := uow.UserRepository().GetReferrals(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get referrals: %w", err)
	}
	entries := make([]models.ReferralEntry, 0, len(referred))
	for _, r := range referred {
		entries = append(entries, models.ReferralEntry{
			Name:           r.FirstName,
			Username:       r.Username,
			TotalDeposited: r.TotalDeposited,
		})
	}

	activity, err := uow.SettlementRepository().GetByUser(ctx, telegramID, recentActivityLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent activity: %w", err)
	}

	return &models.UserDetail{
		User:           user,
		Referrals:      entries,
		RecentActivity: activity,
	}, nil
}

func (s *statsService) AdjustUser(ctx context.Context, telegramID int64, balanceAdd *int64, balanceSet *int64, refPercent *float64) (int64, error) {
	if balanceAdd == nil && balanceSet == nil && refPercent == nil {
		return 0, Validationf("nothing to adjust")
	}
	if balanceAdd != nil && balanceSet != nil {
		return 0, Validationf("cannot both add and set balance")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByTelegramID(ctx, telegramID)
	if err != nil {
		return 0, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return 0, fmt.Errorf("user %d: %w", telegramID, ErrNotFound)
	}

	newBalance := user.Balance

	switch {
	case balanceAdd != nil:
		if *balanceAdd <= 0 {
			return 0, Validationf("balance addition must be positive")
		}
		after, err := uow.UserRepository().AddBalance(ctx, telegramID, *balanceAdd)
		if err != nil {
			return 0, fmt.Errorf("failed to add balance: %w", err)
		}
		newBalance = after
	case balanceSet != nil:
		if *balanceSet < 0 {
			return 0, Validationf("balance cannot be negative")
		}
		if err := uow.UserRepository().SetBalance(ctx, telegramID, *balanceSet); err != nil {
			return 0, fmt.Errorf("failed to set balance: %w", err)
		}
		newBalance = *balanceSet
	}

	if newBalance != user.Balance {
		net := newBalance - user.Balance
		settlement := &models.Settlement{
			TelegramID:    telegramID,
			GameType:      models.GameTypeAdminAdjust,
			NetResult:     net,
			BalanceBefore: user.Balance,
			BalanceAfter:  newBalance,
		}
		if net > 0 {
			settlement.Payout = net
		} else {
			settlement.Stake = -net
		}
		if err := uow.SettlementRepository().Record(ctx, settlement); err != nil {
			return 0, fmt.Errorf("failed to record adjustment: %w", err)
		}
	}

	if refPercent != nil {
		if err := uow.UserRepository().SetRefPercent(ctx, telegramID, *refPercent); err != nil {
			return 0, err
		}
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"user":    telegramID,
		"balance": models.FormatTON(newBalance),
	}).Info("Admin adjustment applied")

	return newBalance, nil
}
