package service

import (
	"context"
	"fmt"

	"rollhouse/config"
	"rollhouse/models"

	log "github.com/sirupsen/logrus"
)

type referralService struct {
	uowFactory UnitOfWorkFactory
}

// NewReferralService creates the referral earnings service
func NewReferralService(uowFactory UnitOfWorkFactory) ReferralService {
	return &referralService{
		uowFactory: uowFactory,
	}
}

func (s *referralService) GetSummary(ctx context.Context, telegramID int64) (*models.ReferralSummary, error) {
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

	return &models.ReferralSummary{
		Referrals:     entries,
		TotalReferred: len(entries),
		RefBalance:    user.RefBalance,
		RefPercent:    user.RefPercent,
	}, nil
}

func (s *referralService) WithdrawBalance(ctx context.Context, telegramID int64) (int64, error) {
	min := config.Get().MinReferralWithdraw

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

	if user.RefBalance < min {
		return 0, Validationf("referral balance below the %s minimum", models.FormatTON(min))
	}

	// ClaimRefBalance locks the row, so a concurrent claim cannot move the
	// same commission twice
	claimed, err := uow.UserRepository().ClaimRefBalance(ctx, telegramID)
	if err != nil {
		return 0, fmt.Errorf("failed to claim referral balance: %w", err)
	}
	if claimed < min {
		return 0, Validationf("referral balance below the %s minimum", models.FormatTON(min))
	}

	settlement := &models.Settlement{
		TelegramID:    telegramID,
		GameType:      models.GameTypeReferralWithdraw,
		Stake:         0,
		Payout:        claimed,
		NetResult:     claimed,
		BalanceBefore: user.Balance,
		BalanceAfter:  user.Balance + claimed,
	}
	if err := uow.SettlementRepository().Record(ctx, settlement); err != nil {
		return 0, fmt.Errorf("failed to record settlement: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"user":    telegramID,
		"claimed": models.FormatTON(claimed),
	}).Info("Referral balance withdrawn")

	return settlement.BalanceAfter, nil
}
