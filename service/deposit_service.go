package service

import (
	"context"
	"fmt"

	"rollhouse/config"
	"rollhouse/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// starsRate converts Telegram Stars to minor units: 100 stars buy 1.099 TON
const starsRatePer100 = 10_990

type depositService struct {
	uowFactory UnitOfWorkFactory
	ledger     Ledger
}

// NewDepositService creates the deposit service
func NewDepositService(uowFactory UnitOfWorkFactory, ledger Ledger) DepositService {
	return &depositService{
		uowFactory: uowFactory,
		ledger:     ledger,
	}
}

func (s *depositService) DepositStars(ctx context.Context, telegramID int64, stars int64) (int64, int64, error) {
	if stars <= 0 {
		return 0, 0, Validationf("stars amount must be positive")
	}

	credited := stars * starsRatePer100 / 100
	if credited <= 0 {
		return 0, 0, Validationf("stars amount too small")
	}

	settlement, err := s.ledger.Deposit(ctx, telegramID, credited, models.DepositMethodStars)
	if err != nil {
		return 0, 0, err
	}

	// Bookkeeping row; the balance credit above already committed
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err == nil {
		rec := &models.DepositRecord{
			TelegramID: telegramID,
			Amount:     credited,
			Method:     models.DepositMethodStars,
			Status:     models.DepositStatusCompleted,
		}
		if err := uow.DepositRepository().Create(ctx, rec); err != nil {
			log.WithError(err).WithField("user", telegramID).Error("Failed to record stars deposit")
		}
		if err := uow.Commit(); err != nil {
			log.WithError(err).WithField("user", telegramID).Error("Failed to commit stars deposit record")
		}
	}

	log.WithFields(log.Fields{
		"user":     telegramID,
		"stars":    stars,
		"credited": models.FormatTON(credited),
	}).Info("Stars deposit credited")

	return credited, settlement.BalanceAfter, nil
}

func (s *depositService) InitiateTON(ctx context.Context, telegramID int64, amount int64) (*TONDepositInvoice, error) {
	if amount <= 0 {
		return nil, Validationf("deposit amount must be positive")
	}

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

	rec := &models.DepositRecord{
		TelegramID: telegramID,
		Amount:     amount,
		Method:     models.DepositMethodTON,
		Status:     models.DepositStatusPending,
		Memo:       fmt.Sprintf("DEP-%d-%s", telegramID, uuid.NewString()[:8]),
	}
	if err := uow.DepositRepository().Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to create deposit record: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &TONDepositInvoice{
		DepositID:     rec.ID,
		WalletAddress: config.Get().BotWalletAddress,
		Memo:          rec.Memo,
		Amount:        amount,
	}, nil
}

func (s *depositService) ConfirmDeposit(ctx context.Context, depositID int64) (int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	rec, err := uow.DepositRepository().GetByID(ctx, depositID)
	if err != nil {
		return 0, fmt.Errorf("failed to get deposit: %w", err)
	}
	if rec == nil {
		return 0, fmt.Errorf("deposit %d: %w", depositID, ErrNotFound)
	}

	// The pending-only status guard in MarkCompleted makes a double confirm
	// fail here instead of crediting twice
	if err := uow.DepositRepository().MarkCompleted(ctx, depositID); err != nil {
		return 0, err
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	settlement, err := s.ledger.Deposit(ctx, rec.TelegramID, rec.Amount, models.DepositMethodTON)
	if err != nil {
		return 0, fmt.Errorf("failed to credit confirmed deposit %d: %w", depositID, err)
	}

	log.WithFields(log.Fields{
		"user":    rec.TelegramID,
		"deposit": depositID,
		"amount":  models.FormatTON(rec.Amount),
	}).Info("TON deposit confirmed")

	return settlement.BalanceAfter, nil
}
