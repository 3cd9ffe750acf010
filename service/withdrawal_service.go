package service

import (
	"context"
	"fmt"

	"rollhouse/config"
	"rollhouse/events"
	"rollhouse/models"

	log "github.com/sirupsen/logrus"
)

type withdrawalService struct {
	uowFactory UnitOfWorkFactory
	ledger     Ledger
}

// NewWithdrawalService creates the balance withdrawal service
func NewWithdrawalService(uowFactory UnitOfWorkFactory, ledger Ledger) WithdrawalService {
	return &withdrawalService{
		uowFactory: uowFactory,
		ledger:     ledger,
	}
}

func (s *withdrawalService) CreateRequest(ctx context.Context, telegramID int64, amount int64, walletAddress string) (*models.WithdrawalRequest, error) {
	min := config.Get().MinWithdrawal
	if amount < min {
		return nil, Validationf("minimum withdrawal is %s", models.FormatTON(min))
	}
	if walletAddress == "" {
		return nil, Validationf("wallet address is required")
	}

	req := &models.WithdrawalRequest{
		TelegramID:    telegramID,
		Amount:        amount,
		WalletAddress: walletAddress,
		Status:        models.WithdrawalStatusPending,
	}

	// The debit and the request row commit together, so the requested amount
	// is held the moment the request exists
	_, err := s.ledger.Settle(ctx, SettleRequest{
		TelegramID: telegramID,
		Stake:      amount,
		Payout:     0,
		GameType:   models.GameTypeWithdrawal,
		Metadata: map[string]any{
			"wallet": walletAddress,
		},
		Post: func(ctx context.Context, uow UnitOfWork) error {
			if err := uow.WithdrawalRepository().Create(ctx, req); err != nil {
				return fmt.Errorf("failed to create withdrawal request: %w", err)
			}
			uow.EventBus().Publish(events.WithdrawalRequestedEvent{
				TelegramID:    telegramID,
				RequestID:     req.ID,
				Amount:        amount,
				WalletAddress: walletAddress,
			})
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user":    telegramID,
		"request": req.ID,
		"amount":  models.FormatTON(amount),
	}).Info("Withdrawal requested")

	return req, nil
}

func (s *withdrawalService) ListByUser(ctx context.Context, telegramID int64) ([]*models.WithdrawalRequest, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.WithdrawalRepository().GetByUser(ctx, telegramID)
}

func (s *withdrawalService) ListPending(ctx context.Context) ([]*models.WithdrawalRequest, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.WithdrawalRepository().GetPending(ctx)
}

func (s *withdrawalService) Resolve(ctx context.Context, requestID int64, approve bool, note string) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	req, err := uow.WithdrawalRepository().GetByID(ctx, requestID)
	if err != nil {
		return fmt.Errorf("failed to get withdrawal request: %w", err)
	}
	if req == nil {
		return fmt.Errorf("withdrawal request %d: %w", requestID, ErrNotFound)
	}

	status := models.WithdrawalStatusApproved
	if !approve {
		status = models.WithdrawalStatusRejected
	}

	// Pending-only guard; resolving the same request twice fails here
	if err := uow.WithdrawalRepository().UpdateStatus(ctx, requestID, status, note); err != nil {
		return err
	}

	// A rejection returns the held amount
	if !approve {
		balanceAfter, err := uow.UserRepository().AddBalance(ctx, req.TelegramID, req.Amount)
		if err != nil {
			return fmt.Errorf("failed to refund rejected withdrawal: %w", err)
		}

		settlement := &models.Settlement{
			TelegramID:    req.TelegramID,
			GameType:      models.GameTypeWithdrawal,
			Stake:         0,
			Payout:        req.Amount,
			NetResult:     req.Amount,
			BalanceBefore: balanceAfter - req.Amount,
			BalanceAfter:  balanceAfter,
			Metadata: map[string]any{
				"action":  "rejected_refund",
				"request": requestID,
			},
		}
		if err := uow.SettlementRepository().Record(ctx, settlement); err != nil {
			return fmt.Errorf("failed to record refund settlement: %w", err)
		}
	}

	uow.EventBus().Publish(events.WithdrawalResolvedEvent{
		TelegramID: req.TelegramID,
		RequestID:  requestID,
		Amount:     req.Amount,
		Approved:   approve,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"request":  requestID,
		"user":     req.TelegramID,
		"approved": approve,
	}).Info("Withdrawal request resolved")

	return nil
}
