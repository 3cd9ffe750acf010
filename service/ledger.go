package service

import (
	"context"
	"fmt"

	"rollhouse/events"
	"rollhouse/metrics"
	"rollhouse/models"

	log "github.com/sirupsen/logrus"
)

// gamePlayTypes are the settlement types that count toward games_played
var gamePlayTypes = map[models.GameType]bool{
	models.GameTypeUpgrade: true,
	models.GameTypeRolls:   true,
	models.GameTypeCase:    true,
}

type ledger struct {
	uowFactory UnitOfWorkFactory
}

// NewLedger creates the ledger service. All balance writes in the system go
// through it.
func NewLedger(uowFactory UnitOfWorkFactory) Ledger {
	return &ledger{
		uowFactory: uowFactory,
	}
}

func (l *ledger) Settle(ctx context.Context, req SettleRequest) (*models.Settlement, error) {
	if req.Stake < 0 {
		return nil, Validationf("stake cannot be negative")
	}
	if req.Payout < 0 {
		return nil, Validationf("payout cannot be negative")
	}
	if req.GameType == "" {
		return nil, Validationf("game type is required")
	}

	uow := l.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	user, err := uow.UserRepository().GetByTelegramID(ctx, req.TelegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("settle for user %d: %w", req.TelegramID, ErrNotFound)
	}

	// The debit enforces sufficiency against the balance at transaction
	// time, not the snapshot read above. Both mutations return the
	// post-update balance so the audit row records what the row actually
	// held, even under concurrent settlements.
	balanceAfter := user.Balance
	if req.Stake > 0 {
		after, err := uow.UserRepository().DeductBalance(ctx, req.TelegramID, req.Stake)
		if err != nil {
			return nil, err
		}
		balanceAfter = after
	}
	if req.Payout > 0 {
		after, err := uow.UserRepository().AddBalance(ctx, req.TelegramID, req.Payout)
		if err != nil {
			return nil, fmt.Errorf("failed to credit payout: %w", err)
		}
		balanceAfter = after
	}

	netResult := req.Payout - req.Stake
	settlement := &models.Settlement{
		TelegramID:    req.TelegramID,
		GameType:      req.GameType,
		Stake:         req.Stake,
		Payout:        req.Payout,
		NetResult:     netResult,
		BalanceBefore: balanceAfter - netResult,
		BalanceAfter:  balanceAfter,
		Multiplier:    req.Multiplier,
		Metadata:      req.Metadata,
	}

	if err := uow.SettlementRepository().Record(ctx, settlement); err != nil {
		return nil, fmt.Errorf("failed to record settlement: %w", err)
	}

	// Payout-only settlements (round winnings, refunds) are not new games
	if gamePlayTypes[req.GameType] && req.Stake > 0 {
		if err := uow.UserRepository().IncrementGamesPlayed(ctx, req.TelegramID); err != nil {
			return nil, fmt.Errorf("failed to increment games played: %w", err)
		}
	}

	if req.Post != nil {
		if err := req.Post(ctx, uow); err != nil {
			return nil, fmt.Errorf("failed to apply settlement side effects: %w", err)
		}
	}

	uow.EventBus().Publish(events.SettlementAppliedEvent{
		TelegramID:   req.TelegramID,
		GameType:     req.GameType,
		Stake:        req.Stake,
		Payout:       req.Payout,
		NetResult:    settlement.NetResult,
		BalanceAfter: settlement.BalanceAfter,
		SettlementID: settlement.ID,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	metrics.SettlementsApplied.WithLabelValues(string(req.GameType)).Inc()

	return settlement, nil
}

func (l *ledger) Deposit(ctx context.Context, telegramID int64, amount int64, method models.DepositMethod) (*models.Settlement, error) {
	if amount <= 0 {
		return nil, Validationf("deposit amount must be positive")
	}

	uow := l.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("deposit for user %d: %w", telegramID, ErrNotFound)
	}

	balanceAfter, err := uow.UserRepository().CreditDeposit(ctx, telegramID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to credit deposit: %w", err)
	}

	settlement := &models.Settlement{
		TelegramID:    telegramID,
		GameType:      models.GameTypeDeposit,
		Stake:         0,
		Payout:        amount,
		NetResult:     amount,
		BalanceBefore: balanceAfter - amount,
		BalanceAfter:  balanceAfter,
		Metadata: map[string]any{
			"method": string(method),
		},
	}

	if err := uow.SettlementRepository().Record(ctx, settlement); err != nil {
		return nil, fmt.Errorf("failed to record settlement: %w", err)
	}

	uow.EventBus().Publish(events.DepositCreditedEvent{
		TelegramID: telegramID,
		Amount:     amount,
		Method:     method,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	metrics.DepositsCredited.WithLabelValues(string(method)).Inc()

	// The referral commission is a separate step so a commission failure can
	// never take a credited deposit down with it
	if user.RefID != nil {
		if err := l.CreditReferral(ctx, *user.RefID, amount); err != nil {
			log.WithFields(log.Fields{
				"referrer":  *user.RefID,
				"depositor": telegramID,
				"amount":    models.FormatTON(amount),
			}).WithError(err).Error("Failed to credit referral commission")
		}
	}

	return settlement, nil
}

func (l *ledger) CreditReferral(ctx context.Context, referrerID int64, depositAmount int64) error {
	if depositAmount <= 0 {
		return Validationf("deposit amount must be positive")
	}

	uow := l.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	referrer, err := uow.UserRepository().GetByTelegramID(ctx, referrerID)
	if err != nil {
		return fmt.Errorf("failed to get referrer: %w", err)
	}
	if referrer == nil {
		return fmt.Errorf("credit referral for user %d: %w", referrerID, ErrNotFound)
	}

	commission := int64(float64(depositAmount) * referrer.RefPercent / 100.0)
	if commission <= 0 {
		return nil
	}

	if err := uow.UserRepository().AddRefBalance(ctx, referrerID, commission); err != nil {
		return fmt.Errorf("failed to add referral commission: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"referrer":   referrerID,
		"commission": models.FormatTON(commission),
		"percent":    referrer.RefPercent,
	}).Info("Referral commission credited")

	return nil
}
