package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rollhouse/config"
	"rollhouse/games"
	"rollhouse/metrics"
	"rollhouse/models"

	log "github.com/sirupsen/logrus"
)

// freeCaseCooldown is how long a user waits between free case openings
const freeCaseCooldown = 24 * time.Hour

type caseService struct {
	uowFactory UnitOfWorkFactory
	ledger     Ledger
	sampler    *games.Sampler
}

// NewCaseService creates the loot case service
func NewCaseService(uowFactory UnitOfWorkFactory, ledger Ledger, sampler *games.Sampler) CaseService {
	return &caseService{
		uowFactory: uowFactory,
		ledger:     ledger,
		sampler:    sampler,
	}
}

func (s *caseService) OpenCase(ctx context.Context, telegramID int64, caseType games.CaseType) (*CaseResult, error) {
	table, err := games.CaseTable(caseType)
	if err != nil {
		return nil, Validationf("unknown case type %q", caseType)
	}
	cost, err := games.CaseCost(caseType)
	if err != nil {
		return nil, Validationf("unknown case type %q", caseType)
	}

	user, err := s.getUser(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	if caseType == games.CaseFree {
		if user.FreeCaseLast != nil {
			elapsed := time.Since(*user.FreeCaseLast)
			if elapsed < freeCaseCooldown {
				return nil, &CooldownError{Remaining: freeCaseCooldown - elapsed}
			}
		}
	} else {
		gate := config.Get().CaseAccessDeposit
		if user.TotalDeposited < gate {
			return nil, Validationf("deposit at least %s to unlock cases", models.FormatTON(gate))
		}
	}

	reward, roll := s.sampler.DrawReward(table)

	var payout int64
	if reward.Kind == games.RewardTON {
		payout = reward.SellPrice
	}

	var itemID *int64
	now := time.Now()

	settlement, err := s.ledger.Settle(ctx, SettleRequest{
		TelegramID: telegramID,
		Stake:      cost,
		Payout:     payout,
		GameType:   models.GameTypeCase,
		Metadata: map[string]any{
			"case_type":   string(caseType),
			"reward":      reward.Name,
			"reward_kind": string(reward.Kind),
			"roll":        roll,
		},
		Post: func(ctx context.Context, uow UnitOfWork) error {
			if reward.Kind == games.RewardNFT {
				item := &models.InventoryItem{
					TelegramID: telegramID,
					GiftName:   reward.Name,
					GiftImage:  reward.Image,
					SellPrice:  reward.SellPrice,
				}
				if err := uow.InventoryRepository().Add(ctx, item); err != nil {
					return fmt.Errorf("failed to add inventory item: %w", err)
				}
				itemID = &item.ID
			}
			if caseType == games.CaseFree {
				err := uow.UserRepository().ClaimFreeCase(ctx, telegramID, now, freeCaseCooldown)
				if errors.Is(err, ErrFreeCaseClaimed) {
					// A concurrent open won the stamp. Re-read inside
					// the transaction for an accurate remaining time.
					fresh, readErr := uow.UserRepository().GetByTelegramID(ctx, telegramID)
					if readErr == nil && fresh != nil && fresh.FreeCaseLast != nil {
						return &CooldownError{Remaining: freeCaseCooldown - now.Sub(*fresh.FreeCaseLast)}
					}
					return &CooldownError{Remaining: freeCaseCooldown}
				}
				if err != nil {
					return fmt.Errorf("failed to stamp free case: %w", err)
				}
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	metrics.CasesOpened.WithLabelValues(string(caseType), string(reward.Kind)).Inc()

	log.WithFields(log.Fields{
		"user":    telegramID,
		"case":    caseType,
		"reward":  reward.Name,
		"kind":    reward.Kind,
		"balance": models.FormatTON(settlement.BalanceAfter),
	}).Info("Case opened")

	return &CaseResult{
		Reward:          reward,
		NewBalance:      settlement.BalanceAfter,
		InventoryItemID: itemID,
	}, nil
}

func (s *caseService) GetFreeCaseStatus(ctx context.Context, telegramID int64) (*FreeCaseStatus, error) {
	user, err := s.getUser(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	if user.FreeCaseLast == nil {
		return &FreeCaseStatus{Available: true}, nil
	}

	elapsed := time.Since(*user.FreeCaseLast)
	if elapsed >= freeCaseCooldown {
		return &FreeCaseStatus{Available: true}, nil
	}

	return &FreeCaseStatus{
		Available:        false,
		RemainingSeconds: int64((freeCaseCooldown - elapsed).Seconds()),
	}, nil
}

func (s *caseService) CheckAccess(ctx context.Context, telegramID int64) (bool, error) {
	user, err := s.getUser(ctx, telegramID)
	if err != nil {
		return false, err
	}
	return user.TotalDeposited >= config.Get().CaseAccessDeposit, nil
}

func (s *caseService) getUser(ctx context.Context, telegramID int64) (*models.User, error) {
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
	return user, nil
}
