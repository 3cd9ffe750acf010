package service

import (
	"context"

	"rollhouse/games"
	"rollhouse/metrics"
	"rollhouse/models"

	log "github.com/sirupsen/logrus"
)

type upgradeService struct {
	ledger  Ledger
	sampler *games.Sampler
}

// NewUpgradeService creates the upgrade roulette service
func NewUpgradeService(ledger Ledger, sampler *games.Sampler) UpgradeService {
	return &upgradeService{
		ledger:  ledger,
		sampler: sampler,
	}
}

func (s *upgradeService) Spin(ctx context.Context, telegramID int64, stake int64, multiplier float64) (*models.UpgradeResult, error) {
	if stake <= 0 {
		return nil, Validationf("stake must be positive")
	}
	if !games.ValidMultiplier(multiplier) {
		return nil, Validationf("multiplier must be between %.1f and %.1f", games.MinMultiplier, games.MaxMultiplier)
	}

	chance := games.WinChance(multiplier)
	won, roll := s.sampler.DrawUpgrade(multiplier)

	var payout int64
	if won {
		payout = int64(float64(stake) * multiplier)
	}

	settlement, err := s.ledger.Settle(ctx, SettleRequest{
		TelegramID: telegramID,
		Stake:      stake,
		Payout:     payout,
		GameType:   models.GameTypeUpgrade,
		Multiplier: &multiplier,
		Metadata: map[string]any{
			"won":        won,
			"win_chance": chance,
			"roll":       roll,
		},
	})
	if err != nil {
		return nil, err
	}

	outcome := "loss"
	if won {
		outcome = "win"
	}
	metrics.UpgradeSpins.WithLabelValues(outcome).Inc()

	log.WithFields(log.Fields{
		"user":       telegramID,
		"stake":      models.FormatTON(stake),
		"multiplier": multiplier,
		"won":        won,
		"balance":    models.FormatTON(settlement.BalanceAfter),
	}).Info("Upgrade spin settled")

	return &models.UpgradeResult{
		Won:        won,
		Stake:      stake,
		Multiplier: multiplier,
		WinChance:  chance,
		NetResult:  settlement.NetResult,
		NewBalance: settlement.BalanceAfter,
	}, nil
}
