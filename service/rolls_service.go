package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"rollhouse/config"
	"rollhouse/events"
	"rollhouse/games"
	"rollhouse/metrics"
	"rollhouse/models"

	log "github.com/sirupsen/logrus"
)

// historyLength is how many past results the snapshot carries; the round
// keeps up to maxHistory internally, newest first
const (
	historyLength = 20
	maxHistory    = 100
)

// resolvePollInterval is how often the background driver checks the deadline
const resolvePollInterval = 200 * time.Millisecond

type rollsService struct {
	uowFactory UnitOfWorkFactory
	ledger     Ledger
	sampler    *games.Sampler
	bus        *events.Bus

	window time.Duration
	margin time.Duration

	// All round state below is guarded by mu. Settlements for a resolving
	// round happen inside the critical section, before the next round opens,
	// so no bet can land in a round that is already decided.
	mu          sync.Mutex
	generation  uint64
	deadline    time.Time
	bets        map[int64]*models.RollsBet
	history     []models.Color
	lastResult  *models.Color
	lastPayouts map[int64]models.RollsPayout

	stopCh    chan struct{}
	doneCh    chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewRollsService creates the shared Rolls round engine with the first round
// already open.
func NewRollsService(uowFactory UnitOfWorkFactory, ledger Ledger, sampler *games.Sampler, bus *events.Bus) RollsService {
	cfg := config.Get()
	return newRollsService(uowFactory, ledger, sampler, bus, cfg.RollsWindow, cfg.RollsLockoutMargin)
}

func newRollsService(uowFactory UnitOfWorkFactory, ledger Ledger, sampler *games.Sampler, bus *events.Bus, window, margin time.Duration) *rollsService {
	return &rollsService{
		uowFactory:  uowFactory,
		ledger:      ledger,
		sampler:     sampler,
		bus:         bus,
		window:      window,
		margin:      margin,
		generation:  1,
		deadline:    time.Now().Add(window),
		bets:        make(map[int64]*models.RollsBet),
		lastPayouts: make(map[int64]models.RollsPayout),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

func (s *rollsService) PlaceBet(ctx context.Context, telegramID int64, color models.Color, amount int64) (*models.User, error) {
	if !color.Valid() {
		return nil, Validationf("unknown color %q", color)
	}
	if amount <= 0 {
		return nil, Validationf("bet amount must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// A bet arriving after the deadline resolves the stale round first, so
	// it lands in a fresh one instead of a decided one
	s.resolveIfDueLocked(ctx)

	remaining := time.Until(s.deadline)
	if remaining <= s.margin {
		return nil, &BettingClosedError{Remaining: remaining}
	}

	generation := s.generation

	// Rebet in the same round: refund the previous stake, then place the new
	// bet. If the replacement debit fails the old bet stays cancelled with
	// its stake already refunded.
	if prior, ok := s.bets[telegramID]; ok {
		_, err := s.ledger.Settle(ctx, SettleRequest{
			TelegramID: telegramID,
			Stake:      0,
			Payout:     prior.Amount,
			GameType:   models.GameTypeRolls,
			Metadata: map[string]any{
				"action":     "rebet_refund",
				"color":      string(prior.Color),
				"generation": generation,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to refund previous bet: %w", err)
		}
		delete(s.bets, telegramID)
	}

	settlement, err := s.ledger.Settle(ctx, SettleRequest{
		TelegramID: telegramID,
		Stake:      amount,
		Payout:     0,
		GameType:   models.GameTypeRolls,
		Metadata: map[string]any{
			"action":     "bet",
			"color":      string(color),
			"generation": generation,
		},
	})
	if err != nil {
		return nil, err
	}

	s.bets[telegramID] = &models.RollsBet{
		TelegramID: telegramID,
		Color:      color,
		Amount:     amount,
	}

	metrics.RollsBetsPlaced.WithLabelValues(string(color)).Inc()

	log.WithFields(log.Fields{
		"user":       telegramID,
		"color":      color,
		"amount":     models.FormatTON(amount),
		"generation": generation,
		"balance":    models.FormatTON(settlement.BalanceAfter),
	}).Info("Rolls bet placed")

	return s.getUser(ctx, telegramID)
}

func (s *rollsService) Snapshot(ctx context.Context) (*models.RollsSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resolveIfDueLocked(ctx)

	countdown := time.Until(s.deadline).Seconds()
	if countdown < 0 {
		countdown = 0
	}

	n := len(s.history)
	if n > historyLength {
		n = historyLength
	}
	history := make([]models.Color, n)
	copy(history, s.history[:n])

	// Counts cover the displayed history, so they always agree with what the
	// client renders
	counts := make(map[models.Color]int, 3)
	for _, c := range history {
		counts[c]++
	}

	payouts := make(map[int64]models.RollsPayout, len(s.lastPayouts))
	for id, p := range s.lastPayouts {
		payouts[id] = p
	}

	return &models.RollsSnapshot{
		CountdownSeconds: countdown,
		LastResult:       s.lastResult,
		History:          history,
		RedCount:         counts[models.ColorRed],
		BlueCount:        counts[models.ColorBlue],
		GreenCount:       counts[models.ColorGreen],
		LastPayouts:      payouts,
	}, nil
}

// Start launches the background resolution driver. Resolution also happens on
// read, so the driver only matters while nobody is polling.
func (s *rollsService) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		go func() {
			defer close(s.doneCh)
			ticker := time.NewTicker(resolvePollInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					s.mu.Lock()
					s.resolveIfDueLocked(ctx)
					s.mu.Unlock()
				case <-s.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
	})
}

// Stop halts the background driver and waits for it to exit
func (s *rollsService) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		<-s.doneCh
	})
}

// resolveIfDueLocked resolves the round once its deadline has passed: draws
// the result, settles every winning bet, records the outcome, and opens the
// next round. The generation counter plus the fresh deadline written before mu
// is released make a second resolution of the same round structurally
// impossible. Caller must hold mu.
func (s *rollsService) resolveIfDueLocked(ctx context.Context) {
	now := time.Now()
	if now.Before(s.deadline) {
		return
	}

	result, roll := s.sampler.DrawRollsColor()
	resolved := s.generation
	bets := s.bets

	payouts := make(map[int64]models.RollsPayout, len(bets))
	var totalStaked, totalPaid int64

	for id, bet := range bets {
		totalStaked += bet.Amount
		if bet.Color != result {
			payouts[id] = models.RollsPayout{Won: false}
			continue
		}

		mult := result.PayoutMultiplier()
		amount := bet.Amount * mult
		_, err := s.ledger.Settle(ctx, SettleRequest{
			TelegramID: id,
			Stake:      0,
			Payout:     amount,
			GameType:   models.GameTypeRolls,
			Metadata: map[string]any{
				"action":     "round_win",
				"color":      string(result),
				"generation": resolved,
				"roll":       roll,
			},
		})
		if err != nil {
			// The draw stands either way; the settlement failure is an
			// operational problem, not a game one
			log.WithFields(log.Fields{
				"user":       id,
				"amount":     models.FormatTON(amount),
				"generation": resolved,
			}).WithError(err).Error("Failed to settle round payout")
			continue
		}

		totalPaid += amount
		payouts[id] = models.RollsPayout{
			Won:        true,
			Amount:     amount,
			Multiplier: mult,
		}
	}

	s.lastResult = &result
	s.lastPayouts = payouts
	s.history = append([]models.Color{result}, s.history...)
	if len(s.history) > maxHistory {
		s.history = s.history[:maxHistory]
	}

	// Open the next round
	s.generation++
	s.deadline = now.Add(s.window)
	s.bets = make(map[int64]*models.RollsBet)

	metrics.RollsRoundsResolved.WithLabelValues(string(result)).Inc()

	s.bus.Emit(ctx, events.RoundResolvedEvent{
		Generation:  resolved,
		Result:      result,
		BetCount:    len(bets),
		TotalStaked: totalStaked,
		TotalPaid:   totalPaid,
	})

	log.WithFields(log.Fields{
		"generation": resolved,
		"result":     result,
		"bets":       len(bets),
		"staked":     models.FormatTON(totalStaked),
		"paid":       models.FormatTON(totalPaid),
	}).Info("Rolls round resolved")
}

func (s *rollsService) getUser(ctx context.Context, telegramID int64) (*models.User, error) {
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
