package games

import (
	"math/rand"

	"rollhouse/models"
	log "github.com/sirupsen/logrus"
)

// Multiplier bounds for the upgrade game. The win-chance clamp below keeps a
// house edge at the low end and bounds payout risk at the high end.
const (
	MinMultiplier = 1.3
	MaxMultiplier = 20.0

	minWinChance = 0.05
	maxWinChance = 0.95
)

// ValidMultiplier reports whether m is inside the playable range
func ValidMultiplier(m float64) bool {
	return m >= MinMultiplier && m <= MaxMultiplier
}

// WinChance computes the upgrade game's win probability for a multiplier:
// clamp(1/m, 0.05, 0.95). Strictly decreasing over the valid range.
func WinChance(multiplier float64) float64 {
	chance := 1.0 / multiplier
	if chance < minWinChance {
		return minWinChance
	}
	if chance > maxWinChance {
		return maxWinChance
	}
	return chance
}

// Sampler turns uniform random draws into game outcomes. The randomness
// source is injectable so tests can force outcomes; the default source is the
// shared math/rand generator, which is safe for concurrent use.
type Sampler struct {
	randFloat func() float64 // uniform in [0, 1)
}

// NewSampler returns a sampler backed by the shared math/rand source
func NewSampler() *Sampler {
	return &Sampler{randFloat: rand.Float64}
}

// NewSamplerWithSource returns a sampler drawing from the given function,
// which must return uniform values in [0, 1).
func NewSamplerWithSource(src func() float64) *Sampler {
	return &Sampler{randFloat: src}
}

// DrawReward performs a cumulative-weight draw over the table: r uniform in
// [0, 100), walk entries in order accumulating weight, return the first entry
// whose running cumulative reaches r. Boundary values fall into the lower
// entry. The raw roll is returned for audit logging.
func (s *Sampler) DrawReward(t RewardTable) (Reward, float64) {
	roll := s.randFloat() * 100
	cumulative := 0.0
	for _, e := range t.Entries {
		cumulative += e.Chance
		if roll <= cumulative {
			return e, roll
		}
	}
	// Rounding drift ran the walk off the end; fall back to the last entry.
	log.WithFields(log.Fields{
		"table": t.ID,
		"roll":  roll,
	}).Warn("cumulative draw ran past table end, returning last entry")
	return t.Entries[len(t.Entries)-1], roll
}

// DrawUpgrade performs the upgrade game's win-chance draw for a multiplier
// already validated by the caller. Returns the outcome and the raw roll.
func (s *Sampler) DrawUpgrade(multiplier float64) (bool, float64) {
	roll := s.randFloat()
	return roll < WinChance(multiplier), roll
}

// DrawRollsColor draws one Rolls outcome from the fixed 49/49/2 population
func (s *Sampler) DrawRollsColor() (models.Color, float64) {
	entry, roll := s.DrawReward(rollsTable)
	return models.Color(entry.Name), roll
}
