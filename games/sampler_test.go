package games

import (
	"math"
	"math/rand"
	"testing"

	"rollhouse/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedSource returns a sampler that always draws the given value
func fixedSource(v float64) *Sampler {
	return NewSamplerWithSource(func() float64 { return v })
}

func TestWinChance_Clamp(t *testing.T) {
	// 1/1.3 ≈ 0.769, inside the clamp
	assert.InDelta(t, 1.0/1.3, WinChance(1.3), 1e-9)
	// 1/20 = 0.05, exactly the floor
	assert.Equal(t, 0.05, WinChance(20))
	// Below-range multipliers are a validation concern, but the clamp still holds
	assert.Equal(t, 0.95, WinChance(1.0))
	assert.Equal(t, 0.05, WinChance(100))
}

func TestWinChance_Monotonic(t *testing.T) {
	prev := math.Inf(1)
	for m := MinMultiplier; m <= MaxMultiplier; m += 0.1 {
		chance := WinChance(m)
		assert.LessOrEqual(t, chance, prev, "win chance must not increase with multiplier %v", m)
		prev = chance
	}
	// Strict over the unclamped region
	assert.Greater(t, WinChance(2.0), WinChance(4.0))
}

func TestValidMultiplier(t *testing.T) {
	assert.True(t, ValidMultiplier(1.3))
	assert.True(t, ValidMultiplier(20.0))
	assert.True(t, ValidMultiplier(2.5))
	assert.False(t, ValidMultiplier(1.29))
	assert.False(t, ValidMultiplier(20.01))
	assert.False(t, ValidMultiplier(0))
	assert.False(t, ValidMultiplier(-2))
}

func TestDrawReward_BoundaryFallsIntoLowerEntry(t *testing.T) {
	table := RewardTable{
		ID: "test",
		Entries: []Reward{
			{Name: "low", Chance: 30},
			{Name: "mid", Chance: 50},
			{Name: "high", Chance: 20},
		},
	}
	require.NoError(t, table.Validate())

	// Exactly on the 30 boundary: strict <= keeps it in the lower entry
	reward, roll := fixedSource(0.30).DrawReward(table)
	assert.Equal(t, "low", reward.Name)
	assert.Equal(t, 30.0, roll)

	reward, _ = fixedSource(0.300001).DrawReward(table)
	assert.Equal(t, "mid", reward.Name)

	reward, _ = fixedSource(0.80).DrawReward(table)
	assert.Equal(t, "mid", reward.Name)

	reward, _ = fixedSource(0.99).DrawReward(table)
	assert.Equal(t, "high", reward.Name)

	reward, _ = fixedSource(0).DrawReward(table)
	assert.Equal(t, "low", reward.Name)
}

func TestDrawReward_DriftFallsBackToLastEntry(t *testing.T) {
	// Weights that sum to slightly under the roll force the walk off the end
	table := RewardTable{
		ID: "drift",
		Entries: []Reward{
			{Name: "a", Chance: 50},
			{Name: "b", Chance: 49.9999999},
		},
	}
	reward, _ := NewSamplerWithSource(func() float64 { return 0.9999999999 }).DrawReward(table)
	assert.Equal(t, "b", reward.Name)
}

func TestDrawUpgrade_ForcedOutcomes(t *testing.T) {
	// chance at 2.0x is 0.5
	won, _ := fixedSource(0.49).DrawUpgrade(2.0)
	assert.True(t, won)

	won, _ = fixedSource(0.50).DrawUpgrade(2.0)
	assert.False(t, won)

	won, _ = fixedSource(0.999).DrawUpgrade(1.3)
	assert.False(t, won)
}

func TestDrawRollsColor_Boundaries(t *testing.T) {
	color, _ := fixedSource(0.20).DrawRollsColor()
	assert.Equal(t, models.ColorRed, color)

	color, _ = fixedSource(0.49).DrawRollsColor()
	assert.Equal(t, models.ColorRed, color)

	color, _ = fixedSource(0.75).DrawRollsColor()
	assert.Equal(t, models.ColorBlue, color)

	color, _ = fixedSource(0.985).DrawRollsColor()
	assert.Equal(t, models.ColorGreen, color)
}

// TestDrawReward_Distribution replays the regular case table 100k times and
// checks each entry's observed frequency against its configured weight with a
// chi-squared goodness-of-fit statistic.
func TestDrawReward_Distribution(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping statistical test in short mode")
	}

	rng := rand.New(rand.NewSource(42))
	sampler := NewSamplerWithSource(rng.Float64)

	table, err := CaseTable(CaseRegular)
	require.NoError(t, err)

	const trials = 100_000
	counts := make(map[string]int, len(table.Entries))
	for i := 0; i < trials; i++ {
		reward, _ := sampler.DrawReward(table)
		counts[reward.Name]++
	}

	chiSquared := 0.0
	for _, e := range table.Entries {
		expected := float64(trials) * e.Chance / 100
		observed := float64(counts[e.Name])
		if expected > 0 {
			chiSquared += math.Pow(observed-expected, 2) / expected
		}
	}

	// 5 degrees of freedom, alpha 0.001 → critical value 20.52
	assert.Less(t, chiSquared, 20.52, "distribution deviates from configured weights, counts: %v", counts)
}

// TestDrawRollsColor_Distribution checks the 49/49/2 population converges
func TestDrawRollsColor_Distribution(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping statistical test in short mode")
	}

	rng := rand.New(rand.NewSource(7))
	sampler := NewSamplerWithSource(rng.Float64)

	const trials = 100_000
	counts := make(map[models.Color]int)
	for i := 0; i < trials; i++ {
		color, _ := sampler.DrawRollsColor()
		counts[color]++
	}

	assert.InDelta(t, 0.49, float64(counts[models.ColorRed])/trials, 0.01)
	assert.InDelta(t, 0.49, float64(counts[models.ColorBlue])/trials, 0.01)
	assert.InDelta(t, 0.02, float64(counts[models.ColorGreen])/trials, 0.005)
}
