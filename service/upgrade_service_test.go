package service

import (
	"context"
	"testing"

	"rollhouse/games"
	"rollhouse/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpgradeService_Spin_Win(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger(map[int64]int64{1: 10_000})
	// Any roll below the win chance wins
	svc := NewUpgradeService(ledger, games.NewSamplerWithSource(func() float64 { return 0.01 }))

	result, err := svc.Spin(ctx, 1, 1_000, 2.0)
	require.NoError(t, err)

	assert.True(t, result.Won)
	assert.Equal(t, int64(1_000), result.Stake)
	assert.Equal(t, 2.0, result.Multiplier)
	assert.Equal(t, 0.5, result.WinChance)
	assert.Equal(t, int64(1_000), result.NetResult)
	assert.Equal(t, int64(11_000), result.NewBalance)
	assert.Equal(t, int64(11_000), ledger.balance(1))
}

func TestUpgradeService_Spin_Loss(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger(map[int64]int64{1: 10_000})
	svc := NewUpgradeService(ledger, games.NewSamplerWithSource(func() float64 { return 0.99 }))

	result, err := svc.Spin(ctx, 1, 1_000, 2.0)
	require.NoError(t, err)

	assert.False(t, result.Won)
	assert.Equal(t, int64(-1_000), result.NetResult)
	assert.Equal(t, int64(9_000), result.NewBalance)
}

func TestUpgradeService_Spin_FractionalMultiplierTruncates(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger(map[int64]int64{1: 10_000})
	svc := NewUpgradeService(ledger, games.NewSamplerWithSource(func() float64 { return 0.0 }))

	result, err := svc.Spin(ctx, 1, 1_001, 1.5)
	require.NoError(t, err)

	// 1_001 * 1.5 = 1_501.5, paid in whole minor units
	assert.Equal(t, int64(1_501-1_001), result.NetResult)
	assert.Equal(t, int64(10_500), ledger.balance(1))
}

func TestUpgradeService_Spin_RejectsBadInput(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger(map[int64]int64{1: 10_000})
	svc := NewUpgradeService(ledger, games.NewSampler())

	var verr *ValidationError

	_, err := svc.Spin(ctx, 1, 0, 2.0)
	assert.ErrorAs(t, err, &verr)

	_, err = svc.Spin(ctx, 1, 1_000, 1.2)
	assert.ErrorAs(t, err, &verr)

	_, err = svc.Spin(ctx, 1, 1_000, 25.0)
	assert.ErrorAs(t, err, &verr)

	assert.Equal(t, int64(10_000), ledger.balance(1))
}

func TestUpgradeService_Spin_InsufficientFunds(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger(map[int64]int64{1: 100})
	svc := NewUpgradeService(ledger, games.NewSamplerWithSource(func() float64 { return 0.99 }))

	_, err := svc.Spin(ctx, 1, 1_000, 2.0)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, int64(100), ledger.balance(1))
}

func TestUpgradeService_Spin_LossIsDebitedEvenWhenBroke(t *testing.T) {
	ctx := context.Background()
	// The stake must be covered even though the spin will lose it
	ledger := newFakeLedger(map[int64]int64{1: 1_000})
	svc := NewUpgradeService(ledger, games.NewSamplerWithSource(func() float64 { return 0.99 }))

	result, err := svc.Spin(ctx, 1, 1_000, 2.0)
	require.NoError(t, err)
	assert.False(t, result.Won)
	assert.Equal(t, int64(0), ledger.balance(1))
}

func TestUpgradeService_Spin_ChanceClampAtHighMultiplier(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger(map[int64]int64{1: models.MinorUnitsPerTON})
	svc := NewUpgradeService(ledger, games.NewSamplerWithSource(func() float64 { return 0.04 }))

	// 1/20 = 0.05, the clamp floor; a 0.04 roll still wins
	result, err := svc.Spin(ctx, 1, 1_000, 20.0)
	require.NoError(t, err)
	assert.True(t, result.Won)
	assert.Equal(t, 0.05, result.WinChance)
	assert.Equal(t, int64(29_000), result.NewBalance)
	assert.Equal(t, int64(29_000), ledger.balance(1))
}
