// Package metrics exposes the platform's Prometheus counters. Served on
// /metrics by the API server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SettlementsApplied counts committed settlements by game type
	SettlementsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rollhouse_settlements_total",
		Help: "Committed balance settlements by game type",
	}, []string{"game_type"})

	// RollsBetsPlaced counts accepted Rolls bets by color
	RollsBetsPlaced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rollhouse_rolls_bets_total",
		Help: "Accepted Rolls bets by color",
	}, []string{"color"})

	// RollsRoundsResolved counts resolved Rolls rounds by outcome color
	RollsRoundsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rollhouse_rolls_rounds_resolved_total",
		Help: "Resolved Rolls rounds by outcome color",
	}, []string{"result"})

	// UpgradeSpins counts upgrade roulette spins by outcome
	UpgradeSpins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rollhouse_upgrade_spins_total",
		Help: "Upgrade roulette spins by outcome",
	}, []string{"outcome"})

	// CasesOpened counts case openings by case type and reward kind
	CasesOpened = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rollhouse_cases_opened_total",
		Help: "Case openings by case type and reward kind",
	}, []string{"case_type", "reward_kind"})

	// DepositsCredited counts credited deposits by method
	DepositsCredited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rollhouse_deposits_credited_total",
		Help: "Credited deposits by method",
	}, []string{"method"})
)
