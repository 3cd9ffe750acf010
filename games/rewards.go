package games

import (
	"fmt"
	"math"

	"rollhouse/models"
)

// RewardKind classifies what a reward entry grants
type RewardKind string

const (
	RewardTON     RewardKind = "ton"     // credited straight to balance
	RewardNFT     RewardKind = "nft"     // becomes an inventory item
	RewardNothing RewardKind = "nothing" // empty pull
)

// Reward is one weighted entry in a case table. Entry order is semantically
// significant: boundary draws fall into the lower entry, so tables must be
// kept in their configured order.
type Reward struct {
	Name      string     `json:"name"`
	Image     string     `json:"image"`
	Kind      RewardKind `json:"type"`
	Chance    float64    `json:"chance"`
	SellPrice int64      `json:"sell_price"`
}

// RewardTable is an ordered, immutable weighted-probability table
type RewardTable struct {
	ID      string
	Entries []Reward
}

// weightTolerance absorbs float drift when summing configured percentages
const weightTolerance = 1e-6

// Validate checks that the table's weights sum to exactly 100
func (t RewardTable) Validate() error {
	if len(t.Entries) == 0 {
		return fmt.Errorf("reward table %q has no entries", t.ID)
	}
	var sum float64
	for _, e := range t.Entries {
		if e.Chance < 0 || e.Chance > 100 {
			return fmt.Errorf("reward table %q entry %q has weight %v outside [0, 100]", t.ID, e.Name, e.Chance)
		}
		sum += e.Chance
	}
	if math.Abs(sum-100) > weightTolerance {
		return fmt.Errorf("reward table %q weights sum to %v, want 100", t.ID, sum)
	}
	return nil
}

// CaseType identifies one of the openable loot cases
type CaseType string

const (
	CaseFree    CaseType = "free"
	CaseRegular CaseType = "regular"
	CaseSnoop   CaseType = "snoop"
)

var caseCosts = map[CaseType]int64{
	CaseFree:    0,
	CaseRegular: 5 * models.MinorUnitsPerTON,
	CaseSnoop:   7 * models.MinorUnitsPerTON,
}

// CaseCost resolves the opening cost of a case type
func CaseCost(ct CaseType) (int64, error) {
	cost, ok := caseCosts[ct]
	if !ok {
		return 0, fmt.Errorf("unknown case type %q", ct)
	}
	return cost, nil
}

var freeCaseTable = RewardTable{
	ID: string(CaseFree),
	Entries: []Reward{
		{Name: "0.05 TON", Image: "💎", Kind: RewardTON, Chance: 100, SellPrice: 500},
	},
}

var regularCaseTable = RewardTable{
	ID: string(CaseRegular),
	Entries: []Reward{
		{Name: "Jolly Chimp", Image: "🐒", Kind: RewardNFT, Chance: 5.36, SellPrice: 5_000},
		{Name: "1 TON", Image: "💎", Kind: RewardTON, Chance: 79.0, SellPrice: 10_000},
		{Name: "3.4 TON", Image: "💎💎", Kind: RewardTON, Chance: 10.64, SellPrice: 34_000},
		{Name: "Restless Jar", Image: "🏺", Kind: RewardNFT, Chance: 2.0, SellPrice: 15_000},
		{Name: "Neko Helmet", Image: "🪖", Kind: RewardNFT, Chance: 0.2, SellPrice: 80_000},
		{Name: "Nothing", Image: "❌", Kind: RewardNothing, Chance: 2.8, SellPrice: 0},
	},
}

var snoopCaseTable = RewardTable{
	ID: string(CaseSnoop),
	Entries: []Reward{
		{Name: "Low Rider", Image: "🚗", Kind: RewardNFT, Chance: 0.01, SellPrice: 500_000},
		{Name: "Cigar Doggystyle", Image: "🚬", Kind: RewardNFT, Chance: 0.36, SellPrice: 200_000},
		{Name: "Cigar Infinity", Image: "♾️", Kind: RewardNFT, Chance: 1.0, SellPrice: 120_000},
		{Name: "Cigar Space", Image: "🌌", Kind: RewardNFT, Chance: 1.76, SellPrice: 80_000},
		{Name: "King Snoop", Image: "👑", Kind: RewardNFT, Chance: 2.52, SellPrice: 60_000},
		{Name: "Snoop Dog", Image: "🐕", Kind: RewardNFT, Chance: 8.41, SellPrice: 40_000},
		{Name: "Swag Bag", Image: "👜", Kind: RewardNFT, Chance: 9.0, SellPrice: 25_000},
		{Name: "2.2 TON", Image: "💎", Kind: RewardTON, Chance: 76.94, SellPrice: 22_000},
	},
}

// CaseTable returns the reward table for the given case type
func CaseTable(ct CaseType) (RewardTable, error) {
	switch ct {
	case CaseFree:
		return freeCaseTable, nil
	case CaseRegular:
		return regularCaseTable, nil
	case CaseSnoop:
		return snoopCaseTable, nil
	default:
		return RewardTable{}, fmt.Errorf("unknown case type %q", ct)
	}
}

// rollsTable maps the fixed 100-chip population (49 red, 49 blue, 2 green)
// onto a weighted table so all draws share one algorithm.
var rollsTable = RewardTable{
	ID: "rolls",
	Entries: []Reward{
		{Name: string(models.ColorRed), Chance: 49},
		{Name: string(models.ColorBlue), Chance: 49},
		{Name: string(models.ColorGreen), Chance: 2},
	},
}

// ValidateTables checks every configured table. Called once at startup; a
// failure here is a configuration error and fatal.
func ValidateTables() error {
	for _, t := range []RewardTable{freeCaseTable, regularCaseTable, snoopCaseTable, rollsTable} {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	return nil
}
