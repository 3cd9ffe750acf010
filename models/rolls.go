package models

// Color is one of the three Rolls chip colors
type Color string

const (
	ColorRed   Color = "red"
	ColorBlue  Color = "blue"
	ColorGreen Color = "green"
)

// Valid reports whether the color is one of the three playable chips
func (c Color) Valid() bool {
	return c == ColorRed || c == ColorBlue || c == ColorGreen
}

// PayoutMultiplier is the stake multiplier paid when this color hits
func (c Color) PayoutMultiplier() int64 {
	if c == ColorGreen {
		return 10
	}
	return 2
}

// RollsBet is one user's bet in the currently open round. It only exists while
// attached to that round and is cleared the moment the round resolves.
type RollsBet struct {
	TelegramID int64
	Color      Color
	Amount     int64
}

// RollsPayout reports how one bet fared in a resolved round
type RollsPayout struct {
	Won        bool  `json:"won"`
	Amount     int64 `json:"amount"`
	Multiplier int64 `json:"mult"`
}

// RollsSnapshot is the read-only view of the current round, consumed by the
// HTTP layer verbatim.
type RollsSnapshot struct {
	CountdownSeconds float64               `json:"countdown"`
	LastResult       *Color                `json:"last_result"`
	History          []Color               `json:"history"`
	RedCount         int                   `json:"red_count"`
	BlueCount        int                   `json:"blue_count"`
	GreenCount       int                   `json:"green_count"`
	LastPayouts      map[int64]RollsPayout `json:"last_payouts"`
}
