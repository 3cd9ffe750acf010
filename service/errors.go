package service

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors surfaced to the HTTP layer. Wrapped with %w so callers can
// test with errors.Is / errors.As.
var (
	// ErrNotFound is returned for unknown accounts, items, and records
	ErrNotFound = errors.New("not found")

	// ErrInsufficientFunds is returned when a debit exceeds the balance
	// measured at transaction time. No partial debit is ever observable.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrFreeCaseClaimed is returned by the conditional free-case stamp
	// when the cooldown has not elapsed at transaction time
	ErrFreeCaseClaimed = errors.New("free case already claimed")
)

// ValidationError rejects bad input before any state mutation
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// Validationf builds a ValidationError from a format string
func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// BettingClosedError is returned when a bet arrives after the round locked.
// Safe to retry once the next round opens.
type BettingClosedError struct {
	Remaining time.Duration // time until the current round resolves
}

func (e *BettingClosedError) Error() string {
	return fmt.Sprintf("betting closed, next round in %s", e.Remaining.Round(time.Millisecond))
}

// CooldownError is returned when the free case is opened before its 24-hour
// cooldown elapses. Safe to retry after Remaining.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	hours := int(e.Remaining.Hours())
	minutes := int(e.Remaining.Minutes()) % 60
	return fmt.Sprintf("case available in %dh %dm", hours, minutes)
}
