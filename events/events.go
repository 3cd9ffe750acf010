package events

import (
	"context"
	"sync"

	"rollhouse/models"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeSettlementApplied   EventType = "settlement_applied"
	EventTypeUserCreated         EventType = "user_created"
	EventTypeRoundResolved       EventType = "round_resolved"
	EventTypeDepositCredited     EventType = "deposit_credited"
	EventTypeWithdrawalRequested EventType = "withdrawal_requested"
	EventTypeWithdrawalResolved  EventType = "withdrawal_resolved"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// SettlementAppliedEvent is emitted after a settlement commits
type SettlementAppliedEvent struct {
	TelegramID   int64
	GameType     models.GameType
	Stake        int64
	Payout       int64
	NetResult    int64
	BalanceAfter int64
	SettlementID int64
}

func (e SettlementAppliedEvent) Type() EventType {
	return EventTypeSettlementApplied
}

// UserCreatedEvent is emitted when a new account is created
type UserCreatedEvent struct {
	TelegramID int64
	Username   string
	RefID      *int64
}

func (e UserCreatedEvent) Type() EventType {
	return EventTypeUserCreated
}

// RoundResolvedEvent is emitted once per resolved Rolls round
type RoundResolvedEvent struct {
	Generation  uint64
	Result      models.Color
	BetCount    int
	TotalStaked int64
	TotalPaid   int64
}

func (e RoundResolvedEvent) Type() EventType {
	return EventTypeRoundResolved
}

// DepositCreditedEvent is emitted after a deposit commits
type DepositCreditedEvent struct {
	TelegramID int64
	Amount     int64
	Method     models.DepositMethod
}

func (e DepositCreditedEvent) Type() EventType {
	return EventTypeDepositCredited
}

// WithdrawalRequestedEvent is emitted when a withdrawal request is created
type WithdrawalRequestedEvent struct {
	TelegramID    int64
	RequestID     int64
	Amount        int64
	WalletAddress string
}

func (e WithdrawalRequestedEvent) Type() EventType {
	return EventTypeWithdrawalRequested
}

// WithdrawalResolvedEvent is emitted when an operator approves or rejects a
// withdrawal request
type WithdrawalResolvedEvent struct {
	TelegramID int64
	RequestID  int64
	Amount     int64
	Approved   bool
}

func (e WithdrawalResolvedEvent) Type() EventType {
	return EventTypeWithdrawalResolved
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Call handlers asynchronously to avoid blocking
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus stashes events published during a unit of work and flushes
// them to the real bus only after the transaction commits.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits all pending events. Called after a successful commit; uses a
// background context so event delivery outlives the request.
func (b *TransactionalBus) Flush(ctx context.Context) {
	eventCtx := context.Background()
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// Discard drops pending events after a rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
