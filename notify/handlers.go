package notify

import (
	"context"
	"fmt"

	"rollhouse/events"
	"rollhouse/models"
	"rollhouse/service"
)

// RegisterHandlers subscribes the notifier to the events worth telling
// someone about
func RegisterHandlers(bus *events.Bus, notifier service.Notifier) {
	bus.Subscribe(events.EventTypeUserCreated, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.UserCreatedEvent)
		if !ok {
			return
		}
		notifier.NotifyUser(e.TelegramID, "Welcome to Rollhouse! You start with an empty balance - top up to play.")
	})

	bus.Subscribe(events.EventTypeDepositCredited, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.DepositCreditedEvent)
		if !ok {
			return
		}
		notifier.NotifyUser(e.TelegramID, fmt.Sprintf("Deposit of %s TON credited to your balance.", models.FormatTON(e.Amount)))
		notifier.NotifyAdmin(fmt.Sprintf("Deposit: user %d credited %s TON via %s", e.TelegramID, models.FormatTON(e.Amount), e.Method))
	})

	bus.Subscribe(events.EventTypeWithdrawalRequested, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.WithdrawalRequestedEvent)
		if !ok {
			return
		}
		notifier.NotifyUser(e.TelegramID, fmt.Sprintf("Withdrawal request #%d for %s TON received. An operator will review it shortly.", e.RequestID, models.FormatTON(e.Amount)))
		notifier.NotifyAdmin(fmt.Sprintf("Withdrawal request #%d: user %d wants %s TON to %s", e.RequestID, e.TelegramID, models.FormatTON(e.Amount), e.WalletAddress))
	})

	bus.Subscribe(events.EventTypeWithdrawalResolved, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.WithdrawalResolvedEvent)
		if !ok {
			return
		}
		if e.Approved {
			notifier.NotifyUser(e.TelegramID, fmt.Sprintf("Withdrawal #%d for %s TON approved and sent.", e.RequestID, models.FormatTON(e.Amount)))
		} else {
			notifier.NotifyUser(e.TelegramID, fmt.Sprintf("Withdrawal #%d rejected. %s TON returned to your balance.", e.RequestID, models.FormatTON(e.Amount)))
		}
	})
}
