// Package notify delivers fire-and-forget Telegram messages. Delivery
// failures are logged and swallowed; game flow never blocks on Telegram.
package notify

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"rollhouse/service"
)

// TelegramNotifier sends messages through the Telegram Bot API
type TelegramNotifier struct {
	bot         *tgbotapi.BotAPI
	adminChatID int64
}

// NewTelegramNotifier connects to the Bot API. adminChatID may be zero, in
// which case admin notifications are dropped.
func NewTelegramNotifier(token string, adminChatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.WithField("bot", bot.Self.UserName).Info("Telegram notifier connected")

	return &TelegramNotifier{
		bot:         bot,
		adminChatID: adminChatID,
	}, nil
}

// NotifyUser sends a message to a user's chat without blocking the caller
func (n *TelegramNotifier) NotifyUser(telegramID int64, text string) {
	n.send(telegramID, text)
}

// NotifyAdmin sends a message to the configured admin chat
func (n *TelegramNotifier) NotifyAdmin(text string) {
	if n.adminChatID == 0 {
		return
	}
	n.send(n.adminChatID, text)
}

func (n *TelegramNotifier) send(chatID int64, text string) {
	go func() {
		msg := tgbotapi.NewMessage(chatID, text)
		if _, err := n.bot.Send(msg); err != nil {
			log.WithFields(log.Fields{
				"chat": chatID,
			}).WithError(err).Warn("Failed to deliver Telegram notification")
		}
	}()
}

// NopNotifier discards every notification. Used when no bot token is
// configured and in tests.
type NopNotifier struct{}

func (NopNotifier) NotifyUser(telegramID int64, text string) {}

func (NopNotifier) NotifyAdmin(text string) {}

var (
	_ service.Notifier = (*TelegramNotifier)(nil)
	_ service.Notifier = NopNotifier{}
)
