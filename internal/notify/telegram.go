package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"carehub/internal/logger"
)

// TelegramNotifier delivers digests to a family's group chat. It is a
// one-way channel: all interaction with the system happens over the
// HTTP API.
type TelegramNotifier struct {
	api *tgbotapi.BotAPI
	log *logger.Logger
}

func NewTelegramNotifier(token string, baseLog *logger.Logger) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	log := baseLog.With("notifier", "telegram")
	log.Info("bot authorized", "account", api.Self.UserName)
	return &TelegramNotifier{api: api, log: log}, nil
}

// SendDigest sends one HTML digest to the given chat.
func (n *TelegramNotifier) SendDigest(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("send digest: %w", err)
	}
	n.log.Debug("digest sent", "chat_id", chatID)
	return nil
}
