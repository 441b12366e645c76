package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSender adapts the bot API to the alert dispatcher's Sender.
type TelegramSender struct {
	api API
}

// NewTelegramSender wraps api for alert delivery.
func NewTelegramSender(api API) *TelegramSender {
	return &TelegramSender{api: api}
}

// Send delivers an alert message to a chat.
func (s *TelegramSender) Send(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	_, err := s.api.Send(msg)
	return err
}
