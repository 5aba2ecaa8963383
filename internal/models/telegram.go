package models

import "time"

// TelegramConfig holds Telegram bot configuration.
type TelegramConfig struct {
	BotToken      string
	ChatID        string        // only messages from this chat are accepted
	PollTimeout   time.Duration // long-poll timeout for getUpdates
	RetryInterval time.Duration // pause after a failed poll
}
