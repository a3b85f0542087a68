package api

import "context"

// TelegramClient defines the interface for Telegram API operations.
// This allows for easy mocking in tests.
type TelegramClient interface {
	SendMessage(ctx context.Context, chatID, text, parseMode string) (*SendMessageResponse, error)
}

// Ensure TelegramAPI implements TelegramClient interface
var _ TelegramClient = (*TelegramAPI)(nil)
