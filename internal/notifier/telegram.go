package notifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"telenotify/internal/api"
	"telenotify/internal/config"
)

// TransportError reports that a message was not delivered. The send is
// treated as not having happened; nothing is retried.
type TransportError struct {
	SendID string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("telegram delivery failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// TelegramNotifier sends Markdown messages to a single chat.
type TelegramNotifier struct {
	ChatID string

	api    api.TelegramClient
	logger zerolog.Logger
}

// NewTelegramNotifier builds a notifier from loaded configuration.
func NewTelegramNotifier(cfg *config.Config) *TelegramNotifier {
	return &TelegramNotifier{
		ChatID: cfg.ChatID,
		api:    api.NewTelegramAPI(cfg.APIURL, cfg.BotToken),
		logger: log.Logger,
	}
}

// WithLogger replaces the logger used for delivery reports.
func (t *TelegramNotifier) WithLogger(logger zerolog.Logger) *TelegramNotifier {
	t.logger = logger
	return t
}

// WithClient replaces the Bot API client.
func (t *TelegramNotifier) WithClient(client api.TelegramClient) *TelegramNotifier {
	t.api = client
	return t
}

// SendNotification makes one sendMessage call. Any failure is logged and
// returned as a *TransportError.
func (t *TelegramNotifier) SendNotification(ctx context.Context, text string) error {
	sendID := uuid.NewString()
	logger := t.logger.With().Str("send_id", sendID).Str("chat_id", t.ChatID).Logger()

	resp, err := t.api.SendMessage(ctx, t.ChatID, text, api.ParseModeMarkdown)
	if err != nil {
		var statusErr *api.StatusError
		switch {
		case errors.As(err, &statusErr):
			logger.Error().
				Int("status", statusErr.StatusCode).
				Str("body", statusErr.Body).
				Msg("Telegram API returned non-200 status")
		case errors.Is(err, api.ErrNotOK):
			logger.Error().Err(err).Msg("Telegram API rejected the message")
		default:
			logger.Error().
				Err(err).
				Bool("timeout", api.IsTimeout(err)).
				Msg("Telegram request failed")
		}
		return &TransportError{SendID: sendID, Err: err}
	}

	logger.Debug().Int64("message_id", resp.Result.MessageID).Msg("Telegram message sent")
	return nil
}
