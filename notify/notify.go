// Package notify formats operational events and sends them to a Telegram chat.
//
// Simple callers use the package-level Send, which loads the settings file
// named by TELENOTIFY_CONFIG (default ".env") on first use:
//
//	ok, err := notify.Send("backup", "Backup završen", notify.Extras{{Key: "size", Value: "2.5MB"}})
//
// Long-running programs should load configuration once at startup and keep a
// *Client instead.
package notify

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"telenotify/internal/config"
	"telenotify/internal/message"
	"telenotify/internal/notifier"
)

type (
	Extras = message.Extras
	Field  = message.Field

	// TransportError is returned by Deliver when the message was not sent.
	TransportError = notifier.TransportError

	// ConfigError is returned when configuration cannot be loaded.
	ConfigError = config.Error

	Config = config.Config
)

// LoadConfig reads the settings file at path. See New.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// Client formats and delivers notifications with a fixed configuration.
type Client struct {
	formatter *message.Formatter
	notifier  notifier.Notifier
	logger    zerolog.Logger
}

// New returns a Client sending through the Telegram Bot API.
func New(cfg *config.Config) *Client {
	return NewWithNotifier(notifier.NewTelegramNotifier(cfg))
}

// NewWithNotifier returns a Client delivering through n.
func NewWithNotifier(n notifier.Notifier) *Client {
	return &Client{
		formatter: message.NewFormatter(),
		notifier:  n,
		logger:    log.Logger,
	}
}

// Format renders the message without sending it.
func (c *Client) Format(typ, msg string, extras Extras) string {
	return c.formatter.Format(typ, msg, extras)
}

// Deliver formats and sends the notification. It returns nil on success and
// a *TransportError otherwise.
func (c *Client) Deliver(ctx context.Context, typ, msg string, extras Extras) error {
	return c.notifier.SendNotification(ctx, c.Format(typ, msg, extras))
}

// Send is Deliver reduced to a success flag. Failures are already logged by
// the notifier.
func (c *Client) Send(ctx context.Context, typ, msg string, extras Extras) bool {
	if err := c.Deliver(ctx, typ, msg, extras); err != nil {
		c.logger.Debug().Err(err).Str("type", typ).Msg("Notification not delivered")
		return false
	}
	return true
}

var (
	defaultMu     sync.Mutex
	defaultLoader = config.NewLoader(config.PathFromEnv())
	defaultClient *Client
)

// Default returns the process-wide client, loading configuration on first
// use. A configuration error is returned on every call and nothing is sent.
func Default() (*Client, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultClient != nil {
		return defaultClient, nil
	}
	cfg, err := defaultLoader.Get()
	if err != nil {
		return nil, err
	}
	defaultClient = New(cfg)
	return defaultClient, nil
}

// SetConfigPath points the process-wide client at another settings file.
// Clients returned by Default earlier keep their configuration.
func SetConfigPath(path string) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLoader = config.NewLoader(path)
	defaultClient = nil
}

// Send formats and delivers a notification using the process-wide client.
// The error is non-nil only for configuration problems; a failed delivery
// is reported as false.
func Send(typ, msg string, extras Extras) (bool, error) {
	c, err := Default()
	if err != nil {
		return false, err
	}
	return c.Send(context.Background(), typ, msg, extras), nil
}
