package config

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

const (
	// DefaultPath is the settings file looked up when no path is given.
	DefaultPath = ".env"

	// DefaultAPIURL is the base URL of the Telegram Bot API.
	DefaultAPIURL = "https://api.telegram.org"

	// PathEnv names the environment variable that overrides DefaultPath.
	PathEnv = "TELENOTIFY_CONFIG"

	KeyBotToken = "TELEGRAM_BOT_TOKEN"
	KeyChatID   = "TELEGRAM_CHAT_ID"
	KeyAPIURL   = "TELEGRAM_API_URL"
)

var (
	// ErrMissingFile is returned when the settings file does not exist.
	ErrMissingFile = errors.New("settings file not found")

	// ErrMissingKey is returned when a required key is absent or empty.
	ErrMissingKey = errors.New("required key missing or empty")
)

// Error describes why the configuration could not be loaded.
// It is always fatal for the caller: nothing is sent without a valid config.
type Error struct {
	Path string
	Key  string
	Err  error
}

func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("config %s: %s: %v", e.Path, e.Key, e.Err)
	}
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Config holds the Telegram secrets. It is not modified after Load returns.
type Config struct {
	BotToken string `mapstructure:"telegram_bot_token"`
	ChatID   string `mapstructure:"telegram_chat_id"`
	APIURL   string `mapstructure:"telegram_api_url"`
}

// PathFromEnv returns the settings path from TELENOTIFY_CONFIG, or DefaultPath.
func PathFromEnv() string {
	if p := strings.TrimSpace(os.Getenv(PathEnv)); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads the settings file at path and validates the required keys.
// Environment variables with the same names override values from the file.
func Load(path string) (*Config, error) {
	values, err := readSettings(path)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetDefault(KeyAPIURL, DefaultAPIURL)
	if err := v.MergeConfigMap(values); err != nil {
		return nil, &Error{Path: path, Err: fmt.Errorf("failed to merge settings: %w", err)}
	}
	for _, key := range []string{KeyBotToken, KeyChatID, KeyAPIURL} {
		if err := v.BindEnv(key, key); err != nil {
			return nil, &Error{Path: path, Key: key, Err: err}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &Error{Path: path, Err: fmt.Errorf("unable to decode settings: %w", err)}
	}
	cfg.BotToken = strings.TrimSpace(cfg.BotToken)
	cfg.ChatID = strings.TrimSpace(cfg.ChatID)
	cfg.APIURL = strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")

	if cfg.BotToken == "" {
		return nil, &Error{Path: path, Key: KeyBotToken, Err: ErrMissingKey}
	}
	if cfg.ChatID == "" {
		return nil, &Error{Path: path, Key: KeyChatID, Err: ErrMissingKey}
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	return &cfg, nil
}

// readSettings parses KEY=VALUE lines. Comment lines and lines without '='
// are skipped; a repeated key keeps its last value.
func readSettings(path string) (map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &Error{Path: path, Err: ErrMissingFile}
		}
		return nil, &Error{Path: path, Err: err}
	}
	defer func() {
		_ = f.Close()
	}()

	values := make(map[string]any)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		values[key] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, &Error{Path: path, Err: fmt.Errorf("failed to read settings: %w", err)}
	}
	return values, nil
}

// Loader loads the configuration at most once and caches the outcome,
// including a failure, for the lifetime of the process.
type Loader struct {
	Path string

	once sync.Once
	cfg  *Config
	err  error
}

func NewLoader(path string) *Loader {
	return &Loader{Path: path}
}

// Get returns the cached configuration, loading it on first use.
func (l *Loader) Get() (*Config, error) {
	l.once.Do(func() {
		l.cfg, l.err = Load(l.Path)
	})
	return l.cfg, l.err
}
