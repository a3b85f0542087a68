package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// ParseModeMarkdown selects Telegram's legacy Markdown parser.
const ParseModeMarkdown = "Markdown"

// ErrNotOK is returned when the Bot API answers 200 but does not report ok=true.
var ErrNotOK = errors.New("telegram api did not report ok")

// StatusError is returned for any non-200 response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("telegram api request failed with status %d: %s", e.StatusCode, e.Body)
}

// SendMessageResponse is the envelope the Bot API wraps every reply in.
// Example: {"ok": true, "result": {"message_id": 42, ...}}
type SendMessageResponse struct {
	// OK is a pointer so a missing field can be told apart from false.
	OK          *bool  `json:"ok"`
	Description string `json:"description,omitempty"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

// TelegramAPI is a minimal client for the Bot API sendMessage method.
type TelegramAPI struct {
	// BaseURL is the Bot API root, usually https://api.telegram.org
	BaseURL string

	// Token is the bot token issued by BotFather. It is part of the request path.
	Token string

	// Client performs the request. DefaultHTTPClient is used when nil.
	Client *http.Client
}

func NewTelegramAPI(baseURL, token string) *TelegramAPI {
	return &TelegramAPI{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  DefaultHTTPClient,
	}
}

func (t *TelegramAPI) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", t.BaseURL, t.Token, method)
}

// SendMessage posts text to chatID. Exactly one request is made; the caller
// decides what to do with a failure.
func (t *TelegramAPI) SendMessage(ctx context.Context, chatID, text, parseMode string) (*SendMessageResponse, error) {
	form := url.Values{}
	form.Set("chat_id", chatID)
	form.Set("text", text)
	if parseMode != "" {
		form.Set("parse_mode", parseMode)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint("sendMessage"), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", redact(err, t.Token))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	client := t.Client
	if client == nil {
		client = DefaultHTTPClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", redact(err, t.Token))
	}
	defer drainAndClose(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: readErrorBody(resp)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var out SendMessageResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if out.OK == nil || !*out.OK {
		if out.Description != "" {
			return &out, fmt.Errorf("%w: %s", ErrNotOK, out.Description)
		}
		return &out, ErrNotOK
	}
	return &out, nil
}
