package telegram

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/carlmjohnson/requests"
	"github.com/ramandhika/telegram-repo-watcher/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Client is a thin wrapper over the Telegram Bot API: one call, one request,
// no retries.
type Client struct {
	cfg       *config.Config
	log       *zap.Logger
	transport http.RoundTripper
}

func NewClient(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, transport http.RoundTripper) *Client {
	return &Client{cfg, log, transport}
}

type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

type Chat struct {
	ID int64 `json:"id"`
}

// APIError is a Telegram-side rejection (ok=false in the response envelope).
type APIError struct {
	Code        int    `json:"error_code"`
	Description string `json:"description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram api: %d %s", e.Code, e.Description)
}

type envelope[T any] struct {
	OK          bool   `json:"ok"`
	Result      T      `json:"result"`
	Code        int    `json:"error_code"`
	Description string `json:"description"`
}

// SendMessage delivers one Markdown message to one chat. At most one attempt;
// retry policy, if any, belongs to the caller.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.SendTimeout)
	defer cancel()

	// Telegram signals errors with a non-2xx status plus a JSON envelope, so
	// the default status validator is disabled and ok is checked instead.
	var resp envelope[Message]
	err := requests.URL(c.cfg.TelegramAPIBase).
		Pathf("/bot%s/sendMessage", c.cfg.BotToken).
		Transport(c.transport).
		BodyJSON(map[string]any{
			"chat_id":    chatID,
			"text":       text,
			"parse_mode": "Markdown",
		}).
		AddValidator(nil).
		ToJSON(&resp).
		Fetch(ctx)
	if err != nil {
		return err
	}
	if !resp.OK {
		return &APIError{Code: resp.Code, Description: resp.Description}
	}
	return nil
}

// GetUpdates long-polls for incoming bot updates starting at offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	// The HTTP deadline leaves headroom over the server-side long-poll window.
	ctx, cancel := context.WithTimeout(ctx, timeout+10*time.Second)
	defer cancel()

	var resp envelope[[]Update]
	err := requests.URL(c.cfg.TelegramAPIBase).
		Pathf("/bot%s/getUpdates", c.cfg.BotToken).
		Transport(c.transport).
		ParamInt("offset", int(offset)).
		ParamInt("timeout", int(timeout.Seconds())).
		AddValidator(nil).
		ToJSON(&resp).
		Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, &APIError{Code: resp.Code, Description: resp.Description}
	}
	return resp.Result, nil
}
