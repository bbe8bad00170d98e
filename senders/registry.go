package senders

import (
	"context"

	"github.com/ramandhika/telegram-repo-watcher/config"
	"github.com/ramandhika/telegram-repo-watcher/lib/models"
	"github.com/ramandhika/telegram-repo-watcher/telegram"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const PlatformTelegram = "telegram"

type Sender interface {
	SendCommit(ctx context.Context, chatID int64, sub *models.Subscription, commit *models.Commit) error
	SendText(ctx context.Context, chatID int64, text string) error
}

type Registry map[string]Sender

func NewSenderRegistry(lc fx.Lifecycle, log *zap.Logger, cfg *config.Config, tg *telegram.Client) Registry {
	base := base{log, cfg}
	return map[string]Sender{
		PlatformTelegram: &telegramSender{base, tg},
	}
}

type base struct {
	log *zap.Logger
	cfg *config.Config
}
