// Package bot runs the Telegram command loop: long-poll getUpdates, parse
// slash commands, drive the subscription service, reply.
package bot

import (
	"context"
	"time"

	"github.com/ramandhika/telegram-repo-watcher/config"
	"github.com/ramandhika/telegram-repo-watcher/lib"
	"github.com/ramandhika/telegram-repo-watcher/lib/models"
	"github.com/ramandhika/telegram-repo-watcher/telegram"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// service is the slice of lib.Service the command handlers need.
type service interface {
	Subscribe(ctx context.Context, chatID int64, owner, repo, branch string) (*models.Subscription, error)
	ListSubscriptions(ctx context.Context, chatID int64) (models.Subscriptions, error)
	Unsubscribe(ctx context.Context, chatID int64, subID uint) error
	Login(ctx context.Context, chatID int64, username, token string) error
}

// messenger is the slice of telegram.Client the bot needs for replies and
// update polling.
type messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]telegram.Update, error)
}

type Bot struct {
	cfg *config.Config
	log *zap.Logger
	svc service
	tg  messenger

	cancel context.CancelFunc
}

func NewBot(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, svc *lib.Service, tg *telegram.Client) *Bot {
	b := &Bot{cfg: cfg, log: log, svc: svc, tg: tg}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go b.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Sugar().Info("Trying to stop bot")
			b.Stop()
			return nil
		},
	})

	return b
}

func (b *Bot) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel

	b.log.Sugar().Info("Bot started in long-polling mode")

	var offset int64
	for {
		if ctx.Err() != nil {
			b.log.Sugar().Info("Bot stopped")
			return
		}

		updates, err := b.tg.GetUpdates(ctx, offset, b.cfg.BotPollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			b.log.Sugar().Warnw("Failed to poll updates", "err", err)
			time.Sleep(3 * time.Second)
			continue
		}

		for _, update := range updates {
			offset = update.UpdateID + 1
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
}
