package senders

import (
	"context"

	"github.com/ramandhika/telegram-repo-watcher/lib/models"
	"github.com/ramandhika/telegram-repo-watcher/telegram"
)

type telegramSender struct {
	base
	tg *telegram.Client
}

func (t *telegramSender) SendCommit(ctx context.Context, chatID int64, sub *models.Subscription, commit *models.Commit) error {
	format := &commitMessageFormat{sub, commit}
	return t.tg.SendMessage(ctx, chatID, format.Text())
}

func (t *telegramSender) SendText(ctx context.Context, chatID int64, text string) error {
	return t.tg.SendMessage(ctx, chatID, text)
}
