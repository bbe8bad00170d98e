package lib

import (
	"context"
	"database/sql"

	"github.com/ramandhika/telegram-repo-watcher/config"
	"github.com/ramandhika/telegram-repo-watcher/lib/models"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Service carries the subscription lifecycle operations driven by bot
// commands: subscribe, list, unsubscribe, login.
type Service struct {
	cfg    *config.Config
	log    *zap.Logger
	store  *Store
	source CommitSource
}

func NewService(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, store *Store, source CommitSource) *Service {
	return &Service{cfg, log, store, source}
}

// Subscribe registers (owner, repo, branch) for the chat. The initial fetch
// must succeed so the stored SHA starts non-null; seeding it here is what
// keeps the first observation from notifying.
func (svc *Service) Subscribe(ctx context.Context, chatID int64, owner, repo, branch string) (*models.Subscription, error) {
	if branch == "" {
		branch = models.DefaultBranch
	}

	token, err := svc.store.CredentialTokenFor(ctx, chatID)
	if err != nil {
		return nil, err
	}

	commit, err := svc.source.FetchHead(ctx, owner, repo, branch, token)
	if err != nil {
		return nil, err
	}

	sub := &models.Subscription{
		ChatID:        chatID,
		Owner:         owner,
		Repo:          repo,
		Branch:        branch,
		LastCommitSHA: sql.NullString{String: commit.SHA, Valid: true},
	}
	if err := svc.store.CreateSubscription(ctx, sub); err != nil {
		return nil, err
	}

	svc.log.Sugar().Infow("Created subscription",
		"subscription_id", sub.ID, "chat_id", chatID, "slug", sub.Slug(), "sha", commit.ShortSHA())
	return sub, nil
}

func (svc *Service) ListSubscriptions(ctx context.Context, chatID int64) (models.Subscriptions, error) {
	return svc.store.ListSubscriptions(ctx, chatID)
}

func (svc *Service) Unsubscribe(ctx context.Context, chatID int64, subID uint) error {
	if err := svc.store.DeleteSubscription(ctx, chatID, subID); err != nil {
		return err
	}
	svc.log.Sugar().Infow("Deleted subscription", "subscription_id", subID, "chat_id", chatID)
	return nil
}

// Login validates the token upstream, then replaces the chat's credential
// wholesale.
func (svc *Service) Login(ctx context.Context, chatID int64, username, token string) error {
	login, err := svc.source.ValidateToken(ctx, token)
	if err != nil {
		return err
	}

	cred := &models.Credential{ChatID: chatID, Username: username, Token: token}
	if err := svc.store.UpsertCredential(ctx, cred); err != nil {
		return err
	}

	svc.log.Sugar().Infow("Stored credential", "chat_id", chatID, "username", username, "login", login)
	return nil
}
