package lib

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ramandhika/telegram-repo-watcher/lib/models"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrAlreadyExists means the chat already watches this (owner, repo).
	ErrAlreadyExists = errors.New("subscription already exists")

	// ErrNotFound means no row matched the chat-scoped lookup.
	ErrNotFound = errors.New("subscription not found")

	// ErrStaleSHA means a compare-and-swap lost to a concurrent writer; the
	// store already holds a newer SHA than the one the caller read.
	ErrStaleSHA = errors.New("stored commit SHA changed concurrently")
)

type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewStore(lc fx.Lifecycle, db *gorm.DB, log *zap.Logger) *Store {
	return &Store{db, log}
}

// CreateSubscription inserts sub, honoring the (chat, owner, repo) uniqueness
// constraint. A conflicting row yields ErrAlreadyExists.
func (s *Store) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	tx := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(sub)
	if err := tx.Error; err != nil {
		return err
	}
	if tx.RowsAffected == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (s *Store) ListSubscriptions(ctx context.Context, chatID int64) (models.Subscriptions, error) {
	var subs models.Subscriptions
	tx := s.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("id").
		Find(&subs)
	return subs, tx.Error
}

func (s *Store) AllSubscriptions(ctx context.Context) (models.Subscriptions, error) {
	var subs models.Subscriptions
	tx := s.db.WithContext(ctx).Order("id").Find(&subs)
	return subs, tx.Error
}

// FindMatching returns every subscription watching exactly (owner, repo,
// branch), across all chats.
func (s *Store) FindMatching(ctx context.Context, owner, repo, branch string) (models.Subscriptions, error) {
	var subs models.Subscriptions
	tx := s.db.WithContext(ctx).
		Where("owner = ?", owner).
		Where("repo = ?", repo).
		Where("branch = ?", branch).
		Find(&subs)
	return subs, tx.Error
}

// DeleteSubscription removes a subscription by id, scoped to the owning chat.
// The delete is permanent; a soft-deleted row would keep holding the
// (chat, owner, repo) slot in the unique index and block re-subscribing.
func (s *Store) DeleteSubscription(ctx context.Context, chatID int64, subID uint) error {
	tx := s.db.WithContext(ctx).
		Unscoped().
		Where("chat_id = ?", chatID).
		Delete(&models.Subscription{}, subID)
	if err := tx.Error; err != nil {
		return err
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CompareAndSetLastSHA swaps the stored SHA only if it still equals the value
// the caller observed. A lost race yields ErrStaleSHA, which callers treat as
// "a concurrent writer already applied a newer state".
func (s *Store) CompareAndSetLastSHA(ctx context.Context, subID uint, expected sql.NullString, next string) error {
	tx := s.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("id = ?", subID)
	if expected.Valid {
		tx = tx.Where("last_commit_sha = ?", expected.String)
	} else {
		tx = tx.Where("last_commit_sha IS NULL")
	}

	tx = tx.Update("last_commit_sha", next)
	if err := tx.Error; err != nil {
		return err
	}
	if tx.RowsAffected == 0 {
		return ErrStaleSHA
	}
	return nil
}

// UpsertCredential replaces the chat's GitHub login wholesale.
func (s *Store) UpsertCredential(ctx context.Context, cred *models.Credential) error {
	tx := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chat_id"}},
			UpdateAll: true,
		}).
		Create(cred)
	return tx.Error
}

// CredentialTokenFor returns the chat's stored token, or "" for anonymous
// access when the chat never logged in.
func (s *Store) CredentialTokenFor(ctx context.Context, chatID int64) (string, error) {
	var cred models.Credential
	tx := s.db.WithContext(ctx).Where("chat_id = ?", chatID).First(&cred)
	if err := tx.Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	} else if err != nil {
		return "", err
	}
	return cred.Token, nil
}
