package lib

import (
	"context"

	"github.com/ramandhika/telegram-repo-watcher/lib/models"
)

// CommitSource fetches branch tips from the upstream forge. An empty token
// means anonymous (public-repo-only) access.
type CommitSource interface {
	FetchHead(ctx context.Context, owner, repo, branch, token string) (*models.Commit, error)
	ValidateToken(ctx context.Context, token string) (string, error)
}
