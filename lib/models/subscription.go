package models

import (
	"database/sql"
	"fmt"

	"gorm.io/gorm"
)

// DefaultBranch is assumed when a subscribe request omits the branch name.
const DefaultBranch = "master"

type Subscription struct {
	gorm.Model
	ChatID        int64  `gorm:"index;uniqueIndex:idx_chat_owner_repo"` // Uniqueness spans (chat, owner, repo); branch is deliberately excluded
	Owner         string `gorm:"uniqueIndex:idx_chat_owner_repo"`
	Repo          string `gorm:"uniqueIndex:idx_chat_owner_repo"`
	Branch        string
	LastCommitSHA sql.NullString
}

type Subscriptions []Subscription

// Slug renders the watched ref as owner/repo@branch.
func (s *Subscription) Slug() string {
	return fmt.Sprintf("%s/%s@%s", s.Owner, s.Repo, s.Branch)
}
