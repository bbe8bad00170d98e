package lib

import (
	"database/sql"

	"github.com/ramandhika/telegram-repo-watcher/lib/models"
)

// Decision is the outcome of comparing a subscription's stored SHA against a
// freshly observed commit.
type Decision struct {
	Notify  bool
	NextSHA string
}

// Decide is a pure comparison: equal SHAs mean no change, anything else
// (including a never-observed subscription) means notify and persist the
// candidate's SHA. The subscribe path seeds the stored SHA without notifying;
// that policy belongs to the caller, not here.
func Decide(stored sql.NullString, candidate *models.Commit) Decision {
	if stored.Valid && stored.String == candidate.SHA {
		return Decision{}
	}
	return Decision{Notify: true, NextSHA: candidate.SHA}
}
