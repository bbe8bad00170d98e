package senders

import (
	"fmt"

	"github.com/ramandhika/telegram-repo-watcher/lib/models"
)

type commitMessageFormat struct {
	*models.Subscription
	*models.Commit
}

func (f *commitMessageFormat) Text() string {
	return fmt.Sprintf(
		"🚨 *New commit on %s*\n"+
			"*Author:* %s\n"+
			"*Message:* %s\n"+
			"*Commit:* [%s](%s)",
		f.Subscription.Slug(),
		f.Commit.AuthorName,
		f.Commit.Message,
		f.Commit.ShortSHA(), f.Commit.URL,
	)
}
