package watch

import (
	"context"
	"errors"

	"github.com/ramandhika/telegram-repo-watcher/lib"
	"github.com/ramandhika/telegram-repo-watcher/lib/models"
	"github.com/ramandhika/telegram-repo-watcher/senders"
)

// dispatch applies the read-decide-write sequence for one subscription and
// one candidate commit. The compare-and-swap on the stored SHA is what keeps
// a webhook trigger and a concurrent poll trigger from both persisting the
// same transition.
func (w *Watcher) dispatch(ctx context.Context, sub *models.Subscription, commit *models.Commit) *Metrics {
	m := &Metrics{}

	decision := lib.Decide(sub.LastCommitSHA, commit)
	if !decision.Notify {
		m.Unchanged++
		return m
	}

	log := w.log.Sugar().With("subscription_id", sub.ID, "chat_id", sub.ChatID, "slug", sub.Slug())

	// Delivery failure still advances the stored SHA, so a persistently
	// unreachable chat is not re-notified on every subsequent trigger.
	sender := w.senders[senders.PlatformTelegram]
	if err := sender.SendCommit(ctx, sub.ChatID, sub, commit); err != nil {
		log.Errorw("Failed to deliver notification", "err", err)
	} else {
		m.Notified++
	}

	err := w.store.CompareAndSetLastSHA(ctx, sub.ID, sub.LastCommitSHA, decision.NextSHA)
	switch {
	case errors.Is(err, lib.ErrStaleSHA):
		// A concurrent trigger already applied a newer state; this writer's
		// update is discarded.
		log.Infow("Stored SHA advanced concurrently, discarding update", "sha", commit.ShortSHA())
		return m
	case err != nil:
		log.Errorw("Failed to update stored SHA", "err", err)
		m.Errored++
		return m
	}

	m.Updated++
	log.Infow("Notified new commit", "sha", commit.ShortSHA())
	return m
}
