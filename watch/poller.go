package watch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/ramandhika/telegram-repo-watcher/github"
	"github.com/ramandhika/telegram-repo-watcher/lib/models"
	"github.com/ramandhika/telegram-repo-watcher/senders"
	"golang.org/x/sync/errgroup"
)

// Sweep polls every stored subscription once, with bounded concurrency. Each
// subscription's outcome is independent; one failing fetch never halts the
// batch.
func (w *Watcher) Sweep(ctx context.Context) *Metrics {
	log := w.log.Sugar().With("sweep_id", uuid.NewString())

	subs, err := w.store.AllSubscriptions(ctx)
	if err != nil {
		log.Errorw("Failed to load subscriptions for sweep", "err", err)
		return &Metrics{}
	}

	var mu sync.Mutex
	total := &Metrics{Selected: len(subs)}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.cfg.PollConcurrency)

	for i := range subs {
		sub := subs[i]
		g.Go(func() error {
			m := w.pollOne(gctx, &sub)
			mu.Lock()
			total.Add(m)
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	if total.Selected > 0 {
		args := make([]any, 0)
		if total.Errored != 0 {
			args = append(args, "errored", total.Errored)
		}
		if total.Updated != 0 {
			args = append(args, "updated", total.Updated)
		}
		if total.Notified != 0 {
			args = append(args, "notified", total.Notified)
		}
		if total.Unchanged != 0 {
			args = append(args, "unchanged", total.Unchanged)
		}
		log.Infow(fmt.Sprintf("Swept %d subscriptions", total.Selected), args...)
	}

	return total
}

func (w *Watcher) pollOne(ctx context.Context, sub *models.Subscription) *Metrics {
	log := w.log.Sugar().With("subscription_id", sub.ID, "slug", sub.Slug())

	token, err := w.store.CredentialTokenFor(ctx, sub.ChatID)
	if err != nil {
		log.Errorw("Failed to resolve credential", "err", err)
		return &Metrics{Errored: 1}
	}

	commit, err := w.source.FetchHead(ctx, sub.Owner, sub.Repo, sub.Branch, token)
	if err != nil {
		log.Errorw("Failed to fetch head commit", "err", err)
		w.notifyFetchFailure(ctx, sub, err)
		return &Metrics{Errored: 1}
	}

	return w.dispatch(ctx, sub, commit)
}

// notifyFetchFailure tells the owning chat about persistent fetch problems.
// Transient upstream errors stay quiet; they resolve on the next trigger.
func (w *Watcher) notifyFetchFailure(ctx context.Context, sub *models.Subscription, err error) {
	var fetchErr *github.FetchError
	if !errors.As(err, &fetchErr) || fetchErr.Kind == github.KindTransient {
		return
	}

	var text string
	switch fetchErr.Kind {
	case github.KindNotFound:
		text = fmt.Sprintf("⚠️ Could not find *%s*. Check the repository and branch names; if the repository is private, log in with /login.", sub.Slug())
	case github.KindAuth:
		text = fmt.Sprintf("⚠️ GitHub rejected your credential while checking *%s*. Log in again with /login.", sub.Slug())
	}

	sender := w.senders[senders.PlatformTelegram]
	if sendErr := sender.SendText(ctx, sub.ChatID, text); sendErr != nil {
		w.log.Sugar().Infow("Failed to deliver fetch-failure notice", "chat_id", sub.ChatID, "err", sendErr)
	}
}
