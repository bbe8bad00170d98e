package watch

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/ramandhika/telegram-repo-watcher/github"
	"github.com/ramandhika/telegram-repo-watcher/lib/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweep_UnchangedHead(t *testing.T) {
	ctx := context.Background()
	source := &stubSource{heads: map[string]*models.Commit{
		"ownerA/repoX@master": {SHA: "abc1234"},
	}}
	sender := &recordingSender{}
	w, store := newTestWatcher(t, source, sender)

	require.NoError(t, store.CreateSubscription(ctx, &models.Subscription{
		ChatID: 1, Owner: "ownerA", Repo: "repoX", Branch: "master",
		LastCommitSHA: sql.NullString{String: "abc1234", Valid: true},
	}))

	m := w.Sweep(ctx)
	assert.Equal(t, 1, m.Selected)
	assert.Equal(t, 1, m.Unchanged)
	assert.Zero(t, m.Notified)
	assert.Empty(t, sender.commitChats())
	assert.Equal(t, "abc1234", storedSHA(t, store, 1))
}

func TestSweep_NewHeadNotifiesAndPersists(t *testing.T) {
	ctx := context.Background()
	source := &stubSource{heads: map[string]*models.Commit{
		"ownerA/repoX@master": {SHA: "def5678", Message: "feat: new stuff", AuthorName: "Alice", URL: "https://example.com/c/def5678"},
	}}
	sender := &recordingSender{}
	w, store := newTestWatcher(t, source, sender)

	require.NoError(t, store.CreateSubscription(ctx, &models.Subscription{
		ChatID: 1, Owner: "ownerA", Repo: "repoX", Branch: "master",
		LastCommitSHA: sql.NullString{String: "abc1234", Valid: true},
	}))

	m := w.Sweep(ctx)
	assert.Equal(t, 1, m.Updated)
	assert.Equal(t, 1, m.Notified)
	assert.Equal(t, "def5678", storedSHA(t, store, 1))

	require.Len(t, sender.commits, 1)
	assert.Equal(t, "def5678", sender.commits[0].commit.ShortSHA())
}

func TestSweep_Idempotent(t *testing.T) {
	ctx := context.Background()
	source := &stubSource{heads: map[string]*models.Commit{
		"ownerA/repoX@master": {SHA: "def5678"},
	}}
	sender := &recordingSender{}
	w, store := newTestWatcher(t, source, sender)

	require.NoError(t, store.CreateSubscription(ctx, &models.Subscription{
		ChatID: 1, Owner: "ownerA", Repo: "repoX", Branch: "master",
		LastCommitSHA: sql.NullString{String: "abc1234", Valid: true},
	}))

	first := w.Sweep(ctx)
	assert.Equal(t, 1, first.Notified)

	// Nothing changed upstream, so the second sweep is silent.
	second := w.Sweep(ctx)
	assert.Zero(t, second.Notified)
	assert.Equal(t, 1, second.Unchanged)
	assert.Len(t, sender.commits, 1)
}

func TestSweep_FetchFailureIsContained(t *testing.T) {
	ctx := context.Background()
	source := &stubSource{
		heads: map[string]*models.Commit{
			"ownerB/repoY@master": {SHA: "def5678"},
		},
		errs: map[string]error{
			"ownerA/gone@master": &github.FetchError{Kind: github.KindNotFound, Owner: "ownerA", Repo: "gone", Ref: "master", Err: errors.New("404")},
		},
	}
	sender := &recordingSender{}
	w, store := newTestWatcher(t, source, sender)

	require.NoError(t, store.CreateSubscription(ctx, &models.Subscription{
		ChatID: 1, Owner: "ownerA", Repo: "gone", Branch: "master",
		LastCommitSHA: sql.NullString{String: "abc1234", Valid: true},
	}))
	require.NoError(t, store.CreateSubscription(ctx, &models.Subscription{
		ChatID: 2, Owner: "ownerB", Repo: "repoY", Branch: "master",
		LastCommitSHA: sql.NullString{String: "abc1234", Valid: true},
	}))

	m := w.Sweep(ctx)
	assert.Equal(t, 2, m.Selected)
	assert.Equal(t, 1, m.Errored)
	assert.Equal(t, 1, m.Notified)

	// The failing repo's chat gets a best-effort notice, the healthy repo
	// still updates.
	require.Len(t, sender.texts, 1)
	assert.EqualValues(t, 1, sender.texts[0].chatID)
	assert.Equal(t, []int64{2}, sender.commitChats())
}

func TestSweep_TransientFailureStaysQuiet(t *testing.T) {
	ctx := context.Background()
	source := &stubSource{
		errs: map[string]error{
			"ownerA/repoX@master": &github.FetchError{Kind: github.KindTransient, Owner: "ownerA", Repo: "repoX", Ref: "master", Err: errors.New("503")},
		},
	}
	sender := &recordingSender{}
	w, store := newTestWatcher(t, source, sender)

	require.NoError(t, store.CreateSubscription(ctx, &models.Subscription{
		ChatID: 1, Owner: "ownerA", Repo: "repoX", Branch: "master",
		LastCommitSHA: sql.NullString{String: "abc1234", Valid: true},
	}))

	m := w.Sweep(ctx)
	assert.Equal(t, 1, m.Errored)
	assert.Empty(t, sender.texts)
	assert.Equal(t, "abc1234", storedSHA(t, store, 1))
}

func TestDispatch_LostRaceDiscardsUpdate(t *testing.T) {
	ctx := context.Background()
	sender := &recordingSender{}
	w, store := newTestWatcher(t, &stubSource{}, sender)

	sub := &models.Subscription{
		ChatID: 1, Owner: "ownerA", Repo: "repoX", Branch: "master",
		LastCommitSHA: sql.NullString{String: "abc1234", Valid: true},
	}
	require.NoError(t, store.CreateSubscription(ctx, sub))

	// A concurrent trigger advances the stored SHA behind this writer's back.
	require.NoError(t, store.CompareAndSetLastSHA(ctx, sub.ID, sub.LastCommitSHA, "def5678"))

	m := w.dispatch(ctx, sub, &models.Commit{SHA: "fff9999"})
	assert.Zero(t, m.Updated)
	assert.Zero(t, m.Errored)

	// The loser's value never lands; the concurrent writer's result stays.
	assert.Equal(t, "def5678", storedSHA(t, store, sub.ID))
}

func TestWebhookThenSweep_SingleTransition(t *testing.T) {
	ctx := context.Background()
	source := &stubSource{heads: map[string]*models.Commit{
		"ownerA/repoX@main": {SHA: "def5678aaa"},
	}}
	sender := &recordingSender{}
	w, store := newTestWatcher(t, source, sender)

	require.NoError(t, store.CreateSubscription(ctx, &models.Subscription{
		ChatID: 1, Owner: "ownerA", Repo: "repoX", Branch: "main",
		LastCommitSHA: sql.NullString{String: "abc1234", Valid: true},
	}))

	event, err := ParsePushEvent([]byte(pushPayload))
	require.NoError(t, err)

	push := w.HandlePush(ctx, event)
	assert.Equal(t, 1, push.Updated)

	// A poll sweep observing the same commit afterwards is a no-op.
	sweep := w.Sweep(ctx)
	assert.Zero(t, sweep.Updated)
	assert.Equal(t, 1, sweep.Unchanged)
	assert.Len(t, sender.commits, 1)
	assert.Equal(t, "def5678aaa", storedSHA(t, store, 1))
}
