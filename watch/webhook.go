package watch

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/ramandhika/telegram-repo-watcher/lib/models"
)

// PushEvent is the subset of GitHub's push payload this system consumes.
type PushEvent struct {
	Ref        string         `json:"ref"` // refs/heads/<branch>
	Commits    []PushCommit   `json:"commits"`
	Repository PushRepository `json:"repository"`
}

type PushCommit struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	URL     string `json:"url"`
	Author  struct {
		Name string `json:"name"`
	} `json:"author"`
}

type PushRepository struct {
	Name  string `json:"name"`
	Owner struct {
		Name  string `json:"name"`
		Login string `json:"login"`
	} `json:"owner"`
}

func ParsePushEvent(body []byte) (*PushEvent, error) {
	var event PushEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// Branch is the suffix of the ref string after the last path separator.
func (e *PushEvent) Branch() string {
	if i := strings.LastIndexByte(e.Ref, '/'); i >= 0 {
		return e.Ref[i+1:]
	}
	return e.Ref
}

func (e *PushEvent) OwnerLogin() string {
	if e.Repository.Owner.Name != "" {
		return e.Repository.Owner.Name
	}
	return e.Repository.Owner.Login
}

// Newest extracts the candidate commit. Index 0 being the newest commit is a
// contract of GitHub's push payload, not an invariant of this system.
func (e *PushEvent) Newest() *models.Commit {
	if len(e.Commits) == 0 {
		return nil
	}
	c := e.Commits[0]
	return &models.Commit{
		SHA:        c.ID,
		Message:    models.FirstLine(c.Message),
		AuthorName: c.Author.Name,
		URL:        c.URL,
	}
}

// HandlePush routes one verified push event to every subscription matching
// the event's (owner, repo, branch) and dispatches each independently.
// Failures are contained per subscription; the caller always ACKs upstream.
func (w *Watcher) HandlePush(ctx context.Context, event *PushEvent) *Metrics {
	total := &Metrics{}

	commit := event.Newest()
	if commit == nil {
		return total
	}

	owner, repo, branch := event.OwnerLogin(), event.Repository.Name, event.Branch()
	log := w.log.Sugar().With("owner", owner, "repo", repo, "branch", branch)
	log.Infow("Received push event", "sha", commit.ShortSHA())

	subs, err := w.store.FindMatching(ctx, owner, repo, branch)
	if err != nil {
		log.Errorw("Failed to resolve matching subscriptions", "err", err)
		total.Errored++
		return total
	}

	total.Selected = len(subs)
	for i := range subs {
		total.Add(w.dispatch(ctx, &subs[i], commit))
	}
	return total
}
