package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/go-github/v62/github"
	"github.com/ramandhika/telegram-repo-watcher/config"
	"github.com/ramandhika/telegram-repo-watcher/lib/models"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

type ErrorKind int

const (
	// KindTransient covers network failures, 5xx and rate limiting; callers
	// retry on the next trigger.
	KindTransient ErrorKind = iota
	// KindNotFound covers unknown owner/repo/branch, including private repos
	// fetched without a sufficient credential.
	KindNotFound
	// KindAuth means a supplied credential was rejected.
	KindAuth
)

// FetchError wraps an upstream failure with enough context to route the
// caller's reaction: transient errors are silently retried, the rest may be
// surfaced to the owning chat.
type FetchError struct {
	Kind  ErrorKind
	Owner string
	Repo  string
	Ref   string
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s/%s@%s: %v", e.Owner, e.Repo, e.Ref, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Source fetches branch tips from the GitHub REST API.
type Source struct {
	cfg       *config.Config
	log       *zap.Logger
	transport http.RoundTripper

	baseURL *url.URL // overridden in tests
}

func NewSource(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, transport http.RoundTripper) *Source {
	return &Source{cfg: cfg, log: log, transport: transport}
}

// client builds a per-call GitHub client. A non-empty token gets an oauth2
// client; the injected transport is honored either way.
func (s *Source) client(token string) *github.Client {
	hc := &http.Client{Transport: s.transport}
	if token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, hc)
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		hc = oauth2.NewClient(ctx, ts)
	}

	c := github.NewClient(hc)
	if s.baseURL != nil {
		c.BaseURL = s.baseURL
	}
	return c
}

// FetchHead looks up the tip commit of (owner, repo, branch).
func (s *Source) FetchHead(ctx context.Context, owner, repo, branch, token string) (*models.Commit, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	commit, _, err := s.client(token).Repositories.GetCommit(ctx, owner, repo, branch, nil)
	if err != nil {
		return nil, &FetchError{
			Kind:  classify(err),
			Owner: owner,
			Repo:  repo,
			Ref:   branch,
			Err:   err,
		}
	}

	return &models.Commit{
		SHA:        commit.GetSHA(),
		Message:    models.FirstLine(commit.GetCommit().GetMessage()),
		AuthorName: commit.GetCommit().GetAuthor().GetName(),
		URL:        commit.GetHTMLURL(),
	}, nil
}

// ValidateToken checks a personal access token by fetching the authenticated
// user, returning the account's login name.
func (s *Source) ValidateToken(ctx context.Context, token string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	user, _, err := s.client(token).Users.Get(ctx, "")
	if err != nil {
		return "", &FetchError{Kind: classify(err), Err: err}
	}
	return user.GetLogin(), nil
}

func classify(err error) ErrorKind {
	switch e := err.(type) {
	case *github.RateLimitError, *github.AbuseRateLimitError:
		return KindTransient
	case *github.ErrorResponse:
		switch code := e.Response.StatusCode; {
		case code == http.StatusNotFound || code == http.StatusUnprocessableEntity:
			return KindNotFound
		case code == http.StatusUnauthorized || code == http.StatusForbidden:
			return KindAuth
		default:
			return KindTransient
		}
	default:
		return KindTransient
	}
}
