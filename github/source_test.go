package github

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/ramandhika/telegram-repo-watcher/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setupTestSource points a Source at an httptest server standing in for the
// GitHub API.
func setupTestSource(t *testing.T, handler http.Handler) (*Source, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	base, err := url.Parse(server.URL + "/")
	require.NoError(t, err)

	src := NewSource(nil, &config.Config{FetchTimeout: 5 * time.Second}, zap.NewNop(), http.DefaultTransport)
	src.baseURL = base
	return src, server
}

func TestFetchHead_MapsCommitFields(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/ownerA/repoX/commits/main", r.URL.Path)
		fmt.Fprintln(w, `{
			"sha": "def5678aaa",
			"html_url": "https://github.com/ownerA/repoX/commit/def5678aaa",
			"commit": {
				"message": "fix: handle empty refs\n\nlonger body",
				"author": {"name": "Alice"}
			}
		}`)
	})
	src, _ := setupTestSource(t, handler)

	commit, err := src.FetchHead(context.Background(), "ownerA", "repoX", "main", "")
	require.NoError(t, err)
	assert.Equal(t, "def5678aaa", commit.SHA)
	assert.Equal(t, "fix: handle empty refs", commit.Message)
	assert.Equal(t, "Alice", commit.AuthorName)
	assert.Equal(t, "https://github.com/ownerA/repoX/commit/def5678aaa", commit.URL)
}

func TestFetchHead_SendsToken(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-secret", r.Header.Get("Authorization"))
		fmt.Fprintln(w, `{"sha": "abc1234", "commit": {"message": "init"}}`)
	})
	src, _ := setupTestSource(t, handler)

	_, err := src.FetchHead(context.Background(), "ownerA", "private", "master", "tok-secret")
	require.NoError(t, err)
}

func TestFetchHead_ErrorKinds(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   ErrorKind
	}{
		{"unknown repo or branch", http.StatusNotFound, KindNotFound},
		{"unresolvable ref", http.StatusUnprocessableEntity, KindNotFound},
		{"rejected credential", http.StatusUnauthorized, KindAuth},
		{"insufficient scope", http.StatusForbidden, KindAuth},
		{"upstream outage", http.StatusInternalServerError, KindTransient},
		{"bad gateway", http.StatusBadGateway, KindTransient},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				fmt.Fprintln(w, `{"message": "nope"}`)
			})
			src, _ := setupTestSource(t, handler)

			_, err := src.FetchHead(context.Background(), "ownerA", "repoX", "main", "")
			require.Error(t, err)

			var fetchErr *FetchError
			require.ErrorAs(t, err, &fetchErr)
			assert.Equal(t, tc.want, fetchErr.Kind)
			assert.Equal(t, "ownerA", fetchErr.Owner)
		})
	}
}

func TestFetchHead_NetworkFailureIsTransient(t *testing.T) {
	src, server := setupTestSource(t, http.NotFoundHandler())
	server.Close()

	_, err := src.FetchHead(context.Background(), "ownerA", "repoX", "main", "")
	require.Error(t, err)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, KindTransient, fetchErr.Kind)
}

func TestValidateToken(t *testing.T) {
	t.Run("valid token returns login", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/user", r.URL.Path)
			fmt.Fprintln(w, `{"login": "alice"}`)
		})
		src, _ := setupTestSource(t, handler)

		login, err := src.ValidateToken(context.Background(), "tok-secret")
		require.NoError(t, err)
		assert.Equal(t, "alice", login)
	})

	t.Run("rejected token", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprintln(w, `{"message": "Bad credentials"}`)
		})
		src, _ := setupTestSource(t, handler)

		_, err := src.ValidateToken(context.Background(), "bad-token")
		require.Error(t, err)

		var fetchErr *FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, KindAuth, fetchErr.Kind)
	})
}
