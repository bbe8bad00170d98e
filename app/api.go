package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ramandhika/telegram-repo-watcher/config"
	"github.com/ramandhika/telegram-repo-watcher/watch"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewAPI(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, watcher *watch.Watcher) *http.Server {
	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	srv := &http.Server{Addr: addr, Handler: router(cfg, log, watcher)}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go srv.ListenAndServe()
			return nil
		},
		OnStop: srv.Shutdown,
	})

	return srv
}

func router(cfg *config.Config, log *zap.Logger, watcher *watch.Watcher) http.Handler {
	ctrl := &controller{cfg, log, watcher}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Post("/github-webhook", ctrl.githubWebhook)
	r.Get("/update", ctrl.triggerUpdate)

	return r
}

type controller struct {
	cfg     *config.Config
	log     *zap.Logger
	watcher *watch.Watcher
}

func (ctrl *controller) message(w http.ResponseWriter, status int, text string) {
	b, err := json.Marshal(map[string]string{"message": text})
	if err != nil {
		ctrl.log.Sugar().Errorw("Request failed", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}

func (ctrl *controller) githubWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		ctrl.message(w, http.StatusBadRequest, "Unreadable payload.")
		return
	}

	signature := r.Header.Get("X-Hub-Signature-256")
	event := r.Header.Get("X-GitHub-Event")
	if signature == "" || event == "" || ctrl.cfg.WebhookSecret == "" {
		ctrl.message(w, http.StatusBadRequest, "Missing headers or secret not configured.")
		return
	}

	if err := watch.Verify(signature, body, ctrl.cfg.WebhookSecret); err != nil {
		ctrl.message(w, http.StatusUnauthorized, "Invalid signature.")
		return
	}

	// Only push events trigger dispatch; everything else is acknowledged.
	if event != "push" {
		ctrl.message(w, http.StatusOK, "Webhook received.")
		return
	}

	pushEvent, err := watch.ParsePushEvent(body)
	if err != nil {
		ctrl.message(w, http.StatusBadRequest, "Malformed push payload.")
		return
	}
	if len(pushEvent.Commits) == 0 {
		ctrl.message(w, http.StatusOK, "No new commits.")
		return
	}

	ctrl.watcher.HandlePush(ctx, pushEvent)
	ctrl.message(w, http.StatusOK, "Webhook received.")
}

func (ctrl *controller) triggerUpdate(w http.ResponseWriter, r *http.Request) {
	m := ctrl.watcher.Sweep(r.Context())
	ctrl.message(w, http.StatusOK, fmt.Sprintf(
		"Checked %d subscriptions: %d updated, %d notifications sent.",
		m.Selected, m.Updated, m.Notified,
	))
}
