package watch

import (
	"context"
	"time"

	"github.com/ramandhika/telegram-repo-watcher/config"
	"github.com/ramandhika/telegram-repo-watcher/lib"
	"github.com/ramandhika/telegram-repo-watcher/senders"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Watcher runs change detection and notification dispatch for both triggers:
// the push webhook and the poll sweep.
type Watcher struct {
	cfg     *config.Config
	log     *zap.Logger
	store   *lib.Store
	source  lib.CommitSource
	senders senders.Registry

	cancel context.CancelFunc
}

func NewWatcher(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, store *lib.Store, source lib.CommitSource, reg senders.Registry) *Watcher {
	w := &Watcher{
		cfg:     cfg,
		log:     log,
		store:   store,
		source:  source,
		senders: reg,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go w.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Sugar().Info("Trying to stop watcher")
			w.Stop()
			return nil
		},
	})

	return w
}

func (w *Watcher) tickerWithImmediateTick(ctx context.Context, interval time.Duration) *time.Ticker {
	withImmediateTick := make(chan time.Time, 1)

	ticker := time.NewTicker(interval)
	tickerC := ticker.C
	go func() {
		defer close(withImmediateTick)
		withImmediateTick <- time.Now()
		for {
			select {
			case <-ctx.Done():
				return
			case c := <-tickerC:
				select {
				case withImmediateTick <- c:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	ticker.C = withImmediateTick
	return ticker
}

func (w *Watcher) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	ticker := w.tickerWithImmediateTick(ctx, w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Sugar().Info("Watcher stopped")
			return

		case _, ok := <-ticker.C:
			if !ok {
				return
			}
			w.Sweep(ctx)
		}
	}
}

func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
}
