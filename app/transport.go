package app

import (
	"net/http"
	"time"

	"github.com/ramandhika/telegram-repo-watcher/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewTransport is the shared outbound RoundTripper for the GitHub and
// Telegram clients. Development wraps it with request logging.
func NewTransport(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) http.RoundTripper {
	if cfg.Env == "development" {
		return &transport{http.DefaultTransport, log}
	}
	return http.DefaultTransport
}

type transport struct {
	base http.RoundTripper
	log  *zap.Logger
}

func (tpt *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := tpt.base.RoundTrip(req)

	fields := []any{"method", req.Method, "host", req.URL.Host, "elapsed_msecs", int(time.Since(start).Milliseconds())}
	if err != nil {
		fields = append(fields, "err", err)
	} else {
		fields = append(fields, "status", resp.StatusCode)
	}
	tpt.log.Sugar().Debugw("Outbound request", fields...)

	return resp, err
}
