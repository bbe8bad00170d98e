package main

import (
	"net/http"
	"os"
	"time"

	"github.com/ramandhika/telegram-repo-watcher/app"
	"github.com/ramandhika/telegram-repo-watcher/bot"
	"github.com/ramandhika/telegram-repo-watcher/config"
	"github.com/ramandhika/telegram-repo-watcher/github"
	"github.com/ramandhika/telegram-repo-watcher/lib"
	"github.com/ramandhika/telegram-repo-watcher/senders"
	"github.com/ramandhika/telegram-repo-watcher/telegram"
	"github.com/ramandhika/telegram-repo-watcher/watch"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func NewLogger() (*zap.Logger, error) {
	switch os.Getenv("ENVIRONMENT") {
	default:
		return zap.NewDevelopment()

	case "production":
		logCfg := zap.NewProductionConfig()
		logCfg.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			t = t.UTC()
			zapcore.ISO8601TimeEncoder(t, enc)
		}
		return logCfg.Build()
	}
}

func main() {
	fx.New(
		fx.Provide(config.NewConfig),
		fx.Provide(NewLogger),

		fx.Provide(app.NewDatabase),
		fx.Provide(app.NewTransport),

		fx.Provide(telegram.NewClient),
		fx.Provide(senders.NewSenderRegistry),
		fx.Provide(github.NewSource),
		fx.Provide(func(src *github.Source) lib.CommitSource { return src }),

		fx.Provide(lib.NewStore),
		fx.Provide(lib.NewService),
		fx.Provide(watch.NewWatcher),
		fx.Provide(bot.NewBot),
		fx.Provide(app.NewAPI),

		fx.Invoke(func(*http.Server) {}),
		fx.Invoke(func(*bot.Bot) {}),
	).Run()
}
