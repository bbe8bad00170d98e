package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Config struct {
	Env          string `env:"ENVIRONMENT"`
	ServerPort   int    `env:"PORT" envDefault:"3000"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"data/bot.db"`

	BotToken        string `env:"BOT_TOKEN"`
	TelegramAPIBase string `env:"TELEGRAM_API_BASE" envDefault:"https://api.telegram.org"`
	WebhookSecret   string `env:"GITHUB_WEBHOOK_SECRET"`

	PollInterval    time.Duration `env:"POLL_INTERVAL" envDefault:"1h"`
	PollConcurrency int           `env:"POLL_CONCURRENCY" envDefault:"5"`
	FetchTimeout    time.Duration `env:"FETCH_TIMEOUT" envDefault:"15s"`
	SendTimeout     time.Duration `env:"SEND_TIMEOUT" envDefault:"10s"`
	BotPollTimeout  time.Duration `env:"BOT_POLL_TIMEOUT" envDefault:"30s"`

	log *zap.Logger
}

func NewConfig(lc fx.Lifecycle, log *zap.Logger) *Config {
	cfg := &Config{log: log}
	if err := env.Parse(cfg); err != nil {
		log.Sugar().Panic(err)
	}

	if cfg.BotToken == "" {
		if cfg.Env == "development" {
			log.Sugar().Info("BOT_TOKEN envvar is unset, Telegram delivery will fail until it is configured")
		} else {
			log.Sugar().Panic("BOT_TOKEN envvar must be populated")
		}
	}
	if cfg.WebhookSecret == "" {
		log.Sugar().Info("GITHUB_WEBHOOK_SECRET envvar is unset, webhook requests will be rejected")
	}

	return cfg
}
