package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/mentorbotdev/mentorbot/pkg/log"
)

type TelegramConfig struct {
	Token string `env:"TELEGRAM_TOKEN,required,notEmpty"`

	// WebhookURL switches the bot from long polling to webhook mode.
	WebhookURL    string `env:"TELEGRAM_WEBHOOK_URL"`
	WebhookListen string `env:"TELEGRAM_WEBHOOK_LISTEN" envDefault:":8080"`
	// WebhookSecret is the shared secret Telegram echoes back on every
	// webhook call; requests without it are rejected by telebot.
	WebhookSecret string `env:"TELEGRAM_WEBHOOK_SECRET"`
}

func NewTelegramConfig(ctx context.Context) *TelegramConfig {
	c := &TelegramConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Telegram config")
	}
	return c
}
