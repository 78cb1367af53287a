package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/mentorbotdev/mentorbot/pkg/log"
)

type AssistantConfig struct {
	APIKey      string `env:"OPENAI_API_KEY,required,notEmpty"`
	AssistantID string `env:"OPENAI_ASSISTANT_ID,required,notEmpty"`
	BaseURL     string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com"`

	// PollInterval and MaxWait bound the run polling loop.
	PollInterval time.Duration `env:"ASSISTANT_POLL_INTERVAL" envDefault:"1s"`
	MaxWait      time.Duration `env:"ASSISTANT_MAX_WAIT" envDefault:"90s"`
}

func NewAssistantConfig(ctx context.Context) *AssistantConfig {
	c := &AssistantConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Assistant config")
	}
	return c
}
