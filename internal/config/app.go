package config

import (
	"context"

	"github.com/caarlos0/env/v9"
	"github.com/mentorbotdev/mentorbot/pkg/log"
)

type AppConfig struct {
	// ContentPath points at the YAML content table. Empty means the
	// embedded default table is used.
	ContentPath string `env:"MENTORBOT_CONTENT_PATH"`

	HealthAddr string `env:"HEALTH_ADDR" envDefault:":8081"`

	EnableBroadcast bool `env:"ENABLE_BROADCAST" envDefault:"true"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}
