package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/mentorbotdev/mentorbot/internal/assistant"
	"github.com/mentorbotdev/mentorbot/internal/broadcast"
	"github.com/mentorbotdev/mentorbot/internal/config"
	"github.com/mentorbotdev/mentorbot/internal/content"
	"github.com/mentorbotdev/mentorbot/internal/session"
	"github.com/mentorbotdev/mentorbot/internal/transport/health"
	"github.com/mentorbotdev/mentorbot/internal/transport/telegram"
	"github.com/mentorbotdev/mentorbot/pkg/log"
	"github.com/mentorbotdev/mentorbot/pkg/srv"
)

func NewServices(ctx context.Context) []srv.Service {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	tgCfg := config.NewTelegramConfig(ctx)
	asstCfg := config.NewAssistantConfig(ctx)
	bcastCfg := config.NewBroadcastConfig(ctx)

	// 2. Assistant backend and sessions
	client := assistant.NewClient(asstCfg)
	sessions := session.NewRegistry(client)
	orch := assistant.NewOrchestrator(asstCfg, sessions, client)

	// 3. Telegram transport (owns the delivery manager)
	bot, err := telegram.NewBot(ctx, tgCfg, orch)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize telegram bot")
	}
	services = append(services, bot)

	// 4. Broadcast scheduler
	if appCfg.EnableBroadcast {
		table, err := content.Load(appCfg.ContentPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to load content table")
		}

		scheduler, err := broadcast.NewScheduler(bcastCfg, table, orch, bot.Delivery())
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize broadcast scheduler")
		}
		services = append(services, scheduler)
	}

	// 5. Liveness endpoint
	services = append(services, health.NewServer(appCfg.HealthAddr))

	return services
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
