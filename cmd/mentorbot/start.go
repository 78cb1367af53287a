package main

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/mentorbotdev/mentorbot/pkg/log"
	"github.com/mentorbotdev/mentorbot/pkg/srv"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the MentorBot services",
	Long:  `Initializes and starts the Telegram bot, the broadcast scheduler and the health endpoint.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Msg("starting mentorbot")

		services := NewServices(ctx)

		srv.StartServices(ctx, services)

		srv.ShutdownServices(ctx, services)
		logger.Info().Msg("mentorbot has been shut down gracefully")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
