package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/mentorbotdev/mentorbot/internal/config"
	"github.com/mentorbotdev/mentorbot/pkg/log"
)

var debug bool

var rootCmd = &cobra.Command{
	Use:   "mentorbot",
	Short: "MentorBot — a Telegram mentor with a daily lesson broadcast",
	Long:  `MentorBot relays chats to a stateful assistant and broadcasts a daily lesson to configured groups.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", config.IsDebug(), "enable debug logging")
}

func setupLogger(ctx context.Context) (context.Context, func()) {
	isDebug := debug || config.IsDebug()
	return log.NewContextWithLogger(ctx, isDebug)
}
