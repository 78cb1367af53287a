package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/mentorbotdev/mentorbot/internal/config"
	"github.com/mentorbotdev/mentorbot/internal/delivery"
	"github.com/mentorbotdev/mentorbot/pkg/log"
)

const baseContextKey = "base_context"

// apologyReply is substituted when the assistant run fails or times out.
// The user always gets an answer; failures never surface to Telegram.
const apologyReply = "Sorry, I could not come up with a reply. Please try again in a moment."

// Conversationalist turns one inbound text into one reply.
type Conversationalist interface {
	Converse(ctx context.Context, identity int64, input string) (string, error)
}

// Deliverer sends the reply back through the delivery layer.
type Deliverer interface {
	SendMarkdown(ctx context.Context, chatID int64, md string) error
}

type Bot struct {
	bot      *tele.Bot
	cfg      *config.TelegramConfig
	orch     Conversationalist
	delivery Deliverer
	manager  *delivery.Manager
}

func NewBot(
	ctx context.Context,
	cfg *config.TelegramConfig,
	orch Conversationalist,
) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.Token,
		Poller: newPoller(cfg),
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	manager := delivery.NewManager(b)
	bot := &Bot{
		bot:      b,
		cfg:      cfg,
		orch:     orch,
		delivery: manager,
		manager:  manager,
	}

	// Hand every handler the process context with its logger.
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			c.Set(baseContextKey, ctx)
			return next(c)
		}
	})

	b.Handle(tele.OnText, bot.handleText)

	return bot, nil
}

// newPoller picks webhook mode when a public URL is configured, long
// polling otherwise. The webhook secret token is the shared-secret auth
// for inbound updates.
func newPoller(cfg *config.TelegramConfig) tele.Poller {
	if cfg.WebhookURL == "" {
		return &tele.LongPoller{Timeout: 10 * time.Second}
	}
	return &tele.Webhook{
		Listen:      cfg.WebhookListen,
		SecretToken: cfg.WebhookSecret,
		Endpoint:    &tele.WebhookEndpoint{PublicURL: cfg.WebhookURL},
	}
}

// Delivery exposes the outbound manager so the broadcast scheduler shares
// the same quarantine set as chat replies.
func (b *Bot) Delivery() *delivery.Manager {
	return b.manager
}

func (b *Bot) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Msg("starting telegram bot")
	b.bot.Start()
	return nil
}

func (b *Bot) Shutdown(ctx context.Context) error {
	b.bot.Stop()
	return nil
}

// handleText processes one inbound update. It always returns nil: the
// transport is acknowledged no matter what happens internally.
func (b *Bot) handleText(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)

	text := strings.TrimSpace(c.Text())
	if text == "" {
		return nil
	}

	_ = c.Notify(tele.Typing)
	b.respond(ctx, c.Chat().ID, text)
	return nil
}

// respond runs the conversation and delivers the reply, substituting the
// apology text when the run does not produce one.
func (b *Bot) respond(ctx context.Context, chatID int64, text string) {
	logger := log.FromCtx(ctx)

	reply, err := b.orch.Converse(ctx, chatID, text)
	if err != nil {
		logger.Error().Err(err).Int64("chat", chatID).Msg("conversation failed")
		reply = apologyReply
	}

	if err := b.delivery.SendMarkdown(ctx, chatID, reply); err != nil {
		logger.Error().Err(err).Int64("chat", chatID).Msg("failed to send reply")
	}
}
