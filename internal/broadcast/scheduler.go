// Package broadcast fires the daily lesson fan-out to the configured
// group chats.
package broadcast

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mentorbotdev/mentorbot/internal/config"
	"github.com/mentorbotdev/mentorbot/internal/content"
	"github.com/mentorbotdev/mentorbot/internal/core"
	"github.com/mentorbotdev/mentorbot/pkg/log"
)

// dailyLessonPrompt is what AI-driven destinations ask the assistant
// every morning.
const dailyLessonPrompt = "Share today's lesson for the group: one short practical teaching, " +
	"a reflection on it, and a question to sit with. Keep it under 200 words."

// Each list gets its own seed offset so the six lists do not rotate in
// lockstep when they happen to share a length.
const (
	seedIntro      = 3
	seedTitle      = 7
	seedQuote      = 11
	seedReflection = 17
	seedCheckIn    = 23
	seedClosing    = 29
)

// Conversationalist produces the AI variant of the daily lesson.
type Conversationalist interface {
	Converse(ctx context.Context, identity int64, input string) (string, error)
}

// Deliverer sends the lesson and knows which chats are dead.
type Deliverer interface {
	SendMarkdown(ctx context.Context, chatID int64, md string) error
	IsQuarantined(chatID int64) bool
}

// Scheduler runs one broadcast pass per cron firing, in the configured
// time zone. Implements srv.Service.
type Scheduler struct {
	cron *cron.Cron
	spec string

	destinations []core.Destination
	table        *content.Table
	picker       *content.Picker
	orch         Conversationalist
	delivery     Deliverer
}

func NewScheduler(
	cfg *config.BroadcastConfig,
	table *content.Table,
	orch Conversationalist,
	delivery Deliverer,
) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load broadcast timezone: %w", err)
	}

	dests, err := cfg.ParseDestinations()
	if err != nil {
		return nil, fmt.Errorf("parse broadcast destinations: %w", err)
	}

	return &Scheduler{
		cron:         cron.New(cron.WithLocation(loc)),
		spec:         cfg.Cron,
		destinations: dests,
		table:        table,
		picker:       content.NewPicker(loc),
		orch:         orch,
		delivery:     delivery,
	}, nil
}

func (s *Scheduler) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)

	if len(s.destinations) == 0 {
		logger.Info().Msg("no broadcast destinations configured, scheduler idle")
		return nil
	}

	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("register broadcast schedule %q: %w", s.spec, err)
	}
	s.cron.Start()

	logger.Info().
		Str("cron", s.spec).
		Int("destinations", len(s.destinations)).
		Msg("broadcast scheduler started")
	return nil
}

func (s *Scheduler) Shutdown(ctx context.Context) error {
	<-s.cron.Stop().Done()
	return nil
}

// RunOnce executes one full broadcast pass. Every configured destination
// gets an attempt; one chat's failure never aborts the rest.
func (s *Scheduler) RunOnce(ctx context.Context) {
	logger := log.FromCtx(ctx)
	logger.Info().Msg("broadcast pass started")

	for _, dest := range s.destinations {
		if s.delivery.IsQuarantined(dest.ChatID) {
			logger.Warn().
				Int64("chat", dest.ChatID).
				Msg("skipping quarantined destination")
			continue
		}

		msg, err := s.compose(ctx, dest)
		if err != nil {
			logger.Error().Err(err).
				Int64("chat", dest.ChatID).
				Str("role", string(dest.Role)).
				Msg("failed to build broadcast")
			continue
		}

		if err := s.delivery.SendMarkdown(ctx, dest.ChatID, msg); err != nil {
			logger.Error().Err(err).
				Int64("chat", dest.ChatID).
				Msg("failed to deliver broadcast")
			continue
		}
		logger.Info().Int64("chat", dest.ChatID).Msg("broadcast delivered")
	}
}

func (s *Scheduler) compose(ctx context.Context, dest core.Destination) (string, error) {
	if dest.Role == core.RoleAI {
		return s.orch.Converse(ctx, dest.ChatID, dailyLessonPrompt)
	}
	return s.composeLesson(dest.ChatID), nil
}

// composeLesson builds the fixed-structure deterministic lesson from the
// six content lists.
func (s *Scheduler) composeLesson(chatID int64) string {
	lists := s.table.ForRole(core.RoleDeterministic)

	parts := []string{
		s.picker.Pick(lists.Intros, seedIntro, chatID),
		bold(s.picker.Pick(lists.Titles, seedTitle, chatID)),
		italic(s.picker.Pick(lists.Quotes, seedQuote, chatID)),
		s.picker.Pick(lists.Reflections, seedReflection, chatID),
		s.picker.Pick(lists.CheckIns, seedCheckIn, chatID),
		s.picker.Pick(lists.Closings, seedClosing, chatID),
	}

	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}

func bold(s string) string {
	if s == "" {
		return ""
	}
	return "**" + s + "**"
}

func italic(s string) string {
	if s == "" {
		return ""
	}
	return "_" + s + "_"
}
