package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mentorbotdev/mentorbot/internal/config"
	"github.com/mentorbotdev/mentorbot/internal/core"
	"github.com/mentorbotdev/mentorbot/pkg/log"
)

// EmptyReplyFallback is sent when a run completes without producing any
// text. An empty assistant reply degrades to a visible placeholder, never
// to a dropped message.
const EmptyReplyFallback = "I have nothing to add right now. Ask me again in a little while."

// ErrRunTimeout means the run did not reach a terminal state within the
// configured maximum wait.
var ErrRunTimeout = errors.New("assistant run timed out")

// RunError is returned when a run terminates in a non-success state.
type RunError struct {
	Status core.RunStatus
}

func (e *RunError) Error() string {
	return fmt.Sprintf("assistant run ended with status %q", e.Status)
}

// ThreadAPI is the backend capability the orchestrator drives.
type ThreadAPI interface {
	AddUserMessage(ctx context.Context, threadID, text string) error
	StartRun(ctx context.Context, threadID string) (string, error)
	RunStatus(ctx context.Context, threadID, runID string) (core.RunStatus, error)
	LatestAssistantText(ctx context.Context, threadID string) (string, error)
}

// Sessions resolves a chat identity to its thread.
type Sessions interface {
	GetOrCreate(ctx context.Context, identity int64) (string, error)
}

// Orchestrator turns one inbound text into one assistant run and its
// reply. It never retries a run; recovery is the caller's decision.
type Orchestrator struct {
	sessions     Sessions
	api          ThreadAPI
	pollInterval time.Duration
	maxWait      time.Duration
}

func NewOrchestrator(cfg *config.AssistantConfig, sessions Sessions, api ThreadAPI) *Orchestrator {
	return &Orchestrator{
		sessions:     sessions,
		api:          api,
		pollInterval: cfg.PollInterval,
		maxWait:      cfg.MaxWait,
	}
}

// Converse appends input to the identity's thread, drives a single run to
// a terminal state and returns the newest assistant text. The input is
// always appended before polling begins, so the thread history stays
// append-only regardless of what happens downstream.
func (o *Orchestrator) Converse(ctx context.Context, identity int64, input string) (string, error) {
	threadID, err := o.sessions.GetOrCreate(ctx, identity)
	if err != nil {
		return "", fmt.Errorf("resolve session: %w", err)
	}

	if err := o.api.AddUserMessage(ctx, threadID, input); err != nil {
		return "", fmt.Errorf("append input: %w", err)
	}

	runID, err := o.api.StartRun(ctx, threadID)
	if err != nil {
		return "", fmt.Errorf("start run: %w", err)
	}

	status, err := o.awaitRun(ctx, threadID, runID)
	if err != nil {
		return "", err
	}
	if status != core.RunCompleted {
		return "", &RunError{Status: status}
	}

	reply, err := o.api.LatestAssistantText(ctx, threadID)
	if err != nil {
		return "", fmt.Errorf("fetch reply: %w", err)
	}
	if strings.TrimSpace(reply) == "" {
		log.FromCtx(ctx).Warn().
			Int64("identity", identity).
			Str("run", runID).
			Msg("run completed with empty output")
		return EmptyReplyFallback, nil
	}
	return reply, nil
}

// awaitRun polls the run at the configured interval until it is terminal
// or the maximum wait is exceeded.
func (o *Orchestrator) awaitRun(ctx context.Context, threadID, runID string) (core.RunStatus, error) {
	deadline := time.Now().Add(o.maxWait)

	for {
		status, err := o.api.RunStatus(ctx, threadID, runID)
		if err != nil {
			return "", fmt.Errorf("poll run: %w", err)
		}
		if status.Terminal() {
			return status, nil
		}

		if time.Now().After(deadline) {
			return "", ErrRunTimeout
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(o.pollInterval):
		}
	}
}
