// Package delivery wraps outbound Telegram sends with rate-limit backoff
// and permanent-failure quarantine.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/mentorbotdev/mentorbot/pkg/conv"
	"github.com/mentorbotdev/mentorbot/pkg/log"
)

// maxRateLimitAttempts caps flood retries. Telegram always supplies a
// finite retry_after, but a buggy repeating value must not livelock us.
const maxRateLimitAttempts = 5

const maxMessageLen = 4000 // safety margin below Telegram's 4096

// ErrQuarantined marks a destination that failed permanently earlier in
// the process lifetime. Quarantined chats are never re-attempted.
var ErrQuarantined = errors.New("destination quarantined")

// Sender is satisfied by *tele.Bot.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

type Manager struct {
	sender Sender

	mu          sync.RWMutex
	quarantined map[int64]struct{}

	// sleep is swappable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewManager(sender Sender) *Manager {
	return &Manager{
		sender:      sender,
		quarantined: make(map[int64]struct{}),
		sleep: func(ctx context.Context, d time.Duration) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d):
				return nil
			}
		},
	}
}

// Send delivers one payload to a chat. Flood errors are retried after the
// server-supplied wait, bounded by maxRateLimitAttempts. Permanent
// failures quarantine the chat. Anything else is logged and returned
// without a state change.
func (m *Manager) Send(ctx context.Context, chatID int64, what interface{}, opts ...interface{}) error {
	if m.IsQuarantined(chatID) {
		return fmt.Errorf("chat %d: %w", chatID, ErrQuarantined)
	}

	logger := log.FromCtx(ctx)

	for attempt := 1; ; attempt++ {
		_, err := m.sender.Send(tele.ChatID(chatID), what, opts...)
		if err == nil {
			return nil
		}

		var flood tele.FloodError
		if errors.As(err, &flood) {
			if attempt >= maxRateLimitAttempts {
				return fmt.Errorf("chat %d: flood retries exhausted after %d attempts (retry_after %ds)",
					chatID, attempt, flood.RetryAfter)
			}
			wait := time.Duration(flood.RetryAfter) * time.Second
			logger.Warn().
				Int64("chat", chatID).
				Dur("retry_after", wait).
				Int("attempt", attempt).
				Msg("rate limited, backing off")
			if err := m.sleep(ctx, wait); err != nil {
				return err
			}
			continue
		}

		if isPermanent(err) {
			m.quarantine(ctx, chatID)
			return fmt.Errorf("chat %d: %w: %v", chatID, ErrQuarantined, err)
		}

		logger.Error().Err(err).Int64("chat", chatID).Msg("delivery failed")
		return fmt.Errorf("chat %d: %w", chatID, err)
	}
}

// SendMarkdown renders Markdown to Telegram HTML and delivers it,
// splitting into chunks when the text exceeds Telegram's limit.
func (m *Manager) SendMarkdown(ctx context.Context, chatID int64, md string) error {
	html := conv.MarkdownToTelegramHTML([]byte(md))
	if html == "" {
		return nil
	}
	for _, chunk := range splitText(html, maxMessageLen) {
		if err := m.Send(ctx, chatID, chunk, tele.ModeHTML); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) IsQuarantined(chatID int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.quarantined[chatID]
	return ok
}

func (m *Manager) quarantine(ctx context.Context, chatID int64) {
	m.mu.Lock()
	_, already := m.quarantined[chatID]
	if !already {
		m.quarantined[chatID] = struct{}{}
	}
	m.mu.Unlock()

	if !already {
		log.FromCtx(ctx).Error().
			Int64("chat", chatID).
			Msg("permanent delivery failure, destination quarantined")
	}
}

// isPermanent reports whether the destination itself is unusable, as
// opposed to a transient delivery hiccup.
func isPermanent(err error) bool {
	for _, perm := range []error{
		tele.ErrBlockedByUser,
		tele.ErrNotStartedByUser,
		tele.ErrUserIsDeactivated,
		tele.ErrChatNotFound,
	} {
		if errors.Is(err, perm) {
			return true
		}
	}

	var apiErr *tele.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusForbidden
}

// splitText splits at newlines where possible so formatting survives.
func splitText(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	var chunks []string
	for len(text) > 0 {
		if len(text) <= maxLen {
			chunks = append(chunks, text)
			break
		}
		cut := maxLen
		if idx := strings.LastIndex(text[:maxLen], "\n"); idx > maxLen/3 {
			cut = idx
		}
		chunks = append(chunks, text[:cut])
		text = strings.TrimSpace(text[cut:])
	}
	return chunks
}
