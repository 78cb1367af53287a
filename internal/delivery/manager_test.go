package delivery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"
)

// fakeSender replays a scripted error per attempt; nil means success.
// The last entry repeats.
type fakeSender struct {
	errs  []error
	calls int
	sent  []string
}

func (f *fakeSender) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	i := f.calls
	f.calls++
	if s, ok := what.(string); ok {
		f.sent = append(f.sent, s)
	}
	if len(f.errs) == 0 {
		return &tele.Message{}, nil
	}
	if i >= len(f.errs) {
		i = len(f.errs) - 1
	}
	if err := f.errs[i]; err != nil {
		return nil, err
	}
	return &tele.Message{}, nil
}

func newTestManager(sender Sender) (*Manager, *[]time.Duration) {
	m := NewManager(sender)
	var slept []time.Duration
	m.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return m, &slept
}

func floodErr(retryAfter int) error {
	return tele.FloodError{RetryAfter: retryAfter}
}

func TestSend_Success(t *testing.T) {
	sender := &fakeSender{}
	m, _ := newTestManager(sender)

	require.NoError(t, m.Send(context.Background(), 42, "hello"))
	assert.Equal(t, 1, sender.calls)
}

func TestSend_RateLimitedThenSucceeds(t *testing.T) {
	sender := &fakeSender{errs: []error{floodErr(3), floodErr(1), nil}}
	m, slept := newTestManager(sender)

	require.NoError(t, m.Send(context.Background(), 42, "hello"))
	assert.Equal(t, 3, sender.calls)
	assert.Equal(t, []time.Duration{3 * time.Second, time.Second}, *slept)
	assert.False(t, m.IsQuarantined(42), "flood never quarantines")
}

func TestSend_RateLimitRetriesBounded(t *testing.T) {
	sender := &fakeSender{errs: []error{floodErr(1)}}
	m, slept := newTestManager(sender)

	err := m.Send(context.Background(), 42, "hello")
	require.Error(t, err)
	assert.Equal(t, maxRateLimitAttempts, sender.calls)
	assert.Len(t, *slept, maxRateLimitAttempts-1)
	assert.False(t, m.IsQuarantined(42))
}

func TestSend_PermanentFailureQuarantines(t *testing.T) {
	sender := &fakeSender{errs: []error{tele.ErrBlockedByUser}}
	m, _ := newTestManager(sender)

	err := m.Send(context.Background(), 42, "hello")
	require.ErrorIs(t, err, ErrQuarantined)
	assert.True(t, m.IsQuarantined(42))

	// Second send never reaches the sender.
	err = m.Send(context.Background(), 42, "again")
	require.ErrorIs(t, err, ErrQuarantined)
	assert.Equal(t, 1, sender.calls)
}

func TestSend_ForbiddenCodeQuarantines(t *testing.T) {
	sender := &fakeSender{errs: []error{tele.NewError(403, "Forbidden: bot is not a member of the channel chat")}}
	m, _ := newTestManager(sender)

	err := m.Send(context.Background(), -100123, "hello")
	require.ErrorIs(t, err, ErrQuarantined)
	assert.True(t, m.IsQuarantined(-100123))
}

func TestSend_OtherErrorNoQuarantine(t *testing.T) {
	sender := &fakeSender{errs: []error{errors.New("connection reset")}}
	m, _ := newTestManager(sender)

	err := m.Send(context.Background(), 42, "hello")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrQuarantined)
	assert.False(t, m.IsQuarantined(42))

	// Transient errors do not block later attempts.
	sender.errs = nil
	require.NoError(t, m.Send(context.Background(), 42, "hello"))
}

func TestSendMarkdown_RendersHTML(t *testing.T) {
	sender := &fakeSender{}
	m, _ := newTestManager(sender)

	require.NoError(t, m.SendMarkdown(context.Background(), 42, "**Lesson** of the day"))
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "<strong>Lesson</strong>")
}

func TestSplitText_LongMessageChunked(t *testing.T) {
	var long string
	for i := 0; i < 500; i++ {
		long += "a line of lesson text\n"
	}
	chunks := splitText(long, maxMessageLen)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), maxMessageLen)
	}
}
