package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/ka-abfall/abfallbot/internal/dialog"
	"github.com/ka-abfall/abfallbot/internal/ratelimit"
	"github.com/ka-abfall/abfallbot/pkg/config"
)

// fakeContext implements the slice of telebot.Context the transport touches.
// The embedded interface panics on everything else, which is what we want.
type fakeContext struct {
	telebot.Context
	chat    *telebot.Chat
	sender  *telebot.User
	message *telebot.Message
}

func (c *fakeContext) Chat() *telebot.Chat       { return c.chat }
func (c *fakeContext) Sender() *telebot.User     { return c.sender }
func (c *fakeContext) Message() *telebot.Message { return c.message }

type stubLimiter struct {
	result *ratelimit.Result
	err    error
	calls  int
}

func (l *stubLimiter) Check(context.Context, string, int, time.Duration) (*ratelimit.Result, error) {
	l.calls++
	return l.result, l.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func admissionConfig(whitelist ...int64) config.RateLimitConfig {
	cfg := config.RateLimitConfig{Whitelist: whitelist}
	cfg.PerChat.Limit = 3
	cfg.PerChat.Window = "3s"
	return cfg
}

func TestAdmissionMiddleware(t *testing.T) {
	chat := &telebot.Chat{ID: 42}

	testCases := []struct {
		name        string
		limiter     *stubLimiter
		cfg         config.RateLimitConfig
		wantHandled bool
		wantChecked bool
	}{
		{
			name:        "admitted",
			limiter:     &stubLimiter{result: &ratelimit.Result{Allowed: true}},
			cfg:         admissionConfig(),
			wantHandled: true,
			wantChecked: true,
		},
		{
			name:        "over the limit drops silently",
			limiter:     &stubLimiter{result: &ratelimit.Result{Allowed: false}, err: ratelimit.ErrLimitExceeded},
			cfg:         admissionConfig(),
			wantHandled: false,
			wantChecked: true,
		},
		{
			name:        "whitelisted chat bypasses the limiter",
			limiter:     &stubLimiter{result: &ratelimit.Result{Allowed: false}, err: ratelimit.ErrLimitExceeded},
			cfg:         admissionConfig(42),
			wantHandled: true,
			wantChecked: false,
		},
		{
			name:        "limiter failure admits",
			limiter:     &stubLimiter{err: errors.New("redis down")},
			cfg:         admissionConfig(),
			wantHandled: true,
			wantChecked: true,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			mw := NewAdmissionMiddleware(tc.limiter, tc.cfg, testLogger())

			handled := false
			handler := mw.Handle(func(telebot.Context) error {
				handled = true
				return nil
			})

			require.NoError(t, handler(&fakeContext{chat: chat}))
			assert.Equal(t, tc.wantHandled, handled)
			assert.Equal(t, tc.wantChecked, tc.limiter.calls > 0)
		})
	}
}

func TestEventFromContext(t *testing.T) {
	chat := &telebot.Chat{ID: 42}
	sender := &telebot.User{FirstName: "Max", LastName: "Mustermann"}

	t.Run("text message", func(t *testing.T) {
		ev, ok := EventFromContext(&fakeContext{
			chat:    chat,
			sender:  sender,
			message: &telebot.Message{Text: "Hallo"},
		})
		require.True(t, ok)
		assert.Equal(t, int64(42), ev.ChatID)
		assert.Equal(t, "Max", ev.FirstName)
		assert.Equal(t, dialog.KindText, ev.Kind)
		assert.Equal(t, "Hallo", ev.Text)
	})

	t.Run("shared location", func(t *testing.T) {
		ev, ok := EventFromContext(&fakeContext{
			chat:    chat,
			sender:  sender,
			message: &telebot.Message{Location: &telebot.Location{Lat: 49.0, Lng: 8.4}},
		})
		require.True(t, ok)
		assert.Equal(t, dialog.KindLocation, ev.Kind)
		assert.InDelta(t, 49.0, ev.Lat, 0.001)
		assert.InDelta(t, 8.4, ev.Lon, 0.001)
	})

	t.Run("sticker is other", func(t *testing.T) {
		ev, ok := EventFromContext(&fakeContext{
			chat:    chat,
			sender:  sender,
			message: &telebot.Message{Sticker: &telebot.Sticker{}},
		})
		require.True(t, ok)
		assert.Equal(t, dialog.KindOther, ev.Kind)
	})

	t.Run("no chat", func(t *testing.T) {
		_, ok := EventFromContext(&fakeContext{})
		assert.False(t, ok)
	})
}
