package bot

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/ka-abfall/abfallbot/internal/idempotency"
	"github.com/ka-abfall/abfallbot/internal/ratelimit"
	"github.com/ka-abfall/abfallbot/pkg/config"
	"github.com/ka-abfall/abfallbot/pkg/metrics"
)

// AdmissionMiddleware enforces per-chat admission limits for incoming
// updates. Updates over the limit are dropped silently; the dialogue state is
// left untouched, as if the message had never arrived.
type AdmissionMiddleware struct {
	limiter ratelimit.Limiter
	cfg     config.RateLimitConfig
	log     *slog.Logger
}

func NewAdmissionMiddleware(limiter ratelimit.Limiter, cfg config.RateLimitConfig, log *slog.Logger) *AdmissionMiddleware {
	if log == nil {
		log = slog.Default()
	}

	return &AdmissionMiddleware{
		limiter: limiter,
		cfg:     cfg,
		log:     log,
	}
}

// Handle returns a telebot middleware applying the per-chat admission rule.
// Limiter failures admit the update; admission control protects against
// floods, it must not take the bot down with it.
func (m *AdmissionMiddleware) Handle(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		if m.limiter == nil || c.Chat() == nil {
			return next(c)
		}

		chatID := c.Chat().ID
		if m.cfg.IsWhitelisted(chatID) {
			return next(c)
		}

		limit, window, err := m.cfg.PerChatLimit()
		if err != nil {
			m.log.Error("invalid admission rule", slog.Any("error", err))
			return next(c)
		}

		result, err := m.limiter.Check(context.Background(), ratelimit.ChatKey(chatID), limit, window)
		if err != nil && !errors.Is(err, ratelimit.ErrLimitExceeded) {
			m.log.Warn("admission check failed", slog.Int64("chat_id", chatID), slog.Any("error", err))
			return next(c)
		}

		if result == nil || !result.Allowed {
			metrics.RecordAdmissionDrop()
			m.log.Debug("dropped update over admission limit", slog.Int64("chat_id", chatID))
			return nil
		}

		return next(c)
	}
}

// DedupeMiddleware drops updates the bot has already processed.
func DedupeMiddleware(deduper *idempotency.Deduper) telebot.MiddlewareFunc {
	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			if deduper != nil && deduper.IsDuplicate(context.Background(), c.Update().ID) {
				return nil
			}
			return next(c)
		}
	}
}

// RecoveryMiddleware catches panics from handlers so one poisoned update
// cannot stop the poller.
func RecoveryMiddleware(log *slog.Logger) telebot.MiddlewareFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(c telebot.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("panic recovered in handler",
						slog.Any("panic", r),
						slog.String("stack", string(debug.Stack())))
					err = nil
				}
			}()

			return next(c)
		}
	}
}

// LoggingMiddleware logs basic telemetry about incoming updates.
func LoggingMiddleware(log *slog.Logger) telebot.MiddlewareFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			start := time.Now()
			chatID := int64(0)
			if c.Chat() != nil {
				chatID = c.Chat().ID
			}

			err := next(c)
			log.Info("handled update",
				slog.Int64("chat_id", chatID),
				slog.Duration("duration", time.Since(start)),
				slog.Any("error", err))
			return err
		}
	}
}
