// Package delivery sends chat messages with bounded retry, so a flaky
// transport never crashes a dialogue step or a notification sweep.
package delivery

import (
	"context"
	"errors"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	apperrors "github.com/ka-abfall/abfallbot/internal/errors"
	"github.com/ka-abfall/abfallbot/pkg/metrics"
)

// API is the slice of the Telegram transport the sender needs.
type API interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// Sender wraps the transport's send call with exponential-backoff retry.
type Sender struct {
	api API
	log *slog.Logger
}

// NewSender constructs a Sender around the Telegram API.
func NewSender(api API, log *slog.Logger) *Sender {
	if log == nil {
		log = slog.Default()
	}

	return &Sender{
		api: api,
		log: log,
	}
}

// Send delivers one message to the chat, retrying transient transport errors.
// When the retry budget is exhausted the failure is logged and swallowed: a
// lost notification must never abort the dialogue or sibling sends.
func (s *Sender) Send(ctx context.Context, chatID int64, text string, opts ...interface{}) {
	recipient := telebot.ChatID(chatID)

	attempt := 0
	err := apperrors.WithRetry(ctx, func() error {
		if attempt > 0 {
			metrics.RecordOutboundRetry()
		}
		attempt++

		_, sendErr := s.api.Send(recipient, text, opts...)
		if sendErr == nil {
			return nil
		}

		return classify(sendErr)
	})

	if err != nil {
		metrics.RecordOutboundFailure()
		s.log.Error("dropping message after send retries",
			slog.Int64("chat_id", chatID),
			slog.Int("attempts", attempt),
			slog.Any("error", err),
		)
	}
}

// floodError carries Telegram's retry-after hint through the retry loop.
type floodError struct {
	app        *apperrors.AppError
	retryAfter time.Duration
}

func (e *floodError) Error() string                    { return e.app.Error() }
func (e *floodError) Unwrap() error                    { return e.app }
func (e *floodError) RetryAfterDuration() time.Duration { return e.retryAfter }

// classify maps transport errors onto the retry taxonomy: flood waits honor
// the server hint, other API rejections are permanent, everything else
// (network, timeouts) is transient.
func classify(err error) error {
	var flood telebot.FloodError
	if errors.As(err, &flood) {
		return &floodError{
			app:        apperrors.NewTransportError(err, true),
			retryAfter: time.Duration(flood.RetryAfter) * time.Second,
		}
	}

	var apiErr *telebot.Error
	if errors.As(err, &apiErr) {
		return apperrors.NewTransportError(err, false)
	}

	return apperrors.NewTransportError(err, true)
}
