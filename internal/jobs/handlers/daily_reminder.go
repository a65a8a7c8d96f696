package handlers

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ka-abfall/abfallbot/internal/backend"
	"github.com/ka-abfall/abfallbot/internal/dialog"
	"github.com/ka-abfall/abfallbot/internal/jobs"
)

// Outbound delivers a reminder message to a chat.
type Outbound interface {
	Send(ctx context.Context, chatID int64, text string, opts ...interface{})
}

// DailyReminderHandler sends every subscribed chat its collection events for
// tomorrow. Chats without events tomorrow are skipped.
type DailyReminderHandler struct {
	backend backend.Service
	sender  Outbound
	log     *slog.Logger
}

func NewDailyReminderHandler(svc backend.Service, sender Outbound, log *slog.Logger) *DailyReminderHandler {
	return &DailyReminderHandler{
		backend: svc,
		sender:  sender,
		log:     log,
	}
}

func (h *DailyReminderHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload jobs.DailyReminderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		if h.log != nil {
			h.log.ErrorContext(ctx, "daily reminder: failed to decode payload",
				slog.Any("task_type", t.Type()), slog.String("error", err.Error()))
		}
		return err
	}

	recipients, err := h.backend.NotificationRecipients(ctx)
	if err != nil {
		if h.log != nil {
			h.log.ErrorContext(ctx, "daily reminder: failed to list recipients", slog.Any("error", err))
		}
		return err
	}

	if h.log != nil {
		h.log.InfoContext(ctx, "daily reminder: run started",
			slog.String("task_type", t.Type()),
			slog.Int("recipients", len(recipients)))
	}

	sent := 0
	for _, chatID := range recipients {
		// One chat's failure must not starve the rest of the run.
		pickups, err := h.backend.TomorrowsPickups(ctx, chatID)
		if err != nil {
			if h.log != nil {
				h.log.ErrorContext(ctx, "daily reminder: pickup lookup failed",
					slog.Int64("chat_id", chatID), slog.Any("error", err))
			}
			continue
		}
		if len(pickups) == 0 {
			continue
		}

		h.sender.Send(ctx, chatID, dialog.RenderPickups(pickups))
		sent++
	}

	if h.log != nil {
		h.log.InfoContext(ctx, "daily reminder: run finished", slog.Int("sent", sent))
	}

	return nil
}
