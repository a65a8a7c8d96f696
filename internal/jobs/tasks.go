// Package jobs schedules and processes background tasks, most importantly the
// daily collection reminder.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TaskTypeDailyReminder = "reminder:daily"

	// QueueReminders is the only queue this bot uses. The workload is one
	// fan-out sweep per day plus the occasional manual trigger.
	QueueReminders = "reminders"

	reminderMaxRetry = 3
)

// DailyReminderPayload carries the reminder run parameters. Recipients are
// resolved at processing time so a task enqueued hours earlier still reaches
// everyone who enabled notifications since.
type DailyReminderPayload struct {
	RequestedAt time.Time `json:"requested_at"`
}

func NewDailyReminderTask(requestedAt time.Time) (*asynq.Task, error) {
	payload, err := json.Marshal(DailyReminderPayload{RequestedAt: requestedAt})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypeDailyReminder, payload,
		asynq.Queue(QueueReminders), asynq.MaxRetry(reminderMaxRetry)), nil
}
