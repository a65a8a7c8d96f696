package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// Enqueuer pushes reminder tasks onto the queue outside the cron schedule,
// e.g. for the manual trigger endpoint.
type Enqueuer struct {
	client *asynq.Client
	log    *slog.Logger
}

func NewEnqueuer(redisOpt asynq.RedisConnOpt, log *slog.Logger) *Enqueuer {
	return &Enqueuer{
		client: asynq.NewClient(redisOpt),
		log:    log,
	}
}

// EnqueueDailyReminder submits one reminder sweep for immediate processing.
func (e *Enqueuer) EnqueueDailyReminder(ctx context.Context) (*asynq.TaskInfo, error) {
	task, err := NewDailyReminderTask(time.Now())
	if err != nil {
		return nil, err
	}

	info, err := e.client.EnqueueContext(ctx, task)
	if err != nil {
		return nil, err
	}

	if e.log != nil {
		e.log.Info("reminder sweep enqueued", slog.String("task_id", info.ID))
	}

	return info, nil
}

func (e *Enqueuer) Close() error {
	return e.client.Close()
}
