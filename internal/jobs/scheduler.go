package jobs

import (
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// Scheduler fires the daily reminder sweep on a cron spec from config.
type Scheduler struct {
	inner *asynq.Scheduler
	log   *slog.Logger
}

func NewScheduler(redisOpt asynq.RedisConnOpt, log *slog.Logger) *Scheduler {
	return &Scheduler{
		inner: asynq.NewScheduler(redisOpt, nil),
		log:   log,
	}
}

// Start registers the daily reminder on the given cron spec and runs the
// scheduler loop in the background.
func (s *Scheduler) Start(cronSpec string) error {
	task, err := NewDailyReminderTask(time.Now())
	if err != nil {
		return err
	}

	entry, err := s.inner.Register(cronSpec, task)
	if err != nil {
		return err
	}

	if s.log != nil {
		s.log.Info("daily reminder scheduled",
			slog.String("cron", cronSpec), slog.String("entry_id", entry))
	}

	go func() {
		if err := s.inner.Run(); err != nil && s.log != nil {
			s.log.Error("reminder scheduler stopped", slog.Any("error", err))
		}
	}()

	return nil
}

func (s *Scheduler) Shutdown() {
	if s.log != nil {
		s.log.Info("reminder scheduler: shutting down")
	}

	s.inner.Shutdown()
}
