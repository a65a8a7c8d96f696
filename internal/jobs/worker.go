package jobs

import (
	"log/slog"

	"github.com/hibiken/asynq"
)

// Worker consumes reminder tasks from the reminders queue. Concurrency stays
// at 2: the daily sweep plus at most one manual trigger at a time, so a slow
// sweep never piles up parallel sends to the same chats.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    *slog.Logger
}

// NewWorker builds the reminder worker with the given handler already wired
// to the daily reminder task type.
func NewWorker(redisOpt asynq.RedisConnOpt, handler asynq.Handler, log *slog.Logger) *Worker {
	server := asynq.NewServer(redisOpt, asynq.Config{
		Queues:      map[string]int{QueueReminders: 1},
		Concurrency: 2,
	})

	mux := asynq.NewServeMux()
	mux.Handle(TaskTypeDailyReminder, handler)

	return &Worker{
		server: server,
		mux:    mux,
		log:    log,
	}
}

// Run blocks processing reminder tasks until Shutdown is called.
func (w *Worker) Run() error {
	if w.log != nil {
		w.log.Info("reminder worker: processing queue", slog.String("queue", QueueReminders))
	}

	return w.server.Run(w.mux)
}

// Shutdown stops the worker, waiting for an in-flight sweep to finish.
func (w *Worker) Shutdown() {
	if w.log != nil {
		w.log.Info("reminder worker: shutting down")
	}

	w.server.Shutdown()
}
