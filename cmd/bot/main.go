package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ka-abfall/abfallbot/internal/backend"
	"github.com/ka-abfall/abfallbot/internal/bot"
	"github.com/ka-abfall/abfallbot/internal/delivery"
	"github.com/ka-abfall/abfallbot/internal/dialog"
	apperrors "github.com/ka-abfall/abfallbot/internal/errors"
	"github.com/ka-abfall/abfallbot/internal/geocode"
	"github.com/ka-abfall/abfallbot/internal/health"
	"github.com/ka-abfall/abfallbot/internal/idempotency"
	"github.com/ka-abfall/abfallbot/internal/jobs"
	jobhandlers "github.com/ka-abfall/abfallbot/internal/jobs/handlers"
	"github.com/ka-abfall/abfallbot/internal/lifecycle"
	"github.com/ka-abfall/abfallbot/internal/ratelimit"
	"github.com/ka-abfall/abfallbot/internal/session"
	"github.com/ka-abfall/abfallbot/pkg/config"
	"github.com/ka-abfall/abfallbot/pkg/graceful"
	"github.com/ka-abfall/abfallbot/pkg/logger"
	"github.com/ka-abfall/abfallbot/pkg/metrics"
	redisclient "github.com/ka-abfall/abfallbot/pkg/redis"
)

func main() {
	if err := run(); err != nil {
		slog.Error("abfallbot exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, level := logger.New(cfg.Log, cfg.Sentry.Enabled)
	slog.SetDefault(log)

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.AppEnv,
		}); err != nil {
			return fmt.Errorf("initialize sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	config.Watch(v, log, func(updated *config.Config) {
		level.Set(logger.ParseLevel(updated.Log.Level))
	})

	log.Info("starting abfallbot",
		slog.String("env", cfg.AppEnv),
		slog.String("bot_mode", cfg.Bot.Mode),
		slog.String("http_port", cfg.Server.Port))

	rdb, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}

	sessions := session.NewRedisStore(rdb, log)

	memLimiter := ratelimit.NewMemoryLimiter(log)
	go memLimiter.RunCleanup(ctx, time.Minute, 10*time.Minute)

	var limiter ratelimit.Limiter = memLimiter
	if cfg.RateLimit.Backend == "redis" {
		limiter = ratelimit.NewFallbackLimiter(ratelimit.NewRedisLimiter(rdb, log), memLimiter, log)
	}

	geocoder := geocode.NewCachedGeocoder(geocode.NewClient(cfg.Geocoder), rdb, 24*time.Hour, log)
	geoWorker := geocode.NewWorker(geocoder, cfg.Geocoder.QueueSize, cfg.Geocoder.Pace, log)
	go geoWorker.Run(ctx)

	dataService := backend.NewClient(cfg.Backend)
	errHandler := apperrors.NewHandler(log, cfg.Sentry.Enabled)

	dialog.RegisterTransitionRecorder(metrics.RecordTransition)

	tb, err := bot.NewTelebot(*cfg)
	if err != nil {
		return err
	}

	sender := delivery.NewSender(tb, log)
	engine := dialog.NewEngine(sessions, dataService, geoWorker, sender, errHandler, log)
	admission := bot.NewAdmissionMiddleware(limiter, cfg.RateLimit, log)
	deduper := idempotency.NewDeduper(idempotency.NewRedisStore(rdb), 10*time.Minute, log)
	b := bot.New(tb, log, engine, admission, bot.DedupeMiddleware(deduper))

	checker := health.NewChecker(log)
	checker.AddCheck("redis", health.NewRedisChecker(rdb))
	checker.AddCheck("backend", dataService)
	checker.AddCheck("telegram", health.NewTelegramChecker(tb))
	probes := lifecycle.NewProbes(checker, log)

	shutdown := lifecycle.NewShutdown(log)
	shutdown.Register("telegram bot", func(context.Context) error {
		b.Stop()
		return nil
	})
	shutdown.Register("redis", func(context.Context) error {
		return rdb.Close()
	})

	var reminders *jobs.Enqueuer
	if cfg.Notify.Enabled {
		redisOpt := asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}

		reminders = jobs.NewEnqueuer(redisOpt, log)

		handler := jobhandlers.NewDailyReminderHandler(dataService, sender, log)
		worker := jobs.NewWorker(redisOpt, handler, log)
		go func() {
			if err := worker.Run(); err != nil {
				log.Error("reminder worker failed", slog.Any("error", err))
			}
		}()

		scheduler := jobs.NewScheduler(redisOpt, log)
		if err := scheduler.Start(cfg.Notify.CronSpec); err != nil {
			return fmt.Errorf("register reminder schedule: %w", err)
		}

		shutdown.Register("reminder scheduler", func(context.Context) error {
			scheduler.Shutdown()
			return nil
		})
		shutdown.Register("reminder worker", func(context.Context) error {
			worker.Shutdown()
			return nil
		})
		shutdown.Register("reminder enqueuer", func(context.Context) error {
			return reminders.Close()
		})
	}

	srv := graceful.NewServer(log, &http.Server{
		Addr:    cfg.Server.Port,
		Handler: logger.Middleware(httpMux(probes, reminders)),
	}, cfg.Server.ShutdownTimeout)

	go b.Start()
	log.Info("telegram bot started")

	err = srv.ListenAndServe(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if shutdownErr := shutdown.Execute(shutdownCtx); shutdownErr != nil && err == nil {
		err = shutdownErr
	}

	log.Info("abfallbot stopped")
	return err
}

// httpMux exposes metrics, probes and the manual reminder trigger.
func httpMux(probes lifecycle.HealthChecker, reminders *jobs.Enqueuer) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := probes.Liveness(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		fmt.Fprintln(w, "ok")
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := probes.Readiness(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		fmt.Fprintln(w, "ok")
	})

	mux.HandleFunc("/jobs/reminder", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if reminders == nil {
			http.Error(w, "notifications disabled", http.StatusConflict)
			return
		}

		if _, err := reminders.EnqueueDailyReminder(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})

	return mux
}
