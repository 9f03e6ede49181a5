package worker

import (
	"fmt"
	"time"

	"interview-scheduler/core/config"
	"interview-scheduler/core/constants"
	"interview-scheduler/core/logger"

	"github.com/hibiken/asynq"
)

// Worker runs the asynq scheduler and server for calendar background tasks.
type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	cron      string
}

func redisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func NewWorker(redisCfg config.RedisConfig, cfg config.WorkerConfig, refresher *TokenRefresher) *Worker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	opt := redisOpt(redisCfg)

	mux := asynq.NewServeMux()
	mux.Handle(constants.TaskRefreshExpiringTokens, refresher)

	return &Worker{
		server: asynq.NewServer(opt, asynq.Config{
			Concurrency: concurrency,
			Queues:      map[string]int{constants.QueueCalendar: 1},
			Logger:      logger.L(),
		}),
		scheduler: asynq.NewScheduler(opt, &asynq.SchedulerOpts{
			Logger: logger.L(),
		}),
		mux:  mux,
		cron: cfg.RefreshCron,
	}
}

// Start registers the periodic refresh and starts processing in the background.
func (w *Worker) Start() error {
	entryID, err := w.scheduler.Register(w.cron, NewRefreshTask(),
		asynq.Queue(constants.QueueCalendar),
		asynq.Unique(time.Minute),
		asynq.MaxRetry(1),
	)
	if err != nil {
		return fmt.Errorf("register token refresh: %w", err)
	}
	if err := w.scheduler.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	if err := w.server.Start(w.mux); err != nil {
		w.scheduler.Shutdown()
		return fmt.Errorf("start worker: %w", err)
	}
	logger.Info("Worker:Start:Success", "entry_id", entryID, "cron", w.cron)
	return nil
}

func (w *Worker) Shutdown() {
	w.scheduler.Shutdown()
	w.server.Shutdown()
	logger.Info("Worker:Shutdown:Done")
}
