package worker

import (
	"context"

	"github.com/hibiken/asynq"

	"calsync/core/config"
	"calsync/core/database"
	"calsync/core/logger"
	connectrepo "calsync/modules/connect/repository"
	eventrepo "calsync/modules/event/repository"
)

const (
	TaskStateCleanup    = "state:cleanup"
	TaskMirrorReconcile = "mirror:reconcile"
)

// Worker runs periodic maintenance: expired OAuth state cleanup and the
// pending-write reconciliation sweep.
type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler

	connectRepo connectrepo.ConnectRepositoryInterface
	eventRepo   eventrepo.EventRepositoryInterface
}

func New(cfg config.RedisConfig, db database.IDatabase) *Worker {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	return &Worker{
		server: asynq.NewServer(redisOpt, asynq.Config{
			Concurrency: 2,
		}),
		scheduler:   asynq.NewScheduler(redisOpt, nil),
		connectRepo: connectrepo.NewConnectRepository(db),
		eventRepo:   eventrepo.NewEventRepository(db),
	}
}

// Run registers the periodic tasks and blocks serving them.
func (w *Worker) Run() error {
	if _, err := w.scheduler.Register("*/10 * * * *", asynq.NewTask(TaskStateCleanup, nil)); err != nil {
		return err
	}
	if _, err := w.scheduler.Register("0 * * * *", asynq.NewTask(TaskMirrorReconcile, nil)); err != nil {
		return err
	}

	go func() {
		if err := w.scheduler.Run(); err != nil {
			logger.Error("Worker:Scheduler:Run:Error", "error", err)
		}
	}()

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskStateCleanup, w.handleStateCleanup)
	mux.HandleFunc(TaskMirrorReconcile, w.handleMirrorReconcile)

	return w.server.Run(mux)
}

func (w *Worker) Shutdown() {
	w.scheduler.Shutdown()
	w.server.Shutdown()
}

func (w *Worker) handleStateCleanup(ctx context.Context, _ *asynq.Task) error {
	deleted, err := w.connectRepo.CleanupExpiredOAuthStates(ctx)
	if err != nil {
		logger.Error("Worker:StateCleanup:Error", "error", err)
		return err
	}
	if deleted > 0 {
		logger.Info("Worker:StateCleanup:Done", "deleted", deleted)
	}
	return nil
}

// handleMirrorReconcile reports remote writes whose local half failed. Rows
// are surfaced every sweep until an operator resolves them; the remote side
// is never mutated from here.
func (w *Worker) handleMirrorReconcile(ctx context.Context, _ *asynq.Task) error {
	pending, err := w.eventRepo.ListUnresolvedPendingWrites(ctx, 100)
	if err != nil {
		logger.Error("Worker:MirrorReconcile:Error", "error", err)
		return err
	}

	for _, p := range pending {
		logger.Warn("Worker:MirrorReconcile:PendingWrite",
			"id", p.ID,
			"user_id", p.UserID,
			"operation", p.Operation,
			"provider", p.Provider,
			"provider_calendar_id", p.ProviderCalendarID,
			"remote_event_id", p.RemoteEventID,
			"detail", p.Detail,
			"age", p.CreatedAt,
		)
	}

	if len(pending) > 0 {
		logger.Warn("Worker:MirrorReconcile:Unresolved", "count", len(pending))
	}
	return nil
}
