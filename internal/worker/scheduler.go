package worker

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"creator-payments/internal/models"
)

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TaskInspector is satisfied by *asynq.Inspector.
type TaskInspector interface {
	GetTaskInfo(queue, id string) (*asynq.TaskInfo, error)
	DeleteTask(queue, id string) error
}

type PendingSource interface {
	PendingForReconciliation(ctx context.Context, lookback time.Duration, limit int) ([]models.Transaction, error)
}

// Scheduler periodically queues a reconcile task for every pending
// transaction whose charge may still be paid.
type Scheduler struct {
	Source    PendingSource
	Queue     Enqueuer
	Inspector TaskInspector
	Lookback  time.Duration
	BatchSize int
}

// NewScheduler builds a sweep over source. inspector may be nil, in which
// case a transaction whose previous task failed is not queued again until that
// task is removed from asynq.
func NewScheduler(source PendingSource, queue Enqueuer, inspector TaskInspector, lookback time.Duration, batchSize int) *Scheduler {
	return &Scheduler{Source: source, Queue: queue, Inspector: inspector, Lookback: lookback, BatchSize: batchSize}
}

// Sweep queues one task per pending transaction and returns how many were queued.
func (s *Scheduler) Sweep(ctx context.Context) (int, error) {
	trxs, err := s.Source.PendingForReconciliation(ctx, s.Lookback, s.BatchSize)
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, trx := range trxs {
		task, err := NewReconcileTask(ReconcilePayload{TransactionID: trx.ID})
		if err != nil {
			return queued, err
		}
		_, err = s.Queue.EnqueueContext(ctx, task, ReconcileOptions(trx.ID)...)
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			var replaced bool
			replaced, err = s.replaceFinished(ctx, task, trx.ID)
			if err == nil && !replaced {
				continue
			}
		}
		if err != nil {
			if errors.Is(err, asynq.ErrDuplicateTask) {
				continue
			}
			return queued, err
		}
		queued++
	}
	return queued, nil
}

// replaceFinished deletes the task holding the transaction's id when it is
// archived or completed and queues task in its place. It reports false when the
// existing task is still pending or running.
func (s *Scheduler) replaceFinished(ctx context.Context, task *asynq.Task, transactionID string) (bool, error) {
	if s.Inspector == nil {
		return false, nil
	}

	id := ReconcileTaskID(transactionID)
	info, err := s.Inspector.GetTaskInfo(QueueDefault, id)
	switch {
	case errors.Is(err, asynq.ErrTaskNotFound):
		// finished and removed between the two calls
	case err != nil:
		return false, err
	case info.State == asynq.TaskStateArchived || info.State == asynq.TaskStateCompleted:
		if err := s.Inspector.DeleteTask(QueueDefault, id); err != nil && !errors.Is(err, asynq.ErrTaskNotFound) {
			return false, err
		}
		logrus.WithFields(logrus.Fields{
			"transaction_id": transactionID,
			"state":          info.State.String(),
		}).Info("replacing finished reconcile task")
	default:
		return false, nil
	}

	if _, err := s.Queue.EnqueueContext(ctx, task, ReconcileOptions(transactionID)...); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Start registers the sweep on spec and starts the cron runner.
func (s *Scheduler) Start(spec string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		n, err := s.Sweep(ctx)
		if err != nil {
			logrus.WithError(err).Error("reconciliation sweep failed")
			return
		}
		logrus.WithField("queued", n).Info("reconciliation sweep completed")
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	logrus.WithField("schedule", spec).Info("Reconciliation scheduler started")
	return c, nil
}
