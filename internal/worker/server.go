package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"creator-payments/internal/services"
)

// Reconciler is the part of the payment service the worker drives.
type Reconciler interface {
	ReconcileFromPoll(ctx context.Context, transactionID string) (*services.PollResult, error)
}

type Worker struct {
	Reconciler Reconciler
}

func NewWorker(reconciler Reconciler) *Worker {
	return &Worker{Reconciler: reconciler}
}

func (w *Worker) HandleReconcile(ctx context.Context, t *asynq.Task) error {
	var p ReconcilePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}

	log := logrus.WithField("transaction_id", p.TransactionID)
	res, err := w.Reconciler.ReconcileFromPoll(ctx, p.TransactionID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) || errors.Is(err, services.ErrValidation) {
			log.WithError(err).Warn("reconcile skipped")
			return fmt.Errorf("reconcile %s: %v: %w", p.TransactionID, err, asynq.SkipRetry)
		}
		log.WithError(err).Error("reconcile failed")
		return err
	}

	log.WithField("status", res.Status).Debug("transaction reconciled")
	return nil
}

func NewServeMux(w *Worker) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeReconcileTransaction, w.HandleReconcile)
	return mux
}

// StartWorker blocks serving queued tasks until the process is signalled.
func StartWorker(redisOpt asynq.RedisClientOpt, w *Worker, concurrency int) error {
	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				QueueCritical: 6,
				QueueDefault:  3,
				QueueLow:      1,
			},
			Logger: logrus.StandardLogger(),
		},
	)
	return srv.Run(NewServeMux(w))
}
