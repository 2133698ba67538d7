package worker

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeReconcileTransaction = "payment:reconcile"

	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

type ReconcilePayload struct {
	TransactionID string `json:"transaction_id"`
}

func NewReconcileTask(payload ReconcilePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeReconcileTransaction, data), nil
}

func ReconcileTaskID(transactionID string) string {
	return "reconcile:" + transactionID
}

// ReconcileOptions keeps one live reconcile task per transaction and never
// retries it. A failed task is archived under the same id; Scheduler.Sweep
// replaces it on the next run.
func ReconcileOptions(transactionID string) []asynq.Option {
	return []asynq.Option{
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(0),
		asynq.TaskID(ReconcileTaskID(transactionID)),
		asynq.Timeout(time.Minute),
	}
}
