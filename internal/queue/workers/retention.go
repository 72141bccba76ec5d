package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/history"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/queue"
)

const defaultRetentionDays = 90

// RetentionWorker deletes search history entries older than the retention
// window. Scheduled daily.
type RetentionWorker struct {
	hist *history.Service
}

func NewRetentionWorker(hist *history.Service) *RetentionWorker {
	return &RetentionWorker{hist: hist}
}

func (w *RetentionWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.HistoryPurgePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	days := payload.RetentionDays
	if days <= 0 {
		days = defaultRetentionDays
	}
	retention := time.Duration(days) * 24 * time.Hour

	deleted, err := w.hist.Purge(ctx, retention)
	if err != nil {
		return fmt.Errorf("purge history: %w", err)
	}

	slog.Info("history purged", "retention_days", days, "deleted", deleted)
	return nil
}
