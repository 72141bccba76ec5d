package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/document"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/queue"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/suggest"
)

// IndexerWorker rebuilds the chunk index for an owner's documents and
// drops their cached suggestions afterwards so stale term lists never
// outlive a reindex.
type IndexerWorker struct {
	docs    *document.Service
	suggest *suggest.Engine
}

func NewIndexerWorker(docs *document.Service, sg *suggest.Engine) *IndexerWorker {
	return &IndexerWorker{docs: docs, suggest: sg}
}

func (w *IndexerWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.DocumentReindexPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if payload.OwnerID == "" {
		return fmt.Errorf("document reindex: missing owner_id")
	}

	slog.Info("reindexing documents", "owner_id", payload.OwnerID, "force", payload.Force)

	n, err := w.docs.ReindexOwner(ctx, payload.OwnerID, payload.Force)
	if err != nil {
		return fmt.Errorf("reindex owner %s: %w", payload.OwnerID, err)
	}

	if w.suggest != nil {
		w.suggest.InvalidateOwner(ctx, payload.OwnerID)
	}

	slog.Info("reindex complete", "owner_id", payload.OwnerID, "documents", n)
	return nil
}
