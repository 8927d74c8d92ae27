package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"mediascribe/internal/feed"
	"mediascribe/internal/queue"
)

type FeedWorker struct {
	ingestor *feed.Ingestor
}

func NewFeedWorker(ingestor *feed.Ingestor) *FeedWorker {
	return &FeedWorker{ingestor: ingestor}
}

func (w *FeedWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.FeedIngestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if payload.Source == "" {
		return fmt.Errorf("feed ingest task missing source")
	}

	slog.Info("ingesting feed", "source", payload.Source)
	if err := w.ingestor.Ingest(ctx, payload.Source); err != nil {
		return fmt.Errorf("ingest feed %s: %w", payload.Source, err)
	}
	return nil
}
