package feed

import (
	"context"
	"log/slog"
	"time"

	"mediascribe/internal/cache"
)

const (
	ingestLockKey = "feed:ingest:lock"
	lastIngestKey = "feed:last_ingest"
	ingestLockTTL = 10 * time.Minute
)

// Ingestor pulls a feed source and upserts its items. A redis lock keeps
// overlapping scheduled runs from racing each other; when no cache is
// configured the lock is skipped.
type Ingestor struct {
	parser *Parser
	store  Store
	cache  *cache.Cache
}

func NewIngestor(parser *Parser, store Store, c *cache.Cache) *Ingestor {
	return &Ingestor{parser: parser, store: store, cache: c}
}

// Ingest parses the source, sorts items by identifier and writes them
// through the store. Duplicate items are counted but not treated as
// failures.
func (i *Ingestor) Ingest(ctx context.Context, source string) error {
	if i.cache != nil {
		acquired, err := i.cache.SetNX(ctx, ingestLockKey, source, ingestLockTTL)
		if err != nil {
			slog.Warn("ingest lock unavailable, proceeding", "error", err)
		} else if !acquired {
			slog.Info("feed ingest already running, skipping", "source", source)
			return nil
		} else {
			defer i.cache.Delete(ctx, ingestLockKey)
		}
	}

	items, err := i.parser.Parse(ctx, source)
	if err != nil {
		return err
	}
	SortByItemID(items, false)

	slog.Info("updating feed store", "source", source, "count", len(items))

	var inserted, skipped int
	for _, item := range items {
		ok, err := i.store.UpsertItem(ctx, item)
		if err != nil {
			return err
		}
		if ok {
			inserted++
			slog.Info("inserted feed item", "item_id", item.ItemID)
		} else {
			skipped++
			slog.Debug("skipped duplicate feed item", "item_id", item.ItemID)
		}
	}

	if i.cache != nil {
		if err := i.cache.Set(ctx, lastIngestKey, time.Now().UTC().Format(time.RFC3339), 0); err != nil {
			slog.Warn("could not record last ingest time", "error", err)
		}
	}

	slog.Info("feed store updated", "inserted", inserted, "skipped", skipped)
	return nil
}
