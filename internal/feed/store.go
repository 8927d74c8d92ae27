package feed

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists normalized feed items idempotently: writing an item
// whose identifier already exists is a no-op.
type Store interface {
	UpsertItem(ctx context.Context, item Item) (inserted bool, err error)
}

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const upsertItemSQL = `
	INSERT INTO feed_items (
		item_id, title, link, photographer, pub_date, description,
		content, dcterms_modified, is_video, dc_creator, media_keywords, category
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (item_id) DO NOTHING
	RETURNING item_id`

// UpsertItem inserts the item unless its identifier is already present.
// The second return value reports whether a row was actually written.
func (s *PostgresStore) UpsertItem(ctx context.Context, item Item) (bool, error) {
	var itemID string
	err := s.pool.QueryRow(ctx, upsertItemSQL,
		item.ItemID, item.Title, item.Link, item.Photographer, item.PubDate,
		item.Description, item.Content, item.DCTermsModified, item.IsVideo,
		item.DCCreator, item.MediaKeywords, item.Category,
	).Scan(&itemID)
	if errors.Is(err, pgx.ErrNoRows) {
		// Conflict: the item was already ingested.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("upsert feed item %s: %w", item.ItemID, err)
	}
	return true, nil
}
