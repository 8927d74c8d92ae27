package feed

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseFixture(t *testing.T) []Item {
	t.Helper()
	p := NewParser()
	items, err := p.Parse(context.Background(), filepath.Join("testdata", "feed.xml"))
	require.NoError(t, err)
	require.Len(t, items, 3)
	return items
}

func TestParseNormalizesItems(t *testing.T) {
	items := parseFixture(t)

	byTitle := make(map[string]Item, len(items))
	for _, it := range items {
		byTitle[it.Title] = it
	}

	second := byTitle["Second story"]
	assert.Equal(t, "101", second.ItemID)
	assert.Equal(t, "https://news.example/items/101", second.Link)
	assert.Equal(t, "Mon, 05 May 2025 10:00:00 +0300", second.PubDate)
	assert.Equal(t, "Second summary", second.Description)
	assert.Contains(t, second.Content, "Second body")
	assert.Equal(t, "Desk Two", second.DCCreator)
	assert.Equal(t, "B. Lens", second.Photographer)
	assert.Equal(t, "false", second.IsVideo)
	assert.Equal(t, "News", second.Category)

	first := byTitle["First story"]
	assert.Equal(t, "99", first.ItemID)
	assert.Equal(t, "true", first.IsVideo)
	assert.Empty(t, first.Photographer)
}

func TestParseFallsBackToGUID(t *testing.T) {
	items := parseFixture(t)

	var fallback Item
	for _, it := range items {
		if it.Title == "No custom id" {
			fallback = it
		}
	}
	assert.Equal(t, "item-abc", fallback.ItemID, "items without an explicit id use the guid")
}

func TestParseMissingFile(t *testing.T) {
	p := NewParser()
	_, err := p.Parse(context.Background(), filepath.Join("testdata", "does-not-exist.xml"))
	require.Error(t, err)
}

func TestSortByItemIDNumeric(t *testing.T) {
	items := []Item{{ItemID: "101"}, {ItemID: "99"}, {ItemID: "item-abc"}}
	SortByItemID(items, false)
	assert.Equal(t, []string{"99", "101", "item-abc"}, ids(items))
}

func TestSortByItemIDDescending(t *testing.T) {
	items := []Item{{ItemID: "99"}, {ItemID: "101"}}
	SortByItemID(items, true)
	assert.Equal(t, []string{"101", "99"}, ids(items))
}

func TestSortByItemIDLexicographic(t *testing.T) {
	items := []Item{{ItemID: "beta"}, {ItemID: "alpha"}}
	SortByItemID(items, false)
	assert.Equal(t, []string{"alpha", "beta"}, ids(items))
}

func ids(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ItemID
	}
	return out
}

type fakeStore struct {
	seen     map[string]bool
	inserted []string
	skipped  []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{seen: make(map[string]bool)}
}

func (f *fakeStore) UpsertItem(_ context.Context, item Item) (bool, error) {
	if f.seen[item.ItemID] {
		f.skipped = append(f.skipped, item.ItemID)
		return false, nil
	}
	f.seen[item.ItemID] = true
	f.inserted = append(f.inserted, item.ItemID)
	return true, nil
}

func TestIngestUpsertsAllItems(t *testing.T) {
	store := newFakeStore()
	ing := NewIngestor(NewParser(), store, nil)

	err := ing.Ingest(context.Background(), filepath.Join("testdata", "feed.xml"))
	require.NoError(t, err)
	assert.Equal(t, []string{"99", "101", "item-abc"}, store.inserted)
	assert.Empty(t, store.skipped)
}

func TestIngestIsIdempotent(t *testing.T) {
	store := newFakeStore()
	ing := NewIngestor(NewParser(), store, nil)

	source := filepath.Join("testdata", "feed.xml")
	require.NoError(t, ing.Ingest(context.Background(), source))
	require.NoError(t, ing.Ingest(context.Background(), source))

	assert.Len(t, store.inserted, 3, "second pass must not insert anything new")
	assert.Len(t, store.skipped, 3)
}
