// Package feed pulls a news feed, normalizes its entries into flat
// records and writes them to the relational store with duplicate
// suppression on the item identifier.
package feed

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// Item is the flat normalized form of one feed entry. Field names mirror
// the columns of the feed_items table.
type Item struct {
	ItemID          string
	Title           string
	Link            string
	Photographer    string
	PubDate         string
	Description     string
	Content         string
	DCTermsModified string
	IsVideo         string
	DCCreator       string
	MediaKeywords   string
	Category        string
}

type Parser struct {
	fp *gofeed.Parser
}

func NewParser() *Parser {
	fp := gofeed.NewParser()
	fp.Client = &http.Client{Timeout: 20 * time.Second}
	return &Parser{fp: fp}
}

// Parse loads a feed from an http(s) URL or a local file path and
// returns the normalized items.
func (p *Parser) Parse(ctx context.Context, source string) ([]Item, error) {
	var (
		f   *gofeed.Feed
		err error
	)
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		f, err = p.fp.ParseURLWithContext(source, ctx)
	} else {
		var file *os.File
		file, err = os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("open feed file: %w", err)
		}
		defer file.Close()
		f, err = p.fp.Parse(file)
	}
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	if f == nil || len(f.Items) == 0 {
		return nil, fmt.Errorf("feed contains no items")
	}

	items := make([]Item, 0, len(f.Items))
	for _, it := range f.Items {
		items = append(items, normalize(it))
	}
	return items, nil
}

func normalize(it *gofeed.Item) Item {
	rec := Item{
		ItemID:          custom(it, "itemID"),
		Title:           it.Title,
		Link:            it.Link,
		Photographer:    custom(it, "Photographer"),
		PubDate:         it.Published,
		Description:     it.Description,
		Content:         it.Content,
		DCTermsModified: extension(it, "dcterms", "modified"),
		IsVideo:         custom(it, "isVideo"),
		MediaKeywords:   extension(it, "media", "keywords"),
		Category:        strings.Join(it.Categories, ","),
	}
	if rec.ItemID == "" {
		rec.ItemID = it.GUID
	}
	if it.DublinCoreExt != nil && len(it.DublinCoreExt.Creator) > 0 {
		rec.DCCreator = it.DublinCoreExt.Creator[0]
	}
	return rec
}

// custom looks up an unhandled feed element case-insensitively; parsers
// differ on whether they preserve the original tag casing.
func custom(it *gofeed.Item, name string) string {
	for k, v := range it.Custom {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func extension(it *gofeed.Item, prefix, name string) string {
	exts, ok := it.Extensions[prefix]
	if !ok {
		return ""
	}
	vals, ok := exts[name]
	if !ok || len(vals) == 0 {
		return ""
	}
	return strings.TrimSpace(vals[0].Value)
}

// SortByItemID orders items by their identifier, numerically when both
// keys are all digits, lexicographically otherwise.
func SortByItemID(items []Item, descending bool) {
	sort.SliceStable(items, func(i, j int) bool {
		if descending {
			return idLess(items[j].ItemID, items[i].ItemID)
		}
		return idLess(items[i].ItemID, items[j].ItemID)
	})
}

func idLess(a, b string) bool {
	an, aok := numericID(a)
	bn, bok := numericID(b)
	if aok && bok {
		return an < bn
	}
	return a < b
}

func numericID(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
