package search

import (
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"
)

// RSSSource pulls candidates from newsroom RSS/Atom feeds, a secondary source
// next to the search API.
type RSSSource struct {
	parser  *gofeed.Parser
	timeout time.Duration
}

// NewRSSSource creates a feed-backed candidate source.
func NewRSSSource(timeout time.Duration) *RSSSource {
	return &RSSSource{parser: gofeed.NewParser(), timeout: timeout}
}

// Fetch retrieves one feed and converts its entries to raw result items,
// the feed title doubling as the query context.
func (s *RSSSource) Fetch(ctx context.Context, feedURL string) (feedTitle string, items []Item, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	feed, err := s.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return "", nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	items = make([]Item, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it.Link == "" {
			continue
		}
		items = append(items, Item{URL: it.Link, Title: it.Title, Snippet: it.Description})
	}
	return feed.Title, items, nil
}
