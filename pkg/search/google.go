package search

import (
	"context"
	"fmt"
	"strings"

	customsearch "google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/fundscope/fundscope/pkg/config"
)

// Item is a single raw search or feed result before candidate filtering.
type Item struct {
	URL     string
	Title   string
	Snippet string
}

// GoogleClient queries the Google Custom Search API page by page.
type GoogleClient struct {
	svc   *customsearch.Service
	cseID string
	num   int64
}

// job-ish terms excluded right at the query level to reduce noise
var negativeTerms = []string{"job", "jobs", "career", "careers", "apply", "hiring", "recruit", "talent"}

// NewGoogleClient creates a Custom Search client. The endpoint is overridable
// for tests.
func NewGoogleClient(ctx context.Context, cfg config.SearchConfig) (*GoogleClient, error) {
	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create customsearch service: %w", err)
	}

	return &GoogleClient{svc: svc, cseID: cfg.CSEID, num: int64(cfg.PageSize)}, nil
}

// Page fetches one result page starting at the given 1-based offset.
// An empty page means the result window is exhausted.
func (c *GoogleClient) Page(ctx context.Context, query string, start int64) ([]Item, error) {
	resp, err := c.svc.Cse.List().Context(ctx).
		Cx(c.cseID).Q(query).Num(c.num).Start(start).Safe("off").Do()
	if err != nil {
		return nil, fmt.Errorf("customsearch query: %w", err)
	}

	items := make([]Item, 0, len(resp.Items))
	for _, it := range resp.Items {
		if it.Link == "" {
			continue
		}
		items = append(items, Item{URL: it.Link, Title: it.Title, Snippet: it.Snippet})
	}
	return items, nil
}

// BuildQuery assembles the outbound query for one seed:
// (seed) AND (funding keyword OR-group) AND (site OR-group) with job-term exclusions.
func BuildQuery(seed string, keywords, sites []string) string {
	quoted := make([]string, 0, len(keywords))
	for _, k := range keywords {
		quoted = append(quoted, fmt.Sprintf("%q", k))
	}

	siteTerms := make([]string, 0, len(sites))
	for _, s := range sites {
		siteTerms = append(siteTerms, "site:"+s)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "(%s) AND (%s) AND (%s)", seed,
		strings.Join(quoted, " OR "), strings.Join(siteTerms, " OR "))
	for _, t := range negativeTerms {
		fmt.Fprintf(&b, " -%q", t)
	}
	return b.String()
}
