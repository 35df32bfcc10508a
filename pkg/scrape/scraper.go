package scrape

import (
	"context"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/fundscope/fundscope/pkg/domain"
	"github.com/fundscope/fundscope/pkg/extract"
	"github.com/fundscope/fundscope/pkg/search"
)

// Searcher pages through search API results
type Searcher interface {
	Page(ctx context.Context, query string, start int64) ([]search.Item, error)
}

// FeedSource pulls candidate items from a newsroom feed
type FeedSource interface {
	Fetch(ctx context.Context, feedURL string) (feedTitle string, items []search.Item, err error)
}

// PageFetcher retrieves a single article page
type PageFetcher interface {
	Fetch(ctx context.Context, link string) (string, error)
}

// RecordWriter persists kept rows
type RecordWriter interface {
	Append(rec *domain.FundingRecord) error
}

// Config holds scraper pipeline settings
type Config struct {
	Queries       []string
	Keywords      []string
	Sites         []string
	PerQueryLimit int
	PageSize      int
	MaxOffset     int
	RSSFeeds      []string
}

// Scraper runs the first pipeline stage: search, filter, fetch, extract, write.
// Execution is sequential throughout, the fetcher paces requests.
type Scraper struct {
	searcher  Searcher
	feeds     FeedSource
	fetcher   PageFetcher
	extractor extract.Extractor
	filter    *Filter
	writer    RecordWriter
	cfg       Config

	seen map[string]struct{} // per-run (domain, url) dedup
	now  func() time.Time
}

// NewScraper creates the scrape pipeline. The feed source may be nil when no
// RSS feeds are configured.
func NewScraper(searcher Searcher, feeds FeedSource, fetcher PageFetcher,
	extractor extract.Extractor, filter *Filter, writer RecordWriter, cfg Config) *Scraper {
	return &Scraper{
		searcher:  searcher,
		feeds:     feeds,
		fetcher:   fetcher,
		extractor: extractor,
		filter:    filter,
		writer:    writer,
		cfg:       cfg,
		seen:      make(map[string]struct{}),
		now:       time.Now,
	}
}

// Run executes the scrape for all seed queries and feeds, returning the number
// of rows written. Per-item failures never abort the run.
func (s *Scraper) Run(ctx context.Context) (int, error) {
	written := 0

	for _, seed := range s.cfg.Queries {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		n := s.runQuery(ctx, seed)
		lgr.Printf("[INFO] query %q kept %d rows", seed, n)
		written += n
	}

	for _, feedURL := range s.cfg.RSSFeeds {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		n := s.runFeed(ctx, feedURL)
		lgr.Printf("[INFO] feed %s kept %d rows", feedURL, n)
		written += n
	}

	return written, nil
}

// runQuery pages through search results for one seed query until the per-query
// cap or the API offset ceiling is reached.
func (s *Scraper) runQuery(ctx context.Context, seed string) int {
	fullQuery := search.BuildQuery(seed, s.cfg.Keywords, s.cfg.Sites)

	kept := 0
	for start := int64(1); start <= int64(s.cfg.MaxOffset) && kept < s.cfg.PerQueryLimit; start += int64(s.cfg.PageSize) {
		items, err := s.searcher.Page(ctx, fullQuery, start)
		if err != nil {
			lgr.Printf("[WARN] search page failed for %q at offset %d: %v", seed, start, err)
			break
		}
		if len(items) == 0 {
			break
		}

		for _, it := range items {
			if kept >= s.cfg.PerQueryLimit {
				break
			}
			if s.processItem(ctx, seed, it) {
				kept++
			}
		}
	}
	return kept
}

// runFeed runs the same filter/fetch path over one newsroom feed.
func (s *Scraper) runFeed(ctx context.Context, feedURL string) int {
	title, items, err := s.feeds.Fetch(ctx, feedURL)
	if err != nil {
		lgr.Printf("[WARN] feed fetch failed for %s: %v", feedURL, err)
		return 0
	}
	if title == "" {
		title = feedURL
	}

	kept := 0
	for _, it := range items {
		if s.processItem(ctx, title, it) {
			kept++
		}
	}
	return kept
}

// processItem runs one candidate through all gates and writes it when kept.
// Rejections are silent beyond debug logging.
func (s *Scraper) processItem(ctx context.Context, query string, it search.Item) bool {
	cand := domain.Candidate{
		Query:   query,
		URL:     it.URL,
		Title:   it.Title,
		Snippet: it.Snippet,
		Domain:  Host(it.URL),
	}

	if s.filter.ExcludedDomain(cand.Domain) {
		return false
	}
	if s.filter.JobLike(cand.URL, cand.Title) {
		lgr.Printf("[DEBUG] job-like result dropped: %s", cand.URL)
		return false
	}

	key := cand.Domain + "|" + cand.URL
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}

	rec := &domain.FundingRecord{
		FoundAt:      s.now().UTC(),
		Query:        cand.Query,
		SourceURL:    cand.URL,
		SourceDomain: cand.Domain,
		Title:        cand.Title,
		Snippet:      cand.Snippet,
	}

	html, err := s.fetcher.Fetch(ctx, cand.URL)
	if err != nil {
		lgr.Printf("[DEBUG] no html for %s: %v", cand.URL, err)
		// no page to inspect, only the text signal can redeem the candidate
		if !s.filter.TextSignal(cand.Title, cand.Snippet) {
			return false
		}
	} else {
		fields := s.extractor.Extract(ctx, html)
		if fields.Title != "" {
			rec.Title = fields.Title
		}
		rec.AmountUSD = fields.AmountUSD
		rec.Round = fields.Round
		rec.Investors = fields.Investors
		rec.PubDate = fields.PubDate

		if !s.filter.DateOK(rec.PubDate) {
			lgr.Printf("[DEBUG] date gate dropped %s (pub_date %q)", cand.URL, rec.PubDate)
			return false
		}
		if !s.filter.FundingSignal(rec.Title, rec.Snippet, rec.AmountUSD, rec.Round) {
			lgr.Printf("[DEBUG] no funding signal for %s", cand.URL)
			return false
		}
	}

	if err := s.writer.Append(rec); err != nil {
		lgr.Printf("[WARN] failed to write row for %s: %v", cand.URL, err)
		return false
	}
	return true
}
