package domain

import (
	"strings"
	"time"
)

// Candidate represents a single search result before fetching and filtering.
// It lives only for the duration of the keep/drop decision.
type Candidate struct {
	Query   string
	URL     string
	Title   string
	Snippet string
	Domain  string
}

// ExtractedFields holds best-effort structured fields pulled from a fetched
// article page. Every field may be absent; absence is a valid state, not an error.
type ExtractedFields struct {
	Title     string
	AmountUSD int64 // 0 means unknown
	Round     string
	Investors string
	PubDate   string // ISO date (YYYY-MM-DD) or empty
}

// FundingRecord is a persisted CSV row. Immutable once written; uniquely keyed
// by (SourceDomain, SourceURL) within a single run.
type FundingRecord struct {
	FoundAt      time.Time
	Query        string
	SourceURL    string
	SourceDomain string
	Title        string
	AmountUSD    int64
	Round        string
	Investors    string
	PubDate      string
	Snippet      string
}

// Key returns the per-run deduplication key.
func (r *FundingRecord) Key() string {
	return r.SourceDomain + "|" + r.SourceURL
}

// DigestRow is a FundingRecord re-derived for reporting: the publish date is
// parsed and display tags are attached. Records are never mutated, rows are
// rebuilt in memory on every report run.
type DigestRow struct {
	FundingRecord
	Date time.Time
	Tags []string
}

// TagString joins tags for display, keeping their fixed order.
func (d *DigestRow) TagString() string {
	return strings.Join(d.Tags, ", ")
}

// display tags attached by the recency tagger
const (
	TagBigRound        = "大额"
	TagNotableInvestor = "知名投资方"
)
