package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/go-pkgz/lgr"

	"github.com/fundscope/fundscope/pkg/config"
	"github.com/fundscope/fundscope/pkg/domain"
	"github.com/fundscope/fundscope/pkg/store"
)

// Builder turns the accumulated CSV into the ordered, tagged digest rows for
// one report run. Records are only read, the derived rows live in memory.
type Builder struct {
	days      int
	bigRound  int64
	watchlist []string

	now func() time.Time // injectable for tests
}

// NewBuilder creates a digest builder from report configuration.
func NewBuilder(cfg config.ReportConfig) *Builder {
	return &Builder{
		days:      cfg.Days,
		bigRound:  cfg.BigRoundUSD,
		watchlist: cfg.NotableInvestors,
		now:       time.Now,
	}
}

// Load reads the CSV and returns rows within the trailing window, sorted by
// (date desc, amount desc) and tagged. Rows with missing or unparsable dates
// are excluded, a bad row never aborts the batch.
func (b *Builder) Load(path string) ([]domain.DigestRow, error) {
	records, err := store.Read(path)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}

	nowUTC := b.now().UTC()
	today := time.Date(nowUTC.Year(), nowUTC.Month(), nowUTC.Day(), 0, 0, 0, 0, time.UTC)
	cutoff := today.AddDate(0, 0, -b.days)

	rows := make([]domain.DigestRow, 0, len(records))
	for _, rec := range records {
		day, ok := parseDay(rec.PubDate)
		if !ok {
			lgr.Printf("[DEBUG] skipping row with unusable pub_date %q (%s)", rec.PubDate, rec.SourceURL)
			continue
		}
		if day.Before(cutoff) {
			continue
		}
		if rec.AmountUSD < 0 {
			rec.AmountUSD = 0
		}
		rows = append(rows, domain.DigestRow{FundingRecord: rec, Date: day})
	}

	// date dominates, larger amounts break ties
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.After(rows[j].Date)
		}
		return rows[i].AmountUSD > rows[j].AmountUSD
	})

	for i := range rows {
		rows[i].Tags = b.tags(&rows[i].FundingRecord)
	}
	return rows, nil
}

// tags attaches display labels in fixed order: large round, notable investor,
// round label.
func (b *Builder) tags(rec *domain.FundingRecord) []string {
	var tags []string

	if rec.AmountUSD >= b.bigRound {
		tags = append(tags, domain.TagBigRound)
	}

	inv := strings.ToLower(rec.Investors)
	for _, name := range b.watchlist {
		// substring match on purpose, "a16z" should hit inside larger tokens
		if strings.Contains(inv, strings.ToLower(name)) {
			tags = append(tags, domain.TagNotableInvestor)
			break
		}
	}

	if rec.Round != "" {
		tags = append(tags, rec.Round)
	}
	return tags
}

// parseDay parses a date string defensively, returning a date-only UTC value.
func parseDay(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	dt, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(dt.Year(), dt.Month(), dt.Day(), 0, 0, 0, 0, time.UTC), true
}
