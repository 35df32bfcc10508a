package scrape

import (
	"net/url"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/fundscope/fundscope/pkg/config"
)

// Filter implements the keep/drop gates for candidate articles: unconditional
// domain excludes, job-posting exclusion, publish-date window and funding-signal
// checks. All gates must pass for a row to be written.
type Filter struct {
	days         int
	minYear      int
	minAmount    int64
	hardKeywords []string
	jobKeywords  []string
	jobDomains   map[string]struct{}
	excluded     map[string]struct{}

	now func() time.Time // injectable for tests
}

// NewFilter builds a filter from configuration, keyword matching is
// case-insensitive so everything is lowercased up front.
func NewFilter(cfg config.FilterConfig) *Filter {
	f := &Filter{
		days:       cfg.Days,
		minYear:    cfg.MinYear,
		minAmount:  cfg.MinAmountSignal,
		jobDomains: make(map[string]struct{}, len(cfg.JobDomains)),
		excluded:   make(map[string]struct{}, len(cfg.ExcludedDomains)),
		now:        time.Now,
	}
	for _, k := range cfg.HardKeywords {
		f.hardKeywords = append(f.hardKeywords, strings.ToLower(k))
	}
	for _, k := range cfg.JobKeywords {
		f.jobKeywords = append(f.jobKeywords, strings.ToLower(k))
	}
	for _, d := range cfg.JobDomains {
		f.jobDomains[strings.ToLower(d)] = struct{}{}
	}
	for _, d := range cfg.ExcludedDomains {
		f.excluded[strings.ToLower(d)] = struct{}{}
	}
	return f
}

// Host extracts the www-stripped lowercase host from a link, empty string when
// the link does not parse.
func Host(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// ExcludedDomain reports whether the domain is on the unconditional
// social/aggregator excludelist.
func (f *Filter) ExcludedDomain(domain string) bool {
	_, ok := f.excluded[strings.ToLower(domain)]
	return ok
}

// JobLike reports whether a result looks like a job posting, checked before
// fetching to save a request.
func (f *Filter) JobLike(link, title string) bool {
	if _, ok := f.jobDomains[Host(link)]; ok {
		return true
	}
	tl := strings.ToLower(title)
	lk := strings.ToLower(link)
	for _, k := range f.jobKeywords {
		if strings.Contains(tl, k) || strings.Contains(lk, k) {
			return true
		}
	}
	return false
}

// DateOK applies the publish-date gate: the date must parse, fall within the
// trailing window (inclusive boundary), be on or after the minimum year and not
// in the future. Time of day is ignored.
func (f *Filter) DateOK(pubDate string) bool {
	if strings.TrimSpace(pubDate) == "" {
		return false
	}
	dt, err := dateparse.ParseAny(pubDate)
	if err != nil {
		return false
	}

	day := time.Date(dt.Year(), dt.Month(), dt.Day(), 0, 0, 0, 0, time.UTC)
	nowUTC := f.now().UTC()
	today := time.Date(nowUTC.Year(), nowUTC.Month(), nowUTC.Day(), 0, 0, 0, 0, time.UTC)
	cutoff := today.AddDate(0, 0, -f.days)

	if day.Before(cutoff) || day.After(today) {
		return false
	}
	return dt.Year() >= f.minYear
}

// TextSignal reports whether title or snippet contains a hard funding keyword.
// This is the only gate available when the page could not be fetched.
func (f *Filter) TextSignal(title, snippet string) bool {
	tl := strings.ToLower(title)
	sl := strings.ToLower(snippet)
	for _, k := range f.hardKeywords {
		if strings.Contains(tl, k) || strings.Contains(sl, k) {
			return true
		}
	}
	return false
}

// FundingSignal applies the full funding-signal gate for fetched pages: keyword
// hit, amount above the signal floor, or an extracted round label.
func (f *Filter) FundingSignal(title, snippet string, amount int64, round string) bool {
	if f.TextSignal(title, snippet) {
		return true
	}
	if amount >= f.minAmount {
		return true
	}
	return round != ""
}
