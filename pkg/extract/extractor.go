package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/go-pkgz/lgr"
	"github.com/markusmobius/go-trafilatura"

	"github.com/fundscope/fundscope/pkg/domain"
)

// Extractor produces structured funding fields from raw article HTML.
// Implementations are best-effort: a field that cannot be extracted is left
// empty, extraction itself never fails the pipeline.
type Extractor interface {
	Extract(ctx context.Context, html string) domain.ExtractedFields
}

// amount: optional US$/$ prefix, numeral with separators, optional scale word,
// optional USD suffix. Longer scale tokens listed first, the matcher is
// leftmost-first.
var amountPat = regexp.MustCompile(`(?i)(?:^|[^0-9A-Za-z_$])(?:US\$|\$)?\s*(\d{1,3}(?:[, ]\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?)\s*(billion|bn|million|mm|thousand|b|m|k)?(?:\s*(?:USD|US\s*dollars|dollars))?\b`)

var roundPat = regexp.MustCompile(`(?i)\b(pre-?seed|seed|angel|series\s+[A-K]|growth\s+equity|mezzanine|venture\s+debt)\b`)

var investorPat = regexp.MustCompile(`(?i)\b(?:led by|co-led by|participated (?:from|by)|participating (?:from|by)|backed by|back by|invested by|invests by)\b[^.]{0,200}\.`)

var datePat = regexp.MustCompile(`(?i)\b(?:on\s+)?((?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sept|Sep|Oct|Nov|Dec)\.?\s+\d{1,2},\s+\d{4}|\d{4}-\d{2}-\d{2}|\d{1,2}\s+(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{4})\b`)

// meta tags checked for the publish date, in priority order
var pubDateMetaSelectors = []string{
	`meta[property="article:published_time"]`,
	`meta[name="date"]`,
	`meta[name="pubdate"]`,
	`meta[itemprop="datePublished"]`,
}

// RegexOptions configures the regex extraction strategy.
type RegexOptions struct {
	MinAmount   int64 // amounts below are discarded as implausible
	MaxAmount   int64 // amounts above are discarded as implausible
	Readability bool  // run clause/date scans on trafilatura-cleaned body text
}

// RegexExtractor is the default extraction strategy: a fixed sequence of regex
// and DOM lookups over the page text. Articles often restate the round size, the
// largest plausible dollar figure wins.
type RegexExtractor struct {
	opts RegexOptions
}

// NewRegexExtractor creates the regex extraction strategy with plausibility
// bounds defaulted when unset.
func NewRegexExtractor(opts RegexOptions) *RegexExtractor {
	if opts.MinAmount == 0 {
		opts.MinAmount = 10_000
	}
	if opts.MaxAmount == 0 {
		opts.MaxAmount = 10_000_000_000
	}
	return &RegexExtractor{opts: opts}
}

// Extract runs the full field extraction sequence. Each step is independent,
// a malformed match degrades to an absent field.
func (e *RegexExtractor) Extract(_ context.Context, html string) domain.ExtractedFields {
	var fields domain.ExtractedFields

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		lgr.Printf("[DEBUG] failed to parse html: %v", err)
		return fields
	}

	fields.Title = strings.TrimSpace(doc.Find("title").First().Text())

	text := visibleText(doc)

	// amounts are scanned over the full page text, round sizes are often
	// restated in captions and sidebars outside the article body
	fields.AmountUSD = e.maxAmount(text)

	// clause and date scans work better on cleaned body text when available
	body := text
	if e.opts.Readability {
		if cleaned := readableText(html); cleaned != "" {
			body = cleaned
		}
	}

	if m := roundPat.FindStringSubmatch(body); m != nil {
		fields.Round = titleCase(m[1])
	}

	if m := investorPat.FindString(body); m != "" {
		fields.Investors = strings.TrimSpace(m)
	}

	fields.PubDate = publishDate(doc, body)

	return fields
}

// maxAmount returns the largest plausible normalized amount found in text, 0 if none.
func (e *RegexExtractor) maxAmount(text string) int64 {
	var maxAmt int64
	for _, m := range amountPat.FindAllStringSubmatch(text, -1) {
		amt, ok := NormalizeAmount(m[1], m[2])
		if !ok || amt < e.opts.MinAmount || amt > e.opts.MaxAmount {
			continue
		}
		if amt > maxAmt {
			maxAmt = amt
		}
	}
	return maxAmt
}

// publishDate resolves the publish date, structured metadata first, body text
// scan as fallback. Returns an ISO date or empty string.
func publishDate(doc *goquery.Document, body string) string {
	for _, sel := range pubDateMetaSelectors {
		content, ok := doc.Find(sel).First().Attr("content")
		if !ok || strings.TrimSpace(content) == "" {
			continue
		}
		if dt, err := dateparse.ParseAny(strings.TrimSpace(content)); err == nil {
			return dt.Format("2006-01-02")
		}
	}

	if m := datePat.FindStringSubmatch(body); m != nil {
		if dt, err := dateparse.ParseAny(m[1]); err == nil {
			return dt.Format("2006-01-02")
		}
	}
	return ""
}

// visibleText strips the document to whitespace-joined visible text.
func visibleText(doc *goquery.Document) string {
	clone := doc.Clone()
	clone.Find("script,style,noscript").Remove()
	return strings.Join(strings.Fields(clone.Text()), " ")
}

// readableText extracts the main article body with trafilatura, empty string on failure.
func readableText(html string) string {
	res, err := trafilatura.Extract(strings.NewReader(html), trafilatura.Options{
		EnableFallback:  true,
		ExcludeComments: true,
		Deduplicate:     true,
	})
	if err != nil || res == nil {
		return ""
	}
	return strings.Join(strings.Fields(res.ContentText), " ")
}

// titleCase uppercases the first letter of each word, treating hyphens as word
// breaks too: "series a" becomes "Series A", "pre-seed" becomes "Pre-Seed".
func titleCase(s string) string {
	var b strings.Builder
	upper := true
	for _, r := range strings.ToLower(s) {
		if upper && r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		upper = r == ' ' || r == '-'
		b.WriteRune(r)
	}
	return b.String()
}
