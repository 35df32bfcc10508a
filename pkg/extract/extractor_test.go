package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegexExtractor_AmountSelection(t *testing.T) {
	e := NewRegexExtractor(RegexOptions{})

	t.Run("largest plausible figure wins", func(t *testing.T) {
		html := `<html><title>Acme raises funding</title><body>
			Acme raised $5 million in new capital. Earlier it had won a $50,000 grant.
		</body></html>`
		fields := e.Extract(context.Background(), html)
		assert.Equal(t, int64(5_000_000), fields.AmountUSD)
	})

	t.Run("implausible figures discarded", func(t *testing.T) {
		html := `<html><body>
			The market is worth $20 billion. Acme raised $30 million to chase it.
		</body></html>`
		fields := e.Extract(context.Background(), html)
		assert.Equal(t, int64(30_000_000), fields.AmountUSD)
	})

	t.Run("no plausible amount", func(t *testing.T) {
		html := `<html><body>Acme shipped 500 robots in 2024 for $2 a burger.</body></html>`
		fields := e.Extract(context.Background(), html)
		assert.Equal(t, int64(0), fields.AmountUSD)
	})

	t.Run("script text ignored", func(t *testing.T) {
		html := `<html><body><script>var price = "$999 million";</script>
			Acme raised US$1.2bn from investors.</body></html>`
		fields := e.Extract(context.Background(), html)
		assert.Equal(t, int64(1_200_000_000), fields.AmountUSD)
	})
}

func TestRegexExtractor_RoundAndInvestors(t *testing.T) {
	e := NewRegexExtractor(RegexOptions{})

	t.Run("series round title-cased", func(t *testing.T) {
		html := `<html><body>Acme closed a series b round led by Sequoia Capital with participation from Accel. More text.</body></html>`
		fields := e.Extract(context.Background(), html)
		assert.Equal(t, "Series B", fields.Round)
		assert.Equal(t, "led by Sequoia Capital with participation from Accel.", fields.Investors)
	})

	t.Run("pre-seed keeps hyphenated casing", func(t *testing.T) {
		html := `<html><body>The pre-seed financing closed quietly.</body></html>`
		fields := e.Extract(context.Background(), html)
		assert.Equal(t, "Pre-Seed", fields.Round)
	})

	t.Run("absent round and investors", func(t *testing.T) {
		html := `<html><body>Acme opened a new office.</body></html>`
		fields := e.Extract(context.Background(), html)
		assert.Empty(t, fields.Round)
		assert.Empty(t, fields.Investors)
	})
}

func TestRegexExtractor_PublishDate(t *testing.T) {
	e := NewRegexExtractor(RegexOptions{})

	t.Run("meta property preferred", func(t *testing.T) {
		html := `<html><head>
			<meta name="date" content="2023-01-01">
			<meta property="article:published_time" content="2024-03-05T10:30:00Z">
			</head><body>text</body></html>`
		fields := e.Extract(context.Background(), html)
		assert.Equal(t, "2024-03-05", fields.PubDate)
	})

	t.Run("name date fallback", func(t *testing.T) {
		html := `<html><head><meta name="pubdate" content="2024-06-10"></head><body>x</body></html>`
		fields := e.Extract(context.Background(), html)
		assert.Equal(t, "2024-06-10", fields.PubDate)
	})

	t.Run("unparseable meta falls through to body", func(t *testing.T) {
		html := `<html><head><meta name="date" content="not a date"></head>
			<body>Published on Mar 12, 2024 by staff.</body></html>`
		fields := e.Extract(context.Background(), html)
		assert.Equal(t, "2024-03-12", fields.PubDate)
	})

	t.Run("iso date in body", func(t *testing.T) {
		html := `<html><body>Updated 2024-07-01 after the announcement.</body></html>`
		fields := e.Extract(context.Background(), html)
		assert.Equal(t, "2024-07-01", fields.PubDate)
	})

	t.Run("no date anywhere", func(t *testing.T) {
		html := `<html><body>No dates here.</body></html>`
		fields := e.Extract(context.Background(), html)
		assert.Empty(t, fields.PubDate)
	})
}

func TestRegexExtractor_Title(t *testing.T) {
	e := NewRegexExtractor(RegexOptions{})

	html := `<html><head><title>  Acme Robotics Raises $12M  </title></head><body>x</body></html>`
	fields := e.Extract(context.Background(), html)
	assert.Equal(t, "Acme Robotics Raises $12M", fields.Title)

	fields = e.Extract(context.Background(), `<html><body>no title</body></html>`)
	assert.Empty(t, fields.Title)
}

func TestRegexExtractor_MalformedHTML(t *testing.T) {
	e := NewRegexExtractor(RegexOptions{})

	// goquery repairs broken markup, extraction still degrades gracefully
	fields := e.Extract(context.Background(), `<div><p>raised $15 million`)
	assert.Equal(t, int64(15_000_000), fields.AmountUSD)
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Series A", titleCase("series a"))
	assert.Equal(t, "Pre-Seed", titleCase("PRE-SEED"))
	assert.Equal(t, "Venture Debt", titleCase("venture debt"))
}
