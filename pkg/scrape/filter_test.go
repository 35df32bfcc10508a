package scrape

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fundscope/fundscope/pkg/config"
)

func testFilter(t *testing.T, now time.Time) *Filter {
	t.Helper()
	cfg := config.FilterConfig{
		Days:            90,
		MinYear:         2018,
		MinAmountSignal: 100_000,
		HardKeywords:    []string{"raises", "raised", "funding", "series a", "led by"},
		JobDomains:      []string{"boards.greenhouse.io", "indeed.com"},
		JobKeywords:     []string{"job", "career", "hiring", "apply", "recruit", "talent", "vacancy", "position", "opening", "role"},
		ExcludedDomains: []string{"facebook.com", "x.com", "twitter.com", "linkedin.com", "youtube.com", "medium.com"},
	}
	f := NewFilter(cfg)
	f.now = func() time.Time { return now }
	return f
}

func TestHost(t *testing.T) {
	assert.Equal(t, "techcrunch.com", Host("https://www.techcrunch.com/2024/05/01/acme"))
	assert.Equal(t, "thespoon.tech", Host("https://thespoon.tech/post"))
	assert.Equal(t, "", Host("://bad"))
}

func TestFilter_ExcludedDomain(t *testing.T) {
	f := testFilter(t, time.Now())
	assert.True(t, f.ExcludedDomain("twitter.com"))
	assert.True(t, f.ExcludedDomain("Medium.com"))
	assert.False(t, f.ExcludedDomain("techcrunch.com"))
}

func TestFilter_JobLike(t *testing.T) {
	f := testFilter(t, time.Now())

	t.Run("job title dropped regardless of funding words", func(t *testing.T) {
		assert.True(t, f.JobLike("https://example.com/post", "We're Hiring: Robotics Engineer at funded startup"))
	})

	t.Run("job domain dropped", func(t *testing.T) {
		assert.True(t, f.JobLike("https://boards.greenhouse.io/acme/123", "Acme Robotics"))
	})

	t.Run("job keyword in url", func(t *testing.T) {
		assert.True(t, f.JobLike("https://example.com/careers/robotics", "Acme Robotics"))
	})

	t.Run("news result passes", func(t *testing.T) {
		assert.False(t, f.JobLike("https://techcrunch.com/acme-raises", "Acme raises $12M"))
	})
}

func TestFilter_DateOK(t *testing.T) {
	now := time.Date(2024, 5, 15, 13, 45, 0, 0, time.UTC)
	f := testFilter(t, now)

	t.Run("recent date kept", func(t *testing.T) {
		assert.True(t, f.DateOK("2024-05-01"))
	})

	t.Run("window boundary inclusive", func(t *testing.T) {
		assert.True(t, f.DateOK("2024-02-15")) // exactly today - 90 days
	})

	t.Run("just outside window rejected", func(t *testing.T) {
		assert.False(t, f.DateOK("2024-02-14"))
	})

	t.Run("today kept", func(t *testing.T) {
		assert.True(t, f.DateOK("2024-05-15"))
	})

	t.Run("future date rejected", func(t *testing.T) {
		assert.False(t, f.DateOK("2024-05-16"))
	})

	t.Run("empty rejected", func(t *testing.T) {
		assert.False(t, f.DateOK(""))
	})

	t.Run("unparseable rejected", func(t *testing.T) {
		assert.False(t, f.DateOK("sometime soon"))
	})
}

func TestFilter_DateOK_MinYear(t *testing.T) {
	// huge window so only the year floor can reject
	cfg := config.FilterConfig{Days: 36500, MinYear: 2018, MinAmountSignal: 100_000}
	f := NewFilter(cfg)
	f.now = func() time.Time { return time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC) }

	assert.True(t, f.DateOK("2018-01-01"))
	assert.False(t, f.DateOK("2017-12-31"))
}

func TestFilter_FundingSignal(t *testing.T) {
	f := testFilter(t, time.Now())

	t.Run("hard keyword in title", func(t *testing.T) {
		assert.True(t, f.FundingSignal("Acme raises $12M", "", 0, ""))
	})

	t.Run("hard keyword in snippet", func(t *testing.T) {
		assert.True(t, f.FundingSignal("Acme news", "the round was led by Sequoia", 0, ""))
	})

	t.Run("amount above floor", func(t *testing.T) {
		assert.True(t, f.FundingSignal("Acme news", "", 150_000, ""))
	})

	t.Run("amount below floor", func(t *testing.T) {
		assert.False(t, f.FundingSignal("Acme news", "", 50_000, ""))
	})

	t.Run("round label alone", func(t *testing.T) {
		assert.True(t, f.FundingSignal("Acme news", "", 0, "Series A"))
	})

	t.Run("no signal", func(t *testing.T) {
		assert.False(t, f.FundingSignal("Acme opens office", "expansion plans", 0, ""))
	})
}

func TestFilter_TextSignal(t *testing.T) {
	f := testFilter(t, time.Now())

	assert.True(t, f.TextSignal("Acme RAISED a big round", ""))
	assert.True(t, f.TextSignal("", "fresh Funding for robots"))
	assert.False(t, f.TextSignal("Acme ships robots", "big deployment"))
}
