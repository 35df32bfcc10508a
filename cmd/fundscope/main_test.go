package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundscope/fundscope/pkg/config"
	"github.com/fundscope/fundscope/pkg/extract"
)

func TestLoadQueries(t *testing.T) {
	t.Run("config only", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Search.Queries = []string{"restaurant automation", "food robotics"}

		queries, err := loadQueries(cfg)
		require.NoError(t, err)
		assert.Equal(t, []string{"restaurant automation", "food robotics"}, queries)
	})

	t.Run("merge with file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "queries.txt")
		content := "kitchen robots funding\n\n# a comment\n  burger robot investment  \n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		cfg := &config.Config{}
		cfg.Search.Queries = []string{"restaurant automation"}
		cfg.Search.QueriesFile = path

		queries, err := loadQueries(cfg)
		require.NoError(t, err)
		assert.Equal(t, []string{"restaurant automation", "kitchen robots funding", "burger robot investment"}, queries)
	})

	t.Run("missing file", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Search.QueriesFile = filepath.Join(t.TempDir(), "nope.txt")

		_, err := loadQueries(cfg)
		require.Error(t, err)
	})
}

func TestMakeExtractor(t *testing.T) {
	cfg := &config.Config{}
	cfg.Extract.Strategy = "regex"
	assert.IsType(t, &extract.RegexExtractor{}, makeExtractor(cfg))

	cfg.Extract.Strategy = "llm"
	cfg.LLM.Endpoint = "http://localhost:8080/v1"
	cfg.LLM.Model = "gpt-4o-mini"
	assert.IsType(t, &extract.LLMExtractor{}, makeExtractor(cfg))
}

func TestRunReport_MissingInput(t *testing.T) {
	cfg := &config.Config{}
	cfg.Report.CSVPath = filepath.Join(t.TempDir(), "nope.csv")

	err := runReport(t.Context(), cfg, ReportCommand{DryRun: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRunReport_DryRun(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "latest.csv")
	content := "found_at,query,source_url,source_domain,title,amount_usd,round,investors,pub_date,snippet\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(content), 0o644))

	cfg := &config.Config{}
	cfg.Report.CSVPath = csvPath
	cfg.Report.Days = 7
	cfg.Report.MaxRows = 30
	cfg.Report.PreviewDir = dir
	cfg.SMTP.From = "bot@example.com"
	cfg.SMTP.To = []string{"alice@example.com"}
	cfg.SMTP.SubjectPrefix = "餐饮自动化融资周报"

	require.NoError(t, runReport(t.Context(), cfg, ReportCommand{DryRun: true}))

	matches, err := filepath.Glob(filepath.Join(dir, "preview_week_*.html"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}
