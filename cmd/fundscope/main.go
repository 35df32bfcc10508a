package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"github.com/fundscope/fundscope/pkg/config"
	"github.com/fundscope/fundscope/pkg/extract"
	"github.com/fundscope/fundscope/pkg/report"
	"github.com/fundscope/fundscope/pkg/scrape"
	"github.com/fundscope/fundscope/pkg/search"
	"github.com/fundscope/fundscope/pkg/store"
)

// Opts with all CLI options
type Opts struct {
	Config string `short:"c" long:"config" env:"FUNDSCOPE_CONFIG" default:"config.yml" description:"config file path"`

	ScrapeCmd ScrapeCommand `command:"scrape" description:"search for funding news and append kept rows to the daily CSV"`
	ReportCmd ReportCommand `command:"report" description:"email the digest for the trailing window"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

// ScrapeCommand holds scrape stage overrides
type ScrapeCommand struct {
	Days    int           `long:"days" description:"look-back window (days) for publish date"`
	Limit   int           `long:"limit" description:"max kept results per query"`
	Queries string        `long:"queries" description:"seed queries file, one query per line"`
	Outfile string        `long:"outfile" description:"override output CSV path"`
	Sleep   time.Duration `long:"sleep" description:"delay between article fetches"`
}

// ReportCommand holds report stage overrides
type ReportCommand struct {
	Days   int    `long:"days" description:"trailing window (days) for the digest"`
	CSV    string `long:"csv" description:"input CSV path"`
	DryRun bool   `long:"dry-run" env:"DRY_RUN" description:"write preview files instead of sending"`
}

var revision = "unknown"

func main() {
	// local .env is a convenience for API keys and SMTP credentials
	_ = godotenv.Load()

	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	parser.SubcommandsOptional = true // allow -V without a command
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		log.Printf("[ERROR] failed to load config: %v", err)
		os.Exit(1)
	}

	setupLog(opts.Debug, cfg.SMTP.Password, cfg.Search.APIKey, cfg.LLM.APIKey)

	log.Printf("[INFO] starting fundscope version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	if parser.Active == nil {
		log.Printf("[ERROR] no command given, use scrape or report")
		os.Exit(1)
	}

	switch parser.Active.Name {
	case "scrape":
		err = runScrape(ctx, cfg, opts.ScrapeCmd)
	case "report":
		err = runReport(ctx, cfg, opts.ReportCmd)
	}
	cancel()

	if err != nil {
		log.Printf("[ERROR] %s failed: %v", parser.Active.Name, err)
		os.Exit(1)
	}
}

// runScrape executes the first pipeline stage: search, filter, fetch, extract,
// append to the daily CSV and refresh the latest snapshot.
func runScrape(ctx context.Context, cfg *config.Config, cmd ScrapeCommand) error {
	if cmd.Days > 0 {
		cfg.Filter.Days = cmd.Days
	}
	if cmd.Limit > 0 {
		cfg.Search.PerQueryLimit = cmd.Limit
	}
	if cmd.Sleep > 0 {
		cfg.Fetch.Delay = cmd.Sleep
	}
	if cmd.Queries != "" {
		cfg.Search.QueriesFile = cmd.Queries
	}

	queries, err := loadQueries(cfg)
	if err != nil {
		return err
	}
	if len(queries) == 0 && len(cfg.RSS.Feeds) == 0 {
		return fmt.Errorf("nothing to scrape, set search.queries or rss.feeds")
	}
	if len(queries) > 0 && (cfg.Search.APIKey == "" || cfg.Search.CSEID == "") {
		return fmt.Errorf("search.api_key and search.cse_id are required, set GOOGLE_API_KEY and GOOGLE_CSE_ID")
	}

	outfile := cmd.Outfile
	if outfile == "" {
		today := time.Now().UTC().Format("2006-01-02")
		outfile = filepath.Join(cfg.Output.Dir, "funding_"+today+".csv")
	}

	var searcher scrape.Searcher
	if len(queries) > 0 {
		gc, err := search.NewGoogleClient(ctx, cfg.Search)
		if err != nil {
			return fmt.Errorf("create search client: %w", err)
		}
		searcher = gc
	}

	writer, err := store.NewWriter(outfile)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}

	scraper := scrape.NewScraper(
		searcher,
		search.NewRSSSource(cfg.Fetch.Timeout),
		scrape.NewFetcher(cfg.Fetch),
		makeExtractor(cfg),
		scrape.NewFilter(cfg.Filter),
		writer,
		scrape.Config{
			Queries:       queries,
			Keywords:      cfg.Search.Keywords,
			Sites:         cfg.Search.Sites,
			PerQueryLimit: cfg.Search.PerQueryLimit,
			PageSize:      cfg.Search.PageSize,
			MaxOffset:     cfg.Search.MaxOffset,
			RSSFeeds:      cfg.RSS.Feeds,
		},
	)

	rows, runErr := scraper.Run(ctx)
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	if runErr != nil {
		return runErr
	}

	if err := store.CopyLatest(outfile, cfg.LatestPath()); err != nil {
		return fmt.Errorf("update latest snapshot: %w", err)
	}

	fmt.Printf("saved %d rows to %s, latest snapshot %s\n", rows, outfile, cfg.LatestPath())
	return nil
}

// runReport executes the second pipeline stage: load, tag, render, send or preview.
func runReport(ctx context.Context, cfg *config.Config, cmd ReportCommand) error {
	if cmd.Days > 0 {
		cfg.Report.Days = cmd.Days
	}
	if cmd.CSV != "" {
		cfg.Report.CSVPath = cmd.CSV
	}

	csvPath := cfg.ReportCSVPath()
	if _, err := os.Stat(csvPath); err != nil {
		return fmt.Errorf("input file %s not found", csvPath)
	}

	if !cmd.DryRun {
		if cfg.SMTP.User == "" || cfg.SMTP.Password == "" || len(cfg.SMTP.To) == 0 {
			return fmt.Errorf("smtp.user, smtp.password and smtp.to are required, set SMTP_USER, SMTP_PASS and MAIL_TO")
		}
	}

	rows, err := report.NewBuilder(cfg.Report).Load(csvPath)
	if err != nil {
		return err
	}
	lgr.Printf("[INFO] %d rows within the last %d days", len(rows), cfg.Report.Days)

	html, err := report.NewRenderer(cfg.Report.MaxRows).Render(rows, cfg.Report.Days)
	if err != nil {
		return err
	}

	attachment, err := report.AttachmentCSV(rows)
	if err != nil {
		return fmt.Errorf("build attachment: %w", err)
	}

	today := time.Now().UTC()
	sender := report.NewSender(cfg.SMTP)
	raw, err := sender.Build(report.Email{
		Subject: fmt.Sprintf("%s | 截止 %s（最近%d天）",
			cfg.SMTP.SubjectPrefix, today.Format("2006-01-02"), cfg.Report.Days),
		Text:           fmt.Sprintf("见HTML版本；共%d条（附件含全部结果）。", len(rows)),
		HTML:           html,
		Attachment:     attachment,
		AttachmentName: report.AttachmentName(today),
	})
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	if cmd.DryRun {
		paths, err := report.WritePreview(cfg.Report.PreviewDir, today, html, raw, attachment)
		if err != nil {
			return err
		}
		fmt.Printf("preview written: %s\n", strings.Join(paths, " | "))
		return nil
	}

	if err := sender.Send(ctx, raw); err != nil {
		return fmt.Errorf("send report: %w", err)
	}
	fmt.Println("report sent")
	return nil
}

// makeExtractor picks the configured extraction strategy.
func makeExtractor(cfg *config.Config) extract.Extractor {
	if cfg.Extract.Strategy == "llm" {
		return extract.NewLLMExtractor(cfg.LLM)
	}
	return extract.NewRegexExtractor(extract.RegexOptions{
		MinAmount:   cfg.Extract.MinAmount,
		MaxAmount:   cfg.Extract.MaxAmount,
		Readability: cfg.Extract.Readability,
	})
}

// loadQueries merges config queries with the optional queries file, blank lines
// and #-comments skipped.
func loadQueries(cfg *config.Config) ([]string, error) {
	queries := append([]string{}, cfg.Search.Queries...)

	if cfg.Search.QueriesFile == "" {
		return queries, nil
	}

	f, err := os.Open(cfg.Search.QueriesFile) //nolint:gosec // path comes from CLI flag or config
	if err != nil {
		return nil, fmt.Errorf("open queries file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries = append(queries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read queries file: %w", err)
	}
	return queries, nil
}

func setupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Out(io.Discard), lgr.Err(io.Discard)}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))

	var secrets []string
	for _, s := range secs {
		if s != "" {
			secrets = append(secrets, s)
		}
	}
	if len(secrets) > 0 {
		logOpts = append(logOpts, lgr.Secret(secrets...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
