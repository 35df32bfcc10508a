package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration for both pipeline stages
type Config struct {
	Search  SearchConfig  `yaml:"search" json:"search" jsonschema:"description=Google Custom Search configuration"`
	RSS     RSSConfig     `yaml:"rss" json:"rss" jsonschema:"description=Optional newsroom RSS sources"`
	Fetch   FetchConfig   `yaml:"fetch" json:"fetch" jsonschema:"description=Article page fetching configuration"`
	Filter  FilterConfig  `yaml:"filter" json:"filter" jsonschema:"description=Result filter gates"`
	Extract ExtractConfig `yaml:"extract" json:"extract" jsonschema:"description=Field extraction configuration"`
	LLM     LLMConfig     `yaml:"llm" json:"llm" jsonschema:"description=LLM configuration for the llm extraction strategy"`
	Output  OutputConfig  `yaml:"output" json:"output" jsonschema:"description=Scraper CSV output configuration"`
	Report  ReportConfig  `yaml:"report" json:"report" jsonschema:"description=Digest report configuration"`
	SMTP    SMTPConfig    `yaml:"smtp" json:"smtp" jsonschema:"description=SMTP delivery configuration"`
}

// SearchConfig holds Google Custom Search settings
type SearchConfig struct {
	APIKey        string   `yaml:"api_key" json:"api_key" jsonschema:"description=Google API key (can use environment variable)"`
	CSEID         string   `yaml:"cse_id" json:"cse_id" jsonschema:"description=Custom search engine ID"`
	Endpoint      string   `yaml:"endpoint" json:"endpoint" jsonschema:"description=API endpoint override for testing"`
	Queries       []string `yaml:"queries" json:"queries" jsonschema:"description=Seed queries"`
	QueriesFile   string   `yaml:"queries_file" json:"queries_file" jsonschema:"description=Optional file with one seed query per line"`
	Sites         []string `yaml:"sites" json:"sites" jsonschema:"description=Site restriction OR-group"`
	Keywords      []string `yaml:"keywords" json:"keywords" jsonschema:"description=Funding keyword OR-group added to every query"`
	PerQueryLimit int      `yaml:"per_query_limit" json:"per_query_limit" jsonschema:"default=80,description=Maximum kept results per seed query"`
	PageSize      int      `yaml:"page_size" json:"page_size" jsonschema:"default=10,description=Results per API page"`
	MaxOffset     int      `yaml:"max_offset" json:"max_offset" jsonschema:"default=100,description=API result offset ceiling"`
}

// RSSConfig holds the optional secondary candidate source
type RSSConfig struct {
	Feeds []string `yaml:"feeds" json:"feeds" jsonschema:"description=Newsroom feed URLs used as additional candidates"`
}

// FetchConfig holds article page fetching settings
type FetchConfig struct {
	Timeout   time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Per-page fetch timeout"`
	Delay     time.Duration `yaml:"delay" json:"delay" jsonschema:"default=1s,description=Politeness delay between consecutive fetches"`
	UserAgent string        `yaml:"user_agent" json:"user_agent" jsonschema:"default=Mozilla/5.0 (compatible; Fundscope/1.0),description=User agent for article requests"`
}

// FilterConfig holds the three filter gates
type FilterConfig struct {
	Days            int      `yaml:"days" json:"days" jsonschema:"default=90,description=Trailing publish-date window in days"`
	MinYear         int      `yaml:"min_year" json:"min_year" jsonschema:"default=2018,description=Minimum publish year"`
	MinAmountSignal int64    `yaml:"min_amount_signal" json:"min_amount_signal" jsonschema:"default=100000,description=Minimum USD amount counting as a funding signal"`
	HardKeywords    []string `yaml:"hard_keywords" json:"hard_keywords" jsonschema:"description=Strong funding signal keywords"`
	JobDomains      []string `yaml:"job_domains" json:"job_domains" jsonschema:"description=Job board domains rejected before fetching"`
	JobKeywords     []string `yaml:"job_keywords" json:"job_keywords" jsonschema:"description=Job-related keywords rejected in title or URL"`
	ExcludedDomains []string `yaml:"excluded_domains" json:"excluded_domains" jsonschema:"description=Social and aggregator domains rejected unconditionally"`
}

// ExtractConfig holds field extraction settings
type ExtractConfig struct {
	Strategy    string `yaml:"strategy" json:"strategy" jsonschema:"default=regex,enum=regex,enum=llm,description=Extraction strategy"`
	MinAmount   int64  `yaml:"min_amount" json:"min_amount" jsonschema:"default=10000,description=Smallest plausible round size in USD"`
	MaxAmount   int64  `yaml:"max_amount" json:"max_amount" jsonschema:"default=10000000000,description=Largest plausible round size in USD"`
	Readability bool   `yaml:"readability" json:"readability" jsonschema:"default=false,description=Scan cleaned article body for clauses and dates"`
}

// LLMConfig holds settings for the llm extraction strategy
type LLMConfig struct {
	Endpoint    string        `yaml:"endpoint" json:"endpoint" jsonschema:"description=OpenAI-compatible API endpoint"`
	APIKey      string        `yaml:"api_key" json:"api_key" jsonschema:"description=API key (can use environment variable)"`
	Model       string        `yaml:"model" json:"model" jsonschema:"description=Model name (e.g. gpt-4o-mini)"`
	Temperature float64       `yaml:"temperature" json:"temperature" jsonschema:"default=0.1,description=Temperature for response generation"`
	MaxTokens   int           `yaml:"max_tokens" json:"max_tokens" jsonschema:"default=300,description=Maximum tokens in response"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Request timeout"`
}

// OutputConfig holds scraper CSV output settings
type OutputConfig struct {
	Dir        string `yaml:"dir" json:"dir" jsonschema:"default=data,description=Output directory"`
	LatestFile string `yaml:"latest_file" json:"latest_file" jsonschema:"default=funding_latest.csv,description=Latest snapshot file name"`
}

// ReportConfig holds digest report settings
type ReportConfig struct {
	Days             int      `yaml:"days" json:"days" jsonschema:"default=7,description=Trailing window for the digest in days"`
	CSVPath          string   `yaml:"csv_path" json:"csv_path" jsonschema:"description=Input CSV path (defaults to the latest snapshot)"`
	BigRoundUSD      int64    `yaml:"big_round_usd" json:"big_round_usd" jsonschema:"default=10000000,description=Large-round tag threshold in USD"`
	NotableInvestors []string `yaml:"notable_investors" json:"notable_investors" jsonschema:"description=Investor watchlist matched as substrings"`
	MaxRows          int      `yaml:"max_rows" json:"max_rows" jsonschema:"default=30,description=Maximum rows in the email body"`
	PreviewDir       string   `yaml:"preview_dir" json:"preview_dir" jsonschema:"default=.,description=Directory for dry-run preview files"`
}

// SMTPConfig holds SMTP delivery settings
type SMTPConfig struct {
	Host          string   `yaml:"host" json:"host" jsonschema:"default=smtp.gmail.com,description=SMTP server host"`
	Port          int      `yaml:"port" json:"port" jsonschema:"default=465,description=SMTP server port (implicit TLS)"`
	User          string   `yaml:"user" json:"user" jsonschema:"description=SMTP user (can use environment variable)"`
	Password      string   `yaml:"password" json:"password" jsonschema:"description=SMTP password (can use environment variable)"`
	From          string   `yaml:"from" json:"from" jsonschema:"description=From address (defaults to user)"`
	To            []string `yaml:"to" json:"to" jsonschema:"description=Recipients"`
	CC            []string `yaml:"cc" json:"cc" jsonschema:"description=CC recipients"`
	SubjectPrefix string   `yaml:"subject_prefix" json:"subject_prefix" jsonschema:"default=餐饮自动化融资周报,description=Subject line prefix"`
}

// default site restriction: tech and funding news, robotics and restaurant
// trades, PR wires, hospitality trades
var defaultSites = []string{
	"techcrunch.com", "crunchbase.com", "pitchbook.com", "cbinsights.com",
	"venturebeat.com", "theinformation.com", "axios.com", "businessinsider.com",
	"forbes.com", "reuters.com", "bloomberg.com", "ft.com",
	"therobotreport.com", "robotics247.com", "roboticsbusinessreview.com",
	"thespoon.tech", "qsrmagazine.com", "nrn.com", "restaurantdive.com",
	"fastcasual.com", "modernrestaurantmanagement.com",
	"prnewswire.com", "globenewswire.com", "businesswire.com", "newswire.com",
	"asianhospitality.com", "hotelmanagement.net", "hospitalitynet.org",
}

var defaultKeywords = []string{
	"funding", "raises", "raised", "raise", "series A", "series B", "series C",
	"series D", "seed round", "pre-seed", "angel round", "venture funding",
	"equity financing", "convertible note", "round led by", "led by",
	"investment", "invests", "backs",
}

var defaultHardKeywords = []string{
	"raises", "raised", "raise", "funding", "series a", "series b", "series c",
	"series d", "seed round", "pre-seed", "angel round", "investment round",
	"round led by", "led by", "backs", "invests in", "equity financing",
	"venture funding",
}

var defaultJobDomains = []string{
	"talents.vaia.com", "boards.greenhouse.io", "jobs.lever.co", "lever.co",
	"careers.google.com", "jobs.workable.com", "workable.com", "smartrecruiters.com",
	"indeed.com", "linkedin.com", "glassdoor.com", "angel.co", "wellfound.com",
	"monster.com", "ziprecruiter.com", "jobvite.com",
}

var defaultJobKeywords = []string{
	"job", "jobs", "career", "careers", "apply", "hiring", "recruit",
	"recruiting", "talent", "vacancy", "position", "opening", "role",
}

var defaultExcludedDomains = []string{
	"facebook.com", "x.com", "twitter.com", "linkedin.com", "youtube.com", "medium.com",
}

var defaultNotableInvestors = []string{
	"Sequoia", "Andreessen Horowitz", "a16z", "Accel", "Lightspeed",
	"SoftBank", "Tiger Global", "Temasek", "GGV", "DST", "Index Ventures",
	"General Catalyst", "Founders Fund", "Y Combinator", "YC", "Khosla",
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// verify against embedded schema
	if err := VerifyAgainstEmbeddedSchema(&cfg); err != nil {
		// log warning but don't fail - schema validation is supplementary
		fmt.Printf("warning: schema validation failed: %v\n", err)
	}

	return &cfg, nil
}

// setDefaults fills zero values with documented defaults
func (c *Config) setDefaults() {
	if len(c.Search.Sites) == 0 {
		c.Search.Sites = defaultSites
	}
	if len(c.Search.Keywords) == 0 {
		c.Search.Keywords = defaultKeywords
	}
	if c.Search.PerQueryLimit == 0 {
		c.Search.PerQueryLimit = 80
	}
	if c.Search.PageSize == 0 {
		c.Search.PageSize = 10
	}
	if c.Search.MaxOffset == 0 {
		c.Search.MaxOffset = 100
	}

	if c.Fetch.Timeout == 0 {
		c.Fetch.Timeout = 30 * time.Second
	}
	if c.Fetch.Delay == 0 {
		c.Fetch.Delay = time.Second
	}
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = "Mozilla/5.0 (compatible; Fundscope/1.0; +https://github.com/fundscope/fundscope)"
	}

	if c.Filter.Days == 0 {
		c.Filter.Days = 90
	}
	if c.Filter.MinYear == 0 {
		c.Filter.MinYear = 2018
	}
	if c.Filter.MinAmountSignal == 0 {
		c.Filter.MinAmountSignal = 100_000
	}
	if len(c.Filter.HardKeywords) == 0 {
		c.Filter.HardKeywords = defaultHardKeywords
	}
	if len(c.Filter.JobDomains) == 0 {
		c.Filter.JobDomains = defaultJobDomains
	}
	if len(c.Filter.JobKeywords) == 0 {
		c.Filter.JobKeywords = defaultJobKeywords
	}
	if len(c.Filter.ExcludedDomains) == 0 {
		c.Filter.ExcludedDomains = defaultExcludedDomains
	}

	if c.Extract.Strategy == "" {
		c.Extract.Strategy = "regex"
	}
	if c.Extract.MinAmount == 0 {
		c.Extract.MinAmount = 10_000
	}
	if c.Extract.MaxAmount == 0 {
		c.Extract.MaxAmount = 10_000_000_000
	}

	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.1
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 300
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = 30 * time.Second
	}

	if c.Output.Dir == "" {
		c.Output.Dir = "data"
	}
	if c.Output.LatestFile == "" {
		c.Output.LatestFile = "funding_latest.csv"
	}

	if c.Report.Days == 0 {
		c.Report.Days = 7
	}
	if c.Report.BigRoundUSD == 0 {
		c.Report.BigRoundUSD = 10_000_000
	}
	if len(c.Report.NotableInvestors) == 0 {
		c.Report.NotableInvestors = defaultNotableInvestors
	}
	if c.Report.MaxRows == 0 {
		c.Report.MaxRows = 30
	}
	if c.Report.PreviewDir == "" {
		c.Report.PreviewDir = "."
	}

	if c.SMTP.Host == "" {
		c.SMTP.Host = "smtp.gmail.com"
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 465
	}
	if c.SMTP.From == "" {
		c.SMTP.From = c.SMTP.User
	}
	if c.SMTP.SubjectPrefix == "" {
		c.SMTP.SubjectPrefix = "餐饮自动化融资周报"
	}
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	if cfg.Search.PageSize < 1 || cfg.Search.PageSize > 10 {
		return fmt.Errorf("search.page_size must be between 1 and 10")
	}
	if cfg.Search.PerQueryLimit < 1 {
		return fmt.Errorf("search.per_query_limit must be at least 1")
	}

	if cfg.Fetch.Timeout < time.Second {
		return fmt.Errorf("fetch timeout must be at least 1 second")
	}

	if cfg.Filter.Days < 1 {
		return fmt.Errorf("filter.days must be at least 1")
	}
	if cfg.Filter.MinYear < 1970 {
		return fmt.Errorf("filter.min_year must be a sane calendar year")
	}

	if cfg.Extract.Strategy != "regex" && cfg.Extract.Strategy != "llm" {
		return fmt.Errorf("extract.strategy must be regex or llm")
	}
	if cfg.Extract.MinAmount >= cfg.Extract.MaxAmount {
		return fmt.Errorf("extract.min_amount must be below extract.max_amount")
	}
	if cfg.Extract.Strategy == "llm" {
		if cfg.LLM.Endpoint == "" {
			return fmt.Errorf("llm.endpoint is required for the llm strategy")
		}
		if cfg.LLM.Model == "" {
			return fmt.Errorf("llm.model is required for the llm strategy")
		}
	}

	if cfg.Report.Days < 1 {
		return fmt.Errorf("report.days must be at least 1")
	}
	if cfg.SMTP.Port < 1 || cfg.SMTP.Port > 65535 {
		return fmt.Errorf("smtp.port must be a valid port")
	}

	return nil
}

// LatestPath returns the well-known latest snapshot path
func (c *Config) LatestPath() string {
	return c.Output.Dir + "/" + c.Output.LatestFile
}

// ReportCSVPath returns the digest input path, falling back to the latest snapshot
func (c *Config) ReportCSVPath() string {
	if c.Report.CSVPath != "" {
		return c.Report.CSVPath
	}
	return c.LatestPath()
}
