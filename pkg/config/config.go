// Package config loads the crawler configuration from a config file, the environment
// and a .env file, in that order of precedence (environment wins).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"foolcalls/pkg/logger"
)

// EnvPrefix is prepended to every environment variable, e.g. FOOLCALLS_CRAWL_MAX_PAGES.
const EnvPrefix = "FOOLCALLS"

// Store backends.
const (
	BackendFS    = "fs"
	BackendMinio = "minio"
)

const (
	defaultRootURL         = "https://www.fool.com"
	defaultListingPath     = "/earnings-call-transcripts"
	defaultTranscriptsPath = "/earnings/call-transcripts"
	defaultScraperVersion  = "202007.1"
	defaultMinDelay        = 2 * time.Second
	defaultMaxDelay        = 8 * time.Second
	defaultHTTPTimeout     = 30 * time.Second
	defaultRetries         = 2
	defaultBucket          = "fool-calls"
	defaultRegion          = "us-west-2"
	defaultStoreDir        = "./data"
	defaultDownloadWorkers = 1
	defaultScrapeWorkers   = 4
	defaultBatchSize       = 100
)

// Config is the full application configuration.
type Config struct {
	Crawl    CrawlConfig    `mapstructure:"crawl"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Store    StoreConfig    `mapstructure:"store"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Scrape   ScrapeConfig   `mapstructure:"scrape"`
	Log      logger.Config  `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// CrawlConfig controls listing traversal and downloading.
type CrawlConfig struct {
	RootURL         string `mapstructure:"root_url"`
	ListingPath     string `mapstructure:"listing_path"`
	TranscriptsPath string `mapstructure:"transcripts_path"`
	StartPage       int    `mapstructure:"start_page"`
	// MaxPages caps the number of listing pages visited; 0 means unlimited.
	MaxPages int `mapstructure:"max_pages"`
	// TraverseAll keeps paging past listing pages that contain only known transcripts.
	TraverseAll bool `mapstructure:"traverse_all"`
	Workers     int  `mapstructure:"workers"`
	// Redownload fetches listed transcripts again even when their CID is already stored.
	Redownload bool `mapstructure:"redownload"`
}

// HTTPConfig controls the fetcher.
type HTTPConfig struct {
	ClientType string        `mapstructure:"client_type"`
	MinDelay   time.Duration `mapstructure:"min_delay"`
	MaxDelay   time.Duration `mapstructure:"max_delay"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Retries    int           `mapstructure:"retries"`
	UserAgents []string      `mapstructure:"user_agents"`
}

// StoreConfig selects and configures the artifact store.
type StoreConfig struct {
	Backend   string `mapstructure:"backend"`
	Dir       string `mapstructure:"dir"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// MongoConfig configures the structured transcript sink. An empty URI disables it.
type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

// PostgresConfig configures the replication target.
type PostgresConfig struct {
	DSN       string `mapstructure:"dsn"`
	BatchSize int    `mapstructure:"batch_size"`
}

// ScrapeConfig controls the scrape queue.
type ScrapeConfig struct {
	Version   string `mapstructure:"version"`
	Workers   int    `mapstructure:"workers"`
	Overwrite bool   `mapstructure:"overwrite"`
	// Limit caps the queue length; 0 means no limit.
	Limit int `mapstructure:"limit"`
}

// MetricsConfig configures the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Default returns a Config populated with defaults only.
func Default() *Config {
	cfg := &Config{}
	cfg.WithDefaults()
	return cfg
}

// WithDefaults fills zero-valued fields with their defaults.
func (c *Config) WithDefaults() *Config {
	if c.Crawl.RootURL == "" {
		c.Crawl.RootURL = defaultRootURL
	}
	c.Crawl.RootURL = strings.TrimRight(c.Crawl.RootURL, "/")
	if c.Crawl.ListingPath == "" {
		c.Crawl.ListingPath = defaultListingPath
	}
	if c.Crawl.TranscriptsPath == "" {
		c.Crawl.TranscriptsPath = defaultTranscriptsPath
	}
	if c.Crawl.StartPage < 1 {
		c.Crawl.StartPage = 1
	}
	if c.Crawl.Workers < 1 {
		c.Crawl.Workers = defaultDownloadWorkers
	}

	if c.HTTP.ClientType == "" {
		c.HTTP.ClientType = "browser"
	}
	if c.HTTP.MinDelay == 0 && c.HTTP.MaxDelay == 0 {
		c.HTTP.MinDelay, c.HTTP.MaxDelay = defaultMinDelay, defaultMaxDelay
	}
	if c.HTTP.MaxDelay < c.HTTP.MinDelay {
		c.HTTP.MaxDelay = c.HTTP.MinDelay
	}
	if c.HTTP.Timeout == 0 {
		c.HTTP.Timeout = defaultHTTPTimeout
	}
	if c.HTTP.Retries < 0 {
		c.HTTP.Retries = 0
	}

	if c.Store.Backend == "" {
		c.Store.Backend = BackendFS
	}
	if c.Store.Dir == "" {
		c.Store.Dir = defaultStoreDir
	}
	if c.Store.Bucket == "" {
		c.Store.Bucket = defaultBucket
	}
	if c.Store.Region == "" {
		c.Store.Region = defaultRegion
	}

	if c.Mongo.Database == "" {
		c.Mongo.Database = "foolcalls"
	}
	if c.Mongo.Collection == "" {
		c.Mongo.Collection = "transcripts"
	}
	if c.Postgres.BatchSize < 1 {
		c.Postgres.BatchSize = defaultBatchSize
	}

	if c.Scrape.Version == "" {
		c.Scrape.Version = defaultScraperVersion
	}
	if c.Scrape.Workers < 1 {
		c.Scrape.Workers = defaultScrapeWorkers
	}

	c.Log.SetDefaults()
	return c
}

// Validate reports configuration values that cannot work.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendFS:
	case BackendMinio:
		if c.Store.Endpoint == "" {
			return errors.New("store.endpoint is required for the minio backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Crawl.MaxPages < 0 {
		return fmt.Errorf("crawl.max_pages must not be negative, got %d", c.Crawl.MaxPages)
	}
	if c.Scrape.Limit < 0 {
		return fmt.Errorf("scrape.limit must not be negative, got %d", c.Scrape.Limit)
	}
	return nil
}

// Load reads configuration into a Config. If v has no config file set, ./config.yaml is
// used when present. A .env file in the working directory is loaded into the environment
// first; variables already set are not overwritten.
func Load(v *viper.Viper) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Default())

	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key with viper so AutomaticEnv can override it during
// Unmarshal.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("crawl.root_url", d.Crawl.RootURL)
	v.SetDefault("crawl.listing_path", d.Crawl.ListingPath)
	v.SetDefault("crawl.transcripts_path", d.Crawl.TranscriptsPath)
	v.SetDefault("crawl.start_page", d.Crawl.StartPage)
	v.SetDefault("crawl.max_pages", d.Crawl.MaxPages)
	v.SetDefault("crawl.traverse_all", d.Crawl.TraverseAll)
	v.SetDefault("crawl.workers", d.Crawl.Workers)
	v.SetDefault("crawl.redownload", false)

	v.SetDefault("http.client_type", d.HTTP.ClientType)
	v.SetDefault("http.min_delay", d.HTTP.MinDelay)
	v.SetDefault("http.max_delay", d.HTTP.MaxDelay)
	v.SetDefault("http.timeout", d.HTTP.Timeout)
	v.SetDefault("http.retries", defaultRetries)
	v.SetDefault("http.user_agents", []string{})

	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.dir", d.Store.Dir)
	v.SetDefault("store.bucket", d.Store.Bucket)
	v.SetDefault("store.region", d.Store.Region)
	v.SetDefault("store.endpoint", "")
	v.SetDefault("store.access_key", "")
	v.SetDefault("store.secret_key", "")
	v.SetDefault("store.use_ssl", true)

	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.database", d.Mongo.Database)
	v.SetDefault("mongo.collection", d.Mongo.Collection)
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.batch_size", d.Postgres.BatchSize)

	v.SetDefault("scrape.version", d.Scrape.Version)
	v.SetDefault("scrape.workers", d.Scrape.Workers)
	v.SetDefault("scrape.overwrite", false)
	v.SetDefault("scrape.limit", 0)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.development", false)
	v.SetDefault("log.output_paths", d.Log.OutputPaths)

	v.SetDefault("metrics.addr", "")
}
