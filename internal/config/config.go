// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Crawler   CrawlerConfig   `mapstructure:"crawler"`
	Oracle    OracleConfig    `mapstructure:"oracle"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	Publisher PublisherConfig `mapstructure:"publisher"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// FetchConfig selects and tunes the page fetch strategy.
type FetchConfig struct {
	// Strategy is "direct" (raw HTML then clean) or "reader" (proxy-rendered
	// Markdown).
	Strategy        string `mapstructure:"strategy"`
	ReaderProxyBase string `mapstructure:"reader_proxy_base"`
	UserAgent       string `mapstructure:"user_agent"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`

	// MaxTextLength bounds cleaned text to cap oracle token exposure. The
	// truncation point is arbitrary; this is a known lossy step.
	MaxTextLength int `mapstructure:"max_text_length"`
}

// CrawlerConfig governs the crawl orchestrator.
type CrawlerConfig struct {
	ResultLimit  int `mapstructure:"result_limit"`
	CandidateCap int `mapstructure:"candidate_cap"`
	DelaySeconds int `mapstructure:"delay_seconds"`
}

// OracleConfig holds language-model client settings.
type OracleConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// StorageConfig selects the record/target store backend.
type StorageConfig struct {
	Provider string `mapstructure:"provider"` // memory | postgres
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// ArchiveConfig selects the raw posting snapshot backend.
type ArchiveConfig struct {
	Provider  string `mapstructure:"provider"` // noop | local | gcs
	BaseDir   string `mapstructure:"base_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// PublisherConfig selects the crawl-event publisher backend.
type PublisherConfig struct {
	Provider  string `mapstructure:"provider"` // noop | pubsub
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("COMPSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("fetch.strategy", "direct")
	v.SetDefault("fetch.reader_proxy_base", "https://r.jina.ai/")
	v.SetDefault("fetch.user_agent",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("fetch.timeout_seconds", 25)
	v.SetDefault("fetch.max_text_length", 20000)
	v.SetDefault("crawler.result_limit", 4)
	v.SetDefault("crawler.candidate_cap", 60)
	v.SetDefault("crawler.delay_seconds", 1)
	v.SetDefault("oracle.model", "gpt-3.5-turbo")
	v.SetDefault("storage.provider", "memory")
	v.SetDefault("archive.provider", "noop")
	v.SetDefault("archive.prefix", "postings")
	v.SetDefault("publisher.provider", "noop")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	switch c.Fetch.Strategy {
	case "direct", "reader":
	default:
		return fmt.Errorf("fetch.strategy must be direct or reader, got %q", c.Fetch.Strategy)
	}
	if c.Fetch.Strategy == "reader" && c.Fetch.ReaderProxyBase == "" {
		return fmt.Errorf("fetch.reader_proxy_base must be set when strategy is reader")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if c.Fetch.MaxTextLength <= 0 {
		return fmt.Errorf("fetch.max_text_length must be > 0")
	}
	if c.Crawler.ResultLimit <= 0 {
		return fmt.Errorf("crawler.result_limit must be > 0")
	}
	if c.Crawler.CandidateCap <= 0 {
		return fmt.Errorf("crawler.candidate_cap must be > 0")
	}
	if c.Crawler.DelaySeconds < 0 {
		return fmt.Errorf("crawler.delay_seconds must be >= 0")
	}
	if c.Storage.Provider == "postgres" && c.Storage.DSN == "" {
		return fmt.Errorf("storage.dsn must be set when storage.provider is postgres")
	}
	if c.Archive.Provider == "gcs" && c.Archive.GCSBucket == "" {
		return fmt.Errorf("archive.gcs_bucket must be set when archive.provider is gcs")
	}
	if c.Archive.Provider == "local" && c.Archive.BaseDir == "" {
		return fmt.Errorf("archive.base_dir must be set when archive.provider is local")
	}
	if c.Publisher.Provider == "pubsub" && (c.Publisher.ProjectID == "" || c.Publisher.TopicName == "") {
		return fmt.Errorf("publisher.project_id and publisher.topic_name must be set when provider is pubsub")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	return nil
}

// FetchTimeout converts the timeout config into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// CrawlDelay returns the fixed inter-request delay for a run.
func (c Config) CrawlDelay() time.Duration {
	return time.Duration(c.Crawler.DelaySeconds) * time.Second
}
