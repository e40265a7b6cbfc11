package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/amishk599/jobradar/internal/classifier"
	"github.com/amishk599/jobradar/internal/model"
)

// EnvPath names the environment variable consulted when --config is not given.
const EnvPath = "JOBRADAR_CONFIG"

// DefaultPath is used when neither --config nor JOBRADAR_CONFIG is set.
const DefaultPath = "config.yaml"

// Config is the root configuration for jobradar.
type Config struct {
	Server       ServerConfig
	Storage      StorageConfig
	Polling      PollingConfig
	Retention    time.Duration // how long a new posting stays pending
	Retry        RetryConfig
	RateLimit    RateLimitConfig
	Region       RegionConfig
	Classifier   ClassifierConfig
	Notification NotificationConfig
	Dispatch     DispatchConfig
	Seed         SeedConfig
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// StorageConfig selects and configures the kv backend.
type StorageConfig struct {
	Backend     string // "redis", "sqlite" or "postgres"
	RedisURL    string
	SQLitePath  string
	PostgresDSN string
	OpTimeout   time.Duration // bound on a single kv operation
}

// PollingConfig controls the poll cycle.
type PollingConfig struct {
	Interval     time.Duration // zero disables the scheduled trigger in serve
	Concurrency  int
	FetchTimeout time.Duration
}

type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// RateLimitConfig controls per-source-type request spacing.
type RateLimitConfig struct {
	MinDelay  time.Duration
	Overrides map[model.SourceType]time.Duration
}

type RegionConfig struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

type ClassifierConfig struct {
	Strategy string `yaml:"strategy"` // "substring" or "trie"
}

// NotificationConfig controls which sender is used and its settings.
type NotificationConfig struct {
	Type          string // "log" or "telegram"
	BotToken      string
	APIURL        string
	RatePerSecond float64
	Timeout       time.Duration
}

type DispatchConfig struct {
	DedupeDeliveries bool
}

// SeedConfig holds the lists written to the store by `jobradar seed`.
type SeedConfig struct {
	Sources     []model.JobSource  `yaml:"sources"`
	Professions []model.Profession `yaml:"professions"`
}

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	Server       ServerConfig       `yaml:"server"`
	Storage      rawStorageConfig   `yaml:"storage"`
	Polling      rawPollingConfig   `yaml:"polling"`
	Retention    string             `yaml:"retention"`
	Retry        rawRetryConfig     `yaml:"retry"`
	RateLimit    rawRateLimitConfig `yaml:"rate_limit"`
	Region       RegionConfig       `yaml:"region"`
	Classifier   ClassifierConfig   `yaml:"classifier"`
	Notification rawNotification    `yaml:"notification"`
	Dispatch     rawDispatchConfig  `yaml:"dispatch"`
	Seed         SeedConfig         `yaml:"seed"`
}

type rawStorageConfig struct {
	Backend     string `yaml:"backend"`
	RedisURL    string `yaml:"redis_url"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
	OpTimeout   string `yaml:"op_timeout"`
}

type rawPollingConfig struct {
	Interval     string `yaml:"interval"`
	Concurrency  int    `yaml:"concurrency"`
	FetchTimeout string `yaml:"fetch_timeout"`
}

type rawRetryConfig struct {
	MaxRetries *int   `yaml:"max_retries"`
	BaseDelay  string `yaml:"base_delay"`
}

type rawRateLimitConfig struct {
	MinDelay  string            `yaml:"min_delay"`
	Overrides map[string]string `yaml:"overrides"`
}

type rawNotification struct {
	Type          string  `yaml:"type"`
	BotToken      string  `yaml:"bot_token"`
	APIURL        string  `yaml:"api_url"`
	RatePerSecond float64 `yaml:"rate_per_second"`
	Timeout       string  `yaml:"timeout"`
}

type rawDispatchConfig struct {
	DedupeDeliveries *bool `yaml:"dedupe_deliveries"`
}

// ResolvePath picks the config file: the flag value, then JOBRADAR_CONFIG,
// then ./config.yaml.
func ResolvePath(flag string) string {
	if flag != "" {
		return flag
	}
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse expands environment variables in data, decodes it and applies defaults.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	var errs durationParser
	cfg := &Config{
		Server: raw.Server,
		Storage: StorageConfig{
			Backend:     raw.Storage.Backend,
			RedisURL:    raw.Storage.RedisURL,
			SQLitePath:  raw.Storage.SQLitePath,
			PostgresDSN: raw.Storage.PostgresDSN,
			OpTimeout:   errs.parse("storage.op_timeout", raw.Storage.OpTimeout, 5*time.Second),
		},
		Polling: PollingConfig{
			Interval:     errs.parse("polling.interval", raw.Polling.Interval, 0),
			Concurrency:  raw.Polling.Concurrency,
			FetchTimeout: errs.parse("polling.fetch_timeout", raw.Polling.FetchTimeout, 30*time.Second),
		},
		Retention: errs.parse("retention", raw.Retention, 2*time.Hour),
		Retry: RetryConfig{
			MaxRetries: 2,
			BaseDelay:  errs.parse("retry.base_delay", raw.Retry.BaseDelay, 5*time.Second),
		},
		RateLimit: RateLimitConfig{
			MinDelay:  errs.parse("rate_limit.min_delay", raw.RateLimit.MinDelay, time.Second),
			Overrides: make(map[model.SourceType]time.Duration),
		},
		Region:     raw.Region,
		Classifier: raw.Classifier,
		Notification: NotificationConfig{
			Type:          raw.Notification.Type,
			BotToken:      raw.Notification.BotToken,
			APIURL:        raw.Notification.APIURL,
			RatePerSecond: raw.Notification.RatePerSecond,
			Timeout:       errs.parse("notification.timeout", raw.Notification.Timeout, 10*time.Second),
		},
		Dispatch: DispatchConfig{DedupeDeliveries: true},
		Seed:     raw.Seed,
	}
	for typ, d := range raw.RateLimit.Overrides {
		cfg.RateLimit.Overrides[model.SourceType(typ)] = errs.parse("rate_limit.overrides["+typ+"]", d, 0)
	}
	if errs.err != nil {
		return nil, errs.err
	}

	if raw.Retry.MaxRetries != nil {
		cfg.Retry.MaxRetries = *raw.Retry.MaxRetries
	}
	if raw.Dispatch.DedupeDeliveries != nil {
		cfg.Dispatch.DedupeDeliveries = *raw.Dispatch.DedupeDeliveries
	}
	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// durationParser keeps the first parse error so Parse can report it once.
type durationParser struct {
	err error
}

func (p *durationParser) parse(field, value string, def time.Duration) time.Duration {
	if value == "" || p.err != nil {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		p.err = fmt.Errorf("parse %s %q: %w", field, value, err)
		return def
	}
	return d
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "sqlite"
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "jobradar.db"
	}
	if cfg.Polling.Concurrency == 0 {
		cfg.Polling.Concurrency = 1
	}
	if cfg.Region.Name == "" {
		cfg.Region.Name = classifier.DefaultRegion
	}
	if len(cfg.Region.Aliases) == 0 {
		cfg.Region.Aliases = classifier.DefaultAliases
	}
	if cfg.Classifier.Strategy == "" {
		cfg.Classifier.Strategy = classifier.StrategySubstring
	}
	if cfg.Notification.Type == "" {
		cfg.Notification.Type = "log"
	}
	if cfg.Notification.APIURL == "" {
		cfg.Notification.APIURL = "https://api.telegram.org"
	}
	if cfg.Notification.RatePerSecond == 0 {
		cfg.Notification.RatePerSecond = 25
	}
}

func validate(cfg *Config) error {
	switch cfg.Storage.Backend {
	case "sqlite":
	case "redis":
		if cfg.Storage.RedisURL == "" {
			return fmt.Errorf("storage.redis_url is required when backend is \"redis\"")
		}
	case "postgres":
		if cfg.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required when backend is \"postgres\"")
		}
	default:
		return fmt.Errorf("storage.backend must be redis, sqlite or postgres, got %q", cfg.Storage.Backend)
	}

	if cfg.Storage.OpTimeout <= 0 {
		return fmt.Errorf("storage.op_timeout must be positive, got %v", cfg.Storage.OpTimeout)
	}
	if cfg.Polling.Interval < 0 {
		return fmt.Errorf("polling.interval must not be negative, got %v", cfg.Polling.Interval)
	}
	if cfg.Polling.Concurrency < 1 {
		return fmt.Errorf("polling.concurrency must be at least 1, got %d", cfg.Polling.Concurrency)
	}
	if cfg.Polling.FetchTimeout <= 0 {
		return fmt.Errorf("polling.fetch_timeout must be positive, got %v", cfg.Polling.FetchTimeout)
	}
	if cfg.Retention <= 0 {
		return fmt.Errorf("retention must be positive, got %v", cfg.Retention)
	}
	if cfg.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative, got %d", cfg.Retry.MaxRetries)
	}

	switch cfg.Classifier.Strategy {
	case classifier.StrategySubstring, classifier.StrategyTrie:
	default:
		return fmt.Errorf("classifier.strategy must be substring or trie, got %q", cfg.Classifier.Strategy)
	}

	switch cfg.Notification.Type {
	case "log":
	case "telegram":
		if cfg.Notification.BotToken == "" {
			return fmt.Errorf("notification.bot_token is required when type is \"telegram\"")
		}
	default:
		return fmt.Errorf("notification.type must be log or telegram, got %q", cfg.Notification.Type)
	}

	for _, s := range cfg.Seed.Sources {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("seed.sources: %w", err)
		}
	}
	return nil
}
