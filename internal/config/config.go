package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/dgallion1/webmark/internal/fetch"
	"github.com/dgallion1/webmark/internal/page"
	"github.com/dgallion1/webmark/internal/parser"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Fetching
	FetchTimeout   time.Duration
	FetchUserAgent string
	FetchMaxBytes  int64
	FetchRate      float64
	FetchBurst     int
	FetchRetries   int

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// Conversion
	OutputDir     string
	URLHeader     bool
	NamedEntities bool
	MatchPolicy   string

	LogDir string
}

// MaxFetchRetries bounds FETCH_RETRIES.
const MaxFetchRetries = 10

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Port: "8090",

		FetchTimeout:   30 * time.Second,
		FetchUserAgent: "webmark/1.0",
		FetchMaxBytes:  10485760, // 10MB
		FetchBurst:     1,
		FetchRetries:   2,

		WorkerCount:  4,
		MaxQueueSize: 100,

		MaxUploadBytes: 10485760,

		JobTTL: 1 * time.Hour,

		URLHeader:     true,
		NamedEntities: true,
		MatchPolicy:   "top",
	}
}

// Load reads the environment over the defaults.
func Load() Config {
	return applyEnv(Default())
}

// LoadFile reads a TOML file over the defaults, then the environment over
// that. An empty path behaves like Load.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		var f fileConfig
		if err := toml.Unmarshal(data, &f); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
		if err := f.apply(&cfg); err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	}
	return applyEnv(cfg), nil
}

func applyEnv(cfg Config) Config {
	cfg.Port = envOr("PORT", cfg.Port)
	cfg.APIKey = envOr("WEBMARK_API_KEY", cfg.APIKey)

	cfg.FetchTimeout = envDuration("FETCH_TIMEOUT", cfg.FetchTimeout)
	cfg.FetchUserAgent = envOr("FETCH_USER_AGENT", cfg.FetchUserAgent)
	cfg.FetchMaxBytes = envInt64("FETCH_MAX_BYTES", cfg.FetchMaxBytes)
	cfg.FetchRate = envFloat("FETCH_RATE", cfg.FetchRate)
	cfg.FetchBurst = envInt("FETCH_BURST", cfg.FetchBurst)
	cfg.FetchRetries = envInt("FETCH_RETRIES", cfg.FetchRetries)

	cfg.WorkerCount = envInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.MaxQueueSize = envInt("MAX_QUEUE_SIZE", cfg.MaxQueueSize)
	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.JobTTL = envDuration("JOB_TTL", cfg.JobTTL)

	cfg.OutputDir = envOr("OUTPUT_DIR", cfg.OutputDir)
	cfg.URLHeader = envBool("URL_HEADER", cfg.URLHeader)
	cfg.NamedEntities = envBool("NAMED_ENTITIES", cfg.NamedEntities)
	cfg.MatchPolicy = envOr("MATCH_POLICY", cfg.MatchPolicy)
	cfg.LogDir = envOr("LOG_DIR", cfg.LogDir)

	def := Default()
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = def.WorkerCount
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = def.MaxQueueSize
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = def.MaxUploadBytes
	}
	if cfg.FetchMaxBytes <= 0 {
		cfg.FetchMaxBytes = def.FetchMaxBytes
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = def.JobTTL
	}
	return cfg
}

func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.MatchPolicy != "top" && c.MatchPolicy != "deep" {
		return fmt.Errorf("MATCH_POLICY must be top or deep, got %q", c.MatchPolicy)
	}
	if c.FetchRate < 0 {
		return fmt.Errorf("FETCH_RATE must not be negative")
	}
	if c.FetchRetries < 0 || c.FetchRetries > MaxFetchRetries {
		return fmt.Errorf("FETCH_RETRIES must be between 0 and %d, got %d", MaxFetchRetries, c.FetchRetries)
	}
	return nil
}

// Fetch returns the HTTP client settings.
func (c Config) Fetch() fetch.Config {
	return fetch.Config{
		Timeout:   c.FetchTimeout,
		UserAgent: c.FetchUserAgent,
		MaxBytes:  c.FetchMaxBytes,
		Rate:      c.FetchRate,
		Burst:     c.FetchBurst,
		Retries:   c.FetchRetries,
	}
}

// Page returns the conversion options.
func (c Config) Page() page.Options {
	return page.Options{
		URLHeader:     c.URLHeader,
		NamedEntities: c.NamedEntities,
		Policy:        parser.ParseMatchPolicy(c.MatchPolicy),
	}
}

// fileConfig mirrors Config for TOML. Unset keys keep the defaults.
type fileConfig struct {
	Port   string `toml:"port"`
	APIKey string `toml:"api_key"`

	Fetch struct {
		Timeout   string  `toml:"timeout"`
		UserAgent string  `toml:"user_agent"`
		MaxBytes  int64   `toml:"max_bytes"`
		Rate      float64 `toml:"rate"`
		Burst     int     `toml:"burst"`
		Retries   *int    `toml:"retries"`
	} `toml:"fetch"`

	Workers struct {
		Count     int    `toml:"count"`
		QueueSize int    `toml:"queue_size"`
		JobTTL    string `toml:"job_ttl"`
	} `toml:"workers"`

	MaxUploadBytes int64 `toml:"max_upload_bytes"`

	Output struct {
		Dir           string `toml:"dir"`
		URLHeader     *bool  `toml:"url_header"`
		NamedEntities *bool  `toml:"named_entities"`
		MatchPolicy   string `toml:"match_policy"`
	} `toml:"output"`

	LogDir string `toml:"log_dir"`
}

func (f fileConfig) apply(cfg *Config) error {
	setString(&cfg.Port, f.Port)
	setString(&cfg.APIKey, f.APIKey)

	if f.Fetch.Timeout != "" {
		d, err := time.ParseDuration(f.Fetch.Timeout)
		if err != nil {
			return fmt.Errorf("fetch.timeout: %w", err)
		}
		cfg.FetchTimeout = d
	}
	setString(&cfg.FetchUserAgent, f.Fetch.UserAgent)
	if f.Fetch.MaxBytes > 0 {
		cfg.FetchMaxBytes = f.Fetch.MaxBytes
	}
	if f.Fetch.Rate > 0 {
		cfg.FetchRate = f.Fetch.Rate
	}
	if f.Fetch.Burst > 0 {
		cfg.FetchBurst = f.Fetch.Burst
	}
	if f.Fetch.Retries != nil {
		cfg.FetchRetries = *f.Fetch.Retries
	}

	if f.Workers.Count > 0 {
		cfg.WorkerCount = f.Workers.Count
	}
	if f.Workers.QueueSize > 0 {
		cfg.MaxQueueSize = f.Workers.QueueSize
	}
	if f.Workers.JobTTL != "" {
		d, err := time.ParseDuration(f.Workers.JobTTL)
		if err != nil {
			return fmt.Errorf("workers.job_ttl: %w", err)
		}
		cfg.JobTTL = d
	}
	if f.MaxUploadBytes > 0 {
		cfg.MaxUploadBytes = f.MaxUploadBytes
	}

	setString(&cfg.OutputDir, f.Output.Dir)
	if f.Output.URLHeader != nil {
		cfg.URLHeader = *f.Output.URLHeader
	}
	if f.Output.NamedEntities != nil {
		cfg.NamedEntities = *f.Output.NamedEntities
	}
	setString(&cfg.MatchPolicy, f.Output.MatchPolicy)
	setString(&cfg.LogDir, f.LogDir)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
