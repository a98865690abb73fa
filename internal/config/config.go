package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"

	envToken    = "COURSECACHE_API_TOKEN"
	envRedisURL = "COURSECACHE_REDIS_URL"

	defaultCourseConcurrency = 3
	defaultFileConcurrency   = 6
	defaultProgressThrottle  = 300 * time.Millisecond
	defaultMaxRunDuration    = 25 * time.Minute
	defaultJobPollInterval   = time.Second
	defaultJobPollRetries    = 30
	defaultHTTPTimeout       = 60 * time.Second
)

// Duration makes values like "300ms" or "25m" usable in the yaml config.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("cannot parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)

	return nil
}

type APIConfig struct {
	BaseURL string   `yaml:"base_url"`
	Token   string   `yaml:"token"`
	Timeout Duration `yaml:"timeout"`
}

type SyncConfig struct {
	// CourseConcurrency caps how many courses download at once.
	CourseConcurrency int `yaml:"course_concurrency"`
	// FileConcurrency caps simultaneous file downloads within one course.
	FileConcurrency  int      `yaml:"file_concurrency"`
	ProgressThrottle Duration `yaml:"progress_throttle"`
	// MaxRunDuration is the background execution budget. When it expires the
	// run is treated as interrupted by the OS.
	MaxRunDuration  Duration `yaml:"max_run_duration"`
	JobPollInterval Duration `yaml:"job_poll_interval"`
	JobPollRetries  int      `yaml:"job_poll_retries"`
}

type CacheConfig struct {
	RootDir string `yaml:"root_dir"`
}

type Config struct {
	RedisURL      string      `yaml:"redis_url"`
	LogLevel      string      `yaml:"log_level"`
	LogFile       string      `yaml:"log_file"`
	SelectionFile string      `yaml:"selection_file"`
	API           APIConfig   `yaml:"api"`
	Sync          SyncConfig  `yaml:"sync"`
	Cache         CacheConfig `yaml:"cache"`
}

func (c *Config) SetDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = LogLevelInfo
	}
	if c.Sync.CourseConcurrency < 1 {
		c.Sync.CourseConcurrency = defaultCourseConcurrency
	}
	if c.Sync.FileConcurrency < 1 {
		c.Sync.FileConcurrency = defaultFileConcurrency
	}
	if c.Sync.ProgressThrottle <= 0 {
		c.Sync.ProgressThrottle = Duration(defaultProgressThrottle)
	}
	if c.Sync.MaxRunDuration <= 0 {
		c.Sync.MaxRunDuration = Duration(defaultMaxRunDuration)
	}
	if c.Sync.JobPollInterval <= 0 {
		c.Sync.JobPollInterval = Duration(defaultJobPollInterval)
	}
	if c.Sync.JobPollRetries < 1 {
		c.Sync.JobPollRetries = defaultJobPollRetries
	}
	if c.API.Timeout <= 0 {
		c.API.Timeout = Duration(defaultHTTPTimeout)
	}
}

// Load reads the yaml config, applies the .env overlay for secrets and fills
// defaults. A missing .env file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file: %w", err)
	}

	if token := os.Getenv(envToken); token != "" {
		cfg.API.Token = token
	}
	if redisURL := os.Getenv(envRedisURL); redisURL != "" {
		cfg.RedisURL = redisURL
	}

	cfg.SetDefaults()

	if cfg.API.BaseURL == "" {
		return nil, fmt.Errorf("api.base_url must be set")
	}
	if cfg.Cache.RootDir == "" {
		return nil, fmt.Errorf("cache.root_dir must be set")
	}

	return &cfg, nil
}

func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}
