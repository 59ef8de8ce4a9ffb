// Package config loads judge configuration from environment variables
// (and an optional config file), the way the teacher's coderunr API does
// it, generalized to the judge's database/queue/rate-limit surface.
package config

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config is the full judge configuration, populated by Load.
type Config struct {
	LogLevel    string `mapstructure:"log_level"`
	BindAddress string `mapstructure:"bind_address"`

	Database DatabaseConfig `mapstructure:",squash"`
	Redis    RedisConfig    `mapstructure:",squash"`
	Sandbox  SandboxDefaults `mapstructure:",squash"`
	RateLimit RateLimitConfig `mapstructure:",squash"`

	// MaxConcurrentJobs is loaded and validated as positive. The worker
	// runtime does not read it: each worker process runs one submission
	// at a time whatever its value.
	MaxConcurrentJobs int `mapstructure:"max_concurrent_jobs"`

	RequestBodyLimit int64 `mapstructure:"request_body_limit"`
}

// DatabaseConfig configures the Postgres connection used by
// internal/submission and internal/language.
type DatabaseConfig struct {
	DBHost     string `mapstructure:"db_host"`
	DBPort     int    `mapstructure:"db_port"`
	DBUser     string `mapstructure:"db_user"`
	DBPassword string `mapstructure:"db_password"`
	DBName     string `mapstructure:"db_name"`
	DBSSLMode  string `mapstructure:"db_sslmode"`
}

// DSN renders the libpq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.DBHost, d.DBPort, d.DBUser, d.DBPassword, d.DBName, d.DBSSLMode,
	)
}

// RedisConfig configures the queue + rate-limiter backing store.
type RedisConfig struct {
	RedisHost     string `mapstructure:"redis_host"`
	RedisPort     int    `mapstructure:"redis_port"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisPrefix   string `mapstructure:"redis_prefix"`
}

// Addr renders the host:port form go-redis expects.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.RedisHost, r.RedisPort)
}

// SandboxDefaults are the process-wide fallbacks substituted for any
// nil-valued per-submission limit (spec.md section 9, three-valued
// config resolution).
type SandboxDefaults struct {
	CPUTimeLimit                       float64 `mapstructure:"cpu_time_limit"`
	CPUExtraTime                       float64 `mapstructure:"cpu_extra_time"`
	WallTimeLimit                      float64 `mapstructure:"wall_time_limit"`
	MemoryLimit                        int64   `mapstructure:"memory_limit"`
	MaxProcessesAndOrThreads           int     `mapstructure:"max_processes_and_or_threads"`
	MaxFileSize                        int64   `mapstructure:"max_file_size"`
	NumberOfRuns                       int     `mapstructure:"number_of_runs"`
	EnablePerProcessAndThreadTimeLimit bool    `mapstructure:"enable_per_process_and_thread_time_limit"`
	EnablePerProcessAndThreadMemory    bool    `mapstructure:"enable_per_process_and_thread_memory_limit"`
	RedirectStderrToStdout             bool    `mapstructure:"redirect_stderr_to_stdout"`
	EnableNetwork                      bool    `mapstructure:"enable_network"`
	IsolatePath                        string  `mapstructure:"isolate_path"`
}

// RateLimitConfig configures the admission limiter (spec.md section 4.5).
type RateLimitConfig struct {
	Enabled      bool   `mapstructure:"rate_limit_enabled"`
	PerMinute    int    `mapstructure:"rate_limit_per_minute"`
	PerHour      int    `mapstructure:"rate_limit_per_hour"`
	Strategy     string `mapstructure:"rate_limit_strategy"` // fixed-window | sliding-window
}

// Load reads configuration from environment variables (prefix JUDGE_)
// and an optional config file, the way the teacher's config.Load does.
func Load() (*Config, error) {
	viper.SetDefault("log_level", "INFO")
	viper.SetDefault("bind_address", "0.0.0.0:2358")

	viper.SetDefault("db_host", "localhost")
	viper.SetDefault("db_port", 5432)
	viper.SetDefault("db_user", "judge")
	viper.SetDefault("db_password", "judge")
	viper.SetDefault("db_name", "judge")
	viper.SetDefault("db_sslmode", "disable")

	viper.SetDefault("redis_host", "localhost")
	viper.SetDefault("redis_port", 6379)
	viper.SetDefault("redis_password", "")
	viper.SetDefault("redis_db", 0)
	viper.SetDefault("redis_prefix", "judge")

	viper.SetDefault("cpu_time_limit", 5.0)
	viper.SetDefault("cpu_extra_time", 1.0)
	viper.SetDefault("wall_time_limit", 10.0)
	viper.SetDefault("memory_limit", 256000) // KB
	viper.SetDefault("max_processes_and_or_threads", 60)
	viper.SetDefault("max_file_size", 1024) // KB
	viper.SetDefault("number_of_runs", 1)
	viper.SetDefault("enable_per_process_and_thread_time_limit", false)
	viper.SetDefault("enable_per_process_and_thread_memory_limit", false)
	viper.SetDefault("redirect_stderr_to_stdout", false)
	viper.SetDefault("enable_network", false)
	viper.SetDefault("isolate_path", "/usr/local/bin/isolate")

	viper.SetDefault("rate_limit_enabled", true)
	viper.SetDefault("rate_limit_per_minute", 60)
	viper.SetDefault("rate_limit_per_hour", 2000)
	viper.SetDefault("rate_limit_strategy", "sliding-window")

	viper.SetDefault("max_concurrent_jobs", 1)
	viper.SetDefault("request_body_limit", int64(10<<20)) // 10MB

	viper.SetEnvPrefix("JUDGE")
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/judge/")
	viper.AddConfigPath("$HOME/.judge/")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}
	if cfg.Sandbox.NumberOfRuns <= 0 {
		return fmt.Errorf("number_of_runs must be positive")
	}
	if cfg.RateLimit.Strategy != "fixed-window" && cfg.RateLimit.Strategy != "sliding-window" {
		return fmt.Errorf("rate_limit_strategy must be fixed-window or sliding-window")
	}
	if cfg.MaxConcurrentJobs <= 0 {
		return fmt.Errorf("max_concurrent_jobs must be positive")
	}
	return nil
}

// GetLogLevel returns the parsed log level, defaulting to Info.
func (c *Config) GetLogLevel() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// Windows returns the (limit, window) pairs for the configured
// granularities. The judge checks per-minute admission; per-hour is a
// coarser secondary ceiling enforced the same way with a longer window.
func (c RateLimitConfig) Windows() []WindowLimit {
	return []WindowLimit{
		{Limit: c.PerMinute, Window: time.Minute},
		{Limit: c.PerHour, Window: time.Hour},
	}
}

// WindowLimit pairs a request ceiling with the window it applies over.
type WindowLimit struct {
	Limit  int
	Window time.Duration
}
