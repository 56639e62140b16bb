package domain

import (
	"time"
)

// Config represents the main application configuration
type Config struct {
	Environment string          `mapstructure:"environment"`
	Server      ServerConfig    `mapstructure:"server"`
	Decision    DecisionConfig  `mapstructure:"decision"`
	Cache       CacheConfig     `mapstructure:"cache"`
	Directory   DirectoryConfig `mapstructure:"directory"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Pipeline    PipelineConfig  `mapstructure:"pipeline"`
	Interview   InterviewConfig `mapstructure:"interview"`
	Metrics     MetricsConfig   `mapstructure:"metrics"`
	Logging     LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// DecisionConfig configures the clinical decision service client
type DecisionConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	AppID     string        `mapstructure:"app_id"`
	AppKey    string        `mapstructure:"app_key"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit int           `mapstructure:"rate_limit"`
	Breaker   BreakerConfig `mapstructure:"breaker"`
}

// BreakerConfig configures the circuit breakers around decision-service calls
type BreakerConfig struct {
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MinRequests  uint32        `mapstructure:"min_requests"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
}

// CacheConfig represents parse-result cache configuration
type CacheConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	RedisURL    string        `mapstructure:"redis_url"`
	DefaultTTL  time.Duration `mapstructure:"default_ttl"`
	MaxRetries  int           `mapstructure:"max_retries"`
	PoolSize    int           `mapstructure:"pool_size"`
	PoolTimeout time.Duration `mapstructure:"pool_timeout"`
	MemorySize  int           `mapstructure:"memory_size"`
}

// Directory backends
const (
	DirectorySimulator = "simulator"
	DirectorySQLite    = "sqlite"
	DirectoryPostgres  = "postgres"
)

// DirectoryConfig selects and configures the scheduling directory
type DirectoryConfig struct {
	Backend    string `mapstructure:"backend"`
	Seed       int64  `mapstructure:"seed"`
	SQLitePath string `mapstructure:"sqlite_path"`
	SeedDays   int    `mapstructure:"seed_days"`
}

// DatabaseConfig represents postgres connection configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdle     time.Duration `mapstructure:"max_conn_idle"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// PipelineConfig tunes the optimization pipeline
type PipelineConfig struct {
	MaxResults         int  `mapstructure:"max_results"`
	DaysAhead          int  `mapstructure:"days_ahead"`
	SpecialistFallback bool `mapstructure:"specialist_fallback"`
}

// InterviewConfig tunes the hosted interview sessions
type InterviewConfig struct {
	SessionCapacity int `mapstructure:"session_capacity"`
	MaxQuestions    int `mapstructure:"max_questions"`
}

// MetricsConfig controls the prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
