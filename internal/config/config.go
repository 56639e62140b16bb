package config

import (
	"fmt"
	"strings"

	"github.com/care-router-mcp-server/internal/database"
	"github.com/care-router-mcp-server/internal/domain"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. CARE_ROUTER_SERVER_PORT
const EnvPrefix = "CARE_ROUTER"

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	v          *viper.Viper
	configFile string
	config     *domain.Config
}

// NewManager creates a new configuration manager from the default search paths
func NewManager() (*Manager, error) {
	return NewManagerFromFile("")
}

// NewManagerFromFile creates a configuration manager reading an explicit
// config file. An empty path searches the default locations.
func NewManagerFromFile(path string) (*Manager, error) {
	m := &Manager{configFile: path}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from file, environment and defaults
func (m *Manager) loadConfig() error {
	v := viper.New()

	if m.configFile != "" {
		v.SetConfigFile(m.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/care-router/")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Credentials also answer to the decision service's own variable names
	if err := v.BindEnv("decision.app_id", EnvPrefix+"_DECISION_APP_ID", "INFERMEDICA_APP_ID"); err != nil {
		return fmt.Errorf("error binding env: %w", err)
	}
	if err := v.BindEnv("decision.app_key", EnvPrefix+"_DECISION_APP_KEY", "INFERMEDICA_APP_KEY"); err != nil {
		return fmt.Errorf("error binding env: %w", err)
	}

	setDefaults(v)

	// Config file is optional; defaults and env vars cover a bare start
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || m.configFile != "" {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.v = v
	m.config = config
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "45s")

	// Decision service defaults
	v.SetDefault("decision.base_url", "https://api.infermedica.com/v3")
	v.SetDefault("decision.app_id", "")
	v.SetDefault("decision.app_key", "")
	v.SetDefault("decision.timeout", "15s")
	v.SetDefault("decision.rate_limit", 10)
	v.SetDefault("decision.breaker.max_requests", 3)
	v.SetDefault("decision.breaker.interval", "30s")
	v.SetDefault("decision.breaker.timeout", "60s")
	v.SetDefault("decision.breaker.min_requests", 3)
	v.SetDefault("decision.breaker.failure_ratio", 0.6)

	// Cache defaults
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.redis_url", "redis://localhost:6379")
	v.SetDefault("cache.default_ttl", "24h")
	v.SetDefault("cache.max_retries", 3)
	v.SetDefault("cache.pool_size", 10)
	v.SetDefault("cache.pool_timeout", "4s")
	v.SetDefault("cache.memory_size", 1000)

	// Directory defaults
	v.SetDefault("directory.backend", domain.DirectorySimulator)
	v.SetDefault("directory.seed", 42)
	v.SetDefault("directory.sqlite_path", "./data/directory.db")
	v.SetDefault("directory.seed_days", 14)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "care_router")
	v.SetDefault("database.username", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle", "30m")
	v.SetDefault("database.migrations_path", "migrations")

	// Pipeline and interview defaults
	v.SetDefault("pipeline.max_results", 5)
	v.SetDefault("pipeline.days_ahead", 14)
	v.SetDefault("pipeline.specialist_fallback", false)
	v.SetDefault("interview.session_capacity", 1000)
	v.SetDefault("interview.max_questions", 0)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetDecisionConfig returns decision-service configuration
func (m *Manager) GetDecisionConfig() *domain.DecisionConfig {
	return &m.config.Decision
}

// GetDatabaseConfig returns database configuration
func (m *Manager) GetDatabaseConfig() *domain.DatabaseConfig {
	return &m.config.Database
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate checks everything the HTTP and MCP servers need at startup
func (m *Manager) Validate() error {
	if err := m.ValidateStorage(); err != nil {
		return err
	}

	decision := m.config.Decision
	if strings.TrimSpace(decision.BaseURL) == "" {
		return domain.NewConfigurationError("decision.base_url", "decision service base URL is required")
	}
	if strings.TrimSpace(decision.AppID) == "" {
		return domain.NewConfigurationError("decision.app_id", "decision service credentials are required")
	}
	if strings.TrimSpace(decision.AppKey) == "" {
		return domain.NewConfigurationError("decision.app_key", "decision service credentials are required")
	}
	if decision.Breaker.FailureRatio < 0 || decision.Breaker.FailureRatio > 1 {
		return domain.NewConfigurationError("decision.breaker.failure_ratio", "must be between 0 and 1")
	}
	return nil
}

// ValidateStorage checks the settings used by commands that never reach the
// decision service, such as seeding and migrations.
func (m *Manager) ValidateStorage() error {
	config := m.config

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return domain.NewConfigurationError("server.port", fmt.Sprintf("invalid server port: %d", config.Server.Port))
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return domain.NewConfigurationError("logging.level", fmt.Sprintf("invalid log level: %s", config.Logging.Level))
	}

	switch config.Directory.Backend {
	case domain.DirectorySimulator:
	case domain.DirectorySQLite:
		if config.Directory.SQLitePath == "" {
			return domain.NewConfigurationError("directory.sqlite_path", "sqlite path is required for the sqlite backend")
		}
	case domain.DirectoryPostgres:
		if config.Database.Host == "" || config.Database.Database == "" {
			return domain.NewConfigurationError("database", "host and database name are required for the postgres backend")
		}
	default:
		return domain.NewConfigurationError("directory.backend", fmt.Sprintf("unknown directory backend: %s", config.Directory.Backend))
	}

	if config.Pipeline.MaxResults <= 0 {
		return domain.NewConfigurationError("pipeline.max_results", "must be positive")
	}
	if config.Pipeline.DaysAhead <= 0 {
		return domain.NewConfigurationError("pipeline.days_ahead", "must be positive")
	}
	if config.Interview.MaxQuestions < 0 {
		return domain.NewConfigurationError("interview.max_questions", "must not be negative")
	}
	return nil
}

// GetDatabaseConnectionString returns a formatted database connection string
func (m *Manager) GetDatabaseConnectionString() string {
	return database.ConfigFrom(m.config.Database).DSN()
}

// GetDatabaseURL returns the database configuration as a postgres URL
func (m *Manager) GetDatabaseURL() string {
	return database.ConfigFrom(m.config.Database).URL()
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(m.config.Environment) == "production"
}

// IsDevelopment returns true if running in development mode
func (m *Manager) IsDevelopment() bool {
	env := strings.ToLower(m.config.Environment)
	return env == "development" || env == "dev" || env == ""
}
