package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the analysis engine
type Config struct {
	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Analysis provider configuration
	Providers []ProviderConfig `mapstructure:"providers"`

	// Consensus and temporal engine configuration
	Engine EngineConfig `mapstructure:"engine"`

	// Database configuration for the audit store
	Database DatabaseConfig `mapstructure:"database"`

	// Monitoring configuration
	Monitoring MonitoringConfig `mapstructure:"monitoring"`

	// Logging configuration
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	IdleTimeout  int    `mapstructure:"idle_timeout"`
}

// ProviderConfig holds the static configuration of one analysis provider
type ProviderConfig struct {
	Name      string   `mapstructure:"name"`
	Endpoint  string   `mapstructure:"endpoint"`
	Model     string   `mapstructure:"model"`
	APIKeyEnv string   `mapstructure:"api_key_env"`
	// Capabilities is a subset of {text, vision, multimodal}
	Capabilities []string `mapstructure:"capabilities"`
	// Reliability is the static prior trust in (0,1]
	Reliability float64 `mapstructure:"reliability"`
	// TimeoutSeconds bounds one invocation; 0 disables the per-call deadline
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	// RateLimitPerMin throttles outbound calls; 0 disables throttling
	RateLimitPerMin int `mapstructure:"rate_limit_per_min"`
}

// EngineConfig holds consensus and temporal engine tunables
type EngineConfig struct {
	// CallTimeoutSeconds bounds every provider invocation in a batch;
	// 0 disables the deadline and waits for literally everything
	CallTimeoutSeconds int `mapstructure:"call_timeout_seconds"`
	// HistoryWindow is the per-subject bounded sample window
	HistoryWindow int `mapstructure:"history_window"`
	// PredictionDays is the default forward-prediction horizon
	PredictionDays int `mapstructure:"prediction_days"`
	// ConfidenceDecay is the per-day prediction confidence decay
	ConfidenceDecay float64 `mapstructure:"confidence_decay"`
	// FallbackDiscount is applied to provider reliability when heuristic
	// extraction replaced a structured parse
	FallbackDiscount float64 `mapstructure:"fallback_discount"`
	// MaxRecommendations caps the consensus recommendation list
	MaxRecommendations int `mapstructure:"max_recommendations"`
}

// DatabaseConfig holds audit store database configuration
type DatabaseConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// MonitoringConfig holds monitoring configuration
type MonitoringConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	MetricsPath    string  `mapstructure:"metrics_path"`
	HealthPath     string  `mapstructure:"health_path"`
	TracingEnabled bool    `mapstructure:"tracing_enabled"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	SamplingRate   float64 `mapstructure:"sampling_rate"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/recovery-engine")

	// Set default values
	setDefaults()

	// Enable environment variable support
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Override with environment variables
	overrideWithEnv(&config)

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30)
	viper.SetDefault("server.write_timeout", 30)
	viper.SetDefault("server.idle_timeout", 120)

	// Engine defaults
	viper.SetDefault("engine.call_timeout_seconds", 30)
	viper.SetDefault("engine.history_window", 90)
	viper.SetDefault("engine.prediction_days", 7)
	viper.SetDefault("engine.confidence_decay", 0.08)
	viper.SetDefault("engine.fallback_discount", 0.75)
	viper.SetDefault("engine.max_recommendations", 5)

	// Database defaults
	viper.SetDefault("database.enabled", false)
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "recovery_engine")
	viper.SetDefault("database.user", "recovery_engine")
	viper.SetDefault("database.ssl_mode", "require")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 300)

	// Monitoring defaults
	viper.SetDefault("monitoring.enabled", true)
	viper.SetDefault("monitoring.metrics_path", "/metrics")
	viper.SetDefault("monitoring.health_path", "/health")
	viper.SetDefault("monitoring.tracing_enabled", false)
	viper.SetDefault("monitoring.sampling_rate", 0.1)

	// Logging defaults
	viper.SetDefault("log_level", "info")
}

// overrideWithEnv overrides configuration with environment variables
func overrideWithEnv(config *Config) {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		config.LogLevel = logLevel
	}

	if dbPassword := os.Getenv("DATABASE_PASSWORD"); dbPassword != "" {
		config.Database.Password = dbPassword
	}
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Engine.HistoryWindow < 3 {
		return fmt.Errorf("history window must hold at least 3 samples, got %d", config.Engine.HistoryWindow)
	}

	if config.Engine.FallbackDiscount <= 0 || config.Engine.FallbackDiscount > 1 {
		return fmt.Errorf("fallback discount must be in (0,1], got %f", config.Engine.FallbackDiscount)
	}

	for _, p := range config.Providers {
		if p.Name == "" {
			return fmt.Errorf("provider name is required")
		}
		if p.Endpoint == "" {
			return fmt.Errorf("provider %s: endpoint is required", p.Name)
		}
		if p.Reliability <= 0 || p.Reliability > 1 {
			return fmt.Errorf("provider %s: reliability must be in (0,1], got %f", p.Name, p.Reliability)
		}
		if len(p.Capabilities) == 0 {
			return fmt.Errorf("provider %s: at least one capability is required", p.Name)
		}
		for _, c := range p.Capabilities {
			if c != "text" && c != "vision" && c != "multimodal" {
				return fmt.Errorf("provider %s: unknown capability %q", p.Name, c)
			}
		}
	}

	if config.Database.Enabled && config.Database.Password == "" {
		return fmt.Errorf("database password is required when the audit store is enabled")
	}

	return nil
}
