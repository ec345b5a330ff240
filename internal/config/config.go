// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig        `mapstructure:"app"`
	Scan      ScanConfig       `mapstructure:"scan"`
	Execution ExecutionConfig  `mapstructure:"execution"`
	Providers []ProviderConfig `mapstructure:"providers"`
	Redis     RedisConfig      `mapstructure:"redis"`
	Postgres  PostgresConfig   `mapstructure:"postgres"`
	Notify    NotifyConfig     `mapstructure:"notify"`
	Telemetry TelemetryConfig  `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	TUIMode     bool   `mapstructure:"-"` // Set at runtime, not from config file
}

// ScanConfig holds detection-cycle configuration.
type ScanConfig struct {
	Sports           []string      `mapstructure:"sports"`
	MinProfitPct     float64       `mapstructure:"min_profit_threshold"`
	MaxStake         float64       `mapstructure:"max_stake"`
	PlatformStakeCap float64       `mapstructure:"platform_stake_cap"`
	PollInterval     time.Duration `mapstructure:"poll_interval"`
	ErrorBackoff     time.Duration `mapstructure:"error_backoff"`
	FetchTimeout     time.Duration `mapstructure:"fetch_timeout"`
}

// MinProfitPctDecimal returns the profit threshold as decimal.Decimal.
func (c *ScanConfig) MinProfitPctDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinProfitPct)
}

// MaxStakeDecimal returns the per-opportunity stake limit as decimal.Decimal.
func (c *ScanConfig) MaxStakeDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MaxStake)
}

// PlatformStakeCapDecimal returns the platform-wide stake cap as decimal.Decimal.
func (c *ScanConfig) PlatformStakeCapDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.PlatformStakeCap)
}

// ExecutionConfig holds bet-execution configuration.
type ExecutionConfig struct {
	AutoExecute    bool          `mapstructure:"auto_execute"`
	Workers        int           `mapstructure:"workers"`
	LockTTL        time.Duration `mapstructure:"lock_ttl"`
	RevalidateOdds bool          `mapstructure:"revalidate_odds"`
	LegTimeout     time.Duration `mapstructure:"leg_timeout"`
}

// ProviderConfig describes one bookmaker/exchange connection.
type ProviderConfig struct {
	Name              string `mapstructure:"name"`
	Kind              string `mapstructure:"kind"` // "rest" or "exchange"
	BaseURL           string `mapstructure:"base_url"`
	WebSocketURL      string `mapstructure:"websocket_url"`
	APIKey            string `mapstructure:"api_key"`
	APIKeyEnv         string `mapstructure:"api_key_env"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
	SupportsCancel    bool   `mapstructure:"supports_cancel"`
}

// RedisConfig holds optional Redis connection parameters (distributed lock).
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Enabled reports whether a Redis endpoint was configured.
func (c *RedisConfig) Enabled() bool { return c.Addr != "" }

// PostgresConfig holds optional Postgres connection parameters (audit store).
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// Enabled reports whether a Postgres DSN was configured.
func (c *PostgresConfig) Enabled() bool { return c.DSN != "" }

// NotifyConfig holds operator notification settings.
type NotifyConfig struct {
	TelegramToken  string   `mapstructure:"telegram_token"`
	TelegramChatID string   `mapstructure:"telegram_chat_id"`
	Events         []string `mapstructure:"events"`
}

// Enabled reports whether at least one notification channel was configured.
func (c *NotifyConfig) Enabled() bool { return c.TelegramToken != "" && c.TelegramChatID != "" }

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
	HealthPort     int    `mapstructure:"health_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("SUREBET")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.resolveSecrets()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "SUREBET_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "SUREBET_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "SUREBET_LOG_LEVEL", "LOG_LEVEL")

	// Scan
	v.BindEnv("scan.min_profit_threshold", "SUREBET_MIN_PROFIT_THRESHOLD", "MIN_PROFIT_THRESHOLD")
	v.BindEnv("scan.max_stake", "SUREBET_MAX_STAKE", "MAX_STAKE")
	v.BindEnv("scan.platform_stake_cap", "SUREBET_PLATFORM_STAKE_CAP")
	v.BindEnv("scan.sports", "SUREBET_SPORTS")

	// Execution
	v.BindEnv("execution.auto_execute", "SUREBET_AUTO_EXECUTE")

	// Redis / Postgres
	v.BindEnv("redis.addr", "SUREBET_REDIS_ADDR", "REDIS_ADDR")
	v.BindEnv("postgres.dsn", "SUREBET_POSTGRES_DSN", "DATABASE_URL")

	// Notify
	v.BindEnv("notify.telegram_token", "SUREBET_TELEGRAM_TOKEN", "TELEGRAM_BOT_TOKEN")
	v.BindEnv("notify.telegram_chat_id", "SUREBET_TELEGRAM_CHAT_ID", "TELEGRAM_CHAT_ID")

	// Telemetry
	v.BindEnv("telemetry.enabled", "SUREBET_TELEMETRY_ENABLED")
	v.BindEnv("telemetry.service_name", "SUREBET_SERVICE_NAME", "OTEL_SERVICE_NAME")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "surebet")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Scan defaults
	v.SetDefault("scan.sports", []string{"football", "tennis", "basketball"})
	v.SetDefault("scan.min_profit_threshold", 1.0)
	v.SetDefault("scan.max_stake", 100.0)
	v.SetDefault("scan.platform_stake_cap", 1000.0)
	v.SetDefault("scan.poll_interval", "30s")
	v.SetDefault("scan.error_backoff", "60s")
	v.SetDefault("scan.fetch_timeout", "5s")

	// Execution defaults
	v.SetDefault("execution.auto_execute", false)
	v.SetDefault("execution.workers", 4)
	v.SetDefault("execution.lock_ttl", "30s")
	v.SetDefault("execution.revalidate_odds", true)
	v.SetDefault("execution.leg_timeout", "10s")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "surebet")
	v.SetDefault("telemetry.prometheus_port", 9090)
	v.SetDefault("telemetry.health_port", 8081)
}

// resolveSecrets fills provider API keys from their configured env vars.
// Keys never live in the config file; api_key_env names the variable to read.
func (c *Config) resolveSecrets() {
	for i := range c.Providers {
		p := &c.Providers[i]
		if p.APIKey == "" && p.APIKeyEnv != "" {
			p.APIKey = os.Getenv(p.APIKeyEnv)
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Scan.MinProfitPct < 0 {
		return fmt.Errorf("scan.min_profit_threshold must not be negative")
	}
	if c.Scan.MaxStake <= 0 {
		return fmt.Errorf("scan.max_stake must be positive")
	}
	if c.Scan.PlatformStakeCap <= 0 {
		return fmt.Errorf("scan.platform_stake_cap must be positive")
	}
	if len(c.Scan.Sports) == 0 {
		return fmt.Errorf("scan.sports cannot be empty")
	}
	if len(c.Providers) < 2 {
		return fmt.Errorf("at least two providers are required, got %d", len(c.Providers))
	}
	seen := make(map[string]bool, len(c.Providers))
	for _, p := range c.Providers {
		name := strings.ToLower(strings.TrimSpace(p.Name))
		if name == "" {
			return fmt.Errorf("provider name cannot be empty")
		}
		if seen[name] {
			return fmt.Errorf("duplicate provider %q", name)
		}
		seen[name] = true
		switch p.Kind {
		case "rest":
			if p.BaseURL == "" {
				return fmt.Errorf("provider %q: base_url is required for rest providers", name)
			}
		case "exchange":
			if p.WebSocketURL == "" {
				return fmt.Errorf("provider %q: websocket_url is required for exchange providers", name)
			}
		default:
			return fmt.Errorf("provider %q: unknown kind %q", name, p.Kind)
		}
	}
	if c.Execution.Workers <= 0 {
		return fmt.Errorf("execution.workers must be positive")
	}
	return nil
}
