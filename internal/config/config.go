package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for the portal.
type Config struct {
	Environment string           `yaml:"environment" mapstructure:"environment"`
	Log         LogConfig        `yaml:"log" mapstructure:"log"`
	Server      ServerConfig     `yaml:"server" mapstructure:"server"`
	Database    DatabaseConfig   `yaml:"database" mapstructure:"database"`
	Auth        AuthConfig       `yaml:"auth" mapstructure:"auth"`
	MarketData  MarketDataConfig `yaml:"market_data" mapstructure:"market_data"`
	Policy      PolicyConfig     `yaml:"policy" mapstructure:"policy"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host            string        `yaml:"host" mapstructure:"host"`
	Port            int           `yaml:"port" mapstructure:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// DatabaseConfig controls the gorm connection.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn" mapstructure:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
}

// AuthConfig controls the bearer-token middleware.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" mapstructure:"jwt_secret"`
}

// MarketDataConfig controls the external lookup clients and the resilience
// primitives guarding them.
type MarketDataConfig struct {
	QuoteURL       string        `yaml:"quote_url" mapstructure:"quote_url"`
	BondURL        string        `yaml:"bond_url" mapstructure:"bond_url"`
	RateURL        string        `yaml:"rate_url" mapstructure:"rate_url"`
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`

	QuoteCacheTTL      time.Duration `yaml:"quote_cache_ttl" mapstructure:"quote_cache_ttl"`
	QuoteCacheSize     int           `yaml:"quote_cache_size" mapstructure:"quote_cache_size"`
	BondCacheTTL       time.Duration `yaml:"bond_cache_ttl" mapstructure:"bond_cache_ttl"`
	BondCacheSize      int           `yaml:"bond_cache_size" mapstructure:"bond_cache_size"`
	CacheSweepInterval time.Duration `yaml:"cache_sweep_interval" mapstructure:"cache_sweep_interval"`

	Retries    int           `yaml:"retries" mapstructure:"retries"`
	RetryDelay time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"`

	BreakerFailureThreshold int           `yaml:"breaker_failure_threshold" mapstructure:"breaker_failure_threshold"`
	BreakerCooldown         time.Duration `yaml:"breaker_cooldown" mapstructure:"breaker_cooldown"`
}

// PolicyConfig carries the compliance-policy knobs that are business
// decisions rather than code constants.
type PolicyConfig struct {
	// WashWindowDays is the lookback window for opposite-direction trades.
	WashWindowDays int `yaml:"wash_window_days" mapstructure:"wash_window_days"`
	// MaxTradeAmountUSD caps single-trade notional for display warnings.
	// Zero disables the check.
	MaxTradeAmountUSD float64 `yaml:"max_trade_amount_usd" mapstructure:"max_trade_amount_usd"`
}

// Load reads configuration from the given YAML file (optional) and the
// environment (prefix CLEARDESK, dots replaced by underscores).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("CLEARDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("market_data.quote_url", "https://query1.finance.yahoo.com/v7/finance/quote")
	v.SetDefault("market_data.rate_url", "https://api.exchangerate-api.com/v4/latest")
	v.SetDefault("market_data.request_timeout", 5*time.Second)
	v.SetDefault("market_data.quote_cache_ttl", 5*time.Minute)
	v.SetDefault("market_data.quote_cache_size", 1000)
	v.SetDefault("market_data.bond_cache_ttl", time.Hour)
	v.SetDefault("market_data.bond_cache_size", 500)
	v.SetDefault("market_data.cache_sweep_interval", 10*time.Minute)
	v.SetDefault("market_data.retries", 2)
	v.SetDefault("market_data.retry_delay", time.Second)
	v.SetDefault("market_data.breaker_failure_threshold", 5)
	v.SetDefault("market_data.breaker_cooldown", 30*time.Second)

	v.SetDefault("policy.wash_window_days", 30)
	v.SetDefault("policy.max_trade_amount_usd", 0)
}

// Validate checks required values and rejects nonsensical knobs.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.MarketData.QuoteCacheSize <= 0 {
		return fmt.Errorf("market_data.quote_cache_size must be positive")
	}
	if c.MarketData.BondCacheSize <= 0 {
		return fmt.Errorf("market_data.bond_cache_size must be positive")
	}
	if c.MarketData.CacheSweepInterval <= 0 {
		return fmt.Errorf("market_data.cache_sweep_interval must be positive")
	}
	if c.MarketData.Retries < 0 {
		return fmt.Errorf("market_data.retries must not be negative")
	}
	if c.MarketData.BreakerFailureThreshold <= 0 {
		return fmt.Errorf("market_data.breaker_failure_threshold must be positive")
	}
	if c.Policy.WashWindowDays <= 0 {
		return fmt.Errorf("policy.wash_window_days must be positive")
	}
	return nil
}
