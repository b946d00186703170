// Package config loads the gateway's configuration from ragchat.yaml with
// environment variable overrides, and hot-reloads it on file change.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/vantri-labs/ragchat/internal/drive"
	"github.com/vantri-labs/ragchat/internal/llm"
	"github.com/vantri-labs/ragchat/internal/retrieval"
)

// DefaultPath is used when CONFIG_PATH is unset.
const DefaultPath = "./config/ragchat.yaml"

// GatewayConfig holds the HTTP server settings.
type GatewayConfig struct {
	Port          int           `mapstructure:"port"`
	PublicBaseURL string        `mapstructure:"public_base_url"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	RateLimitRPS  int           `mapstructure:"rate_limit_rps"`
}

// AuthConfig holds JWT settings.
type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	AccessExpiry  time.Duration `mapstructure:"access_expiry"`
	SkipAuth      bool          `mapstructure:"skip_auth"`
}

// RedisConfig holds cache store settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DatabaseConfig holds the Postgres DSN for the upload registry.
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// CatalogConfig holds catalog cache settings.
type CatalogConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// LoggingConfig holds zap settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config is the full gateway configuration.
type Config struct {
	Gateway   GatewayConfig     `mapstructure:"gateway"`
	Auth      AuthConfig        `mapstructure:"auth"`
	Redis     RedisConfig       `mapstructure:"redis"`
	Database  DatabaseConfig    `mapstructure:"database"`
	Catalog   CatalogConfig     `mapstructure:"catalog"`
	Retrieval retrieval.Config  `mapstructure:"retrieval"`
	LLM       llm.Config        `mapstructure:"llm"`
	Drive     drive.OAuthConfig `mapstructure:"drive"`
	Logging   LoggingConfig     `mapstructure:"logging"`
}

// Path returns the config file path from CONFIG_PATH or the default.
func Path() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads the config file and applies environment overrides. Environment
// keys mirror the YAML structure with RAGCHAT_ prefix and underscores, e.g.
// RAGCHAT_RETRIEVAL_API_KEY.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetEnvPrefix("RAGCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the gateway cannot run without.
func (c *Config) Validate() error {
	if c.Retrieval.BaseURL == "" {
		return fmt.Errorf("config: retrieval.base_url is required")
	}
	if c.Retrieval.CollectionID == "" {
		return fmt.Errorf("config: retrieval.collection_id is required")
	}
	if !c.Auth.SkipAuth && c.Auth.JWTSecret == "" {
		return fmt.Errorf("config: auth.jwt_secret is required unless auth.skip_auth is set")
	}
	if c.Gateway.Port <= 0 || c.Gateway.Port > 65535 {
		return fmt.Errorf("config: gateway.port %d is out of range", c.Gateway.Port)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("gateway.port", 8080)
	v.SetDefault("gateway.read_timeout", 30*time.Second)
	v.SetDefault("gateway.write_timeout", 120*time.Second)
	v.SetDefault("gateway.rate_limit_rps", 10)

	v.SetDefault("auth.access_expiry", time.Hour)

	v.SetDefault("redis.addr", "localhost:6379")

	v.SetDefault("catalog.cache_ttl", 5*time.Minute)

	v.SetDefault("retrieval.limit", 20)
	v.SetDefault("retrieval.list_limit", 100)
	v.SetDefault("retrieval.timeout", 15*time.Second)

	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("llm.requests_per_minute", 60)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
