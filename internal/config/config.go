package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/natebrady-cyera/deep-thought/internal/db/models"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load, e.g. DEEPTHOUGHT_DATABASE_URL.
const EnvPrefix = "DEEPTHOUGHT"

// devJWTSecret is used only when debug is on and no secret was configured.
const devJWTSecret = "insecure-dev-secret-change-me"

// Config holds the application configuration. It is loaded once and passed
// explicitly to every component that needs it.
type Config struct {
	AppName string `mapstructure:"app_name"`
	Version string `mapstructure:"version"`
	Debug   bool   `mapstructure:"debug"`

	// Server bind address (host:port)
	ServerAddr     string   `mapstructure:"server_addr"`
	APIPrefix      string   `mapstructure:"api_prefix"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	// Database connection string: postgres:// URL or SQLite path
	DatabaseURL      string `mapstructure:"database_url"`
	MaxDBConnections int    `mapstructure:"max_db_connections"`

	// Email promoted to ADMIN on login. Stored lowercase.
	BootstrapAdminEmail string `mapstructure:"bootstrap_admin_email"`

	JWT JWTConfig `mapstructure:"jwt"`
	LLM LLMConfig `mapstructure:"llm"`

	// Soft budget for assembled canvas context, in approximate tokens.
	MaxContextTokens int `mapstructure:"max_context_tokens"`

	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
}

// JWTConfig configures access token issuance.
type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Issuer string        `mapstructure:"issuer"`
	Expiry time.Duration `mapstructure:"expiry"`
}

// LLMConfig selects and configures the completion provider.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"`
	Model       string        `mapstructure:"model"`
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	UseBedrock  bool          `mapstructure:"use_bedrock"`
	AWSRegion   string        `mapstructure:"aws_region"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// RateLimitConfig configures the per-user request limiter. An empty RedisURL disables it.
type RateLimitConfig struct {
	RedisURL  string `mapstructure:"redis_url"`
	PerMinute int    `mapstructure:"per_minute"`
}

// LogConfig configures the zerolog logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Supported completion providers.
const (
	ProviderClaude = "claude"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "Deep Thought")
	v.SetDefault("version", "0.1.0")
	v.SetDefault("debug", false)
	v.SetDefault("server_addr", "localhost:8080")
	v.SetDefault("api_prefix", "/api/v1")
	v.SetDefault("allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("database_url", "sqlite://./data/deep-thought.db")
	v.SetDefault("max_db_connections", 25)
	v.SetDefault("bootstrap_admin_email", "")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "deep-thought")
	v.SetDefault("jwt.expiry", "24h")

	v.SetDefault("llm.provider", ProviderClaude)
	v.SetDefault("llm.model", "us.anthropic.claude-sonnet-4-5-20250929-v1:0")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.use_bedrock", true)
	v.SetDefault("llm.aws_region", "us-east-1")
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.temperature", 1.0)
	v.SetDefault("llm.timeout", "120s")

	v.SetDefault("max_context_tokens", 100000)

	v.SetDefault("rate_limit.redis_url", "")
	v.SetDefault("rate_limit.per_minute", 100)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load reads configuration from the global viper instance: bound flags, then
// DEEPTHOUGHT_ environment variables, then any config file already read, then defaults.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads configuration from v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	c.BootstrapAdminEmail = models.NormalizeEmail(c.BootstrapAdminEmail)
	c.APIPrefix = "/" + strings.Trim(c.APIPrefix, "/")
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))

	if c.DatabaseURL == "" {
		return fmt.Errorf("database_url is required")
	}

	if c.JWT.Secret == "" {
		if !c.Debug {
			return fmt.Errorf("jwt.secret is required unless debug is enabled")
		}
		c.JWT.Secret = devJWTSecret
	}
	if c.JWT.Expiry <= 0 {
		return fmt.Errorf("jwt.expiry must be positive")
	}

	switch c.LLM.Provider {
	case ProviderClaude, ProviderOpenAI, ProviderOllama:
	default:
		return fmt.Errorf("llm.provider %q is not one of %s, %s, %s", c.LLM.Provider, ProviderClaude, ProviderOpenAI, ProviderOllama)
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm.max_tokens must be positive")
	}

	if c.RateLimit.PerMinute <= 0 {
		return fmt.Errorf("rate_limit.per_minute must be positive")
	}
	return nil
}

// UsingDevSecret reports whether the insecure debug JWT secret is in effect.
func (c *Config) UsingDevSecret() bool {
	return c.JWT.Secret == devJWTSecret
}
