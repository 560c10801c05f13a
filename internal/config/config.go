package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/quantflow/cryptoresearch/internal/core"
	"github.com/spf13/viper"
)

// Environment variables honored as API key fallbacks.
const (
	EnvCoinCapAPIKey       = "COINCAP_API_KEY"
	EnvCoinMarketCapAPIKey = "COINMARKETCAP_API_KEY"
)

type Config struct {
	CoinCap       CoinCapConfig       `mapstructure:"coincap"`
	CoinMarketCap CoinMarketCapConfig `mapstructure:"coinmarketcap"`
	LLM           LLMConfig           `mapstructure:"llm"`
	Reports       ReportsConfig       `mapstructure:"reports"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
}

// CoinCapConfig holds settings for the CoinCap market-data provider.
// The API key is optional; it only raises rate limits.
type CoinCapConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	Interval       string `mapstructure:"interval"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// CoinMarketCapConfig holds settings for the CoinMarketCap
// fundamentals provider. The API key is required.
type CoinMarketCapConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// LLMConfig holds research agent LLM settings.
type LLMConfig struct {
	Provider string       `mapstructure:"provider"`
	Claude   ClaudeConfig `mapstructure:"claude"`
	OpenAI   OpenAIConfig `mapstructure:"openai"`
	Ollama   OllamaConfig `mapstructure:"ollama"`
}

// ClaudeConfig holds Anthropic API settings.
type ClaudeConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// OpenAIConfig holds OpenAI API settings.
type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// OllamaConfig holds local Ollama server settings. Both fields are
// optional; the provider falls back to its own defaults.
type OllamaConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
}

// ReportsConfig holds report archive settings.
type ReportsConfig struct {
	Type string   `mapstructure:"type"` // "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file. A .env file next to the working
// directory is loaded first so key lookups see it, matching the
// dotenv convention the CLI documents.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.applyEnvFallbacks()
	return &cfg, nil
}

// setDefaults seeds the same values Defaults returns, so a partial
// config file (say, just an API key) still yields working endpoints.
func setDefaults(v *viper.Viper) {
	v.SetDefault("coincap.base_url", "https://rest.coincap.io")
	v.SetDefault("coincap.interval", "h1")
	v.SetDefault("coincap.timeout_seconds", 10)
	v.SetDefault("coinmarketcap.base_url", "https://pro-api.coinmarketcap.com")
	v.SetDefault("coinmarketcap.timeout_seconds", 10)
	v.SetDefault("llm.provider", "claude")
	v.SetDefault("reports.type", "localfs")
	v.SetDefault("reports.path", "reports")
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9090")
	v.SetDefault("metrics.path", "/metrics")
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	cfg := &Config{
		CoinCap: CoinCapConfig{
			BaseURL:        "https://rest.coincap.io",
			Interval:       "h1",
			TimeoutSeconds: 10,
		},
		CoinMarketCap: CoinMarketCapConfig{
			BaseURL:        "https://pro-api.coinmarketcap.com",
			TimeoutSeconds: 10,
		},
		LLM: LLMConfig{
			Provider: "claude",
		},
		Reports: ReportsConfig{
			Type: "localfs",
			Path: "reports",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
			Path:    "/metrics",
		},
	}
	cfg.applyEnvFallbacks()
	return cfg
}

// applyEnvFallbacks fills API keys from well-known environment
// variables when the config file leaves them empty.
func (c *Config) applyEnvFallbacks() {
	if c.CoinCap.APIKey == "" {
		c.CoinCap.APIKey = os.Getenv(EnvCoinCapAPIKey)
	}
	if c.CoinMarketCap.APIKey == "" {
		c.CoinMarketCap.APIKey = os.Getenv(EnvCoinMarketCapAPIKey)
	}
}

var validIntervals = map[string]bool{
	"m1": true, "m5": true, "m15": true, "m30": true,
	"h1": true, "h2": true, "h6": true, "h12": true, "d1": true,
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.CoinCap.Interval != "" && !validIntervals[c.CoinCap.Interval] {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown coincap interval %q", c.CoinCap.Interval))
	}
	if c.CoinCap.TimeoutSeconds < 0 || c.CoinMarketCap.TimeoutSeconds < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("timeout_seconds cannot be negative"))
	}

	switch c.Reports.Type {
	case "", "localfs":
	case "s3":
		if c.Reports.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("reports.s3.bucket is required for s3 storage"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown reports type %q", c.Reports.Type))
	}

	switch c.LLM.Provider {
	case "", "claude", "openai", "ollama":
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown llm provider %q", c.LLM.Provider))
	}

	return nil
}
