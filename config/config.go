package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the research agent.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Agent     AgentConfig     `mapstructure:"agent"`
	Tools     ToolsConfig     `mapstructure:"tools"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Storage   StorageConfig   `mapstructure:"storage"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// LLMConfig contains LLM provider settings.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"` // openai, gemini, anthropic
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// AgentConfig contains agent loop settings.
type AgentConfig struct {
	SystemPrompt      string `mapstructure:"system_prompt"`
	MaxToolIterations int    `mapstructure:"max_tool_iterations"`
}

// ToolsConfig contains settings for the search tool bindings.
type ToolsConfig struct {
	Timeout   time.Duration   `mapstructure:"timeout"`
	Reddit    RedditConfig    `mapstructure:"reddit"`
	WebSearch WebSearchConfig `mapstructure:"web_search"`
	WebFetch  WebFetchConfig  `mapstructure:"web_fetch"`
}

// RedditConfig contains Reddit API credentials and search limits.
type RedditConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	UserAgent    string `mapstructure:"user_agent"`
	SearchLimit  int    `mapstructure:"search_limit"`
}

// WebSearchConfig contains web search settings.
type WebSearchConfig struct {
	Provider     string `mapstructure:"provider"` // serper or brave
	SerperAPIKey string `mapstructure:"serper_api_key"`
	BraveAPIKey  string `mapstructure:"brave_api_key"`
	MaxResults   int    `mapstructure:"max_results"`
}

// WebFetchConfig contains page fetch settings.
type WebFetchConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Timeout  time.Duration `mapstructure:"timeout"`
	MaxChars int           `mapstructure:"max_chars"`
}

// TelemetryConfig contains monitoring settings.
type TelemetryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	LogFile string `mapstructure:"log_file"`
}

// StorageConfig contains persistence settings.
type StorageConfig struct {
	Session  SessionConfig  `mapstructure:"session"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// SessionConfig selects the conversation memory backend.
type SessionConfig struct {
	Backend string        `mapstructure:"backend"` // inmemory or redis
	TTL     time.Duration `mapstructure:"ttl"`
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// PostgresConfig contains Postgres connection settings for the run archive.
type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(path string) (*Config, error) {
	config, err := load(path)
	if err != nil {
		return nil, err
	}
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return config, nil
}

// LoadConfigUnvalidated loads configuration without requiring API keys.
// Commands that never touch the model, like migrations and log
// inspection, use this.
func LoadConfigUnvalidated(path string) (*Config, error) {
	return load(path)
}

func load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("scout")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; defaults plus env are enough to run.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && path != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	overrideFromEnv(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("general.debug", false)
	v.SetDefault("general.log_level", "info")
	v.SetDefault("general.default_timeout", "60s")

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.4)
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.timeout", "60s")

	v.SetDefault("agent.max_tool_iterations", 8)
	v.SetDefault("agent.system_prompt", DefaultSystemPrompt)

	v.SetDefault("tools.timeout", "45s")
	v.SetDefault("tools.reddit.user_agent", "scout research agent")
	v.SetDefault("tools.reddit.search_limit", 8)
	v.SetDefault("tools.web_search.provider", "serper")
	v.SetDefault("tools.web_search.max_results", 8)
	v.SetDefault("tools.web_fetch.enabled", false)
	v.SetDefault("tools.web_fetch.timeout", "15s")
	v.SetDefault("tools.web_fetch.max_chars", 20000)

	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.log_file", "logs/agent_runs.jsonl")

	v.SetDefault("storage.session.backend", "inmemory")
	v.SetDefault("storage.session.ttl", "12h")
	v.SetDefault("storage.redis.host", "localhost")
	v.SetDefault("storage.redis.port", 6379)
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.timeout", "5s")
	v.SetDefault("storage.postgres.port", 5432)
	v.SetDefault("storage.postgres.sslmode", "disable")
	v.SetDefault("storage.postgres.timeout", "5s")
}

// overrideFromEnv overrides configuration with well-known environment variables.
func overrideFromEnv(v *viper.Viper) {
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		v.Set("llm.api_key", apiKey)
	}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" && v.GetString("llm.provider") == "gemini" {
		v.Set("llm.api_key", apiKey)
	}

	if id := os.Getenv("REDDIT_CLIENT_ID"); id != "" {
		v.Set("tools.reddit.client_id", id)
	}
	if secret := os.Getenv("REDDIT_CLIENT_SECRET"); secret != "" {
		v.Set("tools.reddit.client_secret", secret)
	}
	if apiKey := os.Getenv("SERPER_API_KEY"); apiKey != "" {
		v.Set("tools.web_search.serper_api_key", apiKey)
	}
	if apiKey := os.Getenv("BRAVE_SEARCH_KEY"); apiKey != "" {
		v.Set("tools.web_search.brave_api_key", apiKey)
	}

	if host := os.Getenv("REDIS_HOST"); host != "" {
		v.Set("storage.redis.host", host)
	}
	if port := os.Getenv("REDIS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			v.Set("storage.redis.port", p)
		}
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		v.Set("storage.redis.password", password)
	}

	if url := os.Getenv("DATABASE_URL"); url != "" {
		v.Set("storage.postgres.url", url)
	}
	if host := os.Getenv("POSTGRES_HOST"); host != "" {
		v.Set("storage.postgres.host", host)
	}
	if port := os.Getenv("POSTGRES_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			v.Set("storage.postgres.port", p)
		}
	}
	if user := os.Getenv("POSTGRES_USER"); user != "" {
		v.Set("storage.postgres.user", user)
	}
	if pass := os.Getenv("POSTGRES_PASSWORD"); pass != "" {
		v.Set("storage.postgres.password", pass)
	}
	if db := os.Getenv("POSTGRES_DB"); db != "" {
		v.Set("storage.postgres.dbname", db)
	}
}

// validateConfig validates the configuration. Missing LLM credentials are fatal
// at startup; individual tools are skipped when their credentials are absent, but
// a config that can register no search tool at all is rejected.
func validateConfig(config *Config) error {
	if config.LLM.APIKey == "" {
		return fmt.Errorf("LLM API key not set (llm.api_key, OPENAI_API_KEY or GEMINI_API_KEY)")
	}
	switch config.LLM.Provider {
	case "openai", "gemini", "anthropic":
	default:
		return fmt.Errorf("unsupported LLM provider: %s", config.LLM.Provider)
	}

	hasReddit := config.Tools.Reddit.ClientID != "" && config.Tools.Reddit.ClientSecret != ""
	hasWebSearch := config.Tools.WebSearch.SerperAPIKey != "" || config.Tools.WebSearch.BraveAPIKey != ""
	if !hasReddit && !hasWebSearch {
		return fmt.Errorf("no search tool configured (set REDDIT_CLIENT_ID/REDDIT_CLIENT_SECRET or SERPER_API_KEY/BRAVE_SEARCH_KEY)")
	}

	if config.Agent.MaxToolIterations <= 0 {
		return fmt.Errorf("agent.max_tool_iterations must be positive")
	}

	switch config.Storage.Session.Backend {
	case "inmemory", "redis":
	default:
		return fmt.Errorf("unsupported session backend: %s", config.Storage.Session.Backend)
	}

	return nil
}

// PostgresDSN assembles a connection string from the Postgres config.
// Returns empty string when no archive is configured.
func (c PostgresConfig) PostgresDSN() string {
	if c.URL != "" {
		return c.URL
	}
	if c.Host == "" || c.DBName == "" {
		return ""
	}
	port := c.Port
	if port == 0 {
		port = 5432
	}
	ssl := c.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s", c.User, c.Password, c.Host, port, c.DBName, ssl)
}
