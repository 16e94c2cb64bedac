package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/santiagomed/pagegen/errs"
	"github.com/santiagomed/pagegen/llm"
	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
type Config struct {
	AI        AIConfig        `mapstructure:"ai"`
	Pages     PagesConfig     `mapstructure:"pages"`
	WordPress WordPressConfig `mapstructure:"wordpress"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Templates TemplatesConfig `mapstructure:"templates"`
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
}

type AIConfig struct {
	DefaultModel string        `mapstructure:"default_model"`
	OpenAIKey    string        `mapstructure:"openai_api_key"`
	ClaudeKey    string        `mapstructure:"claude_api_key"`
	GeminiKey    string        `mapstructure:"gemini_api_key"`
	OpenAIModel  string        `mapstructure:"openai_model"`
	ClaudeModel  string        `mapstructure:"claude_model"`
	GeminiModel  string        `mapstructure:"gemini_model"`
	MaxTokens    int           `mapstructure:"max_tokens"`
	Temperature  float32       `mapstructure:"temperature"`
	Timeout      time.Duration `mapstructure:"timeout"`
	TellmURL     string        `mapstructure:"tellm_url"`

	OpenAIBaseURL  string `mapstructure:"openai_base_url"`
	ClaudeURL      string `mapstructure:"claude_url"`
	GeminiEndpoint string `mapstructure:"gemini_endpoint"`
}

type PagesConfig struct {
	Status         string `mapstructure:"status"`
	PrimaryColor   string `mapstructure:"primary_color"`
	SecondaryColor string `mapstructure:"secondary_color"`
}

type WordPressConfig struct {
	URL         string `mapstructure:"url"`
	Username    string `mapstructure:"username"`
	AppPassword string `mapstructure:"app_password"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN is the lib/pq connection string, empty when no host is configured.
func (p PostgresConfig) DSN() string {
	if p.Host == "" {
		return ""
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

type RedisConfig struct {
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type TemplatesConfig struct {
	Dir string `mapstructure:"dir"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	Dir   string `mapstructure:"dir"`
}

type ServerConfig struct {
	Addr    string `mapstructure:"addr"`
	Workers int    `mapstructure:"workers"`
}

var pageStatuses = map[string]bool{"draft": true, "publish": true, "private": true}

// LoadConfig reads configuration from .env, an optional config.yaml and the
// environment. Environment variables use the PAGEGEN_ prefix with "." replaced
// by "_", e.g. PAGEGEN_AI_MAX_TOKENS. Provider keys are also read from their
// usual names.
func LoadConfig(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".pagegen"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("PAGEGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("ai.openai_api_key", "PAGEGEN_AI_OPENAI_API_KEY", "OPENAI_API_KEY")
	v.BindEnv("ai.claude_api_key", "PAGEGEN_AI_CLAUDE_API_KEY", "ANTHROPIC_API_KEY", "CLAUDE_API_KEY")
	v.BindEnv("ai.gemini_api_key", "PAGEGEN_AI_GEMINI_API_KEY", "GEMINI_API_KEY")
	v.BindEnv("ai.tellm_url", "PAGEGEN_AI_TELLM_URL", "TELLM_URL")
	v.BindEnv("postgres.password", "PAGEGEN_POSTGRES_PASSWORD", "PGPASSWORD")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ai.default_model", "openai")
	v.SetDefault("ai.openai_api_key", "")
	v.SetDefault("ai.claude_api_key", "")
	v.SetDefault("ai.gemini_api_key", "")
	v.SetDefault("ai.openai_model", llm.DefaultOpenAIModel)
	v.SetDefault("ai.claude_model", llm.DefaultClaudeModel)
	v.SetDefault("ai.gemini_model", llm.DefaultGeminiModel)
	v.SetDefault("ai.max_tokens", 1000)
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.tellm_url", "")

	v.SetDefault("pages.status", "draft")
	v.SetDefault("pages.primary_color", "#667eea")
	v.SetDefault("pages.secondary_color", "#764ba2")

	v.SetDefault("wordpress.url", "")
	v.SetDefault("wordpress.username", "")
	v.SetDefault("wordpress.app_password", "")

	v.SetDefault("postgres.host", "")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.database", "pagegen")
	v.SetDefault("postgres.sslmode", "disable")

	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", time.Hour)

	v.SetDefault("templates.dir", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.dir", "")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.workers", 4)
}

// Validate rejects settings no request could succeed with.
func (c *Config) Validate() error {
	if _, err := llm.ParseModel(c.AI.DefaultModel); err != nil {
		return err
	}
	if !pageStatuses[c.Pages.Status] {
		return errs.Configuration(errs.CodeInvalidConfig, fmt.Sprintf("Invalid page status %q.", c.Pages.Status))
	}
	if c.AI.MaxTokens <= 0 {
		return errs.Configuration(errs.CodeInvalidConfig, "Max tokens must be positive.")
	}
	if c.Server.Workers <= 0 {
		return errs.Configuration(errs.CodeInvalidConfig, "Server workers must be positive.")
	}
	return nil
}

// LLM returns the provider settings for the generator factory.
func (c *Config) LLM() llm.Config {
	return llm.Config{
		OpenAIKey:   c.AI.OpenAIKey,
		ClaudeKey:   c.AI.ClaudeKey,
		GeminiKey:   c.AI.GeminiKey,
		OpenAIModel: c.AI.OpenAIModel,
		ClaudeModel: c.AI.ClaudeModel,
		GeminiModel: c.AI.GeminiModel,
		MaxTokens:   c.AI.MaxTokens,
		Temperature: c.AI.Temperature,
		Timeout:     c.AI.Timeout,
		TellmURL:    c.AI.TellmURL,

		OpenAIBaseURL:  c.AI.OpenAIBaseURL,
		ClaudeURL:      c.AI.ClaudeURL,
		GeminiEndpoint: c.AI.GeminiEndpoint,
	}
}
