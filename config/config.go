package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the assistant service
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Session   SessionConfig   `mapstructure:"session"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Corpus    CorpusConfig    `mapstructure:"corpus"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// LLMConfig contains the Claude model settings used for answer generation
type LLMConfig struct {
	APIKey        string        `mapstructure:"api_key"`
	Model         string        `mapstructure:"model"`
	Temperature   float64       `mapstructure:"temperature"`
	MaxTokens     int           `mapstructure:"max_tokens"`
	MaxToolRounds int           `mapstructure:"max_tool_rounds"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// EmbeddingConfig contains the embedding model settings used for retrieval
type EmbeddingConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SessionConfig controls conversation history storage
type SessionConfig struct {
	Backend    string        `mapstructure:"backend"` // inmemory, redis, postgres
	MaxHistory int           `mapstructure:"max_history"`
	TTL        time.Duration `mapstructure:"ttl"`
}

// StorageConfig contains backing store connection settings
type StorageConfig struct {
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// RedisConfig contains redis connection settings
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// PostgresConfig contains postgres connection settings
type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN builds a postgres connection string from the configured fields.
func (p PostgresConfig) DSN() (string, error) {
	if p.URL != "" {
		return p.URL, nil
	}
	if p.Host == "" || p.DBName == "" {
		return "", fmt.Errorf("postgres not configured (storage.postgres.host/dbname or url)")
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl), nil
}

// CorpusConfig controls document ingestion and retrieval sizing
type CorpusConfig struct {
	Folder       string `mapstructure:"folder"`
	ChunkSize    int    `mapstructure:"chunk_size"`
	ChunkOverlap int    `mapstructure:"chunk_overlap"`
	SearchLimit  int    `mapstructure:"search_limit"`
}

// TelemetryConfig contains monitoring settings
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Validate checks session settings for obvious misconfiguration.
func (s SessionConfig) Validate() error {
	switch s.Backend {
	case "", "inmemory", "redis", "postgres":
	default:
		return fmt.Errorf("session.backend must be inmemory, redis or postgres, got %q", s.Backend)
	}
	if s.MaxHistory < 0 {
		return fmt.Errorf("session.max_history must be >= 0")
	}
	return nil
}

// LoadConfig reads configuration from file and environment into a Config.
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("general.default_timeout", "120s")
	viper.SetDefault("server.address", ":8000")
	viper.SetDefault("llm.model", "claude-sonnet-4-0")
	viper.SetDefault("llm.temperature", 0.0)
	viper.SetDefault("llm.max_tokens", 800)
	viper.SetDefault("llm.max_tool_rounds", 2)
	viper.SetDefault("llm.timeout", "60s")
	viper.SetDefault("embedding.model", "text-embedding-3-small")
	viper.SetDefault("embedding.timeout", "30s")
	viper.SetDefault("session.backend", "inmemory")
	viper.SetDefault("session.max_history", 2)
	viper.SetDefault("session.ttl", "24h")
	viper.SetDefault("storage.redis.addr", "localhost:6379")
	viper.SetDefault("corpus.folder", "docs")
	viper.SetDefault("corpus.chunk_size", 800)
	viper.SetDefault("corpus.chunk_overlap", 100)
	viper.SetDefault("corpus.search_limit", 5)
	viper.SetDefault("telemetry.enabled", true)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("LECTERN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	// Bare API keys fall back to the conventional environment variables.
	if config.LLM.APIKey == "" {
		config.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if config.Embedding.APIKey == "" {
		config.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if err := config.Session.Validate(); err != nil {
		panic(err)
	}

	return &config
}
