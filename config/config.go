package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port        string   `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
	GinMode     string   `yaml:"gin_mode"`
}

type ModelConfig struct {
	Name           string `yaml:"name"`
	EmbeddingModel string `yaml:"embedding_model"`
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
}

type MilvusConfig struct {
	Endpoint   string `yaml:"endpoint"`
	APIKey     string `yaml:"api_key"`
	Collection string `yaml:"collection"`
}

type MySQLConfig struct {
	DSN string `yaml:"dsn"`
}

type UnsplashConfig struct {
	BaseURL   string `yaml:"base_url"`
	AccessKey string `yaml:"access_key"`
}

type ChatConfig struct {
	MaxSteps      int           `yaml:"max_steps"`
	MaxDuration   time.Duration `yaml:"max_duration"`
	RecencyWindow time.Duration `yaml:"recency_window"`
	MaxSessions   int           `yaml:"max_sessions"`
}

type RateLimitConfig struct {
	Limit  int           `yaml:"limit"`
	Window time.Duration `yaml:"window"`
}

type RetentionConfig struct {
	Session  time.Duration `yaml:"session"`
	Feedback time.Duration `yaml:"feedback"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Model     ModelConfig     `yaml:"model"`
	Milvus    MilvusConfig    `yaml:"milvus"`
	MySQL     MySQLConfig     `yaml:"mysql"`
	Unsplash  UnsplashConfig  `yaml:"unsplash"`
	Chat      ChatConfig      `yaml:"chat"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Retention RetentionConfig `yaml:"retention"`
}

// Load reads the YAML config file and applies environment overrides for
// secrets. Missing file falls back to defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	applyEnv(cfg)
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    "8080",
			GinMode: "release",
		},
		Model: ModelConfig{
			Name:           "qwen-plus",
			EmbeddingModel: "text-embedding-v4",
			BaseURL:        "https://dashscope.aliyuncs.com/compatible-mode/v1",
		},
		Milvus: MilvusConfig{
			Collection: "mango_knowledge",
		},
		Unsplash: UnsplashConfig{
			BaseURL: "https://api.unsplash.com",
		},
		Chat: ChatConfig{
			MaxSteps:      5,
			MaxDuration:   60 * time.Second,
			RecencyWindow: 90 * time.Second,
			MaxSessions:   20,
		},
		RateLimit: RateLimitConfig{
			Limit:  20,
			Window: time.Minute,
		},
		Retention: RetentionConfig{
			Session:  30 * 24 * time.Hour,
			Feedback: 90 * 24 * time.Hour,
		},
	}
}

func applyEnv(cfg *Config) {
	cfg.Model.APIKey = getEnv("MODEL_API_KEY", cfg.Model.APIKey)
	cfg.Milvus.Endpoint = getEnv("MILVUS_ENDPOINT", cfg.Milvus.Endpoint)
	cfg.Milvus.APIKey = getEnv("MILVUS_API_KEY", cfg.Milvus.APIKey)
	cfg.MySQL.DSN = getEnv("MYSQL_DSN", cfg.MySQL.DSN)
	cfg.Unsplash.AccessKey = getEnv("UNSPLASH_ACCESS_KEY", cfg.Unsplash.AccessKey)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
