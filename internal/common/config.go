package common

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Watch    WatchConfig
	DocIntel DocIntelConfig
	LLM      LLMConfig
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	GRPCAddr string
}

// WatchConfig holds inbound-document watcher configuration.
type WatchConfig struct {
	Root       string
	Debounce   time.Duration
	Workers    int
	RunTimeout time.Duration // per-document pipeline deadline
}

// DocIntelConfig holds the text-extraction service configuration.
type DocIntelConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// LLMConfig holds the semantic-extraction service configuration.
type LLMConfig struct {
	BaseURL     string
	Model       string
	APIKey      string
	Temperature float32
	Timeout     time.Duration
	RPM         int // requests per minute against the chat endpoint
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", ""),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Server: ServerConfig{
			GRPCAddr: getEnv("GRPC_ADDR", ":8080"),
		},
		Watch: WatchConfig{
			Root:       getEnv("WATCH_ROOT", "./contracts"),
			Debounce:   getEnvAsDuration("WATCH_DEBOUNCE", 500*time.Millisecond),
			Workers:    getEnvAsInt("WATCH_WORKERS", 4),
			RunTimeout: getEnvAsDuration("PIPELINE_TIMEOUT", 5*time.Minute),
		},
		DocIntel: DocIntelConfig{
			Endpoint: getEnv("DOCUMENT_INTELLIGENCE_ENDPOINT", ""),
			APIKey:   getEnv("DOCUMENT_INTELLIGENCE_KEY", ""),
			Timeout:  getEnvAsDuration("DOCUMENT_INTELLIGENCE_TIMEOUT", 90*time.Second),
		},
		LLM: LLMConfig{
			BaseURL:     getEnv("OPENAI_BASE_URL", ""),
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 120*time.Second),
			RPM:         getEnvAsInt("OPENAI_RPM", 30),
		},
	}
}

// Validate validates the loaded configuration.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return errors.New("config: DB_URL is required")
	}
	if c.DocIntel.Endpoint == "" || c.DocIntel.APIKey == "" {
		return errors.New("config: DOCUMENT_INTELLIGENCE_ENDPOINT and DOCUMENT_INTELLIGENCE_KEY are required")
	}
	if c.LLM.APIKey == "" {
		return errors.New("config: OPENAI_API_KEY is required")
	}
	return nil
}

// Helper functions for environment variable parsing.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
