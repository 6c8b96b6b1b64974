package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for interview-coach
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Storage   StorageConfig
	Diagrams  DiagramsConfig
	LLM       LLMConfig
	Problems  ProblemsConfig
	Runner    RunnerConfig
	Rounds    RoundsConfig
	Sessions  SessionsConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// StorageConfig selects the interview state backend
type StorageConfig struct {
	Backend       string
	Dir           string
	RedisAddress  string
	RedisPassword string
	RedisDB       int
	PostgresDSN   string
}

// DiagramsConfig selects the diagram backend
type DiagramsConfig struct {
	Backend     string
	Dir         string
	PostgresDSN string
}

// LLMConfig holds Gemini configuration
type LLMConfig struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
}

// ProblemsConfig holds problem source configuration
type ProblemsConfig struct {
	BaseURL string
	Timeout time.Duration
}

// RunnerConfig holds code execution configuration
type RunnerConfig struct {
	Backend           string
	JDoodleClientID   string
	JDoodleSecret     string
	JDoodleEndpoint   string
	JDoodleRatePerSec float64
	DockerHost        string
	DockerPullPolicy  string
	DockerTimeout     time.Duration
	DockerMemoryBytes int64
}

// RoundsConfig holds the optional round table override file
type RoundsConfig struct {
	File        string
	GracePeriod time.Duration
}

// SessionsConfig holds session cleanup configuration
type SessionsConfig struct {
	IdleTTL         time.Duration
	CleanupInterval time.Duration
}

// RateLimitConfig limits LLM-backed requests per client IP
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// Load reads an optional .env file, then configuration from environment
// variables. Variables already set in the environment win over .env.
func Load() (*Config, error) {
	if err := godotenv.Load(getEnv("ENV_FILE", ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Storage: StorageConfig{
			Backend:       getEnv("STORAGE_BACKEND", "file"),
			Dir:           getEnv("STORAGE_DIR", "./data/state"),
			RedisAddress:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("REDIS_DB", 0),
			PostgresDSN:   getEnv("DATABASE_DSN", ""),
		},
		Diagrams: DiagramsConfig{
			Backend:     getEnv("DIAGRAMS_BACKEND", "file"),
			Dir:         getEnv("DIAGRAMS_DIR", "./data/diagrams"),
			PostgresDSN: getEnv("DIAGRAMS_DATABASE_DSN", getEnv("DATABASE_DSN", "")),
		},
		LLM: LLMConfig{
			APIKey:   getEnv("GEMINI_API_KEY", ""),
			Endpoint: getEnv("GEMINI_ENDPOINT", ""),
			Timeout:  getEnvAsDuration("GEMINI_TIMEOUT", 60*time.Second),
		},
		Problems: ProblemsConfig{
			BaseURL: getEnv("LEETCODE_API_URL", ""),
			Timeout: getEnvAsDuration("LEETCODE_TIMEOUT", 30*time.Second),
		},
		Runner: RunnerConfig{
			Backend:           getEnv("RUNNER_BACKEND", "jdoodle"),
			JDoodleClientID:   getEnv("JDOODLE_CLIENT_ID", ""),
			JDoodleSecret:     getEnv("JDOODLE_CLIENT_SECRET", ""),
			JDoodleEndpoint:   getEnv("JDOODLE_ENDPOINT", ""),
			JDoodleRatePerSec: getEnvAsFloat("JDOODLE_RATE_PER_SEC", 2),
			DockerHost:        getEnv("DOCKER_HOST", "unix:///var/run/docker.sock"),
			DockerPullPolicy:  getEnv("DOCKER_PULL_POLICY", "if-not-present"),
			DockerTimeout:     getEnvAsDuration("DOCKER_RUN_TIMEOUT", 10*time.Second),
			DockerMemoryBytes: int64(getEnvAsInt("DOCKER_MEMORY_MB", 256)) << 20,
		},
		Rounds: RoundsConfig{
			File:        getEnv("ROUNDS_FILE", ""),
			GracePeriod: getEnvAsDuration("ROUND_GRACE_PERIOD", 30*time.Second),
		},
		Sessions: SessionsConfig{
			IdleTTL:         getEnvAsDuration("SESSION_IDLE_TTL", 2*time.Hour),
			CleanupInterval: getEnvAsDuration("CLEANUP_INTERVAL", 5*time.Minute),
		},
		RateLimit: RateLimitConfig{
			Requests: getEnvAsInt("LLM_RATE_LIMIT", 30),
			Window:   getEnvAsDuration("LLM_RATE_WINDOW", time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Storage.Backend {
	case "memory", "file", "redis":
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("database DSN is required for the postgres storage backend")
		}
	default:
		return fmt.Errorf("unknown storage backend: %q", c.Storage.Backend)
	}

	switch c.Diagrams.Backend {
	case "none", "file":
	case "postgres":
		if c.Diagrams.PostgresDSN == "" {
			return fmt.Errorf("database DSN is required for the postgres diagrams backend")
		}
	default:
		return fmt.Errorf("unknown diagrams backend: %q", c.Diagrams.Backend)
	}

	if c.LLM.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}

	switch c.Runner.Backend {
	case "none", "docker":
	case "jdoodle":
		if c.Runner.JDoodleClientID == "" || c.Runner.JDoodleSecret == "" {
			return fmt.Errorf("JDoodle credentials are required for the jdoodle runner")
		}
	default:
		return fmt.Errorf("unknown runner backend: %q", c.Runner.Backend)
	}

	if c.Rounds.GracePeriod < 0 {
		return fmt.Errorf("invalid round grace period: %s", c.Rounds.GracePeriod)
	}

	if c.RateLimit.Requests < 1 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("invalid LLM rate limit: %d per %s", c.RateLimit.Requests, c.RateLimit.Window)
	}

	return nil
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
