package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/yukikurage/jobsworth/internal/scoring"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DBDriver      string          `yaml:"db_driver"`
	DBHost        string          `yaml:"db_host"`
	DBPort        string          `yaml:"db_port"`
	DBUser        string          `yaml:"db_user"`
	DBPassword    string          `yaml:"db_password"`
	DBName        string          `yaml:"db_name"`
	RedisHost     string          `yaml:"redis_host"`
	RedisPort     string          `yaml:"redis_port"`
	SessionSecret string          `yaml:"session_secret"`
	GinMode       string          `yaml:"gin_mode"`
	ServerPort    string          `yaml:"server_port"`
	NATSURL       string          `yaml:"nats_url"`
	SweepInterval time.Duration   `yaml:"sweep_interval"`
	LogLevel      string          `yaml:"log_level"`
	Scoring       scoring.Factors `yaml:"scoring"`
}

// Load builds the configuration from defaults, then the optional YAML file at
// path, then environment variables.
func Load(path string) (*Config, error) {
	cfg := &Config{
		DBDriver:      "mysql",
		DBHost:        "localhost",
		DBPort:        "3306",
		DBUser:        "taskuser",
		DBPassword:    "taskpassword",
		DBName:        "jobsworth",
		RedisHost:     "localhost",
		RedisPort:     "6379",
		SessionSecret: "default-secret-key-change-me",
		GinMode:       "debug",
		ServerPort:    "8080",
		NATSURL:       "",
		SweepInterval: 10 * time.Minute,
		LogLevel:      "info",
		Scoring:       scoring.DefaultFactors(),
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Scoring.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring config: %w", err)
	}
	if cfg.SweepInterval <= 0 {
		return nil, fmt.Errorf("sweep interval must be positive, got %s", cfg.SweepInterval)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.DBDriver = getEnv("DB_DRIVER", cfg.DBDriver)
	cfg.DBHost = getEnv("DB_HOST", cfg.DBHost)
	cfg.DBPort = getEnv("DB_PORT", cfg.DBPort)
	cfg.DBUser = getEnv("DB_USER", cfg.DBUser)
	cfg.DBPassword = getEnv("DB_PASSWORD", cfg.DBPassword)
	cfg.DBName = getEnv("DB_NAME", cfg.DBName)
	cfg.RedisHost = getEnv("REDIS_HOST", cfg.RedisHost)
	cfg.RedisPort = getEnv("REDIS_PORT", cfg.RedisPort)
	cfg.SessionSecret = getEnv("SESSION_SECRET", cfg.SessionSecret)
	cfg.GinMode = getEnv("GIN_MODE", cfg.GinMode)
	cfg.ServerPort = getEnv("PORT", cfg.ServerPort)
	cfg.NATSURL = getEnv("NATS_URL", cfg.NATSURL)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	if v := os.Getenv("SWEEP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse SWEEP_INTERVAL: %w", err)
		}
		cfg.SweepInterval = d
	}
	if v := os.Getenv("SCORING_PRIORITY_FACTOR"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse SCORING_PRIORITY_FACTOR: %w", err)
		}
		cfg.Scoring.Priority = n
	}
	if v := os.Getenv("SCORING_SEVERITY_FACTOR"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse SCORING_SEVERITY_FACTOR: %w", err)
		}
		cfg.Scoring.Severity = n
	}

	return nil
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
