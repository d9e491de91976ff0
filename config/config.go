package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	ServerPort      string
	IPODataPath     string
	WarrantDataPath string
	DatabaseURL     string
	LogLevel        string
	LogFormat       string
	Model           *ModelConfig
}

// ModelConfig holds the random forest hyperparameters used at startup
type ModelConfig struct {
	Trees          int   `json:"trees"`
	MaxDepth       int   `json:"max_depth"`
	MinSamplesLeaf int   `json:"min_samples_leaf"`
	Seed           int64 `json:"seed"`
	MaxConcurrency int   `json:"max_concurrency"`
}

// DefaultModelConfig returns the hyperparameters the classifier is trained with
func DefaultModelConfig() *ModelConfig {
	return &ModelConfig{
		Trees:          300,
		MaxDepth:       10,
		MinSamplesLeaf: 2,
		Seed:           42,
		MaxConcurrency: 8,
	}
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Logging returns the logging section of the configuration
func (c *Config) Logging() LoggingConfig {
	return LoggingConfig{Level: c.LogLevel, Format: c.LogFormat}
}

// ApplyLogging configures the global logrus logger from the config
func (c *Config) ApplyLogging() {
	lc := c.Logging()

	level, err := logrus.ParseLevel(lc.Level)
	if err != nil {
		logrus.Warnf("Invalid LOG_LEVEL value: %s, using info", lc.Level)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if lc.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		logrus.Warn("Error loading .env file, using system environment variables")
	}

	defaults := DefaultModelConfig()

	return &Config{
		ServerPort:      getEnv("SERVER_PORT", "8000"),
		IPODataPath:     getEnv("IPO_DATA_PATH", "data/e-IPO Data.csv"),
		WarrantDataPath: getEnv("WARRANT_DATA_PATH", "data/Warrant - Price D1.csv"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "text"),
		Model: &ModelConfig{
			Trees:          getEnvInt("MODEL_TREES", defaults.Trees),
			MaxDepth:       getEnvInt("MODEL_MAX_DEPTH", defaults.MaxDepth),
			MinSamplesLeaf: getEnvInt("MODEL_MIN_SAMPLES_LEAF", defaults.MinSamplesLeaf),
			Seed:           getEnvInt64("MODEL_SEED", defaults.Seed),
			MaxConcurrency: getEnvInt("MODEL_MAX_CONCURRENCY", defaults.MaxConcurrency),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt reads a positive integer, falling back on missing or invalid values
func getEnvInt(key string, fallback int) int {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return fallback
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		logrus.Warnf("Invalid %s value: %s, using default %d", key, raw, fallback)
		return fallback
	}

	return value
}

// getEnvInt64 reads any integer, zero and negatives included
func getEnvInt64(key string, fallback int64) int64 {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return fallback
	}

	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		logrus.Warnf("Invalid %s value: %s, using default %d", key, raw, fallback)
		return fallback
	}

	return value
}
