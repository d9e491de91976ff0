package config

import (
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"SERVER_PORT", "IPO_DATA_PATH", "DATABASE_URL", "MODEL_TREES", "MODEL_MAX_DEPTH", "MODEL_MIN_SAMPLES_LEAF", "MODEL_SEED"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := LoadConfig()

	assert.Equal(t, "8000", cfg.ServerPort)
	assert.Equal(t, "data/e-IPO Data.csv", cfg.IPODataPath)
	assert.Equal(t, "", cfg.DatabaseURL)
	assert.Equal(t, 300, cfg.Model.Trees)
	assert.Equal(t, 10, cfg.Model.MaxDepth)
	assert.Equal(t, 2, cfg.Model.MinSamplesLeaf)
	assert.Equal(t, int64(42), cfg.Model.Seed)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("IPO_DATA_PATH", "/tmp/ipo.xlsx")
	t.Setenv("MODEL_TREES", "25")
	t.Setenv("MODEL_MAX_DEPTH", "not-a-number")

	cfg := LoadConfig()

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, "/tmp/ipo.xlsx", cfg.IPODataPath)
	assert.Equal(t, 25, cfg.Model.Trees)
	assert.Equal(t, 10, cfg.Model.MaxDepth, "invalid values fall back to the default")
}

func TestGetEnvIntRejectsNonPositive(t *testing.T) {
	t.Setenv("MODEL_MIN_SAMPLES_LEAF", "-3")
	assert.Equal(t, 2, getEnvInt("MODEL_MIN_SAMPLES_LEAF", 2))
}

func TestModelSeedAcceptsAnyInteger(t *testing.T) {
	tests := []struct {
		raw  string
		want int64
	}{
		{"0", 0},
		{"-7", -7},
		{"9000000000", 9000000000},
		{"seed", 42},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Setenv("MODEL_SEED", tt.raw)
			assert.Equal(t, tt.want, LoadConfig().Model.Seed)
		})
	}
}

func TestApplyLogging(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)
	defer logrus.SetFormatter(&logrus.TextFormatter{})

	cfg := &Config{LogLevel: "debug", LogFormat: "json"}
	cfg.ApplyLogging()
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logrus.StandardLogger().Formatter)

	cfg = &Config{LogLevel: "loud", LogFormat: "text"}
	cfg.ApplyLogging()
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
}
