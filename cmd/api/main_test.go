package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prospector/internal/config"
)

func TestInitLoggerPerEnvironment(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		level       string
	}{
		{name: "development", environment: "development", level: "debug"},
		{name: "production", environment: "production", level: "info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Config{Environment: tt.environment}
			cfg.Logging.Level = tt.level

			logger, err := initLogger(cfg)
			require.NoError(t, err)
			require.NotNil(t, logger)
			_ = logger.Sync()
		})
	}
}

func TestInitLoggerRejectsInvalidLevel(t *testing.T) {
	cfg := config.Config{Environment: "development"}
	cfg.Logging.Level = "verbose"

	logger, err := initLogger(cfg)
	assert.Error(t, err)
	assert.Nil(t, logger)
}
