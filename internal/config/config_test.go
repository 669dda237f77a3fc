package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	for _, key := range []string{"PORT", "LOG_MODE", "PG_HOST", "PG_DATABASE", "STORE_TIMEZONE",
		"MODEL_TRAIN_INTERVAL", "MODEL_RIDGE_LAMBDA", "FORECAST_DAYS", "FORECAST_MAX_DAYS", "CORS_ALLOWED_ORIGINS", "DB_ALTER"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3210", cfg.Port)
	assert.Equal(t, "dev", cfg.LogMode)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "eckpos", cfg.Database.Database)
	assert.False(t, cfg.Database.Alter)
	assert.Equal(t, time.UTC, cfg.Store.Location)
	assert.Equal(t, time.Duration(0), cfg.Prediction.TrainInterval)
	assert.Equal(t, 0.001, cfg.Prediction.RidgeLambda)
	assert.Equal(t, 7, cfg.Prediction.ForecastDays)
	assert.Equal(t, 365, cfg.Prediction.MaxForecastDays)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "9000")
	t.Setenv("STORE_TIMEZONE", "Europe/Berlin")
	t.Setenv("MODEL_TRAIN_INTERVAL", "15")
	t.Setenv("MODEL_RIDGE_LAMBDA", "0.5")
	t.Setenv("FORECAST_DAYS", "14")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("DB_ALTER", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "Europe/Berlin", cfg.Store.Location.String())
	assert.Equal(t, 15*time.Minute, cfg.Prediction.TrainInterval)
	assert.Equal(t, 0.5, cfg.Prediction.RidgeLambda)
	assert.Equal(t, 14, cfg.Prediction.ForecastDays)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.Database.Alter)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"STORE_TIMEZONE", "Mars/Olympus"},
		{"MODEL_TRAIN_INTERVAL", "soon"},
		{"MODEL_TRAIN_INTERVAL", "-5"},
		{"MODEL_RIDGE_LAMBDA", "abc"},
		{"FORECAST_DAYS", "0"},
		{"FORECAST_MAX_DAYS", "3"},
		{"FORECAST_MAX_DAYS", "many"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "s3cret")
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
