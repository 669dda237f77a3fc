package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Port        string
	LogMode     string
	JWTSecret   string
	Database    DatabaseConfig
	Store       StoreConfig
	Prediction  PredictionConfig
	CORSOrigins []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
	Alter    bool
}

// StoreConfig describes the physical store the pricing clock runs in
type StoreConfig struct {
	Location *time.Location
}

// PredictionConfig holds demand model settings
type PredictionConfig struct {
	TrainInterval   time.Duration
	RidgeLambda     float64
	ForecastDays    int
	MaxForecastDays int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	loc, err := time.LoadLocation(getEnv("STORE_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_TIMEZONE: %w", err)
	}

	trainMinutes, err := getEnvInt("MODEL_TRAIN_INTERVAL", 0)
	if err != nil {
		return nil, err
	}
	if trainMinutes < 0 {
		return nil, fmt.Errorf("MODEL_TRAIN_INTERVAL must not be negative")
	}
	lambda, err := getEnvFloat("MODEL_RIDGE_LAMBDA", 0.001)
	if err != nil {
		return nil, err
	}
	if lambda < 0 {
		return nil, fmt.Errorf("MODEL_RIDGE_LAMBDA must not be negative")
	}
	forecastDays, err := getEnvInt("FORECAST_DAYS", 7)
	if err != nil {
		return nil, err
	}
	if forecastDays < 1 {
		return nil, fmt.Errorf("FORECAST_DAYS must be at least 1")
	}
	maxForecastDays, err := getEnvInt("FORECAST_MAX_DAYS", 365)
	if err != nil {
		return nil, err
	}
	if maxForecastDays < forecastDays {
		return nil, fmt.Errorf("FORECAST_MAX_DAYS must be at least FORECAST_DAYS (%d)", forecastDays)
	}

	return &Config{
		Port:      getEnv("PORT", "3210"),
		LogMode:   getEnv("LOG_MODE", "dev"),
		JWTSecret: jwtSecret,
		Database: DatabaseConfig{
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			Username: getEnv("PG_USERNAME", "postgres"),
			Password: os.Getenv("PG_PASSWORD"),
			Database: getEnv("PG_DATABASE", "eckpos"),
			Alter:    getEnv("DB_ALTER", "false") == "true",
		},
		Store: StoreConfig{Location: loc},
		Prediction: PredictionConfig{
			TrainInterval:   time.Duration(trainMinutes) * time.Minute,
			RidgeLambda:     lambda,
			ForecastDays:    forecastDays,
			MaxForecastDays: maxForecastDays,
		},
		CORSOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
