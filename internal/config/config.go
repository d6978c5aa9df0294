package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	// DataFile is the backing file read at startup and rewritten on flush.
	DataFile string

	HTTPAddr        string
	ShutdownTimeout time.Duration

	// FlushInterval controls how often the table is written to DataFile.
	FlushInterval time.Duration

	LogLevel  string
	LogFormat string

	// Open-Meteo importer.
	OpenMeteoURL        string
	OpenMeteoMaxRetries int
	HTTPTimeout         time.Duration
	FetchLatitude       float64
	FetchLongitude      float64
	FetchDays           int
}

// Load reads configuration from the environment, after merging an optional
// .env file from the working directory, with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &AppConfig{
		DataFile:     os.Getenv("DATA_FILE"),
		HTTPAddr:     getenvDefault("HTTP_ADDR", ":3000"),
		LogLevel:     getenvDefault("LOG_LEVEL", "info"),
		LogFormat:    getenvDefault("LOG_FORMAT", "json"),
		OpenMeteoURL: getenvDefault("OPEN_METEO_URL", "https://api.open-meteo.com/v1/forecast"),
	}

	var err error
	if cfg.FlushInterval, err = getenvDuration("FLUSH_INTERVAL", "15s"); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getenvDuration("SHUTDOWN_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.OpenMeteoMaxRetries, err = getenvInt("OPEN_METEO_MAX_RETRIES", 3); err != nil {
		return nil, err
	}
	if cfg.OpenMeteoMaxRetries < 0 {
		return nil, fmt.Errorf("invalid OPEN_METEO_MAX_RETRIES: must not be negative")
	}
	if cfg.FetchDays, err = getenvInt("FETCH_DAYS", 7); err != nil {
		return nil, err
	}
	if cfg.FetchLatitude, err = getenvFloat("FETCH_LATITUDE", 0); err != nil {
		return nil, err
	}
	if cfg.FetchLongitude, err = getenvFloat("FETCH_LONGITUDE", 0); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ValidateServe checks the settings the serve command depends on. It runs
// after command-line overrides have been applied.
func (c *AppConfig) ValidateServe() error {
	if c.DataFile == "" {
		return errors.New("DATA_FILE is required (or pass the file as an argument)")
	}
	if c.HTTPAddr == "" {
		return errors.New("HTTP_ADDR must not be empty")
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getenvDuration parses a strictly positive duration.
func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}
