// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port          string
	AllowedOrigin string

	Dataset DatasetConfig
	Model   ModelConfig

	SessionTTL    time.Duration
	SweepInterval time.Duration

	ReferenceYear int
	HoursPerDay   float64
}

// DatasetConfig selects where the snapshot is loaded from. Source is one of
// "csv", "sqlite" or "blob".
type DatasetConfig struct {
	Source string
	Path   string

	BlobConnectionString string
	BlobContainer        string
	BlobName             string
}

// ModelConfig authenticates the optional chat-completion backend. With no
// API key the service runs in keyword-router-only mode.
type ModelConfig struct {
	AzureEndpoint   string
	AzureDeployment string
	APIKey          string
	Model           string
	Timeout         time.Duration
}

// Configured reports whether any model backend credentials are present.
func (m ModelConfig) Configured() bool {
	return m.APIKey != ""
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Azure key takes precedence over the plain OpenAI key, matching how
	// the deployments are provisioned.
	apiKey := getEnv("AZURE_OPENAI_KEY", "")
	if apiKey == "" {
		apiKey = getEnv("OPENAI_API_KEY", "")
	}

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "*"),
		Dataset: DatasetConfig{
			Source:               strings.ToLower(getEnv("DATASET_SOURCE", "csv")),
			Path:                 getEnv("DATASET_PATH", "./data/apontamentos.csv"),
			BlobConnectionString: getEnv("AZURE_STORAGE_CONNECTION_STRING", ""),
			BlobContainer:        getEnv("AZURE_STORAGE_CONTAINER", "apontamentos"),
			BlobName:             getEnv("AZURE_STORAGE_BLOB", "apontamentos.csv"),
		},
		Model: ModelConfig{
			AzureEndpoint:   getEnv("AZURE_OPENAI_ENDPOINT", ""),
			AzureDeployment: getEnv("AZURE_OPENAI_DEPLOYMENT", "gpt-4"),
			APIKey:          apiKey,
			Model:           getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			Timeout:         getEnvDuration("MODEL_TIMEOUT", 30*time.Second),
		},
		SessionTTL:    getEnvDuration("SESSION_TTL", 30*time.Minute),
		SweepInterval: getEnvDuration("SESSION_SWEEP_INTERVAL", 5*time.Minute),
		ReferenceYear: getEnvInt("REFERENCE_YEAR", time.Now().Year()),
		HoursPerDay:   getEnvFloat("HOURS_PER_DAY", 8.0),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	switch c.Dataset.Source {
	case "csv", "sqlite":
		if c.Dataset.Path == "" {
			return fmt.Errorf("DATASET_PATH cannot be empty for source %q", c.Dataset.Source)
		}
	case "blob":
		if c.Dataset.BlobConnectionString == "" {
			return fmt.Errorf("AZURE_STORAGE_CONNECTION_STRING is required for the blob source")
		}
		if c.Dataset.BlobContainer == "" || c.Dataset.BlobName == "" {
			return fmt.Errorf("AZURE_STORAGE_CONTAINER and AZURE_STORAGE_BLOB are required for the blob source")
		}
	default:
		return fmt.Errorf("DATASET_SOURCE must be csv, sqlite or blob, got %q", c.Dataset.Source)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SESSION_SWEEP_INTERVAL must be > 0")
	}
	if c.ReferenceYear < 2000 || c.ReferenceYear > 2100 {
		return fmt.Errorf("REFERENCE_YEAR out of range: %d", c.ReferenceYear)
	}
	if c.HoursPerDay <= 0 || c.HoursPerDay > 24 {
		return fmt.Errorf("HOURS_PER_DAY out of range: %g", c.HoursPerDay)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
