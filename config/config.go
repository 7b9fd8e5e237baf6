package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig
	Aggregation AggregationConfig
	Cache       CacheConfig
	Trust       TrustConfig
	Sources     []SourceConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AggregationConfig holds the tunable parameters of the aggregation engine.
// The thresholds are deployment-tunable, not constants.
type AggregationConfig struct {
	AdapterTimeout     time.Duration `mapstructure:"adapter_timeout"`
	MaxRetries         int           `mapstructure:"max_retries"`
	MergeThreshold     float64       `mapstructure:"merge_threshold"`
	ExactThreshold     float64       `mapstructure:"exact_threshold"`
	SimilarThreshold   float64       `mapstructure:"similar_threshold"`
	MaxSimilarProducts int           `mapstructure:"max_similar_products"`
	EnableDebugLogging bool          `mapstructure:"enable_debug_logging"`
}

// CacheConfig holds result cache configuration
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// TrustConfig holds the static per-source trust table
type TrustConfig struct {
	DefaultWeight float64            `mapstructure:"default_weight"`
	Weights       map[string]float64 `mapstructure:"weights"`
}

// SourceConfig describes one registered price source
type SourceConfig struct {
	Name       string  `mapstructure:"name"`
	Kind       string  `mapstructure:"kind"` // "api" or "html"
	BaseURL    string  `mapstructure:"base_url"`
	APIKey     string  `mapstructure:"api_key"`
	RatePerSec float64 `mapstructure:"rate_per_sec"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/pricehunt/")

	// Environment variable settings
	v.SetEnvPrefix("PRICEHUNT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Aggregation defaults
	v.SetDefault("aggregation.adapter_timeout", "10s")
	v.SetDefault("aggregation.max_retries", 2)
	v.SetDefault("aggregation.merge_threshold", 0.85)
	v.SetDefault("aggregation.exact_threshold", 0.85)
	v.SetDefault("aggregation.similar_threshold", 0.5)
	v.SetDefault("aggregation.max_similar_products", 10)
	v.SetDefault("aggregation.enable_debug_logging", false)

	// Cache defaults
	v.SetDefault("cache.ttl", "1h")

	// Trust defaults
	v.SetDefault("trust.default_weight", 0.5)
}

// validate validates the configuration
func validate(config *Config) error {
	agg := &config.Aggregation

	if agg.AdapterTimeout <= 0 {
		return fmt.Errorf("aggregation.adapter_timeout must be positive, got: %s", agg.AdapterTimeout)
	}
	if agg.MaxRetries < 0 {
		return fmt.Errorf("aggregation.max_retries must not be negative, got: %d", agg.MaxRetries)
	}

	for name, threshold := range map[string]float64{
		"aggregation.merge_threshold":   agg.MergeThreshold,
		"aggregation.exact_threshold":   agg.ExactThreshold,
		"aggregation.similar_threshold": agg.SimilarThreshold,
	} {
		if threshold < 0 || threshold > 1 {
			return fmt.Errorf("%s must be in [0,1], got: %g", name, threshold)
		}
	}
	if agg.SimilarThreshold > agg.ExactThreshold {
		return fmt.Errorf("aggregation.similar_threshold (%g) must not exceed aggregation.exact_threshold (%g)",
			agg.SimilarThreshold, agg.ExactThreshold)
	}
	if agg.MaxSimilarProducts <= 0 {
		return fmt.Errorf("aggregation.max_similar_products must be positive, got: %d", agg.MaxSimilarProducts)
	}

	if config.Trust.DefaultWeight < 0 || config.Trust.DefaultWeight > 1 {
		return fmt.Errorf("trust.default_weight must be in [0,1], got: %g", config.Trust.DefaultWeight)
	}

	for _, source := range config.Sources {
		if source.Name == "" || source.BaseURL == "" {
			return fmt.Errorf("every source requires name and base_url (got name=%q)", source.Name)
		}
		if source.Kind != "api" && source.Kind != "html" {
			return fmt.Errorf("source %s: kind must be 'api' or 'html', got: %s", source.Name, source.Kind)
		}
	}

	return nil
}

// loadEnvFile loads a .env file from the working directory if present.
// Existing environment variables are never overridden.
func loadEnvFile() error {
	file, err := os.Open(".env")
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if key == "" || os.Getenv(key) != "" {
			continue
		}
		os.Setenv(key, value)
	}

	return scanner.Err()
}
