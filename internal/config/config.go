package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string
	Database    DatabaseConfig
	Backend     BackendConfig
	Checkout    CheckoutConfig
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// BackendConfig points at the upstream store API
type BackendConfig struct {
	BaseURL        string
	ConfigURL      string
	RequestTimeout time.Duration
	RetryAttempts  int
	RetryInterval  time.Duration
}

type CheckoutConfig struct {
	ServiceablePincodes []string
	SessionTTL          time.Duration
}

// Deliveries are limited to Delhi; 110079 is not assigned.
var defaultServiceablePincodes = []string{
	"110001", "110002", "110003", "110004", "110005", "110006", "110007", "110008", "110009",
	"110010", "110011", "110012", "110013", "110014", "110015", "110016", "110017", "110018",
	"110019", "110020", "110021", "110022", "110023", "110024", "110025", "110026", "110027",
	"110028", "110029", "110030", "110031", "110032", "110033", "110034", "110035", "110036",
	"110037", "110038", "110039", "110040", "110041", "110042", "110043", "110044", "110045",
	"110046", "110047", "110048", "110049", "110050", "110051", "110052", "110053", "110054",
	"110055", "110056", "110057", "110058", "110059", "110060", "110061", "110062", "110063",
	"110064", "110065", "110066", "110067", "110068", "110069", "110070", "110071", "110072",
	"110073", "110074", "110075", "110076", "110077", "110078", "110080", "110081", "110082",
	"110083", "110084", "110085", "110086", "110087", "110088", "110089", "110090", "110091",
	"110092", "110093", "110094", "110095", "110096",
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("BACKEND_REQUEST_TIMEOUT", "10s")
	viper.SetDefault("BACKEND_RETRY_ATTEMPTS", "3")
	viper.SetDefault("BACKEND_RETRY_INTERVAL", "1s")
	viper.SetDefault("SESSION_TTL", "24h")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		LogLevel:    getEnvOrViper("LOG_LEVEL", "info"),
		Database: DatabaseConfig{
			Host:     getEnvOrViper("DB_HOST", "localhost"),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", ""),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		Backend: BackendConfig{
			BaseURL:        getEnvOrViper("BACKEND_BASE_URL", ""),
			ConfigURL:      getEnvOrViper("BACKEND_CONFIG_URL", ""),
			RequestTimeout: viper.GetDuration("BACKEND_REQUEST_TIMEOUT"),
			RetryAttempts:  viper.GetInt("BACKEND_RETRY_ATTEMPTS"),
			RetryInterval:  viper.GetDuration("BACKEND_RETRY_INTERVAL"),
		},
		Checkout: CheckoutConfig{
			ServiceablePincodes: splitList(getEnvOrViper("SERVICEABLE_PINCODES", "")),
			SessionTTL:          viper.GetDuration("SESSION_TTL"),
		},
	}

	if len(cfg.Checkout.ServiceablePincodes) == 0 {
		cfg.Checkout.ServiceablePincodes = defaultServiceablePincodes
	}

	// Validate required fields
	if cfg.Backend.BaseURL == "" {
		return nil, fmt.Errorf("BACKEND_BASE_URL is required")
	}

	return cfg, nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
