package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DB             DBConfig
	Server         ServerConfig
	HTTP           HTTPConfig
	Geocoder       GeocoderConfig
	Forecast       ForecastConfig
	Intent         IntentConfig
	Disambiguation DisambiguationConfig
	Auth           AuthConfig
}

// DBType represents database type
type DBType string

const (
	DBTypePostgreSQL DBType = "postgres"
	DBTypeMemory     DBType = "memory"
)

// DBConfig holds database configuration
type DBConfig struct {
	Type     DBType
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN returns the database connection string
func (c DBConfig) DSN() string {
	if c.Type == DBTypeMemory {
		// SQLite in-memory database
		if c.Name != "" && c.Name != "weatherquery" {
			return fmt.Sprintf("file:%s?mode=memory&cache=shared", c.Name)
		}
		return "file::memory:?cache=shared"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// IsMemory returns true if using in-memory database
func (c DBConfig) IsMemory() bool {
	return c.Type == DBTypeMemory
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
}

// HTTPConfig controls the shared outbound client used for every upstream call.
type HTTPConfig struct {
	Timeout          time.Duration
	MaxRetries       int
	RetryWaitTime    time.Duration
	RetryMaxWaitTime time.Duration
	UserAgent        string
	// BreakerThreshold is the number of consecutive failed calls that opens
	// an upstream's circuit. Zero disables the breakers.
	BreakerThreshold int
	BreakerTimeout   time.Duration
}

// GeocoderConfig holds settings for the Nominatim-compatible geocoder
type GeocoderConfig struct {
	BaseURL          string
	CountryCodes     []string
	ResultLimit      int
	StateSearchLimit int
	Email            string
}

// ForecastConfig holds settings for the gridpoint forecast provider
type ForecastConfig struct {
	BaseURL string
	Days    int
}

// IntentConfig holds settings for the structured extraction provider
type IntentConfig struct {
	APIURL string
	APIKey string
	Model  string
}

// DisambiguationConfig holds the classifier tuning knobs.
type DisambiguationConfig struct {
	StateImportanceThreshold float64
	MaxOptions               int
}

// AuthConfig holds bearer token settings
type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

// Enabled reports whether requests must carry a signed token.
func (c AuthConfig) Enabled() bool {
	return c.JWTSecret != ""
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbType := DBType(getEnv("DB_TYPE", "memory"))
	if dbType != DBTypePostgreSQL && dbType != DBTypeMemory {
		dbType = DBTypeMemory
	}

	config := &Config{
		DB: DBConfig{
			Type:     dbType,
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "weatherquery"),
			Password: getEnv("DB_PASSWORD", "weatherquery_password"),
			Name:     getEnv("DB_NAME", "weatherquery"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Server: ServerConfig{
			Port: getEnv("APP_PORT", "8080"),
		},
		HTTP: HTTPConfig{
			Timeout:          getEnvAsDuration("HTTP_TIMEOUT", 10*time.Second),
			MaxRetries:       getEnvAsInt("HTTP_MAX_RETRIES", 2),
			RetryWaitTime:    getEnvAsDuration("HTTP_RETRY_WAIT", 2*time.Second),
			RetryMaxWaitTime: getEnvAsDuration("HTTP_RETRY_MAX_WAIT", 4*time.Second),
			UserAgent:        getEnv("HTTP_USER_AGENT", "weatherquery-api/1.0 (ops@weatherquery.dev)"),
			BreakerThreshold: getEnvAsInt("HTTP_BREAKER_THRESHOLD", 5),
			BreakerTimeout:   getEnvAsDuration("HTTP_BREAKER_TIMEOUT", 30*time.Second),
		},
		Geocoder: GeocoderConfig{
			BaseURL:          getEnv("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org"),
			CountryCodes:     getEnvAsSliceDefault("GEOCODER_COUNTRY_CODES", []string{"us"}),
			ResultLimit:      getEnvAsInt("GEOCODER_RESULT_LIMIT", 5),
			StateSearchLimit: getEnvAsInt("GEOCODER_STATE_SEARCH_LIMIT", 25),
			Email:            getEnv("GEOCODER_EMAIL", ""),
		},
		Forecast: ForecastConfig{
			BaseURL: getEnv("FORECAST_BASE_URL", "https://api.weather.gov"),
			Days:    getEnvAsInt("FORECAST_DAYS", 7),
		},
		Intent: IntentConfig{
			APIURL: getEnv("INTENT_API_URL", "https://api.openai.com/v1/chat/completions"),
			APIKey: getEnv("INTENT_API_KEY", ""),
			Model:  getEnv("INTENT_MODEL", "gpt-4o-mini"),
		},
		Disambiguation: DisambiguationConfig{
			StateImportanceThreshold: getEnvAsFloat("DISAMBIGUATION_STATE_IMPORTANCE", 0.7),
			MaxOptions:               getEnvAsInt("DISAMBIGUATION_MAX_OPTIONS", 5),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
			Issuer:    getEnv("AUTH_JWT_ISSUER", "weatherquery-api"),
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	var result []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func getEnvAsSliceDefault(key string, defaultValue []string) []string {
	if values := getEnvAsSlice(key); len(values) > 0 {
		return values
	}
	return defaultValue
}
