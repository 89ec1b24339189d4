// internal/config/config.go

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	NATS        NATSConfig
	Sources     SourcesConfig
	Trends      TrendsConfig
	Competition CompetitionConfig
	Discovery   DiscoveryConfig
	Validation  ValidationConfig
	Logging     LoggingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CorsOrigins     []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	SSLMode      string
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	URL            string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
}

// SourcesConfig holds signal source credentials and endpoints
type SourcesConfig struct {
	XAPIKey         string
	XBaseURL        string
	XModel          string
	TwitterBearer   string
	RedditEnabled   bool
	RedditBaseURL   string
	RedditUserAgent string
	GumroadBaseURL  string
}

// TrendsConfig holds trend lookup configuration
type TrendsConfig struct {
	Timeout   time.Duration
	CacheTTL  time.Duration
	Cooldown  time.Duration
	Region    string
	Timeframe string
}

// CompetitionConfig holds marketplace analysis configuration
type CompetitionConfig struct {
	ListingLimit int
}

// DiscoveryConfig holds discovery run configuration
type DiscoveryConfig struct {
	Topics           []string
	TimeFilter       string
	MinScore         float64
	MaxOpportunities int
	CheckDuplicates  bool
	LookbackDays     int
	UseTrends        bool
	TopicConcurrency int
	Schedule         string
	ScheduleEnabled  bool
	RunTimeout       time.Duration
	EventsTopic      string
}

// ValidationConfig holds organic validation configuration
type ValidationConfig struct {
	Window time.Duration
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level string
}

// Load loads configuration from environment variables
func Load() (Config, error) {
	config := Config{
		Environment: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			Port:        getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout: getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			// Discovery runs hold the response open while scouts fetch, so the
			// write timeout must cover a full run.
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Minute),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CorsOrigins:     getEnvAsSlice("SERVER_CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Database:     getEnv("DB_NAME", "prospector"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 5*time.Minute),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
		},
		NATS: NATSConfig{
			URL:            getEnv("NATS_URL", "nats://localhost:4222"),
			MaxReconnects:  getEnvAsInt("NATS_MAX_RECONNECTS", 10),
			ReconnectWait:  getEnvAsDuration("NATS_RECONNECT_WAIT", 1*time.Second),
			ConnectTimeout: getEnvAsDuration("NATS_CONNECT_TIMEOUT", 2*time.Second),
		},
		Sources: SourcesConfig{
			XAPIKey:         getEnv("XAI_API_KEY", ""),
			XBaseURL:        getEnv("XAI_BASE_URL", "https://api.x.ai/v1"),
			XModel:          getEnv("XAI_MODEL", "grok-3-fast"),
			TwitterBearer:   getEnv("TWITTER_BEARER_TOKEN", ""),
			RedditEnabled:   getEnvAsBool("REDDIT_ENABLED", true),
			RedditBaseURL:   getEnv("REDDIT_BASE_URL", "https://www.reddit.com"),
			RedditUserAgent: getEnv("REDDIT_USER_AGENT", "prospector/1.0 (market-research)"),
			GumroadBaseURL:  getEnv("GUMROAD_BASE_URL", "https://gumroad.com"),
		},
		Trends: TrendsConfig{
			Timeout:   getEnvAsDuration("TRENDS_TIMEOUT", 10*time.Second),
			CacheTTL:  getEnvAsDuration("TRENDS_CACHE_TTL", 6*time.Hour),
			Cooldown:  getEnvAsDuration("TRENDS_COOLDOWN", 60*time.Second),
			Region:    getEnv("TRENDS_REGION", "US"),
			Timeframe: getEnv("TRENDS_TIMEFRAME", "today 3-m"),
		},
		Competition: CompetitionConfig{
			ListingLimit: getEnvAsInt("COMPETITION_LISTING_LIMIT", 20),
		},
		Discovery: DiscoveryConfig{
			Topics: getEnvAsSlice("DISCOVERY_TOPICS", []string{
				"chatgpt prompts", "notion templates", "ai automation",
			}),
			TimeFilter:       getEnv("DISCOVERY_TIME_FILTER", "week"),
			MinScore:         getEnvAsFloat("DISCOVERY_MIN_SCORE", 40.0),
			MaxOpportunities: getEnvAsInt("DISCOVERY_MAX_OPPORTUNITIES", 10),
			CheckDuplicates:  getEnvAsBool("DISCOVERY_CHECK_DUPLICATES", true),
			LookbackDays:     getEnvAsInt("DISCOVERY_LOOKBACK_DAYS", 90),
			UseTrends:        getEnvAsBool("DISCOVERY_USE_TRENDS", true),
			TopicConcurrency: getEnvAsInt("DISCOVERY_TOPIC_CONCURRENCY", 3),
			Schedule:         getEnv("DISCOVERY_SCHEDULE", "0 */6 * * *"),
			ScheduleEnabled:  getEnvAsBool("DISCOVERY_SCHEDULE_ENABLED", false),
			RunTimeout:       getEnvAsDuration("DISCOVERY_RUN_TIMEOUT", 10*time.Minute),
			EventsTopic:      getEnv("DISCOVERY_EVENTS_TOPIC", "discovery"),
		},
		Validation: ValidationConfig{
			Window: getEnvAsDuration("VALIDATION_WINDOW", 72*time.Hour),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return config, validate(config)
}

// validate checks if config is valid
func validate(config Config) error {
	if config.Discovery.MinScore < 0 || config.Discovery.MinScore > 100 {
		return fmt.Errorf("discovery min score must be between 0 and 100, got %.1f", config.Discovery.MinScore)
	}
	if config.Discovery.TopicConcurrency < 1 {
		return fmt.Errorf("discovery topic concurrency must be at least 1, got %d", config.Discovery.TopicConcurrency)
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
