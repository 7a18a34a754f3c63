package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"bookmaker/database"

	"github.com/golang-sql/civil"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL         string
	DatabaseName        string
	DatabaseMaxConns    int
	DatabaseLockTimeout time.Duration

	// NATS configuration. When empty, domain events are delivered in-process.
	NATSServers string

	// Redis configuration for notifications and the event snapshot cache
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	EventCacheTTL time.Duration

	// Kafka configuration for the odds feed
	KafkaBrokers   []string
	KafkaOddsTopic string
	KafkaGroupID   string

	// Discord configuration for admin/event announcements (optional)
	DiscordToken     string
	DiscordChannelID string

	// HTTP address serving /metrics and /healthz
	MetricsAddr string

	// Wallet configuration
	DailyBonusAmount decimal.Decimal
	BusinessTimezone string
	BusinessLocation *time.Location

	// Logging
	LogLevel  string
	LogFormat string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// NATSEnabled reports whether events should go through JetStream
func (c *Config) NATSEnabled() bool {
	return c.NATSServers != ""
}

// KafkaEnabled reports whether the odds feed consumer should run
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// DiscordEnabled reports whether announcements go to a Discord channel
func (c *Config) DiscordEnabled() bool {
	return c.DiscordToken != "" && c.DiscordChannelID != ""
}

// Now returns the current time in the business timezone
func (c *Config) Now() time.Time {
	return time.Now().In(c.location())
}

// DateIn returns the calendar date of t in the business timezone
func (c *Config) DateIn(t time.Time) civil.Date {
	return civil.DateOf(t.In(c.location()))
}

func (c *Config) location() *time.Location {
	if c.BusinessLocation == nil {
		return time.UTC
	}
	return c.BusinessLocation
}

// load loads configuration from environment variables
func load() (*Config, error) {
	// A missing .env is normal outside local development
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Failed to load .env file")
	}

	config := &Config{
		// Database
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		DatabaseName:        os.Getenv("DATABASE_NAME"),
		DatabaseMaxConns:    getEnvInt("DATABASE_MAX_CONNS", 0),
		DatabaseLockTimeout: getEnvDuration("DATABASE_LOCK_TIMEOUT", 5*time.Second),

		// NATS
		NATSServers: os.Getenv("NATS_SERVERS"),

		// Redis
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		EventCacheTTL: getEnvDuration("EVENT_CACHE_TTL", 10*time.Minute),

		// Kafka
		KafkaBrokers:   splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaOddsTopic: getEnvWithDefault("KAFKA_ODDS_TOPIC", "odds.normalized"),
		KafkaGroupID:   getEnvWithDefault("KAFKA_GROUP_ID", "bookmaker-odds"),

		// Discord
		DiscordToken:     os.Getenv("DISCORD_TOKEN"),
		DiscordChannelID: os.Getenv("DISCORD_CHANNEL_ID"),

		MetricsAddr: getEnvWithDefault("METRICS_ADDR", ":9090"),

		// Wallet
		DailyBonusAmount: getEnvDecimal("DAILY_BONUS_AMOUNT", decimal.NewFromInt(100)),
		BusinessTimezone: getEnvWithDefault("BUSINESS_TIMEZONE", "UTC"),

		// Logging
		LogLevel:  getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvWithDefault("LOG_FORMAT", "text"),

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	if config.Environment == "" {
		config.Environment = "development"
	}

	loc, err := time.LoadLocation(config.BusinessTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid BUSINESS_TIMEZONE %q: %w", config.BusinessTimezone, err)
	}
	config.BusinessLocation = loc

	if !config.DailyBonusAmount.IsPositive() {
		return nil, fmt.Errorf("DAILY_BONUS_AMOUNT must be positive")
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.DatabaseName != "" && strings.TrimSpace(config.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
	}

	return config, nil
}

// ConfigureLogging applies LOG_LEVEL and LOG_FORMAT to the global logger
func (c *Config) ConfigureLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.WithField("level", c.LogLevel).Warn("Unknown LOG_LEVEL, defaulting to info")
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if c.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
		log.WithField("key", key).Warn("Ignoring non-integer environment value")
	}
	return defaultValue
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if parsed, err := decimal.NewFromString(value); err == nil {
			return parsed
		}
		log.WithField("key", key).Warn("Ignoring non-decimal environment value")
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
		log.WithField("key", key).Warn("Ignoring malformed duration environment value")
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:      "test",
		DailyBonusAmount: decimal.NewFromInt(100),
		BusinessTimezone: "UTC",
		BusinessLocation: time.UTC,
		EventCacheTTL:    time.Minute,
		KafkaOddsTopic:   "odds.normalized",
		LogLevel:         "debug",
	}
}
