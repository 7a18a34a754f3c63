package config

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("DAILY_BONUS_AMOUNT", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("NATS_SERVERS", "")
	t.Setenv("BUSINESS_TIMEZONE", "")

	cfg, err := load()
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(100).Equal(cfg.DailyBonusAmount))
	assert.Equal(t, "odds.normalized", cfg.KafkaOddsTopic)
	assert.Equal(t, time.UTC, cfg.BusinessLocation)
	assert.False(t, cfg.NATSEnabled())
	assert.False(t, cfg.KafkaEnabled())
	assert.Equal(t, 5*time.Second, cfg.DatabaseLockTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("DAILY_BONUS_AMOUNT", "25.50")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("BUSINESS_TIMEZONE", "America/Sao_Paulo")
	t.Setenv("EVENT_CACHE_TTL", "30s")

	cfg, err := load()
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("25.50").Equal(cfg.DailyBonusAmount))
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "America/Sao_Paulo", cfg.BusinessLocation.String())
	assert.Equal(t, 30*time.Second, cfg.EventCacheTTL)
}

func TestLoad_RequiresDatabaseOutsideTests(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("DATABASE_URL", "")

	_, err := load()
	assert.Error(t, err)
}

func TestLoad_RejectsUnknownTimezone(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("BUSINESS_TIMEZONE", "Mars/Olympus")

	_, err := load()
	assert.Error(t, err)
}

func TestConfig_DateIn(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)
	cfg := NewTestConfig()
	cfg.BusinessLocation = loc

	// 01:30 UTC is still the previous day in UTC-3
	instant := time.Date(2024, 3, 10, 1, 30, 0, 0, time.UTC)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.March, Day: 9}, cfg.DateIn(instant))
}

func TestSetTestConfig(t *testing.T) {
	custom := NewTestConfig()
	custom.DailyBonusAmount = decimal.NewFromInt(7)
	SetTestConfig(custom)
	defer ResetConfig()

	assert.Same(t, custom, Get())
}
