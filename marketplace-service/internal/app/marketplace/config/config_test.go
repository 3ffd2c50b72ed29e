package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "market_events", cfg.Kafka.Topic)
	assert.Equal(t, 8, cfg.Recommendation.DefaultLimit)
	assert.Equal(t, 50, cfg.Recommendation.MaxLimit)
	assert.True(t, cfg.Recommendation.ExcludeSold)
	assert.Equal(t, "0 */15 * * * *", cfg.Auditor.Schedule)
	assert.Equal(t, "host=localhost port=5432 user=postgres password=postgres dbname=stilnovo sslmode=disable", cfg.Database.DSN())
	assert.Equal(t, "localhost:6379", cfg.Redis.Address())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("RECOMMEND_EXCLUDE_SOLD", "false")
	t.Setenv("RECOMMEND_SCORE_TTL", "90s")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.Recommendation.ExcludeSold)
	assert.Equal(t, 90*time.Second, cfg.Recommendation.ScoreTTL)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns) // некорректное значение -> default
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	assert.Nil(t, cfg)
	assert.EqualError(t, err, "JWT_SECRET is required")
}

func TestValidate_LimitBounds(t *testing.T) {
	cfg := &Config{
		JWT:            JWTConfig{Secret: "s"},
		Recommendation: RecommendationConfig{DefaultLimit: 10, MaxLimit: 5},
	}
	assert.Error(t, cfg.Validate())

	cfg.Recommendation.MaxLimit = 10
	assert.NoError(t, cfg.Validate())
}
