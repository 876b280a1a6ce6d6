package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "STORE_DRIVER", "SQLITE_PATH", "SENTIMENT_ENGINE", "ALLOWED_ORIGINS", "REPORT_CACHE_TTL", "VALKEY_INIT_ADDRESS", "KAFKA_CONSUMER_TOPIC", "KAFKA_RESULTS_TOPIC"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, ":8000", cfg.HTTPAddr)
	assert.Equal(t, StoreDriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "feedback_analysis.db", cfg.Store.SQLitePath)
	assert.Equal(t, EngineLexicon, cfg.Analysis.Engine)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, 5*time.Minute, cfg.ReportCacheTTL)
	assert.False(t, cfg.Valkey.Enabled())
	assert.Positive(t, cfg.Analysis.Workers)
	assert.Equal(t, "feedback-raw", cfg.Kafka.Topic)
	assert.Equal(t, "feedback-analyzed", cfg.Kafka.ResultsTopic)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "DynamoDB")
	t.Setenv("ANALYZER_WORKERS", "3")
	t.Setenv("REPORT_CACHE_TTL", "30s")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("SUMMARY_EXCLUDE_UNKNOWN", "true")
	t.Setenv("VALKEY_INIT_ADDRESS", "localhost:6379")

	cfg := Load()

	assert.Equal(t, StoreDriverDynamoDB, cfg.Store.Driver)
	assert.Equal(t, 3, cfg.Analysis.Workers)
	assert.Equal(t, 30*time.Second, cfg.ReportCacheTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.True(t, cfg.Analysis.SummaryExcludeUnknown)
	assert.True(t, cfg.Valkey.Enabled())
}

func TestGetEnvIntRejectsNonPositive(t *testing.T) {
	t.Setenv("ANALYZER_WORKERS", "-2")
	assert.Equal(t, 7, getEnvInt("ANALYZER_WORKERS", 7))
}
