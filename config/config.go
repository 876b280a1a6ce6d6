package config

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

const (
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
	StoreDriverDynamoDB = "dynamodb"

	EngineLexicon = "lexicon"
	EngineGoVader = "govader"
)

type Config struct {
	AppEnv   string
	HTTPAddr string
	LogLevel string

	Store    StoreConfig
	Valkey   ValkeyConfig
	Kafka    KafkaConfig
	Analysis AnalysisConfig

	AllowedOrigins []string
	ReportCacheTTL time.Duration
}

type StoreConfig struct {
	Driver     string
	SQLitePath string

	// postgres
	Host     string
	Port     string
	User     string
	Password string
	Name     string

	// dynamodb
	AWSEndpoint   string
	AWSRegion     string
	FeedbackTable string
	UploadsTable  string
}

type ValkeyConfig struct {
	Address  string
	Password string
	UseTLS   bool
}

// Enabled reports whether a Valkey address was configured.
func (v ValkeyConfig) Enabled() bool {
	return v.Address != ""
}

type KafkaConfig struct {
	Broker       string
	GroupID      string
	Topic        string
	ResultsTopic string
}

type AnalysisConfig struct {
	Engine                string
	LexiconPath           string
	Workers               int
	SummaryExcludeUnknown bool
}

func Load() Config {
	return Config{
		AppEnv:   AppEnv(),
		HTTPAddr: getEnv("HTTP_ADDR", ":8000"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Store: StoreConfig{
			Driver:        strings.ToLower(getEnv("STORE_DRIVER", StoreDriverSQLite)),
			SQLitePath:    getEnv("SQLITE_PATH", "feedback_analysis.db"),
			Host:          getEnv("DB_HOST", "localhost"),
			Port:          getEnv("DB_PORT", "5432"),
			User:          getEnv("DB_USER", "postgres"),
			Password:      os.Getenv("DB_PASSWORD"),
			Name:          getEnv("DB_NAME", "feedback"),
			AWSEndpoint:   os.Getenv("AWS_ENDPOINT"),
			AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
			FeedbackTable: getEnv("FEEDBACK_TABLE_NAME", "FeedbackData"),
			UploadsTable:  getEnv("UPLOADS_TABLE_NAME", "Uploads"),
		},
		Valkey: ValkeyConfig{
			Address:  os.Getenv("VALKEY_INIT_ADDRESS"),
			Password: os.Getenv("VALKEY_PASSWORD"),
			UseTLS:   os.Getenv("VALKEY_TLS") == "true",
		},
		Kafka: KafkaConfig{
			Broker:       getEnv("KAFKA_BROKER", "localhost:29092"),
			GroupID:      getEnv("KAFKA_CONSUMER_GROUP_ID", "feedbackflow-consumer-group"),
			Topic:        getEnv("KAFKA_CONSUMER_TOPIC", "feedback-raw"),
			ResultsTopic: getEnv("KAFKA_RESULTS_TOPIC", "feedback-analyzed"),
		},
		Analysis: AnalysisConfig{
			Engine:                strings.ToLower(getEnv("SENTIMENT_ENGINE", EngineLexicon)),
			LexiconPath:           os.Getenv("LEXICON_PATH"),
			Workers:               getEnvInt("ANALYZER_WORKERS", runtime.NumCPU()),
			SummaryExcludeUnknown: os.Getenv("SUMMARY_EXCLUDE_UNKNOWN") == "true",
		},
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		ReportCacheTTL: getEnvDuration("REPORT_CACHE_TTL", 5*time.Minute),
	}
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return d
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
