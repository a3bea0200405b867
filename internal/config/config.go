package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Common struct {
	Port        string `envconfig:"PORT" default:"8080"`
	MetricsPort string `envconfig:"METRICS_PORT" default:"9090"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"json"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
}

type Provider struct {
	StarsenderAPIKey  string        `envconfig:"STARSENDER_API_KEY"`
	StarsenderBaseURL string        `envconfig:"STARSENDER_BASE_URL" default:"https://api.starsender.online/api"`
	StarsenderTimeout time.Duration `envconfig:"STARSENDER_TIMEOUT" default:"30s"`
	StarsenderRPS     float64       `envconfig:"STARSENDER_RPS" default:"5"`
	StarsenderBurst   int           `envconfig:"STARSENDER_BURST" default:"10"`
}

// LogStorage.LogStore selects where dispatch results are kept: "memory", "redis" or "postgres".
type LogStorage struct {
	LogStore      string `envconfig:"LOG_STORE" default:"memory"`
	LogMaxEntries int    `envconfig:"LOG_MAX_ENTRIES" default:"100"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	DBDSN                   string        `envconfig:"DB_DSN"`
	DBPoolMaxConns          int32         `envconfig:"DB_POOL_MAX_CONNS" default:"4"`
	DBPoolMinConns          int32         `envconfig:"DB_POOL_MIN_CONNS" default:"0"`
	DBPoolMaxConnLifetime   time.Duration `envconfig:"DB_POOL_MAX_CONN_LIFETIME" default:"1h"`
	DBPoolMaxConnIdleTime   time.Duration `envconfig:"DB_POOL_MAX_CONN_IDLE_TIME" default:"30m"`
	DBPoolHealthCheckPeriod time.Duration `envconfig:"DB_POOL_HEALTH_CHECK_PERIOD" default:"1m"`
}

type SQS struct {
	AWSRegion          string `envconfig:"AWS_REGION" required:"true"`
	SQSQueueURL        string `envconfig:"SQS_QUEUE_URL" required:"true"`
	SQSFIFO            bool   `envconfig:"SQS_FIFO" default:"false"`
	LocalstackEndpoint string `envconfig:"LOCALSTACK_ENDPOINT"`
	SQSWaitTime        int32  `envconfig:"SQS_WAIT_TIME" default:"20"`
	SQSMaxMsgs         int32  `envconfig:"SQS_MAX_MSGS" default:"10"`
	SQSVizTimeout      int32  `envconfig:"SQS_VISIBILITY_TIMEOUT" default:"300"`
}

type APIConfig struct {
	Common
	Provider
	LogStorage

	SettingsFile             string `envconfig:"SETTINGS_FILE" default:"settings.yaml"`
	Timezone                 string `envconfig:"TIMEZONE" default:"UTC"`
	ConnectionTestsPerMinute int    `envconfig:"CONNECTION_TESTS_PER_MINUTE" default:"5"`
	SiteName                 string `envconfig:"SITE_NAME" default:"formnotif"`

	// TrustProxyHeaders keys the connection-test limit on X-Forwarded-For.
	// Enable only behind a proxy that overwrites the header.
	TrustProxyHeaders bool `envconfig:"TRUST_PROXY_HEADERS" default:"false"`
}

type WorkerConfig struct {
	Common
	Provider
	LogStorage
	SQS

	SettingsFile string `envconfig:"SETTINGS_FILE" default:"settings.yaml"`
	Timezone     string `envconfig:"TIMEZONE" default:"UTC"`

	// Submissions are dispatched one at a time unless raised.
	WorkerConcurrency int `envconfig:"WORKER_CONCURRENCY" default:"1"`
}

type WebhookConfig struct {
	Common
	SQS

	// Shared secret the host uses to sign webhook bodies (HMAC-SHA256, hex).
	WebhookSecret string `envconfig:"WEBHOOK_SECRET" required:"true"`
}

type MockProviderConfig struct {
	Port        string  `envconfig:"PORT" default:"8081"`
	LogFormat   string  `envconfig:"LOG_FORMAT" default:"json"`
	APIKey      string  `envconfig:"MOCK_API_KEY" default:"mock-api-key-0001"`
	OutcomeMode string  `envconfig:"MOCK_OUTCOME_MODE" default:"fixed"`
	OutcomesRaw string  `envconfig:"MOCK_OUTCOMES" default:"ok"`
	SuccessRate float64 `envconfig:"MOCK_SUCCESS_RATE" default:"0.95"`
	DelayMs     int     `envconfig:"MOCK_DELAY_MS" default:"0"`
}

func LoadAPI() (APIConfig, error) {
	var cfg APIConfig
	err := load(&cfg)
	return cfg, err
}

func LoadWorker() (WorkerConfig, error) {
	var cfg WorkerConfig
	err := load(&cfg)
	return cfg, err
}

func LoadWebhook() (WebhookConfig, error) {
	var cfg WebhookConfig
	err := load(&cfg)
	return cfg, err
}

func LoadMockProvider() (MockProviderConfig, error) {
	var cfg MockProviderConfig
	err := load(&cfg)
	return cfg, err
}

func load(spec any) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("dotenv load failed", "err", err)
	}
	return envconfig.Process("", spec)
}

// Location resolves a TIMEZONE value, falling back to UTC.
func Location(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		slog.Warn("unknown timezone, using UTC", "timezone", name, "err", err)
		return time.UTC
	}
	return loc
}
