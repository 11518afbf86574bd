package config

import (
	"log"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig describes the configuration of all services.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	TZ     string `envconfig:"TZ" default:"America/Sao_Paulo"`
	Port   int    `envconfig:"PORT" default:"8080"`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	AMQPURL string `envconfig:"AMQP_URL"`

	Minio struct {
		Endpoint  string `envconfig:"MINIO_ENDPOINT" default:"minio:9000"`
		AccessKey string `envconfig:"MINIO_ACCESS_KEY" default:"minioadmin"`
		SecretKey string `envconfig:"MINIO_SECRET_KEY" default:"minioadmin"`
		Bucket    string `envconfig:"MINIO_BUCKET" default:"news-storage"`
		UseSSL    bool   `envconfig:"MINIO_USE_SSL" default:"false"`
	} `envconfig:""`

	OpenAI struct {
		APIKey  string        `envconfig:"OPENAI_API_KEY"`
		BaseURL string        `envconfig:"OPENAI_BASE_URL"`
		Model   string        `envconfig:"OPENAI_MODEL" default:"gpt-4o"`
		Timeout time.Duration `envconfig:"OPENAI_TIMEOUT" default:"60s"`
	} `envconfig:""`

	SMTP struct {
		Host     string `envconfig:"SMTP_HOST" default:"smtp.gmail.com"`
		Port     int    `envconfig:"SMTP_PORT" default:"587"`
		User     string `envconfig:"SMTP_USER"`
		Password string `envconfig:"SMTP_PASSWORD"`
	} `envconfig:""`

	Digest struct {
		Theme             string        `envconfig:"NEWS_THEME" default:"economia"`
		MaxArticles       int           `envconfig:"CRAWL_MAX_ARTICLES" default:"15"`
		CrawlDelay        time.Duration `envconfig:"CRAWL_DELAY" default:"2s"`
		SummaryMaxNews    int           `envconfig:"SUMMARY_MAX_NEWS" default:"20"`
		MorningHour       int           `envconfig:"MORNING_HOUR" default:"7"`
		EveningHour       int           `envconfig:"EVENING_HOUR" default:"18"`
		Recipients        string        `envconfig:"RECIPIENT_EMAILS"`
		UnsubscribeSecret string        `envconfig:"UNSUBSCRIBE_SECRET" default:"default-secret-key-change-me"`
		PreferencesURL    string        `envconfig:"PREFERENCES_BASE_URL" default:"http://localhost:8080"`
	} `envconfig:""`

	Retry struct {
		Attempts int           `envconfig:"TASK_RETRIES" default:"2"`
		Delay    time.Duration `envconfig:"TASK_RETRY_DELAY" default:"5m"`
	} `envconfig:""`

	Queues struct {
		Runs string `envconfig:"RUN_QUEUE" default:"run_jobs"`
	} `envconfig:""`
}

// Load reads the config from the environment.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	return cfg
}

// RecipientList splits the configured recipient emails.
func (c AppConfig) RecipientList() []string {
	var out []string
	for _, raw := range strings.Split(c.Digest.Recipients, ",") {
		if email := strings.TrimSpace(raw); email != "" {
			out = append(out, email)
		}
	}
	return out
}
