package config

import (
	"log"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig describes the configuration of all services.
type AppConfig struct {
	AppEnv      string `envconfig:"APP_ENV" default:"dev"`
	Port        int    `envconfig:"PORT" default:"8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	Telegram struct {
		Token        string `envconfig:"TG_BOT_TOKEN"`
		WebhookURL   string `envconfig:"TG_WEBHOOK_URL"`
		ReviewChatID int64  `envconfig:"TG_REVIEW_CHAT_ID"`
	} `envconfig:""`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	AMQPURL string `envconfig:"AMQP_URL"`

	Queues struct {
		Review string `envconfig:"REVIEW_QUEUE_KEY" default:"review_jobs"`
	} `envconfig:""`

	CommunityURL string `envconfig:"COMMUNITY_URL" default:"https://community.wengro.com"`

	AdminToken string `envconfig:"ADMIN_API_TOKEN"`
}

// Load reads the config from the environment.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}
