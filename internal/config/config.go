package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	DB struct {
		DSN string
	}
	API struct {
		Port string
	}
	OpenAI struct {
		APIKey string
		Model  string
	}
	Telegram struct {
		BotToken  string
		RateLimit int // messages per second
	}
	ZAPI struct {
		InstanceID  string
		Token       string
		ClientToken string
	}
	Kafka struct {
		Broker string
		Topic  string
	}
	Scheduler struct {
		Cron     string
		Timezone string
	}
	Log struct {
		Level string
		File  string
	}
}

// Load reads environment variables, applies defaults, and returns a Config.
func Load() (Config, error) {
	// Load .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config

	cfg.DB.DSN = os.Getenv("DB_DSN")
	cfg.API.Port = os.Getenv("API_PORT")

	cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAI.Model = os.Getenv("OPENAI_MODEL")

	cfg.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if r, err := strconv.Atoi(os.Getenv("TELEGRAM_RATE_LIMIT")); err == nil {
		cfg.Telegram.RateLimit = r
	}

	cfg.ZAPI.InstanceID = os.Getenv("ZAPI_INSTANCE_ID")
	cfg.ZAPI.Token = os.Getenv("ZAPI_TOKEN")
	cfg.ZAPI.ClientToken = os.Getenv("ZAPI_CLIENT_TOKEN")

	cfg.Kafka.Broker = os.Getenv("KAFKA_BROKER")
	cfg.Kafka.Topic = os.Getenv("KAFKA_TOPIC")

	cfg.Scheduler.Cron = os.Getenv("SCHEDULER_CRON")
	cfg.Scheduler.Timezone = os.Getenv("SCHEDULER_TZ")

	cfg.Log.Level = os.Getenv("LOG_LEVEL")
	cfg.Log.File = os.Getenv("LOG_FILE")

	// Validate required settings
	missing := []string{}
	if cfg.DB.DSN == "" {
		missing = append(missing, "DB_DSN")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required configurations: %v", missing)
	}

	// Apply defaults
	if cfg.API.Port == "" {
		cfg.API.Port = ":8080"
	}
	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = "gpt-4o-mini"
	}
	if cfg.Telegram.RateLimit == 0 {
		cfg.Telegram.RateLimit = 25
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "care_team_alerts"
	}
	if cfg.Scheduler.Cron == "" {
		cfg.Scheduler.Cron = "0 9 * * *"
	}
	if cfg.Scheduler.Timezone == "" {
		cfg.Scheduler.Timezone = "America/Sao_Paulo"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return cfg, nil
}
