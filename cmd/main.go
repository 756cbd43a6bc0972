package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/api"
	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/config"
	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/db"
	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/events"
	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/extractor"
	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/gateway"
	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/logging"
	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/models"
	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/orchestrator"
	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.File)
	defer logger.Close()
	logger.Infof("Starting telemonitoramento backend")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	database, err := db.New(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	gw := gateway.New(logger)
	mobile := gateway.NewMobile(logger)
	gw.Register(models.ChannelMobile, mobile)

	if cfg.ZAPI.InstanceID != "" && cfg.ZAPI.Token != "" {
		gw.Register(models.ChannelWhatsApp, gateway.NewWhatsApp(cfg.ZAPI.InstanceID, cfg.ZAPI.Token, cfg.ZAPI.ClientToken, logger))
		logger.Infof("WhatsApp channel enabled")
	} else {
		logger.Warnf("WhatsApp channel disabled: ZAPI_INSTANCE_ID/ZAPI_TOKEN not set")
	}

	if cfg.Telegram.BotToken != "" {
		tg, err := gateway.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.RateLimit, logger)
		if err != nil {
			logger.Fatalf("Failed to initialize Telegram: %v", err)
		}
		gw.Register(models.ChannelTelegram, tg)
		logger.Infof("Telegram channel enabled")
	} else {
		logger.Warnf("Telegram channel disabled: TELEGRAM_BOT_TOKEN not set")
	}

	var primary extractor.Primary
	if cfg.OpenAI.APIKey != "" {
		primary = extractor.NewOpenAIExtractor(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
		logger.Infof("LLM extraction enabled (model %s)", cfg.OpenAI.Model)
	} else {
		logger.Warnf("LLM extraction disabled: OPENAI_API_KEY not set, regex fallback only")
	}
	ext := extractor.New(primary, logger)

	var publisher *events.Publisher
	var alerts orchestrator.AlertPublisher
	if cfg.Kafka.Broker != "" {
		publisher = events.NewPublisher(cfg.Kafka.Broker, cfg.Kafka.Topic, logger)
		alerts = publisher
		defer publisher.Close()
		logger.Infof("Care-team alert publishing enabled (topic %s)", cfg.Kafka.Topic)
	} else {
		logger.Warnf("Care-team alert publishing disabled: KAFKA_BROKER not set")
	}

	orch := orchestrator.New(database, ext, gw, alerts, logger)

	sched, err := scheduler.New(database, gw, cfg.Scheduler.Cron, cfg.Scheduler.Timezone, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize scheduler: %v", err)
	}
	sched.Start()

	router := api.NewRouter(database, orch, gw, mobile, logger)
	server := &http.Server{Addr: cfg.API.Port, Handler: router}

	go func() {
		logger.Infof("API listening on %s", cfg.API.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("API server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infof("Shutting down")

	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Forced shutdown: %v", err)
	}
	logger.Infof("Stopped")
}
