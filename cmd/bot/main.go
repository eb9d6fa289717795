package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"mavryk-submission-bot/internal/adapters/bot"
	"mavryk-submission-bot/internal/adapters/repo"
	"mavryk-submission-bot/internal/domain"
	"mavryk-submission-bot/internal/infra/cache"
	"mavryk-submission-bot/internal/infra/config"
	"mavryk-submission-bot/internal/infra/db"
	httpinfra "mavryk-submission-bot/internal/infra/http"
	"mavryk-submission-bot/internal/infra/log"
	"mavryk-submission-bot/internal/infra/metrics"
	"mavryk-submission-bot/internal/infra/queue"
	"mavryk-submission-bot/internal/usecase/accounts"
	"mavryk-submission-bot/internal/usecase/submission"
)

func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("bot: database connection failed")
	}
	defer pool.Close()
	if err := db.RunMigrations(cfg.PGDSN, logger); err != nil {
		logger.Fatal().Err(err).Msg("bot: migrations failed")
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
	}

	var accountCache domain.Cache
	if redisClient != nil {
		accountCache = cache.NewRedis(redisClient)
	}

	var reviews domain.ReviewQueue
	switch {
	case cfg.AMQPURL != "":
		rabbit, err := queue.NewRabbitReviewQueue(cfg.AMQPURL, cfg.Queues.Review)
		if err != nil {
			logger.Fatal().Err(err).Msg("bot: rabbitmq connection failed")
		}
		defer rabbit.Close()
		reviews = rabbit
	case redisClient != nil:
		reviews = queue.NewRedisReviewQueue(redisClient, cfg.Queues.Review)
	default:
		logger.Warn().Msg("bot: no review queue configured, accepted submissions will not be forwarded")
	}

	repoAdapter := repo.NewPostgres(pool)
	directory := accounts.NewService(repoAdapter, accountCache, logger.With().Str("component", "accounts").Logger())
	pipeline := submission.NewService(repoAdapter, repoAdapter, reviews, logger.With().Str("component", "submission").Logger())

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("bot: telegram api init failed")
	}
	handler := bot.NewHandler(botAPI, logger.With().Str("component", "bot").Logger(), directory, pipeline, cfg.CommunityURL)

	r := httpinfra.NewRouter("mavryk-submission-bot")
	r.Get("/api/status", func(w http.ResponseWriter, req *http.Request) {
		dbStatus := "Connected"
		if err := repoAdapter.Ping(req.Context()); err != nil {
			dbStatus = "Error"
		}
		httpinfra.WriteJSON(w, http.StatusOK, map[string]string{
			"status":    "OK",
			"bot":       "Running",
			"database":  dbStatus,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	if cfg.Telegram.WebhookURL != "" {
		wh, err := tgbotapi.NewWebhook(cfg.Telegram.WebhookURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("bot: invalid webhook url")
		}
		if _, err := botAPI.Request(wh); err != nil {
			logger.Fatal().Err(err).Msg("bot: webhook registration failed")
		}
		r.Post("/webhook", func(w http.ResponseWriter, req *http.Request) {
			// Telegram retries on everything but 200, so a broken payload is
			// logged and dropped rather than redelivered forever.
			var update tgbotapi.Update
			if err := json.NewDecoder(req.Body).Decode(&update); err != nil {
				logger.Warn().Err(err).Msg("bot: undecodable webhook payload")
				w.WriteHeader(http.StatusOK)
				return
			}
			handler.HandleUpdate(req.Context(), update)
			w.WriteHeader(http.StatusOK)
		})
		logger.Info().Str("url", cfg.Telegram.WebhookURL).Msg("bot: webhook mode")
	} else {
		updateCfg := tgbotapi.NewUpdate(0)
		updateCfg.Timeout = 30
		updates := botAPI.GetUpdatesChan(updateCfg)
		go func() {
			for {
				select {
				case <-ctx.Done():
					botAPI.StopReceivingUpdates()
					return
				case update := <-updates:
					handler.HandleUpdate(ctx, update)
				}
			}
		}()
		logger.Info().Msg("bot: long-polling mode")
	}

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)

	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: r}
	go func() {
		logger.Info().Int("port", cfg.Port).Msg("bot: http server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("bot: http server stopped")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("bot: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
