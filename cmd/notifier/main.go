package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"mavryk-submission-bot/internal/adapters/telegram"
	"mavryk-submission-bot/internal/domain"
	"mavryk-submission-bot/internal/infra/config"
	"mavryk-submission-bot/internal/infra/log"
	"mavryk-submission-bot/internal/infra/metrics"
	"mavryk-submission-bot/internal/infra/queue"
)

func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Telegram.ReviewChatID == 0 {
		logger.Fatal().Msg("notifier: TG_REVIEW_CHAT_ID is required")
	}

	var reviews domain.ReviewQueue
	switch {
	case cfg.AMQPURL != "":
		rabbit, err := queue.NewRabbitReviewQueue(cfg.AMQPURL, cfg.Queues.Review)
		if err != nil {
			logger.Fatal().Err(err).Msg("notifier: rabbitmq connection failed")
		}
		defer rabbit.Close()
		reviews = rabbit
	case cfg.RedisAddr != "":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		reviews = queue.NewRedisReviewQueue(client, cfg.Queues.Review)
	default:
		logger.Fatal().Msg("notifier: neither AMQP_URL nor REDIS_ADDR is configured")
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("notifier: telegram api init failed")
	}

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)
	logger.Info().Str("queue", cfg.Queues.Review).Msg("notifier: started")

	for {
		job, err := reviews.Pop(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			logger.Error().Err(err).Msg("notifier: queue pop failed")
			continue
		}
		text := renderReviewMessage(job)
		var sendErr error
		for _, chunk := range telegram.ChunkMessage(text) {
			if _, err := botAPI.Send(tgbotapi.NewMessage(cfg.Telegram.ReviewChatID, chunk)); err != nil {
				sendErr = err
				break
			}
		}
		if sendErr != nil {
			metrics.BotSendErrors.Inc()
			logger.Error().Err(sendErr).Str("submission_id", job.SubmissionID).Msg("notifier: send failed")
			continue
		}
		metrics.ReviewJobsDelivered.Inc()
	}

	logger.Info().Msg("notifier: stopped")
}

func renderReviewMessage(job domain.ReviewJob) string {
	return fmt.Sprintf(`📬 New Mavryk submission

• Tweet: %s
• Author: @%s
• Submitted by: @%s (X: @%s)
• At: %s`, job.TweetURL, job.Author, job.TelegramHandle, job.XHandle, job.SubmittedAt.UTC().Format("2006-01-02 15:04:05 MST"))
}
