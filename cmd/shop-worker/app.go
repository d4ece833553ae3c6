package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ZenGummies/ShopBox/config"
	"github.com/ZenGummies/ShopBox/internal/broker/kafka"
	"github.com/ZenGummies/ShopBox/internal/cache/rediscache"
	"github.com/ZenGummies/ShopBox/internal/integrations/capi"
	"github.com/ZenGummies/ShopBox/internal/integrations/push"
	"github.com/ZenGummies/ShopBox/internal/services/dispatcher"
)

type workerFactories struct {
	newPushClient  func(cfg *config.Config) dispatcher.PushSender
	newCAPIClient  func(cfg *config.Config) dispatcher.CAPISender
	newRateLimiter func(cfg *config.Config) dispatcher.RateLimiter
	newConsumer    func(cfg *config.Config, topic, group string) dispatcher.Consumer
}

func defaultWorkerFactories() workerFactories {
	return workerFactories{
		newPushClient: func(cfg *config.Config) dispatcher.PushSender {
			return push.New(cfg.ShopBox.PushServerURL, cfg.ShopBox.PushTopic)
		},
		newCAPIClient: func(cfg *config.Config) dispatcher.CAPISender {
			return capi.New(cfg.ShopBox.CAPIBaseURL, cfg.ShopBox.PixelID, cfg.ShopBox.CAPIAccessToken)
		},
		newRateLimiter: func(cfg *config.Config) dispatcher.RateLimiter {
			redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
			return rediscache.NewRateLimiter(redisAddr)
		},
		newConsumer: func(cfg *config.Config, topic, group string) dispatcher.Consumer {
			brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
			return kafka.NewConsumer(brokers, topic, group)
		},
	}
}

func RunShopWorker(ctx context.Context, cfg *config.Config, f workerFactories) error {
	topic := cfg.Kafka.OutboundTopicName
	if topic == "" {
		topic = "shop.outbound"
	}
	group := cfg.ShopBox.KafkaConsumerGroup
	if group == "" {
		group = "shop-worker"
	}

	concurrency := cfg.ShopBox.WorkerConcurrency
	if concurrency <= 0 {
		concurrency = 10
	}
	maxAttempts := cfg.ShopBox.WorkerMaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	backoff := time.Duration(cfg.ShopBox.WorkerBackoffSeconds) * time.Second
	if backoff <= 0 {
		backoff = 2 * time.Second
	}

	pushClient := f.newPushClient(cfg)
	capiClient := f.newCAPIClient(cfg)
	rl := f.newRateLimiter(cfg)
	consumer := f.newConsumer(cfg, topic, group)

	d := dispatcher.New(pushClient, capiClient, rl).
		WithSettings(concurrency, maxAttempts, backoff).
		WithRateLimits(cfg.ShopBox.WorkerRateLimitPushPerMinute, cfg.ShopBox.WorkerRateLimitCAPIPerMinute)

	if addr := cfg.ShopBox.WorkerHTTPAddr; addr != "" {
		go func() {
			err := runWorkerHTTPServer(ctx, workerHTTPOpts{
				httpAddr:   addr,
				dispatcher: d,
				cfg:        cfg,
			})
			if err != nil && err != context.Canceled {
				slog.Error("worker http server stopped", "error", err.Error())
			}
		}()
	}

	slog.Info("outbound dispatcher started", "topic", topic, "group", group)
	return d.Run(ctx, consumer)
}
