package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ZenGummies/ShopBox/config"
	"github.com/ZenGummies/ShopBox/internal/api/shopapi"
	"github.com/ZenGummies/ShopBox/internal/auth"
	"github.com/ZenGummies/ShopBox/internal/broker/kafka"
	"github.com/ZenGummies/ShopBox/internal/cache/rediscache"
	"github.com/ZenGummies/ShopBox/internal/services/orders"
	"github.com/ZenGummies/ShopBox/internal/services/tracking"
	"github.com/ZenGummies/ShopBox/internal/storage/pgshop"
)

type shopAPIApp struct {
	ctx      context.Context
	cancel   context.CancelFunc
	opts     shopAPIOpts
	api      *shopapi.API
	closeDB  func()
	producer *kafka.Producer
}

func mustBootstrapShopAPI() *shopAPIApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}
	swaggerPath := os.Getenv("swaggerPath")
	if swaggerPath == "" {
		panic("swaggerPath env var is required")
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	httpAddr := cfg.ShopBox.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	topic := cfg.Kafka.OutboundTopicName
	if topic == "" {
		topic = "shop.outbound"
	}
	cacheTTL := time.Duration(cfg.ShopBox.OrdersCacheTTLSeconds) * time.Second
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	sessionTTL := time.Duration(cfg.ShopBox.SessionTTLSeconds) * time.Second

	sslMode := cfg.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, sslMode)
	st := mustOpenPostgresWithRetry(connString, 60*time.Second)

	redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	rc := rediscache.New(redisAddr)

	brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
	producer := kafka.NewProducer(brokers)

	ordersSvc := orders.New(st, rc, cacheTTL, producer, topic)
	trackingSvc := tracking.New(producer, topic, cfg.ShopBox.AppBaseURL)

	gate := auth.NewGate(cfg.ShopBox.AdminEmail, cfg.ShopBox.AdminPassword, st)
	sessions := auth.NewSessions(cfg.ShopBox.SessionSecret, sessionTTL)

	diag := shopapi.Diagnostics{
		DBConfigured:    cfg.Database.Host != "",
		RedisConfigured: cfg.Redis.Host != "",
		KafkaConfigured: cfg.Kafka.Host != "",
		PixelConfigured: cfg.ShopBox.PixelID != "",
		CAPIConfigured:  cfg.ShopBox.PixelID != "" && cfg.ShopBox.CAPIAccessToken != "",
		PushConfigured:  cfg.ShopBox.PushServerURL != "" && cfg.ShopBox.PushTopic != "",
	}

	api := shopapi.New(ordersSvc, trackingSvc, gate, sessions, st, diag,
		cfg.ShopBox.AdminEmail, cfg.ShopBox.AdminName)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	return &shopAPIApp{
		ctx:    ctx,
		cancel: cancel,
		opts: shopAPIOpts{
			httpAddr:    httpAddr,
			swaggerPath: swaggerPath,
		},
		api:      api,
		closeDB:  st.Close,
		producer: producer,
	}
}

func mustOpenPostgresWithRetry(connString string, wait time.Duration) *pgshop.Storage {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		st, err := pgshop.New(connString)
		if err == nil {
			return st
		}
		lastErr = err
		time.Sleep(1 * time.Second)
	}
	panic(fmt.Sprintf("postgres is not ready after %s: %v", wait, lastErr))
}

func (a *shopAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.producer != nil {
		_ = a.producer.Close()
	}
	if a.closeDB != nil {
		a.closeDB()
	}
}

func (a *shopAPIApp) Run() error {
	return runShopAPI(a.ctx, a.opts, a.api)
}
