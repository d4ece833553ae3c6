package main

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/ZenGummies/ShopBox/config"
	"github.com/ZenGummies/ShopBox/internal/integrations/capi"
	"github.com/ZenGummies/ShopBox/internal/integrations/push"
	"github.com/ZenGummies/ShopBox/internal/services/dispatcher"
	"github.com/stretchr/testify/require"
)

func TestDefaultWorkerFactories_Clients(t *testing.T) {
	f := defaultWorkerFactories()

	cfg := &config.Config{
		Kafka: config.KafkaConfig{Host: "localhost", Port: 9092},
		Redis: config.RedisConfig{Host: "localhost", Port: 6379},
		ShopBox: config.ShopBoxConfig{
			PushServerURL:   "https://ntfy.sh",
			PushTopic:       "zengummies-orders",
			PixelID:         "123",
			CAPIAccessToken: "tok",
		},
	}

	p, ok := f.newPushClient(cfg).(*push.Client)
	require.True(t, ok)
	require.True(t, p.Configured())

	c, ok := f.newCAPIClient(cfg).(*capi.Client)
	require.True(t, ok)
	require.True(t, c.Configured())

	require.NotNil(t, f.newRateLimiter(cfg))
	require.NotNil(t, f.newConsumer(cfg, "shop.outbound", "shop-worker"))
}

func TestDefaultWorkerFactories_UnconfiguredClients(t *testing.T) {
	f := defaultWorkerFactories()
	cfg := &config.Config{}

	p, ok := f.newPushClient(cfg).(*push.Client)
	require.True(t, ok)
	require.False(t, p.Configured())

	c, ok := f.newCAPIClient(cfg).(*capi.Client)
	require.True(t, ok)
	require.False(t, c.Configured())
}

func TestRunWorkerHTTPServer_StatsAndConfig(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := dispatcher.New(nil, nil, nil)
	cfg := &config.Config{
		ShopBox: config.ShopBoxConfig{
			WorkerConcurrency: 5,
			WorkerMaxAttempts: 3,
			PushServerURL:     "https://ntfy.sh",
			PushTopic:         "t",
		},
	}

	addrCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- runWorkerHTTPServer(ctx, workerHTTPOpts{
			httpAddr:   "127.0.0.1:0",
			onListen:   func(addr string) { addrCh <- addr },
			dispatcher: d,
			cfg:        cfg,
		})
	}()

	addr := <-addrCh

	resp, err := http.Get("http://" + addr + "/stats")
	require.NoError(t, err)
	var stats dispatcher.Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	_ = resp.Body.Close()
	require.Equal(t, int64(0), stats.TotalConsumed)

	resp, err = http.Get("http://" + addr + "/config")
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	_ = resp.Body.Close()
	require.Equal(t, float64(5), out["concurrency"])
	require.Equal(t, true, out["pushConfigured"])
	require.Equal(t, false, out["capiConfigured"])

	resp, err = http.Get("http://" + addr + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)

	cancel()
	select {
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting worker http server to stop")
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	}
}
