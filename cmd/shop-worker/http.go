package main

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/ZenGummies/ShopBox/config"
	"github.com/ZenGummies/ShopBox/internal/services/dispatcher"
	"github.com/go-chi/chi/v5"
)

type workerHTTPOpts struct {
	httpAddr string
	onListen func(httpAddr string)

	dispatcher *dispatcher.Dispatcher
	cfg        *config.Config
}

// runWorkerHTTPServer exposes the ops endpoints: health, dispatcher stats
// and the effective worker settings. No secrets leave via /config.
func runWorkerHTTPServer(ctx context.Context, opts workerHTTPOpts) error {
	if opts.httpAddr == "" {
		opts.httpAddr = ":8082"
	}

	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})

	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if opts.dispatcher == nil {
			_, _ = w.Write([]byte(`{"error":"dispatcher not wired"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(opts.dispatcher.Stats())
	})

	r.Get("/config", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if opts.cfg == nil {
			_, _ = w.Write([]byte(`{"error":"config not wired"}`))
			return
		}
		out := map[string]any{
			"concurrency":            opts.cfg.ShopBox.WorkerConcurrency,
			"maxAttempts":            opts.cfg.ShopBox.WorkerMaxAttempts,
			"backoffSeconds":         opts.cfg.ShopBox.WorkerBackoffSeconds,
			"rateLimitPushPerMinute": opts.cfg.ShopBox.WorkerRateLimitPushPerMinute,
			"rateLimitCAPIPerMinute": opts.cfg.ShopBox.WorkerRateLimitCAPIPerMinute,
			"pushConfigured":         opts.cfg.ShopBox.PushServerURL != "" && opts.cfg.ShopBox.PushTopic != "",
			"capiConfigured":         opts.cfg.ShopBox.PixelID != "" && opts.cfg.ShopBox.CAPIAccessToken != "",
		}
		_ = json.NewEncoder(w).Encode(out)
	})

	srv := &http.Server{Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = lis.Close()
	}()

	if err := srv.Serve(lis); err != nil && err != http.ErrServerClosed {
		return err
	}
	return ctx.Err()
}
