// Command server exposes the harvest environment over websocket so remote
// policies (learned, scripted or human-driven) can act in it. One connection
// drives one agent slot; the world ticks at a fixed rate and disconnected
// slots no-op.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"harvest.world/internal/experiment"
	"harvest.world/internal/sim/engine"
	"harvest.world/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		configPath = flag.String("config", "", "experiment config (.json or .yaml)")
		tickRate   = flag.Int("tick_rate", 0, "tick rate override in Hz (0 = from config)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	if *configPath == "" {
		logger.Fatal("missing -config")
	}
	cfg, err := experiment.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *tickRate > 0 {
		cfg.TickRateHz = *tickRate
	}

	sim, err := engine.New(cfg.Engine)
	if err != nil {
		logger.Fatalf("engine: %v", err)
	}

	hub := ws.NewHub(sim, cfg.TickRateHz, logger)
	srv := ws.NewServer(hub, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/ws", srv.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := hub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Printf("hub: %v", err)
		}
	}()

	httpSrv := &http.Server{Addr: *addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	logger.Printf("listening on %s (agents=%d tick=%dHz)", *addr, cfg.Engine.NumAgents, cfg.TickRateHz)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("listen: %v", err)
	}
}
