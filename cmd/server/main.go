package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/praneshkm/evconv/internal/api"
	"github.com/praneshkm/evconv/internal/config"
	"github.com/praneshkm/evconv/internal/convert"
	"github.com/praneshkm/evconv/internal/engine"
	"github.com/praneshkm/evconv/internal/sink"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	defsPath := flag.String("definitions", "configs/event_definitions.yaml", "Path to event definitions YAML")
	kafkaBrokers := flag.String("kafka-brokers", "", "Comma-separated Kafka brokers (empty = log sink)")
	kafkaTopic := flag.String("kafka-topic", "converted-events", "Kafka topic for converted events")
	redisAddr := flag.String("redis-addr", "", "Redis address for the idempotency guard (empty = disabled)")
	dedupeTTL := flag.Duration("dedupe-ttl", 24*time.Hour, "How long published message IDs are remembered")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// ── Load event definitions ───────────────────────────────────────────────
	loader, err := config.NewLoader(*defsPath)
	if err != nil {
		slog.Error("failed to load definitions", "err", err)
		os.Exit(1)
	}
	cfg := loader.Config()

	// ── Build initial conversion engine (fails fast on a bad rule set) ───────
	conv, err := convert.NewEngine(cfg.Definitions, cfg.DropUnmatched)
	if err != nil {
		slog.Error("invalid event definitions", "err", err)
		os.Exit(1)
	}
	slog.Info("rule table built",
		"definitions", len(cfg.Definitions),
		"rules", conv.RuleCount(),
		"drop_unmatched", cfg.DropUnmatched)

	// ── Sink ─────────────────────────────────────────────────────────────────
	var out sink.Sink
	if *kafkaBrokers != "" {
		out, err = sink.NewKafkaSink(sink.ParseBrokers(*kafkaBrokers), *kafkaTopic)
		if err != nil {
			slog.Error("failed to create kafka sink", "err", err)
			os.Exit(1)
		}
		slog.Info("publishing events to kafka", "topic", *kafkaTopic)
	} else {
		out = &sink.LogSink{Log: logger}
	}
	if *redisAddr != "" {
		out = sink.NewDeduper(out, *redisAddr, *dedupeTTL)
		slog.Info("idempotency guard enabled", "redis", *redisAddr, "ttl", *dedupeTTL)
	}
	defer out.Close()

	// ── Processor ────────────────────────────────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	proc := engine.New(ctx, conv, out, cfg.Engine)

	// ── Hot-reload watcher ───────────────────────────────────────────────────
	loader.OnChange(func(newCfg *config.Config) {
		newConv, err := convert.NewEngine(newCfg.Definitions, newCfg.DropUnmatched)
		if err != nil {
			slog.Warn("hot-reload skipped: definitions invalid", "err", err)
			return
		}
		proc.SwapEngine(newConv)
		slog.Info("definitions hot-reloaded", "rules", newConv.RuleCount())
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("definitions watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── HTTP server ──────────────────────────────────────────────────────────
	handler := api.New(proc, loader)
	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	cancel() // stop workers
	proc.Shutdown()
	slog.Info("goodbye")
}
