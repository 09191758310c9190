package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/kafbridge/kafbridge/pkg/broadcast"
	"github.com/kafbridge/kafbridge/pkg/config"
	"github.com/kafbridge/kafbridge/pkg/export"
	"github.com/kafbridge/kafbridge/pkg/history"
	"github.com/kafbridge/kafbridge/pkg/ingest"
	"github.com/kafbridge/kafbridge/pkg/kafka"
	"github.com/kafbridge/kafbridge/pkg/server"
	"github.com/kafbridge/kafbridge/pkg/topics"
)

const (
	ingestGroupID = "kafbridge-ingest"
	exportGroupID = "kafbridge-export"
)

func main() {
	log.Println("[Proxy] Starting KafBridge...")

	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()
	cfg := config.Load(*configPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The bridge has no value without the log; give up after the timeout.
	if err := kafka.WaitForBroker(ctx, cfg.Kafka.Brokers, cfg.Kafka.ReadyTimeout); err != nil {
		log.Fatalf("[Proxy] broker not reachable: %v", err)
	}

	store := history.NewStore(topics.Known(), cfg.History.Size)
	hub := broadcast.NewHub(store)

	reader, err := kafka.NewReader(cfg.Kafka.Brokers, ingestGroupID)
	if err != nil {
		log.Fatalf("[Proxy] failed to create ingestion reader: %v", err)
	}
	ingestor := ingest.New(reader, store, hub, cfg.History.Size)

	// Buffers must hold the recent tail before any client can connect.
	if err := ingestor.Hydrate(); err != nil {
		log.Fatalf("[Proxy] hydration failed: %v", err)
	}

	registry := export.NewRegistry()
	if n, err := registry.Rebuild(cfg.Export.Dir); err != nil {
		log.Printf("[Proxy] artifact registry rebuild failed: %v", err)
	} else if n > 0 {
		log.Printf("[Proxy] registered %d existing artifact(s)", n)
	}

	exporter, err := export.New(kafka.NewFactory(cfg.Kafka.Brokers, exportGroupID), cfg.Export, registry)
	if err != nil {
		log.Fatalf("[Proxy] failed to init exporter: %v", err)
	}

	srv := server.New(store, hub, exporter)
	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("[Proxy] serving on %s", addr)
		return srv.ListenAndServe(gctx, addr)
	})

	// Ingestion failure leaves the HTTP surface up with stale buffers; it
	// never takes the process down.
	g.Go(func() error {
		if err := ingestor.Run(gctx); err != nil && gctx.Err() == nil {
			log.Printf("[Ingest] stopped permanently: %v", err)
		}
		reader.Close()
		return nil
	})

	g.Go(func() error {
		if err := exporter.RunRetention(gctx); err != nil && gctx.Err() == nil {
			log.Printf("[Export] retention sweeper stopped: %v", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("[Proxy] %v", err)
	}
	log.Println("[Proxy] shutdown complete")
}
