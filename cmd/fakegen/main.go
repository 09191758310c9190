package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/kafbridge/kafbridge/pkg/config"
	"github.com/kafbridge/kafbridge/pkg/faker"
	"github.com/kafbridge/kafbridge/pkg/kafka"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg := config.Load(*configPath)
	ctx := context.Background()

	if err := kafka.WaitForBroker(ctx, cfg.Kafka.Brokers, cfg.Kafka.ReadyTimeout); err != nil {
		log.Fatalf("[Fakegen] %v", err)
	}

	producer := kafka.NewProducer(ctx, cfg.Kafka.Brokers)
	defer producer.Close()

	log.Println("[Fakegen] Starting marketplace traffic generation...")
	for {
		faker.PublishAddOffer(producer)
		faker.PublishBuyOffer(producer)
		faker.PublishProfit(producer)
		faker.PublishMarketSituation(producer)
		time.Sleep(cfg.Emitter.Interval)
	}
}
