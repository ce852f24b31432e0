package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/safar/go-food-order/internal/config"
	"github.com/safar/go-food-order/internal/events"
	"github.com/safar/go-food-order/internal/logger"
)

// The worker consumes order.placed events and keeps the daily per-restaurant
// counters in redis.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	logg, err := logger.New(cfg.App.Env)
	if err != nil {
		log.Fatalf("Init logger: %v", err)
	}
	defer logg.Sync()

	if len(cfg.Kafka.Brokers) == 0 {
		logg.Fatal("KAFKA_BROKERS must be set for the stats worker")
	}
	if cfg.Redis.Addr == "" {
		logg.Fatal("REDIS_ADDR must be set for the stats worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	defer client.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = client.Ping(pingCtx).Err()
	cancel()
	if err != nil {
		logg.Fatalw("connect to redis", "addr", cfg.Redis.Addr, "error", err)
	}

	reader := events.NewReader(cfg.Kafka.Brokers, cfg.Kafka.OrderTopic, cfg.Kafka.GroupID)
	defer func() {
		if err := reader.Close(); err != nil {
			logg.Errorw("close kafka reader", "error", err)
		}
	}()

	consumer := events.NewConsumer(reader, events.NewStats(client, cfg.Redis.StatsTTL), logg)

	logg.Infow("stats worker started",
		"brokers", cfg.Kafka.Brokers,
		"topic", cfg.Kafka.OrderTopic,
		"group", cfg.Kafka.GroupID,
	)

	if err := consumer.Start(ctx); err != nil {
		logg.Errorw("consumer stopped", "error", err)
	}

	logg.Info("stats worker stopped")
}
