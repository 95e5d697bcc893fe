package main

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/livefeed"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/livefeed-ingest/service"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/shared/cache"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/shared/config"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/shared/kafka"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/shared/logger"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis: minuto corrente das partidas, lido pelo gate do betslip
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}

	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicLiveMinutes)
	defer writer.Close()

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})

	client := &service.WSClient{
		URL:    cfg.LiveFeedWSURL,
		Log:    log,
		Sink:   livefeed.NewRedisFeed(rdb),
		Writer: writer,
	}

	log.Info("livefeed-ingest started", zap.String("ws", cfg.LiveFeedWSURL))
	client.Start(ctx)
}
