package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/ledger"
	kpub "github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/producer"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/recovery"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/shared/config"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/shared/db"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/shared/logger"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// mesmo arquivo SQLite do betslip-service
	sqlite, err := db.OpenSQLite(cfg.SQLitePath)
	if err != nil {
		log.Fatal("sqlite", zap.Error(err))
	}
	defer sqlite.Close()

	store := recovery.NewStore(sqlite)
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatal("recovery schema", zap.Error(err))
	}

	// Kafka writer (DLQ de recuperação)
	writer := kafkago.NewWriter(kafkago.WriterConfig{
		Brokers:  strings.Split(cfg.KafkaBrokers, ","),
		Topic:    cfg.TopicBetRecoveryDLQ,
		Balancer: &kafkago.LeastBytes{},
	})
	defer writer.Close()

	sweeper := &recovery.Sweeper{
		Log:      log,
		Store:    store,
		Ledger:   ledger.New(cfg.LedgerURL),
		DLQ:      kpub.NewDLQPublisher(writer),
		MaxTries: cfg.RecoveryMaxTries,
	}

	// health reporta o backlog junto
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		n, err := store.Count(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			log.Debug("recovery backlog", zap.Int("records", n))
		}
		return nil
	})

	log.Info("recovery-sweeper running",
		zap.String("tick", cfg.RecoverySweepTick.String()),
		zap.Int("max_tries", cfg.RecoveryMaxTries),
		zap.String("sqlite", cfg.SQLitePath),
	)
	sweeper.Run(ctx, cfg.RecoverySweepTick)
}
