package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/chain"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/gate"
	bhttp "github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/http"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/ledger"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/livefeed"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/placer"
	kpub "github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/producer"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/reconcile"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/recovery"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/slip"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/txbuilder"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/shared/cache"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/shared/config"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/shared/db"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/shared/logger"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	// Redis: boletins e minuto das partidas ao vivo
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}

	// SQLite local: registros de recuperação
	sqlite, err := db.OpenSQLite(cfg.SQLitePath)
	if err != nil {
		log.Fatal("sqlite", zap.Error(err))
	}
	defer sqlite.Close()

	recStore := recovery.NewStore(sqlite)
	if err := recStore.EnsureSchema(context.Background()); err != nil {
		log.Fatal("recovery schema", zap.Error(err))
	}

	// Kafka writer (topic bet_confirmed)
	writer := kafkago.NewWriter(kafkago.WriterConfig{
		Brokers:  strings.Split(cfg.KafkaBrokers, ","),
		Topic:    cfg.TopicBetConfirmed,
		Balancer: &kafkago.LeastBytes{},
	})
	defer writer.Close()

	// deps
	betObjectType := os.Getenv("CHAIN_BET_OBJECT_TYPE")
	if betObjectType == "" {
		betObjectType = "::betting::Bet"
	}

	rpc := chain.NewHTTPClient(cfg.ChainRPCURL)
	signer := chain.NewHTTPSigner(cfg.SignerURL)
	gateway := chain.NewGateway(log, signer, rpc, cfg.ConfirmTimeout, betObjectType)

	registry := txbuilder.DefaultRegistry()
	builder := txbuilder.New(registry, cfg.GasBudget, cfg.PredictionMaxLen)

	slips := slip.NewManager(log, slip.NewRedisStorage(rdb), cfg.LiveCutoffMinute)
	feed := livefeed.NewRedisFeed(rdb)
	g := gate.New(feed, cfg.LiveCutoffMinute)

	ledgerCli := ledger.New(cfg.LedgerURL)
	sink := kpub.NewKafkaSink(writer)
	reconciler := reconcile.New(log, ledgerCli, recStore, sink)

	p := placer.New(log, slips, g, builder, gateway, rpc, reconciler, registry)

	// HTTP público
	api := bhttp.NewServer(log, slips, p)
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	// metrics/health
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		if err := sqlite.PingContext(ctx); err != nil {
			return fmt.Errorf("sqlite: %w", err)
		}
		return nil
	})

	log.Info("betslip-service listening", zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
