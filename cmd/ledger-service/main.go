package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	lhttp "github.com/tsoliveira/onchain-bet-platform-poc/internal/ledger-service/http"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/ledger-service/repo"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/shared/config"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/shared/db"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/shared/logger"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()

	repository := repo.NewPostgres(pg)
	if err := repository.EnsureSchema(context.Background()); err != nil {
		log.Fatal("schema", zap.Error(err))
	}

	api := lhttp.NewServer(log, repository)
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})

	log.Info("ledger-service listening", zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
