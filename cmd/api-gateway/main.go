package main

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"

	"go.uber.org/zap"

	"github.com/tsoliveira/onchain-bet-platform-poc/internal/shared/config"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/shared/logger"
)

func rp(to string) *httputil.ReverseProxy {
	u, _ := url.Parse(to)
	return httputil.NewSingleHostReverseProxy(u)
}

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	// targets
	betslipURL := os.Getenv("BETSLIP_URL")
	if betslipURL == "" {
		betslipURL = "http://localhost:8083"
	}
	ledgerURL := os.Getenv("LEDGER_URL")
	if ledgerURL == "" {
		ledgerURL = "http://localhost:8084"
	}
	betslip := rp(betslipURL)
	ledger := rp(ledgerURL)

	mux := http.NewServeMux()

	// boletim e submissão (ex.: /api/slip/* -> betslip-service)
	mux.Handle("/api/slip/", http.StripPrefix("/api", betslip))
	mux.Handle("/api/slip", http.StripPrefix("/api", betslip))

	// histórico e liquidação (ex.: /api/bets/* -> ledger-service)
	mux.Handle("/api/bets/", http.StripPrefix("/api", ledger))
	mux.Handle("/api/bets", http.StripPrefix("/api", ledger))
	mux.Handle("/api/parlays", http.StripPrefix("/api", ledger))

	addr := ":" + cfg.HTTPPort
	log.Info("api-gateway listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, withCORS(mux)); err != nil && err != http.ErrServerClosed {
		log.Fatal("gateway failed", zap.Error(err))
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Slip-Owner")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
