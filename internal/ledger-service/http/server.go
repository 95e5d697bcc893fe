package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/tsoliveira/onchain-bet-platform-poc/internal/ledger-service/repo"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/shared/metrics"
)

// Repo define as operações de ledger usadas pelo handler HTTP
type Repo interface {
	Upsert(ctx context.Context, bet repo.Bet) (repo.Bet, error)
	Get(ctx context.Context, id string) (repo.Bet, error)
	Settle(ctx context.Context, id, to string) (repo.Bet, error)
}

// Server expõe a API do ledger de apostas
type Server struct {
	log  *zap.Logger
	repo Repo
}

func NewServer(log *zap.Logger, r Repo) *Server { return &Server{log: log, repo: r} }

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/bets", s.createBet)       // POST
	mux.HandleFunc("/bets/", s.betOps)         // GET /{id} | POST /{id}/settle
	mux.HandleFunc("/parlays", s.createParlay) // POST
	return mux
}

// createBet grava uma aposta simples, idempotente por tx_hash
func (s *Server) createBet(w http.ResponseWriter, r *http.Request) {
	s.create(w, r, "single")
}

// createParlay grava uma múltipla com as pernas
func (s *Server) createParlay(w http.ResponseWriter, r *http.Request) {
	s.create(w, r, "parlay")
}

func (s *Server) create(w http.ResponseWriter, r *http.Request, kind string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var bet repo.Bet
	if err := json.NewDecoder(r.Body).Decode(&bet); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if bet.EventID == "" || bet.Stake <= 0 || bet.Odds <= 0 || bet.Currency == "" {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if kind == "parlay" && len(bet.Legs) < 2 {
		writeError(w, http.StatusBadRequest, "parlay requires at least 2 legs")
		return
	}
	bet.Kind = kind

	out, err := s.repo.Upsert(r.Context(), bet)
	if err != nil {
		metrics.LedgerWrites.WithLabelValues("error").Inc()
		s.log.Error("ledger upsert failed", zap.Error(err), zap.String("tx_hash", bet.TxHash))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	metrics.LedgerWrites.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusCreated, out)
}

// betOps trata /bets/{id} e /bets/{id}/settle
func (s *Server) betOps(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/bets/")

	if r.Method == http.MethodPost && strings.HasSuffix(rest, "/settle") {
		s.settle(w, r, strings.TrimSuffix(rest, "/settle"))
		return
	}
	if r.Method == http.MethodGet && rest != "" && !strings.Contains(rest, "/") {
		bet, err := s.repo.Get(r.Context(), rest)
		if err != nil {
			s.writeRepoError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, bet)
		return
	}
	writeError(w, http.StatusNotFound, "not found")
}

// settle avança o status da aposta (CONFIRMED -> WON|LOST|VOID)
func (s *Server) settle(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	switch req.Status {
	case repo.StatusConfirmed, repo.StatusWon, repo.StatusLost, repo.StatusVoid:
	default:
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	bet, err := s.repo.Settle(r.Context(), id, req.Status)
	if err != nil {
		s.writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bet)
}

func (s *Server) writeRepoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		writeError(w, http.StatusNotFound, "bet not found")
	case errors.Is(err, repo.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"message": msg})
}
