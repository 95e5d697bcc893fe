package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/chain"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/txbuilder"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/shared/config"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/shared/logger"
	"github.com/tsoliveira/onchain-bet-platform-poc/pkg/contracts/events"
)

var (
	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	// Catálogo fixo de partidas ao vivo simuladas
	matchCatalog = []events.LiveMinuteUpdate{
		{EventID: "MATCH_001", HomeTeam: "Flamengo", AwayTeam: "Palmeiras"},
		{EventID: "MATCH_002", HomeTeam: "Grêmio", AwayTeam: "Internacional"},
		{EventID: "MATCH_003", HomeTeam: "Corinthians", AwayTeam: "Santos"},
		{EventID: "MATCH_004", HomeTeam: "São Paulo", AwayTeam: "Vasco"},
	}

	wsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chain_sim_ws_connections",
		Help: "Clientes WebSocket conectados ao feed ao vivo",
	})
	wsMessagesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chain_sim_ws_messages_sent_total",
		Help: "Total de mensagens WS enviadas",
	})
	txSubmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chain_sim_tx_submitted_total",
		Help: "Transações recebidas pelo assinador simulado, por desfecho",
	}, []string{"outcome"})
)

type clientConn struct {
	id   string
	conn *websocket.Conn
}

// hub gerencia os clientes WS e faz broadcast do minuto das partidas
type hub struct {
	mu      sync.RWMutex
	clients map[string]*clientConn
	log     *zap.Logger
}

func newHub(log *zap.Logger) *hub {
	return &hub{
		clients: make(map[string]*clientConn),
		log:     log,
	}
}

func (h *hub) add(c *clientConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
	wsConnections.Inc()
	h.log.Info("ws client connected", zap.String("client_id", c.id))
}

func (h *hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[id]; ok {
		delete(h.clients, id)
		wsConnections.Dec()
		h.log.Info("ws client disconnected", zap.String("client_id", id))
	}
}

func (h *hub) broadcast(v any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	msg, _ := json.Marshal(v)
	for id, c := range h.clients {
		c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.Warn("ws write failed", zap.String("client_id", id), zap.Error(err))
			_ = c.conn.Close()
		} else {
			wsMessagesSent.Inc()
		}
	}
}

// pendingTx é uma transação aceita aguardando ficar visível no nó
type pendingTx struct {
	result  chain.TxResult
	readyAt time.Time
}

// node simula o estado do nó: transações aceitas só ficam visíveis
// depois de um pequeno atraso, exercitando o poll de confirmação do
// cliente
type node struct {
	mu           sync.RWMutex
	txs          map[string]pendingTx
	log          *zap.Logger
	confirmDelay time.Duration
}

func newNode(log *zap.Logger, confirmDelay time.Duration) *node {
	return &node{
		txs:          make(map[string]pendingTx),
		log:          log,
		confirmDelay: confirmDelay,
	}
}

func (n *node) accept(res chain.TxResult) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.txs[res.Digest] = pendingTx{result: res, readyAt: time.Now().Add(n.confirmDelay)}
}

func (n *node) lookup(digest string) (chain.TxResult, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	p, ok := n.txs[digest]
	if !ok || time.Now().Before(p.readyAt) {
		return chain.TxResult{}, false
	}
	return p.result, true
}

// signHandler simula a carteira: rejeição do usuário, falha on-chain e
// sucesso, nas proporções de um ambiente de demonstração
func (n *node) signHandler(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var tx txbuilder.PendingTransaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	roll := rand.Intn(100)
	if roll < 5 {
		txSubmitted.WithLabelValues("rejected").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"message": "User rejected the request",
		})
		return
	}

	digest := "0xSIM" + strings.ReplaceAll(uuid.New().String(), "-", "")
	res := chain.TxResult{
		Digest:  digest,
		Effects: chain.TxEffects{Status: "success"},
	}

	if roll < 15 {
		txSubmitted.WithLabelValues("failed").Inc()
		res.Effects = chain.TxEffects{Status: "failure", Error: "InsufficientGas: gas budget exhausted"}
	} else {
		txSubmitted.WithLabelValues("success").Inc()
		res.ObjectChanges = []chain.ObjectChange{{
			Type:       "created",
			ObjectType: "0xsim::betting::Bet",
			ObjectID:   "0xbet" + strings.ReplaceAll(uuid.New().String(), "-", ""),
		}}
	}

	n.accept(res)
	n.log.Info("tx accepted",
		zap.String("digest", digest),
		zap.String("kind", tx.Kind),
		zap.String("status", res.Effects.Status),
	)
	writeJSON(w, http.StatusOK, map[string]string{"digest": digest})
}

type rpcRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      uint64            `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      uint64    `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
}

const codeNotFound = -32000

// rpcHandler atende o subconjunto JSON-RPC usado pelo cliente da chain
func (n *node) rpcHandler(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}

	switch req.Method {
	case "chain_getTransactionBlock":
		var digest string
		if len(req.Params) > 0 {
			_ = json.Unmarshal(req.Params[0], &digest)
		}
		res, ok := n.lookup(digest)
		if !ok {
			resp.Error = &rpcError{Code: codeNotFound, Message: "transaction not found"}
			break
		}
		resp.Result = res

	case "chain_getCoins":
		var owner, coinType string
		if len(req.Params) > 1 {
			_ = json.Unmarshal(req.Params[0], &owner)
			_ = json.Unmarshal(req.Params[1], &coinType)
		}
		resp.Result = map[string]any{"data": simCoins(owner)}

	case "chain_getBalance":
		var owner string
		if len(req.Params) > 0 {
			_ = json.Unmarshal(req.Params[0], &owner)
		}
		var total uint64
		for _, c := range simCoins(owner) {
			total += c.Balance
		}
		resp.Result = map[string]any{"totalBalance": total}

	default:
		resp.Error = &rpcError{Code: -32601, Message: "method not found"}
	}

	writeJSON(w, http.StatusOK, resp)
}

// simCoins devolve sempre a mesma carteira generosa: o simulador não
// contabiliza gastos
func simCoins(owner string) []chain.Coin {
	if owner == "" {
		return nil
	}
	return []chain.Coin{
		{ObjectID: "0xcoin_a_" + safePrefix(owner, 8), Balance: 5_000_000_000_000},
		{ObjectID: "0xcoin_b_" + safePrefix(owner, 8), Balance: 120_000_000_000},
	}
}

func safePrefix(s string, n int) string {
	if len(s) < n {
		return s
	}
	return s[:n]
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	prometheus.MustRegister(wsConnections, wsMessagesSent, txSubmitted)

	h := newHub(log)
	n := newNode(log, 2*time.Second)

	// Avança o relógio das partidas e faz broadcast a cada 5 segundos
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		minute := 1
		for range ticker.C {
			for _, m := range matchCatalog {
				m.Minute = minute
				m.UpdatedAt = time.Now().UTC()
				m.Source = cfg.ServiceName
				h.broadcast(m)
			}
			minute++
			if minute > 90 {
				minute = 1
			}
		}
	}()

	// ==== MUX PÚBLICO: /rpc, /signer/signAndExecute e /ws
	appMux := http.NewServeMux()
	appMux.HandleFunc("/rpc", n.rpcHandler)
	appMux.HandleFunc("/signer/signAndExecute", n.signHandler)

	appMux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("ws upgrade failed", zap.Error(err))
			return
		}
		id := fmt.Sprintf("%d", time.Now().UnixNano())
		c := &clientConn{id: id, conn: conn}
		h.add(c)

		go func() {
			defer func() {
				h.remove(id)
				_ = conn.Close()
			}()
			_ = conn.SetReadDeadline(time.Time{})
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	})

	// ==== MUX DE MÉTRICAS (/healthz, /metrics)
	metricsMux := http.NewServeMux()
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	metricsMux.Handle("/metrics", promhttp.Handler())

	go func() {
		metricsAddr := fmt.Sprintf(":%s", cfg.MetricsPort)
		log.Info("chain simulator (metrics) running",
			zap.String("addr", metricsAddr),
			zap.String("paths", "/healthz,/metrics"),
		)
		if err := http.ListenAndServe(metricsAddr, metricsMux); err != nil {
			log.Fatal("metrics server error", zap.Error(err))
		}
	}()

	publicAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	log.Info("chain simulator (public) running",
		zap.String("addr", publicAddr),
		zap.String("paths", "/rpc,/signer/signAndExecute,/ws"),
	)
	if err := http.ListenAndServe(publicAddr, appMux); err != nil {
		log.Fatal("public server error", zap.Error(err))
	}
}
