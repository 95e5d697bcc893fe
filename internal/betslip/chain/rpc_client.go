package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// Defaults do cliente RPC
const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxRetries   = 3
	DefaultRetryDelay   = 500 * time.Millisecond
	DefaultMaxDelay     = 5 * time.Second
	DefaultPollInterval = 1 * time.Second
)

// RPC é a fachada da chain consumida pelo gateway
type RPC interface {
	// WaitForTransaction aguarda a finalidade do digest dentro do
	// prazo do contexto. Estouro de prazo retorna ErrConfirmTimeout.
	WaitForTransaction(ctx context.Context, digest string) (*TxResult, error)
	GetCoins(ctx context.Context, owner, coinType string) ([]Coin, error)
	GetBalance(ctx context.Context, owner, coinType string) (uint64, error)
}

// HTTPClient implementa RPC sobre JSON-RPC 2.0.
// Retentativa com backoff exponencial só em leituras idempotentes
// (getCoins, getBalance); o poll de confirmação já é naturalmente
// repetido e nada aqui transmite transação.
type HTTPClient struct {
	endpoint     string
	client       *http.Client
	maxRetries   int
	retryDelay   time.Duration
	maxDelay     time.Duration
	pollInterval time.Duration
	requestID    atomic.Uint64
}

// ClientOption configura o HTTPClient
type ClientOption func(*HTTPClient)

func WithHTTPClient(c *http.Client) ClientOption {
	return func(h *HTTPClient) { h.client = c }
}

func WithMaxRetries(n int) ClientOption {
	return func(h *HTTPClient) { h.maxRetries = n }
}

func WithPollInterval(d time.Duration) ClientOption {
	return func(h *HTTPClient) { h.pollInterval = d }
}

func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:     endpoint,
		client:       &http.Client{Timeout: DefaultTimeout},
		maxRetries:   DefaultMaxRetries,
		retryDelay:   DefaultRetryDelay,
		maxDelay:     DefaultMaxDelay,
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// call executa uma chamada JSON-RPC sem retentativa
func (c *HTTPClient) call(ctx context.Context, method string, params []any, result any) error {
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("rpc http %d", resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if result != nil && len(rpcResp.Result) > 0 {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("unmarshal result: %w", err)
		}
	}
	return nil
}

// callWithRetry aplica backoff exponencial limitado. Só para métodos
// idempotentes.
func (c *HTTPClient) callWithRetry(ctx context.Context, method string, params []any, result any) error {
	delay := c.retryDelay
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}
		if lastErr = c.call(ctx, method, params, result); lastErr == nil {
			return nil
		}
	}
	return lastErr
}

// WaitForTransaction faz poll até o digest finalizar ou o contexto
// expirar. Digest permanece válido após timeout.
func (c *HTTPClient) WaitForTransaction(ctx context.Context, digest string) (*TxResult, error) {
	params := []any{digest, map[string]bool{"showObjectChanges": true, "showEffects": true}}
	for {
		var out TxResult
		err := c.call(ctx, "chain_getTransactionBlock", params, &out)
		if err == nil && out.Digest != "" {
			return &out, nil
		}
		if ctx.Err() != nil {
			return nil, ErrConfirmTimeout
		}
		var rerr *rpcError
		if err != nil && errors.As(err, &rerr) && rerr.Code != codeNotFound {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ErrConfirmTimeout
		case <-time.After(c.pollInterval):
		}
	}
}

// codeNotFound é o código retornado enquanto a transação ainda não é
// visível pelo nó
const codeNotFound = -32000

func (c *HTTPClient) GetCoins(ctx context.Context, owner, coinType string) ([]Coin, error) {
	var out struct {
		Data []Coin `json:"data"`
	}
	if err := c.callWithRetry(ctx, "chain_getCoins", []any{owner, coinType}, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *HTTPClient) GetBalance(ctx context.Context, owner, coinType string) (uint64, error) {
	var out struct {
		TotalBalance uint64 `json:"totalBalance"`
	}
	if err := c.callWithRetry(ctx, "chain_getBalance", []any{owner, coinType}, &out); err != nil {
		return 0, err
	}
	return out.TotalBalance, nil
}
