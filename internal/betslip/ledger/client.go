package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Record é a linha de contabilidade off-chain de uma aposta.
// TxHash, quando presente, é único: a escrita é um upsert idempotente
// por tx_hash.
type Record struct {
	ID              string  `json:"id,omitempty"`
	WalletAddress   string  `json:"walletAddress"`
	EventID         string  `json:"eventId"`
	MarketID        string  `json:"marketId"`
	OutcomeID       string  `json:"outcomeId"`
	Prediction      string  `json:"prediction"`
	Odds            float64 `json:"odds"`
	Stake           float64 `json:"stake"`
	PotentialPayout float64 `json:"potential_payout"`
	Currency        string  `json:"currency"`
	TxHash          string  `json:"tx_hash,omitempty"`
	OnChainBetID    string  `json:"onchain_bet_id,omitempty"`
	PaymentMethod   string  `json:"payment_method"` // "wallet" | "platform-balance" | "free-bet"
	Status          string  `json:"status,omitempty"`
	Legs            []Leg   `json:"legs,omitempty"` // presente só em múltiplas
}

// Leg é uma perna de múltipla registrada no ledger
type Leg struct {
	EventID       string  `json:"eventId"`
	EventName     string  `json:"eventName"`
	MarketID      string  `json:"marketId"`
	OutcomeID     string  `json:"outcomeId"`
	SelectionName string  `json:"selectionName"`
	Odds          float64 `json:"odds"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// Client fala com o ledger-service por HTTP
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string) *Client {
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 5 * time.Second},
	}
}

// CreateBet grava uma aposta simples (POST /bets), idempotente por
// tx_hash
func (c *Client) CreateBet(ctx context.Context, rec Record) (Record, error) {
	return c.post(ctx, "/bets", rec)
}

// CreateParlay grava uma múltipla (POST /parlays), idempotente por
// tx_hash
func (c *Client) CreateParlay(ctx context.Context, rec Record) (Record, error) {
	return c.post(ctx, "/parlays", rec)
}

func (c *Client) post(ctx context.Context, path string, rec Record) (Record, error) {
	body, _ := json.Marshal(rec)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return Record{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return Record{}, err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		var eresp errorResponse
		_ = json.NewDecoder(res.Body).Decode(&eresp)
		if eresp.Message == "" {
			eresp.Message = res.Status
		}
		return Record{}, fmt.Errorf("ledger %s: %s", path, eresp.Message)
	}

	var out Record
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return Record{}, fmt.Errorf("ledger response: %w", err)
	}
	return out, nil
}
