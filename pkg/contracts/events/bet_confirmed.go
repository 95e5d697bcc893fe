package events

import "time"

// Evento emitido pelo reconciliador quando uma aposta está confirmada
// on-chain. É o sinal autoritativo de ponta a ponta: pode ser emitido
// mesmo que a escrita no ledger off-chain tenha falhado (fundos já se
// moveram on-chain).
type BetConfirmed struct {
	TxDigest        string    `json:"tx_digest"`
	OnChainBetID    string    `json:"onchain_bet_id,omitempty"`
	WalletAddress   string    `json:"wallet_address"`
	EventID         string    `json:"event_id"`
	EventName       string    `json:"event_name"`
	Prediction      string    `json:"prediction"`
	Odds            float64   `json:"odds"`
	Stake           float64   `json:"stake"`
	PotentialPayout float64   `json:"potential_payout"`
	Currency        string    `json:"currency"`
	PaymentMethod   string    `json:"payment_method"` // "wallet" | "platform-balance" | "free-bet"
	LedgerSynced    bool      `json:"ledger_synced"`  // false quando ficou pendente de recuperação
	Ts              time.Time `json:"ts"`
}
