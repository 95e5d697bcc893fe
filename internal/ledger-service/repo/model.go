package repo

import "errors"

// Status da aposta no ledger. PENDING só existe para registros sem
// tx_hash (saldo de plataforma aguardando liquidação externa).
const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusWon       = "WON"
	StatusLost      = "LOST"
	StatusVoid      = "VOID"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Bet é a linha de contabilidade off-chain de uma aposta
type Bet struct {
	ID              string  `json:"id"`
	Kind            string  `json:"kind"` // "single" | "parlay"
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
	PaymentMethod   string  `json:"payment_method"`
	Status          string  `json:"status"`
	Legs            []Leg   `json:"legs,omitempty"`
}

// Leg é uma perna de múltipla
type Leg struct {
	EventID       string  `json:"eventId"`
	EventName     string  `json:"eventName"`
	MarketID      string  `json:"marketId"`
	OutcomeID     string  `json:"outcomeId"`
	SelectionName string  `json:"selectionName"`
	Odds          float64 `json:"odds"`
}

// transitions define a máquina de estados da liquidação
var transitions = map[string][]string{
	StatusPending:   {StatusConfirmed, StatusVoid},
	StatusConfirmed: {StatusWon, StatusLost, StatusVoid},
}

// CanTransition diz se from→to é um avanço válido. WON, LOST e VOID
// são terminais.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// initialStatus escolhe o status de entrada: com tx_hash a chain já
// confirmou; sem tx_hash o registro nasce pendente.
func initialStatus(txHash string) string {
	if txHash != "" {
		return StatusConfirmed
	}
	return StatusPending
}
