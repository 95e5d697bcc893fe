package dto

import "github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/slip"

// SlipResponse devolve o boletim corrente com os totais calculados
type SlipResponse struct {
	Selections      []slip.BetSelection `json:"selections"`
	Count           int                 `json:"count"`
	ParlayOdds      float64             `json:"parlay_odds,omitempty"`
	PotentialPayout float64             `json:"potential_payout,omitempty"`
}

// AddSelectionResponse devolve o sinal da política de add
type AddSelectionResponse struct {
	Outcome string `json:"outcome"` // "added" | "selection_changed" | "duplicate" | "betting_closed"
	Message string `json:"message,omitempty"`
}

// ErrorResponse é o shape padrão de erro da API
type ErrorResponse struct {
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}
