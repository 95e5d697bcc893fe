package slip

import (
	"errors"
	"fmt"
	"math"
)

// BetSelection é uma perna escolhida pelo usuário no boletim.
// Construída na borda via ParseSelection: depois de criada, os campos
// são fechados e validados (parse, não validate).
type BetSelection struct {
	ID            string  `json:"id"`
	EventID       string  `json:"eventId"`
	EventName     string  `json:"eventName"`
	MarketID      string  `json:"marketId"`
	Market        string  `json:"market"`
	SelectionID   string  `json:"selectionId"`
	SelectionName string  `json:"selectionName"`
	Odds          float64 `json:"odds"`
	Stake         float64 `json:"stake"`
	IsLive        bool    `json:"isLive"`
	MatchMinute   *int    `json:"matchMinute,omitempty"`
	HomeTeam      string  `json:"homeTeam,omitempty"`
	AwayTeam      string  `json:"awayTeam,omitempty"`
	// UniqueID, quando presente, pula a detecção de duplicata e a
	// substituição por evento (repetição intencional)
	UniqueID string `json:"uniqueId,omitempty"`
}

var (
	ErrMissingID      = errors.New("selection id required")
	ErrMissingEventID = errors.New("event id required")
	ErrInvalidOdds    = errors.New("odds must be finite and greater than 1.0")
	ErrInvalidStake   = errors.New("stake must be finite and non-negative")
)

// ParseSelection valida o shape dinâmico vindo da borda e devolve uma
// seleção fechada. Entrada malformada é rejeitada antes de chegar ao
// builder.
func ParseSelection(s BetSelection) (BetSelection, error) {
	if s.ID == "" {
		return BetSelection{}, ErrMissingID
	}
	if s.EventID == "" {
		return BetSelection{}, ErrMissingEventID
	}
	if math.IsNaN(s.Odds) || math.IsInf(s.Odds, 0) || s.Odds <= 1.0 {
		return BetSelection{}, fmt.Errorf("%w: got %v", ErrInvalidOdds, s.Odds)
	}
	if math.IsNaN(s.Stake) || math.IsInf(s.Stake, 0) || s.Stake < 0 {
		return BetSelection{}, fmt.Errorf("%w: got %v", ErrInvalidStake, s.Stake)
	}
	return s, nil
}

// minute retorna o minuto da partida ou 0 quando ausente
func (s BetSelection) minute() int {
	if s.MatchMinute == nil {
		return 0
	}
	return *s.MatchMinute
}
