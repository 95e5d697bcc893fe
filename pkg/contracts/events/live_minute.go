package events

import "time"

// Atualização de progresso de uma partida ao vivo, enviada pelo feed
// externo. Consumida pelo gate de janela de aposta.
type LiveMinuteUpdate struct {
	EventID   string    `json:"event_id"`
	HomeTeam  string    `json:"home_team,omitempty"`
	AwayTeam  string    `json:"away_team,omitempty"`
	Minute    int       `json:"minute"`
	UpdatedAt time.Time `json:"updated_at"`
	Source    string    `json:"source"`
}
