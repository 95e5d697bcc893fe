package gate

import "context"

// Estado da janela de aposta de um evento
type State int

const (
	Open State = iota
	Closed
)

func (s State) String() string {
	if s == Closed {
		return "CLOSED"
	}
	return "OPEN"
}

// Motivo exibido ao usuário quando a janela está fechada. O mesmo texto
// vale para bloqueio de seleção e de submissão.
const ClosedReason = "Betting Closed"

// Evaluate é uma função pura de (isLive, matchMinute, cutoff).
// Evento pré-live está sempre aberto; ao vivo fecha no minuto de corte.
// Sem timers: avaliada a cada tentativa de add/submit com o valor mais
// fresco de progresso da partida.
func Evaluate(isLive bool, matchMinute, cutoffMinute int) State {
	if !isLive {
		return Open
	}
	if matchMinute >= cutoffMinute {
		return Closed
	}
	return Open
}

// LiveFeed fornece o minuto corrente de uma partida ao vivo. Retorna
// ok=false quando o feed não conhece o evento (tratado como aberto).
type LiveFeed interface {
	MatchMinute(ctx context.Context, eventID string) (minute int, ok bool, err error)
}

// Gate decide a janela de aposta consultando o feed ao vivo no momento
// da chamada
type Gate struct {
	feed   LiveFeed
	cutoff int
}

func New(feed LiveFeed, cutoffMinute int) *Gate {
	return &Gate{feed: feed, cutoff: cutoffMinute}
}

// Check retorna o estado da janela para o evento. Falha de leitura do
// feed degrada para o último minuto conhecido pelo chamador (fallback),
// nunca propaga erro que quebraria o fluxo de aposta.
func (g *Gate) Check(ctx context.Context, eventID string, isLive bool, fallbackMinute int) State {
	minute := fallbackMinute
	if g.feed != nil && isLive {
		if m, ok, err := g.feed.MatchMinute(ctx, eventID); err == nil && ok {
			minute = m
		}
	}
	return Evaluate(isLive, minute, g.cutoff)
}

func (g *Gate) CutoffMinute() int { return g.cutoff }
