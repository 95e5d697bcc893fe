package txbuilder

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/slip"
)

// Falhas tipadas do builder: todas acontecem antes de qualquer chamada
// de rede e são totalmente recuperáveis
var (
	ErrStakeOutOfRange          = errors.New("stake out of range")
	ErrInvalidParlayCombination = errors.New("parlay legs must reference distinct events")
	ErrTooFewParlayLegs         = errors.New("parlay requires at least 2 legs")
	ErrUnknownCurrency          = errors.New("unknown currency")
	ErrMissingSourceCoin        = errors.New("source coin object required for this currency")
)

// PredictionSeparator junta as pernas de uma múltipla no campo
// prediction on-chain
const PredictionSeparator = " | "

// CallArg é um argumento da chamada on-chain com framing explícito de
// tipo e tamanho (strings levam prefixo de comprimento ULEB128)
type CallArg struct {
	Type  string `json:"type"` // "string" | "u64" | "address"
	Bytes []byte `json:"bytes"`
}

// PendingTransaction é o payload pronto para assinatura. Depois de
// construído nada mais é validado: o gateway só assina e transmite.
type PendingTransaction struct {
	Kind               string    `json:"kind"` // "single" | "parlay"
	EventID            string    `json:"eventId"`
	MarketID           string    `json:"marketId"`
	Prediction         string    `json:"prediction"`
	StakeBaseUnits     uint64    `json:"stakeBaseUnits"`
	OddsBasisPoints    uint64    `json:"oddsBasisPoints"`
	Currency           Currency  `json:"currency"`
	CoinType           string    `json:"coinType"`
	SourceCoinObjectID string    `json:"sourceCoinObjectId,omitempty"`
	GasBudget          uint64    `json:"gasBudget"`
	Args               []CallArg `json:"args"`
}

// Builder monta transações on-chain a partir das seleções do boletim
type Builder struct {
	registry         map[Currency]Spec
	gasBudget        uint64
	predictionMaxLen int
	now              func() time.Time
}

func New(registry map[Currency]Spec, gasBudget uint64, predictionMaxLen int) *Builder {
	return &Builder{
		registry:         registry,
		gasBudget:        gasBudget,
		predictionMaxLen: predictionMaxLen,
		now:              time.Now,
	}
}

// WithClock troca a fonte de tempo (id combinado de múltipla usa
// timestamp)
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// ToBaseUnits converte stake decimal em unidades-base truncando para
// baixo. Nunca arredonda para cima: arredondar a mais prometeria escrow
// que o usuário não pagou.
func ToBaseUnits(stake float64) uint64 {
	return uint64(math.Floor(stake * UnitScale))
}

// ToBasisPoints converte a odd decimal em pontos-base (x100,
// arredondamento ao mais próximo)
func ToBasisPoints(odds float64) uint64 {
	return uint64(math.Round(odds * 100))
}

func (b *Builder) spec(cur Currency) (Spec, error) {
	s, ok := b.registry[cur]
	if !ok {
		return Spec{}, fmt.Errorf("%w: %s", ErrUnknownCurrency, cur)
	}
	return s, nil
}

func (b *Builder) checkStake(stake float64, s Spec) error {
	if stake < s.MinStake || stake > s.MaxStake {
		return fmt.Errorf("%w: %v not in [%v, %v] %s", ErrStakeOutOfRange, stake, s.MinStake, s.MaxStake, s.Currency)
	}
	return nil
}

func (b *Builder) checkSourceCoin(s Spec, sourceCoinObjectID string) error {
	if s.RequiresSourceCoin && sourceCoinObjectID == "" {
		return fmt.Errorf("%w: %s", ErrMissingSourceCoin, s.Currency)
	}
	return nil
}

// BuildSingle monta a transação de uma aposta simples.
// Validações em ordem, primeira falha vence.
func (b *Builder) BuildSingle(sel slip.BetSelection, cur Currency, sourceCoinObjectID string) (*PendingTransaction, error) {
	s, err := b.spec(cur)
	if err != nil {
		return nil, err
	}
	if err := b.checkStake(sel.Stake, s); err != nil {
		return nil, err
	}
	if err := b.checkSourceCoin(s, sourceCoinObjectID); err != nil {
		return nil, err
	}

	tx := &PendingTransaction{
		Kind:               "single",
		EventID:            sel.EventID,
		MarketID:           sel.MarketID,
		Prediction:         truncate(sel.SelectionName, b.predictionMaxLen),
		StakeBaseUnits:     ToBaseUnits(sel.Stake),
		OddsBasisPoints:    ToBasisPoints(sel.Odds),
		Currency:           cur,
		CoinType:           s.CoinType,
		SourceCoinObjectID: sourceCoinObjectID,
		// gás é headroom fixo, independente do stake: nunca compete
		// com o valor apostado
		GasBudget: b.gasBudget,
	}
	tx.Args = frameArgs(tx)
	return tx, nil
}

// BuildParlay monta a transação de uma múltipla (>= 2 pernas, eventos
// distintos, odd combinada = produto das pernas)
func (b *Builder) BuildParlay(legs []slip.BetSelection, totalStake float64, cur Currency, sourceCoinObjectID string) (*PendingTransaction, error) {
	s, err := b.spec(cur)
	if err != nil {
		return nil, err
	}
	if err := b.checkStake(totalStake, s); err != nil {
		return nil, err
	}
	if len(legs) < 2 {
		return nil, ErrTooFewParlayLegs
	}

	// múltipla não pode ter duas pernas no mesmo evento
	seen := make(map[string]struct{}, len(legs))
	combinedOdds := 1.0
	eventIDs := make([]string, 0, len(legs))
	for _, leg := range legs {
		if _, dup := seen[leg.EventID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrInvalidParlayCombination, leg.EventID)
		}
		seen[leg.EventID] = struct{}{}
		combinedOdds *= leg.Odds
		eventIDs = append(eventIDs, leg.EventID)
	}

	if err := b.checkSourceCoin(s, sourceCoinObjectID); err != nil {
		return nil, err
	}

	tx := &PendingTransaction{
		Kind:               "parlay",
		EventID:            parlayEventID(b.now(), eventIDs),
		MarketID:           "PARLAY",
		Prediction:         parlayPrediction(legs, b.predictionMaxLen),
		StakeBaseUnits:     ToBaseUnits(totalStake),
		OddsBasisPoints:    ToBasisPoints(combinedOdds),
		Currency:           cur,
		CoinType:           s.CoinType,
		SourceCoinObjectID: sourceCoinObjectID,
		GasBudget:          b.gasBudget,
	}
	tx.Args = frameArgs(tx)
	return tx, nil
}

// parlayEventID sintetiza um id único por submissão:
// "parlay_<ts-ms>_<eventIds separados por '-'>"
func parlayEventID(now time.Time, eventIDs []string) string {
	return fmt.Sprintf("parlay_%d_%s", now.UnixMilli(), strings.Join(eventIDs, "-"))
}

// parlayPrediction concatena "<eventName>: <selection>" por perna.
// Quando excede o limite, trunca em fronteira de perna (nunca corrompe
// um campo pela metade); se nem a primeira perna couber, corta o texto
// dela no limite.
func parlayPrediction(legs []slip.BetSelection, maxLen int) string {
	parts := make([]string, 0, len(legs))
	for _, leg := range legs {
		parts = append(parts, fmt.Sprintf("%s: %s", leg.EventName, leg.SelectionName))
	}

	out := ""
	for i, p := range parts {
		candidate := p
		if i > 0 {
			candidate = out + PredictionSeparator + p
		}
		if len(candidate) > maxLen {
			break
		}
		out = candidate
	}
	if out == "" && len(parts) > 0 {
		out = truncate(parts[0], maxLen)
	}
	return out
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}

// frameArgs serializa os campos da chamada com framing explícito:
// strings com prefixo de tamanho ULEB128, u64 em little-endian
func frameArgs(tx *PendingTransaction) []CallArg {
	return []CallArg{
		{Type: "string", Bytes: frameString(tx.EventID)},
		{Type: "string", Bytes: frameString(tx.MarketID)},
		{Type: "string", Bytes: frameString(tx.Prediction)},
		{Type: "u64", Bytes: frameU64(tx.StakeBaseUnits)},
		{Type: "u64", Bytes: frameU64(tx.OddsBasisPoints)},
	}
}

func frameString(s string) []byte {
	raw := []byte(s)
	out := appendULEB128(nil, uint64(len(raw)))
	return append(out, raw...)
}

func frameU64(v uint64) []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, v)
	return out
}

func appendULEB128(dst []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			dst = append(dst, b|0x80)
			continue
		}
		return append(dst, b)
	}
}
