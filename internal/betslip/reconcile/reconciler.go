package reconcile

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/ledger"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/recovery"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/slip"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/shared/metrics"
	"github.com/tsoliveira/onchain-bet-platform-poc/pkg/contracts/events"
)

// PlacedBet reúne os dados prontos para contabilização de uma aposta
// (simples ou múltipla) depois que o valor dela foi decidido
type PlacedBet struct {
	Kind            string // "single" | "parlay"
	Selections      []slip.BetSelection
	EventID         string // id sintetizado no caso de múltipla
	EventName       string
	MarketID        string
	OutcomeID       string
	Prediction      string
	Odds            float64 // combinada para múltipla
	Stake           float64
	PotentialPayout float64
	Currency        string
	PaymentMethod   string // "wallet" | "platform-balance" | "free-bet"
	WalletAddress   string
}

// LedgerAPI é a superfície do ledger off-chain usada pelo reconciliador
type LedgerAPI interface {
	CreateBet(ctx context.Context, rec ledger.Record) (ledger.Record, error)
	CreateParlay(ctx context.Context, rec ledger.Record) (ledger.Record, error)
}

// RecoveryStore persiste o fallback local quando o ledger falha
// pós-chain
type RecoveryStore interface {
	Put(ctx context.Context, r recovery.Record) error
}

// Sink recebe o evento "confirmed". Interface injetada, sem
// acoplamento escondido com runtime de UI
type Sink interface {
	BetConfirmed(ctx context.Context, ev events.BetConfirmed) error
}

// Reconciler fecha o ciclo aposta on-chain ↔ ledger off-chain.
// Propriedade central: sucesso on-chain sempre vence; nunca reportamos
// falha de aposta depois que os fundos se moveram, mesmo com a
// contabilidade temporariamente inconsistente.
type Reconciler struct {
	log      *zap.Logger
	ledger   LedgerAPI
	recovery RecoveryStore
	sink     Sink
}

func New(log *zap.Logger, l LedgerAPI, rec RecoveryStore, sink Sink) *Reconciler {
	return &Reconciler{log: log, ledger: l, recovery: rec, sink: sink}
}

func (r *Reconciler) record(bet PlacedBet, txDigest, createdObjectID string) ledger.Record {
	rec := ledger.Record{
		WalletAddress:   bet.WalletAddress,
		EventID:         bet.EventID,
		MarketID:        bet.MarketID,
		OutcomeID:       bet.OutcomeID,
		Prediction:      bet.Prediction,
		Odds:            bet.Odds,
		Stake:           bet.Stake,
		PotentialPayout: bet.PotentialPayout,
		Currency:        bet.Currency,
		TxHash:          txDigest,
		OnChainBetID:    createdObjectID,
		PaymentMethod:   bet.PaymentMethod,
	}
	if bet.Kind == "parlay" {
		for _, s := range bet.Selections {
			rec.Legs = append(rec.Legs, ledger.Leg{
				EventID:       s.EventID,
				EventName:     s.EventName,
				MarketID:      s.MarketID,
				OutcomeID:     s.SelectionID,
				SelectionName: s.SelectionName,
				Odds:          s.Odds,
			})
		}
	}
	return rec
}

func (r *Reconciler) write(ctx context.Context, bet PlacedBet, rec ledger.Record) error {
	var err error
	if bet.Kind == "parlay" {
		_, err = r.ledger.CreateParlay(ctx, rec)
	} else {
		_, err = r.ledger.CreateBet(ctx, rec)
	}
	if err != nil {
		metrics.LedgerWrites.WithLabelValues("error").Inc()
		return err
	}
	metrics.LedgerWrites.WithLabelValues("ok").Inc()
	return nil
}

func (r *Reconciler) emitConfirmed(ctx context.Context, bet PlacedBet, txDigest, createdObjectID string, synced bool) {
	ev := events.BetConfirmed{
		TxDigest:        txDigest,
		OnChainBetID:    createdObjectID,
		WalletAddress:   bet.WalletAddress,
		EventID:         bet.EventID,
		EventName:       bet.EventName,
		Prediction:      bet.Prediction,
		Odds:            bet.Odds,
		Stake:           bet.Stake,
		PotentialPayout: bet.PotentialPayout,
		Currency:        bet.Currency,
		PaymentMethod:   bet.PaymentMethod,
		LedgerSynced:    synced,
		Ts:              time.Now().UTC(),
	}
	if err := r.sink.BetConfirmed(ctx, ev); err != nil {
		r.log.Warn("confirmed sink", zap.Error(err))
	}
}

// ReconcileChain contabiliza uma aposta que JÁ está on-chain.
// Nunca retorna erro: falha do ledger vira registro de recuperação +
// evento confirmado mesmo assim (o efeito on-chain é real e visível ao
// usuário). Retorna se o ledger sincronizou nesta chamada.
func (r *Reconciler) ReconcileChain(ctx context.Context, bet PlacedBet, txDigest, createdObjectID string) (synced bool) {
	rec := r.record(bet, txDigest, createdObjectID)

	if err := r.write(ctx, bet, rec); err != nil {
		// fundos já se moveram: rebaixa para aviso + recuperação local
		r.log.Error("ledger write failed after chain success; persisting recovery record",
			zap.String("digest", txDigest),
			zap.Error(err),
		)
		if rerr := r.recovery.Put(ctx, recovery.Record{
			TxDigest:        txDigest,
			CreatedObjectID: createdObjectID,
			WalletAddress:   bet.WalletAddress,
			Kind:            bet.Kind,
			Selections:      bet.Selections,
			StakeAmount:     bet.Stake,
			Currency:        bet.Currency,
			PaymentMethod:   bet.PaymentMethod,
			LastError:       err.Error(),
		}); rerr != nil {
			// pior caso: loga tudo que um operador precisa para repor à mão
			r.log.Error("recovery record write failed",
				zap.String("digest", txDigest),
				zap.String("wallet", bet.WalletAddress),
				zap.Float64("stake", bet.Stake),
				zap.Error(rerr),
			)
		}
		metrics.RecoveryRecords.Inc()
		r.emitConfirmed(ctx, bet, txDigest, createdObjectID, false)
		return false
	}

	r.emitConfirmed(ctx, bet, txDigest, createdObjectID, true)
	return true
}

// RecordDirect contabiliza apostas sem transação on-chain (saldo de
// plataforma, aposta grátis). Aqui falha de escrita é falha genuína:
// nenhum fundo se moveu.
func (r *Reconciler) RecordDirect(ctx context.Context, bet PlacedBet) error {
	rec := r.record(bet, "", "")
	if err := r.write(ctx, bet, rec); err != nil {
		return err
	}
	r.emitConfirmed(ctx, bet, "", "", true)
	return nil
}
