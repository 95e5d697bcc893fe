package recovery

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/ledger"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/stake"
	"github.com/tsoliveira/onchain-bet-platform-poc/pkg/contracts/events"
)

// LedgerAPI é a superfície do ledger usada pelo sweeper
type LedgerAPI interface {
	CreateBet(ctx context.Context, rec ledger.Record) (ledger.Record, error)
	CreateParlay(ctx context.Context, rec ledger.Record) (ledger.Record, error)
}

// DLQ recebe os registros que esgotaram as tentativas
type DLQ interface {
	RecoveryExhausted(ctx context.Context, ev events.BetRecoveryExhausted) error
}

// Sweeper reprocessa os registros de recuperação: tenta ressincronizar
// o ledger e, esgotadas as tentativas, entrega o registro à DLQ para
// intervenção manual. A escrita no ledger é idempotente por tx_hash,
// então repetir uma tentativa que na verdade funcionou não duplica
// nada.
type Sweeper struct {
	Log      *zap.Logger
	Store    *Store
	Ledger   LedgerAPI
	DLQ      DLQ
	MaxTries int
	Batch    int
}

// Run roda o sweep em loop até o contexto cancelar
func (s *Sweeper) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			s.Log.Info("context canceled, stopping sweeper")
			return
		case <-t.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep faz uma passada: pendentes primeiro, depois esgotados
func (s *Sweeper) Sweep(ctx context.Context) {
	batch := s.Batch
	if batch <= 0 {
		batch = 50
	}

	pending, err := s.Store.Pending(ctx, s.MaxTries, batch)
	if err != nil {
		s.Log.Error("list pending", zap.Error(err))
		return
	}
	for _, r := range pending {
		if err := s.resync(ctx, r); err != nil {
			s.Log.Warn("resync failed",
				zap.String("digest", r.TxDigest),
				zap.Int("attempts", r.Attempts+1),
				zap.Error(err),
			)
			if merr := s.Store.MarkAttempt(ctx, r.TxDigest, err.Error()); merr != nil {
				s.Log.Error("mark attempt", zap.Error(merr))
			}
			continue
		}
		if derr := s.Store.Delete(ctx, r.TxDigest); derr != nil {
			s.Log.Error("delete recovered record", zap.String("digest", r.TxDigest), zap.Error(derr))
			continue
		}
		s.Log.Info("recovery record resynced", zap.String("digest", r.TxDigest))
	}

	exhausted, err := s.Store.Exhausted(ctx, s.MaxTries, batch)
	if err != nil {
		s.Log.Error("list exhausted", zap.Error(err))
		return
	}
	for _, r := range exhausted {
		ev := events.BetRecoveryExhausted{
			TxDigest:     r.TxDigest,
			OnChainBetID: r.CreatedObjectID,
			Attempts:     r.Attempts,
			LastError:    r.LastError,
			TsUnixMs:     time.Now().UnixMilli(),
		}
		if err := s.DLQ.RecoveryExhausted(ctx, ev); err != nil {
			s.Log.Error("dlq publish", zap.String("digest", r.TxDigest), zap.Error(err))
			continue
		}
		// só sai do store depois de aceito na DLQ
		if err := s.Store.Delete(ctx, r.TxDigest); err != nil {
			s.Log.Error("delete exhausted record", zap.String("digest", r.TxDigest), zap.Error(err))
		}
	}
}

// resync reconstrói a linha de ledger a partir do registro local
func (s *Sweeper) resync(ctx context.Context, r Record) error {
	rec := ledger.Record{
		WalletAddress: r.WalletAddress,
		Stake:         r.StakeAmount,
		Currency:      r.Currency,
		TxHash:        r.TxDigest,
		OnChainBetID:  r.CreatedObjectID,
		PaymentMethod: r.PaymentMethod,
	}

	if r.Kind == "parlay" {
		odds := make([]float64, len(r.Selections))
		for i, sel := range r.Selections {
			odds[i] = sel.Odds
			rec.Legs = append(rec.Legs, ledger.Leg{
				EventID:       sel.EventID,
				EventName:     sel.EventName,
				MarketID:      sel.MarketID,
				OutcomeID:     sel.SelectionID,
				SelectionName: sel.SelectionName,
				Odds:          sel.Odds,
			})
		}
		rec.EventID = "parlay:" + r.TxDigest
		rec.Odds = stake.ParlayOdds(odds)
		rec.PotentialPayout = stake.ParlayPayout(r.StakeAmount, odds)
		_, err := s.Ledger.CreateParlay(ctx, rec)
		return err
	}

	if len(r.Selections) > 0 {
		sel := r.Selections[0]
		rec.EventID = sel.EventID
		rec.MarketID = sel.MarketID
		rec.OutcomeID = sel.SelectionID
		rec.Prediction = sel.SelectionName
		rec.Odds = sel.Odds
		rec.PotentialPayout = stake.PotentialPayout(r.StakeAmount, sel.Odds)
	}
	_, err := s.Ledger.CreateBet(ctx, rec)
	return err
}
