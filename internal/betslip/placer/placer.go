package placer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/chain"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/gate"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/reconcile"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/slip"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/stake"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/txbuilder"
)

// Métodos de pagamento aceitos
const (
	PayWallet          = "wallet"
	PayPlatformBalance = "platform-balance"
	PayFreeBet         = "free-bet"
)

// Erros pré-broadcast, totalmente recuperáveis (nenhum fundo se moveu)
var (
	ErrAuthRequired      = errors.New("wallet not connected")
	ErrBettingClosed     = errors.New(gate.ClosedReason)
	ErrSelectionNotFound = errors.New("selection not in slip")
	ErrEmptySlip         = errors.New("slip is empty")
	ErrInsufficientAsset = errors.New("insufficient asset balance")
)

// Submitter é o gateway de submissão visto pelo placer
type Submitter interface {
	Submit(ctx context.Context, tx *txbuilder.PendingTransaction) chain.Result
}

// Request descreve uma submissão do boletim
type Request struct {
	Owner         string // dono do boletim (sessão/carteira)
	WalletAddress string
	Currency      txbuilder.Currency
	PaymentMethod string  // "wallet" | "platform-balance" | "free-bet"
	SelectionID   string  // aposta simples: qual seleção do boletim
	TotalStake    float64 // múltipla: stake total
}

// Status do desfecho exposto ao chamador
const (
	StatusConfirmed   = "confirmed"
	StatusUnconfirmed = "unconfirmed" // digest existe, desfecho desconhecido
	StatusFailed      = "failed"
)

// Outcome é o desfecho de uma submissão. Unconfirmed nunca vira
// "falhou" na UI: a transação pode ainda aterrissar.
type Outcome struct {
	Status       string `json:"status"`
	TxDigest     string `json:"tx_digest,omitempty"`
	OnChainBetID string `json:"onchain_bet_id,omitempty"`
	LedgerSynced bool   `json:"ledger_synced"`
	FailureKind  string `json:"failure_kind,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// Placer orquestra o fluxo do boletim:
// gate → builder → gateway → reconciliador → limpeza do boletim
type Placer struct {
	log        *zap.Logger
	slips      *slip.Manager
	gate       *gate.Gate
	builder    *txbuilder.Builder
	submitter  Submitter
	rpc        chain.RPC
	reconciler *reconcile.Reconciler
	registry   map[txbuilder.Currency]txbuilder.Spec
}

func New(
	log *zap.Logger,
	slips *slip.Manager,
	g *gate.Gate,
	builder *txbuilder.Builder,
	submitter Submitter,
	rpc chain.RPC,
	reconciler *reconcile.Reconciler,
	registry map[txbuilder.Currency]txbuilder.Spec,
) *Placer {
	return &Placer{
		log:        log,
		slips:      slips,
		gate:       g,
		builder:    builder,
		submitter:  submitter,
		rpc:        rpc,
		reconciler: reconciler,
		registry:   registry,
	}
}

// PlaceSingle submete uma seleção do boletim como aposta simples
func (p *Placer) PlaceSingle(ctx context.Context, req Request) (Outcome, error) {
	store := p.slips.For(req.Owner)
	sel, err := findSelection(ctx, store, req.SelectionID)
	if err != nil {
		return Outcome{}, err
	}

	// janela avaliada com o minuto mais fresco do feed externo
	if p.gate.Check(ctx, sel.EventID, sel.IsLive, minuteOf(sel)) == gate.Closed {
		return Outcome{}, ErrBettingClosed
	}

	bet := reconcile.PlacedBet{
		Kind:            "single",
		Selections:      []slip.BetSelection{sel},
		EventID:         sel.EventID,
		EventName:       sel.EventName,
		MarketID:        sel.MarketID,
		OutcomeID:       sel.SelectionID,
		Prediction:      sel.SelectionName,
		Odds:            sel.Odds,
		Stake:           sel.Stake,
		PotentialPayout: stake.PotentialPayout(sel.Stake, sel.Odds),
		Currency:        string(req.Currency),
		PaymentMethod:   req.PaymentMethod,
		WalletAddress:   req.WalletAddress,
	}

	// saldo de plataforma e aposta grátis não tocam a chain
	if req.PaymentMethod != PayWallet {
		if err := p.reconciler.RecordDirect(ctx, bet); err != nil {
			return Outcome{}, err
		}
		_ = store.Remove(ctx, sel.ID)
		return Outcome{Status: StatusConfirmed, LedgerSynced: true}, nil
	}

	if req.WalletAddress == "" {
		return Outcome{}, ErrAuthRequired
	}

	sourceCoin, err := p.pickSourceCoin(ctx, req, txbuilder.ToBaseUnits(sel.Stake))
	if err != nil {
		return Outcome{}, err
	}

	tx, err := p.builder.BuildSingle(sel, req.Currency, sourceCoin)
	if err != nil {
		return Outcome{}, err
	}

	out := p.submitAndReconcile(ctx, tx, bet)
	if out.Status == StatusConfirmed {
		_ = store.Remove(ctx, sel.ID)
	}
	return out, nil
}

// PlaceParlay submete o boletim inteiro como múltipla
func (p *Placer) PlaceParlay(ctx context.Context, req Request) (Outcome, error) {
	store := p.slips.For(req.Owner)
	legs := store.List(ctx)
	if len(legs) == 0 {
		return Outcome{}, ErrEmptySlip
	}

	for _, leg := range legs {
		if p.gate.Check(ctx, leg.EventID, leg.IsLive, minuteOf(leg)) == gate.Closed {
			return Outcome{}, fmt.Errorf("%w: %s", ErrBettingClosed, leg.EventID)
		}
	}

	if req.PaymentMethod == PayWallet && req.WalletAddress == "" {
		return Outcome{}, ErrAuthRequired
	}

	legOdds := make([]float64, len(legs))
	for i, leg := range legs {
		legOdds[i] = leg.Odds
	}

	var sourceCoin string
	if req.PaymentMethod == PayWallet {
		var err error
		sourceCoin, err = p.pickSourceCoin(ctx, req, txbuilder.ToBaseUnits(req.TotalStake))
		if err != nil {
			return Outcome{}, err
		}
	}

	tx, err := p.builder.BuildParlay(legs, req.TotalStake, req.Currency, sourceCoin)
	if err != nil {
		return Outcome{}, err
	}

	bet := reconcile.PlacedBet{
		Kind:            "parlay",
		Selections:      legs,
		EventID:         tx.EventID,
		EventName:       "Parlay",
		MarketID:        tx.MarketID,
		Prediction:      tx.Prediction,
		Odds:            stake.ParlayOdds(legOdds),
		Stake:           req.TotalStake,
		PotentialPayout: stake.ParlayPayout(req.TotalStake, legOdds),
		Currency:        string(req.Currency),
		PaymentMethod:   req.PaymentMethod,
		WalletAddress:   req.WalletAddress,
	}

	if req.PaymentMethod != PayWallet {
		if err := p.reconciler.RecordDirect(ctx, bet); err != nil {
			return Outcome{}, err
		}
		_ = store.Clear(ctx)
		return Outcome{Status: StatusConfirmed, LedgerSynced: true}, nil
	}

	out := p.submitAndReconcile(ctx, tx, bet)
	if out.Status == StatusConfirmed {
		_ = store.Clear(ctx)
	}
	return out, nil
}

// submitAndReconcile leva a transação pelo gateway e, confirmando,
// fecha a contabilidade. Pós-broadcast nenhum caminho retorna "perdeu
// fundos": timeout vira unconfirmed e falha de ledger vira recuperação.
func (p *Placer) submitAndReconcile(ctx context.Context, tx *txbuilder.PendingTransaction, bet reconcile.PlacedBet) Outcome {
	res := p.submitter.Submit(ctx, tx)

	if res.Unconfirmed {
		return Outcome{
			Status:   StatusUnconfirmed,
			TxDigest: res.TxDigest,
			Reason:   "transaction not yet confirmed; check later",
		}
	}
	if !res.Success {
		out := Outcome{Status: StatusFailed, TxDigest: res.TxDigest}
		if res.Err != nil {
			out.FailureKind = string(res.Err.Kind)
			out.Reason = res.Err.Raw
		}
		return out
	}

	synced := p.reconciler.ReconcileChain(ctx, bet, res.TxDigest, res.CreatedObjectID)
	return Outcome{
		Status:       StatusConfirmed,
		TxDigest:     res.TxDigest,
		OnChainBetID: res.CreatedObjectID,
		LedgerSynced: synced,
	}
}

// pickSourceCoin faz o pre-flight de saldo do token não-nativo:
// escolhe um coin object com saldo suficiente; sem nenhum, falha antes
// de qualquer assinatura. A leitura já vem com retentativa do cliente
// RPC; falha persistente é erro pré-broadcast, recuperável.
func (p *Placer) pickSourceCoin(ctx context.Context, req Request, needBaseUnits uint64) (string, error) {
	spec, ok := p.registry[req.Currency]
	if !ok || !spec.RequiresSourceCoin {
		return "", nil
	}

	coins, err := p.rpc.GetCoins(ctx, req.WalletAddress, spec.CoinType)
	if err != nil {
		p.log.Warn("coin pre-flight failed", zap.Error(err))
		return "", fmt.Errorf("fetch coins: %w", err)
	}
	for _, c := range coins {
		if c.Balance >= needBaseUnits {
			return c.ObjectID, nil
		}
	}
	return "", fmt.Errorf("%w: need %d base units of %s", ErrInsufficientAsset, needBaseUnits, spec.CoinType)
}

func findSelection(ctx context.Context, store *slip.Store, id string) (slip.BetSelection, error) {
	for _, sel := range store.List(ctx) {
		if sel.ID == id {
			return sel, nil
		}
	}
	return slip.BetSelection{}, ErrSelectionNotFound
}

func minuteOf(sel slip.BetSelection) int {
	if sel.MatchMinute == nil {
		return 0
	}
	return *sel.MatchMinute
}
