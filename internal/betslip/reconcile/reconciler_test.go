package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/ledger"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/recovery"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/slip"
	"github.com/tsoliveira/onchain-bet-platform-poc/pkg/contracts/events"
)

type fakeLedger struct {
	bets    []ledger.Record
	parlays []ledger.Record
	err     error
}

func (f *fakeLedger) CreateBet(_ context.Context, rec ledger.Record) (ledger.Record, error) {
	if f.err != nil {
		return ledger.Record{}, f.err
	}
	f.bets = append(f.bets, rec)
	return rec, nil
}

func (f *fakeLedger) CreateParlay(_ context.Context, rec ledger.Record) (ledger.Record, error) {
	if f.err != nil {
		return ledger.Record{}, f.err
	}
	f.parlays = append(f.parlays, rec)
	return rec, nil
}

type fakeRecovery struct {
	records map[string]recovery.Record
}

func (f *fakeRecovery) Put(_ context.Context, r recovery.Record) error {
	if f.records == nil {
		f.records = make(map[string]recovery.Record)
	}
	if _, exists := f.records[r.TxDigest]; exists {
		return nil
	}
	f.records[r.TxDigest] = r
	return nil
}

type fakeSink struct {
	confirmed []events.BetConfirmed
}

func (f *fakeSink) BetConfirmed(_ context.Context, ev events.BetConfirmed) error {
	f.confirmed = append(f.confirmed, ev)
	return nil
}

func placedBet() PlacedBet {
	return PlacedBet{
		Kind: "single",
		Selections: []slip.BetSelection{
			{ID: "s1", EventID: "E1", EventName: "Flamengo x Palmeiras", Odds: 2.5, SelectionName: "Home"},
		},
		EventID:         "E1",
		EventName:       "Flamengo x Palmeiras",
		MarketID:        "m1",
		OutcomeID:       "o1",
		Prediction:      "Home",
		Odds:            2.5,
		Stake:           10,
		PotentialPayout: 25,
		Currency:        "SUI",
		PaymentMethod:   "wallet",
		WalletAddress:   "0xwallet",
	}
}

func TestReconcileChainWritesLedgerAndEmits(t *testing.T) {
	l := &fakeLedger{}
	rec := &fakeRecovery{}
	sink := &fakeSink{}
	r := New(zap.NewNop(), l, rec, sink)

	synced := r.ReconcileChain(context.Background(), placedBet(), "0x1", "0xobj1")

	assert.True(t, synced)
	require.Len(t, l.bets, 1)
	assert.Equal(t, "0x1", l.bets[0].TxHash)
	assert.Equal(t, "0xobj1", l.bets[0].OnChainBetID)
	assert.InDelta(t, 25.0, l.bets[0].PotentialPayout, 1e-9)
	assert.Empty(t, rec.records)

	require.Len(t, sink.confirmed, 1)
	assert.True(t, sink.confirmed[0].LedgerSynced)
}

func TestChainSuccessSurvivesLedgerFailure(t *testing.T) {
	l := &fakeLedger{err: errors.New("ledger http 500")}
	rec := &fakeRecovery{}
	sink := &fakeSink{}
	r := New(zap.NewNop(), l, rec, sink)

	synced := r.ReconcileChain(context.Background(), placedBet(), "0xabc", "0xobj1")

	assert.False(t, synced)

	// o evento confirmado sai mesmo assim: o efeito on-chain é real
	require.Len(t, sink.confirmed, 1)
	assert.Equal(t, "0xabc", sink.confirmed[0].TxDigest)
	assert.False(t, sink.confirmed[0].LedgerSynced)

	// exatamente um registro de recuperação referenciando o digest
	require.Len(t, rec.records, 1)
	stored := rec.records["0xabc"]
	assert.Equal(t, "0xabc", stored.TxDigest)
	assert.Equal(t, "0xobj1", stored.CreatedObjectID)
	assert.InDelta(t, 10.0, stored.StakeAmount, 1e-9)
	require.Len(t, stored.Selections, 1)
}

func TestReconcileParlayUsesParlayEndpoint(t *testing.T) {
	l := &fakeLedger{}
	r := New(zap.NewNop(), l, &fakeRecovery{}, &fakeSink{})

	bet := placedBet()
	bet.Kind = "parlay"
	bet.Selections = append(bet.Selections, slip.BetSelection{
		ID: "s2", EventID: "E2", EventName: "Grêmio x Internacional", Odds: 1.5, SelectionName: "Away",
	})

	_ = r.ReconcileChain(context.Background(), bet, "0x2", "")

	assert.Empty(t, l.bets)
	require.Len(t, l.parlays, 1)
	assert.Len(t, l.parlays[0].Legs, 2)
}

func TestRecordDirectFailureIsGenuine(t *testing.T) {
	l := &fakeLedger{err: errors.New("ledger down")}
	rec := &fakeRecovery{}
	sink := &fakeSink{}
	r := New(zap.NewNop(), l, rec, sink)

	bet := placedBet()
	bet.PaymentMethod = "free-bet"

	err := r.RecordDirect(context.Background(), bet)

	// sem fundos movidos: falha é falha, sem recuperação nem evento
	require.Error(t, err)
	assert.Empty(t, rec.records)
	assert.Empty(t, sink.confirmed)
}

func TestRecordDirectSuccess(t *testing.T) {
	l := &fakeLedger{}
	sink := &fakeSink{}
	r := New(zap.NewNop(), l, &fakeRecovery{}, sink)

	bet := placedBet()
	bet.PaymentMethod = "platform-balance"

	require.NoError(t, r.RecordDirect(context.Background(), bet))
	require.Len(t, l.bets, 1)
	assert.Empty(t, l.bets[0].TxHash)
	require.Len(t, sink.confirmed, 1)
}
