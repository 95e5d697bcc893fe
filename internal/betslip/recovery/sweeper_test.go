package recovery

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/ledger"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/slip"
	"github.com/tsoliveira/onchain-bet-platform-poc/pkg/contracts/events"
)

type fakeLedger struct {
	fail    bool
	singles []ledger.Record
	parlays []ledger.Record
}

func (f *fakeLedger) CreateBet(_ context.Context, rec ledger.Record) (ledger.Record, error) {
	if f.fail {
		return ledger.Record{}, errors.New("ledger unavailable")
	}
	f.singles = append(f.singles, rec)
	return rec, nil
}

func (f *fakeLedger) CreateParlay(_ context.Context, rec ledger.Record) (ledger.Record, error) {
	if f.fail {
		return ledger.Record{}, errors.New("ledger unavailable")
	}
	f.parlays = append(f.parlays, rec)
	return rec, nil
}

type fakeDLQ struct {
	fail   bool
	events []events.BetRecoveryExhausted
}

func (f *fakeDLQ) RecoveryExhausted(_ context.Context, ev events.BetRecoveryExhausted) error {
	if f.fail {
		return errors.New("broker down")
	}
	f.events = append(f.events, ev)
	return nil
}

func newSweeper(t *testing.T, maxTries int) (*Sweeper, *Store, *fakeLedger, *fakeDLQ) {
	t.Helper()
	dbh, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "recovery.db"))
	require.NoError(t, err)
	t.Cleanup(func() { dbh.Close() })

	store := NewStore(dbh)
	require.NoError(t, store.EnsureSchema(context.Background()))

	led := &fakeLedger{}
	dlq := &fakeDLQ{}
	return &Sweeper{
		Log:      zap.NewNop(),
		Store:    store,
		Ledger:   led,
		DLQ:      dlq,
		MaxTries: maxTries,
	}, store, led, dlq
}

func singleRecord(digest string) Record {
	return Record{
		TxDigest:      digest,
		WalletAddress: "0xwallet",
		Kind:          "single",
		Selections: []slip.BetSelection{{
			ID: "s1", EventID: "E1", EventName: "A x B",
			MarketID: "m1", SelectionID: "o1", SelectionName: "A",
			Odds: 2.5, Stake: 10,
		}},
		StakeAmount:   10,
		Currency:      "SUI",
		PaymentMethod: "wallet",
	}
}

func TestSweepResyncsAndDeletes(t *testing.T) {
	sw, store, led, _ := newSweeper(t, 5)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, singleRecord("0xd1")))

	sw.Sweep(ctx)

	require.Len(t, led.singles, 1)
	assert.Equal(t, "0xd1", led.singles[0].TxHash)
	assert.Equal(t, 25.0, led.singles[0].PotentialPayout)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSweepMarksAttemptOnFailure(t *testing.T) {
	sw, store, led, _ := newSweeper(t, 5)
	led.fail = true
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, singleRecord("0xd1")))

	sw.Sweep(ctx)
	sw.Sweep(ctx)

	pending, err := store.Pending(ctx, 5, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].Attempts)
	assert.Equal(t, "ledger unavailable", pending[0].LastError)
}

func TestSweepExhaustedGoesToDLQ(t *testing.T) {
	sw, store, led, dlq := newSweeper(t, 2)
	led.fail = true
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, singleRecord("0xd1")))

	// duas passadas esgotam, a terceira entrega à DLQ
	sw.Sweep(ctx)
	sw.Sweep(ctx)
	sw.Sweep(ctx)

	require.Len(t, dlq.events, 1)
	assert.Equal(t, "0xd1", dlq.events[0].TxDigest)
	assert.Equal(t, 2, dlq.events[0].Attempts)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSweepKeepsRecordWhenDLQFails(t *testing.T) {
	sw, store, led, dlq := newSweeper(t, 1)
	led.fail = true
	dlq.fail = true
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, singleRecord("0xd1")))

	sw.Sweep(ctx)
	sw.Sweep(ctx)

	// sem DLQ aceitando, o registro nunca se perde
	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSweepParlayResync(t *testing.T) {
	sw, store, led, _ := newSweeper(t, 5)
	ctx := context.Background()

	rec := Record{
		TxDigest:      "0xp1",
		WalletAddress: "0xwallet",
		Kind:          "parlay",
		Selections: []slip.BetSelection{
			{ID: "s1", EventID: "E1", SelectionID: "o1", SelectionName: "A", Odds: 2.0},
			{ID: "s2", EventID: "E2", SelectionID: "o2", SelectionName: "B", Odds: 1.5},
		},
		StakeAmount:   10,
		Currency:      "USDB",
		PaymentMethod: "wallet",
	}
	require.NoError(t, store.Put(ctx, rec))

	sw.Sweep(ctx)

	require.Len(t, led.parlays, 1)
	assert.Len(t, led.parlays[0].Legs, 2)
	assert.Equal(t, 3.0, led.parlays[0].Odds)
	assert.Equal(t, 30.0, led.parlays[0].PotentialPayout)
}

// a terceira passada não reprocessa pendentes quando attempts >= max
func TestPendingRespectsMaxTries(t *testing.T) {
	sw, store, led, dlq := newSweeper(t, 1)
	led.fail = true
	dlq.fail = true
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, singleRecord("0xd1")))

	sw.Sweep(ctx) // attempts=1, esgotado
	led.fail = false
	sw.Sweep(ctx) // não tenta mais o ledger

	assert.Empty(t, led.singles)
}
