package recovery

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/slip"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "recovery.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := NewStore(db)
	require.NoError(t, s.EnsureSchema(context.Background()))
	return s
}

func record(digest string) Record {
	return Record{
		TxDigest:        digest,
		CreatedObjectID: "0xobj1",
		WalletAddress:   "0xwallet",
		Kind:            "single",
		Selections: []slip.BetSelection{
			{ID: "s1", EventID: "E1", EventName: "Flamengo x Palmeiras", Odds: 2.5, SelectionName: "Home"},
		},
		StakeAmount:   10,
		Currency:      "SUI",
		PaymentMethod: "wallet",
	}
}

func TestPutIsIdempotentPerDigest(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Put(ctx, record("0xabc")))
	require.NoError(t, s.Put(ctx, record("0xabc"))) // digest repetido é no-op

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPendingAndMarkAttempt(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Put(ctx, record("0xabc")))

	pending, err := s.Pending(ctx, 3, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "0xabc", pending[0].TxDigest)
	require.Len(t, pending[0].Selections, 1)
	assert.Equal(t, "E1", pending[0].Selections[0].EventID)

	require.NoError(t, s.MarkAttempt(ctx, "0xabc", "ledger http 500"))
	require.NoError(t, s.MarkAttempt(ctx, "0xabc", "ledger http 500"))
	require.NoError(t, s.MarkAttempt(ctx, "0xabc", "ledger http 502"))

	// esgotou as 3 tentativas: sai de Pending, entra em Exhausted
	pending, err = s.Pending(ctx, 3, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	exhausted, err := s.Exhausted(ctx, 3, 10)
	require.NoError(t, err)
	require.Len(t, exhausted, 1)
	assert.Equal(t, 3, exhausted[0].Attempts)
	assert.Equal(t, "ledger http 502", exhausted[0].LastError)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Put(ctx, record("0xabc")))
	require.NoError(t, s.Delete(ctx, "0xabc"))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
