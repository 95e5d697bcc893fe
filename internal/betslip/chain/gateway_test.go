package chain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/txbuilder"
)

type stubSigner struct {
	digest string
	err    error
	calls  int
}

func (s *stubSigner) SignAndExecute(context.Context, *txbuilder.PendingTransaction) (string, error) {
	s.calls++
	return s.digest, s.err
}

type stubRPC struct {
	result *TxResult
	err    error
}

func (s *stubRPC) WaitForTransaction(context.Context, string) (*TxResult, error) {
	return s.result, s.err
}
func (s *stubRPC) GetCoins(context.Context, string, string) ([]Coin, error) { return nil, nil }
func (s *stubRPC) GetBalance(context.Context, string, string) (uint64, error) {
	return 0, nil
}

func newTx() *txbuilder.PendingTransaction {
	return &txbuilder.PendingTransaction{Kind: "single", EventID: "E1", StakeBaseUnits: 1}
}

func TestSubmitFinalExtractsCreatedObject(t *testing.T) {
	rpc := &stubRPC{result: &TxResult{
		Digest: "0x1",
		Effects: TxEffects{
			Status: "success",
		},
		ObjectChanges: []ObjectChange{
			{Type: "mutated", ObjectType: "0x2::coin::Coin<0x2::sui::SUI>", ObjectID: "0xcoin"},
			{Type: "created", ObjectType: "0xpkg::betting::Bet", ObjectID: "0xobj1"},
		},
	}}
	g := NewGateway(zap.NewNop(), &stubSigner{digest: "0x1"}, rpc, time.Second, "::betting::Bet")

	res := g.Submit(context.Background(), newTx())

	assert.True(t, res.Success)
	assert.Equal(t, StateFinal, res.State)
	assert.Equal(t, "0x1", res.TxDigest)
	assert.Equal(t, "0xobj1", res.CreatedObjectID)
}

func TestSubmitFinalWithoutBetObjectStillSucceeds(t *testing.T) {
	rpc := &stubRPC{result: &TxResult{
		Digest:  "0x1",
		Effects: TxEffects{Status: "success"},
	}}
	g := NewGateway(zap.NewNop(), &stubSigner{digest: "0x1"}, rpc, time.Second, "::betting::Bet")

	res := g.Submit(context.Background(), newTx())

	assert.True(t, res.Success)
	assert.Empty(t, res.CreatedObjectID)
}

func TestSubmitUserRejected(t *testing.T) {
	signer := &stubSigner{err: errors.New("Request rejected by user")}
	g := NewGateway(zap.NewNop(), signer, &stubRPC{}, time.Second, "::betting::Bet")

	res := g.Submit(context.Background(), newTx())

	require.NotNil(t, res.Err)
	assert.False(t, res.Success)
	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, FailUserRejected, res.Err.Kind)
	// nada foi transmitido: sem digest, o chamador pode reconstruir
	assert.Empty(t, res.TxDigest)
	assert.Equal(t, 1, signer.calls) // sem retentativa automática
}

func TestSubmitConfirmTimeoutIsNotFailure(t *testing.T) {
	rpc := &stubRPC{err: ErrConfirmTimeout}
	g := NewGateway(zap.NewNop(), &stubSigner{digest: "0xabc"}, rpc, 50*time.Millisecond, "::betting::Bet")

	res := g.Submit(context.Background(), newTx())

	assert.False(t, res.Success)
	assert.True(t, res.Unconfirmed)
	assert.Nil(t, res.Err)
	// digest permanece o identificador válido da aposta
	assert.Equal(t, "0xabc", res.TxDigest)
}

func TestSubmitRevertedTransaction(t *testing.T) {
	rpc := &stubRPC{result: &TxResult{
		Digest:  "0x1",
		Effects: TxEffects{Status: "failure", Error: "Insufficient gas balance"},
	}}
	g := NewGateway(zap.NewNop(), &stubSigner{digest: "0x1"}, rpc, time.Second, "::betting::Bet")

	res := g.Submit(context.Background(), newTx())

	require.NotNil(t, res.Err)
	assert.False(t, res.Success)
	assert.Equal(t, FailInsufficientFunds, res.Err.Kind)
	assert.Equal(t, "0x1", res.TxDigest)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		msg  string
		want FailureKind
	}{
		{"User rejected the request", FailUserRejected},
		{"Insufficient funds for transaction", FailInsufficientFunds},
		{"insufficient gas balance", FailInsufficientFunds},
		{"wallet extension not responding", FailSignerError},
		{"invalid signature", FailSignerError},
		{"connection refused", FailNetworkError},
		{"i/o timeout", FailNetworkError},
		{"MoveAbort(7) in betting::place", FailUnknownChain},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			got := Classify(errors.New(tt.msg))
			assert.Equal(t, tt.want, got.Kind)
			assert.Equal(t, tt.msg, got.Raw) // mensagem crua preservada
		})
	}
}
