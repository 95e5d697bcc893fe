package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/chain"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/dto"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/gate"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/ledger"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/livefeed"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/placer"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/reconcile"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/recovery"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/slip"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/txbuilder"
	"github.com/tsoliveira/onchain-bet-platform-poc/pkg/contracts/events"
)

type stubSubmitter struct{ result chain.Result }

func (s *stubSubmitter) Submit(_ context.Context, _ *txbuilder.PendingTransaction) chain.Result {
	return s.result
}

type stubRPC struct{ coins []chain.Coin }

func (s *stubRPC) WaitForTransaction(_ context.Context, digest string) (*chain.TxResult, error) {
	return &chain.TxResult{Digest: digest, Effects: chain.TxEffects{Status: "success"}}, nil
}
func (s *stubRPC) GetCoins(_ context.Context, _, _ string) ([]chain.Coin, error) {
	return s.coins, nil
}
func (s *stubRPC) GetBalance(_ context.Context, _, _ string) (uint64, error) { return 0, nil }

type stubLedger struct{}

func (stubLedger) CreateBet(_ context.Context, rec ledger.Record) (ledger.Record, error) {
	return rec, nil
}
func (stubLedger) CreateParlay(_ context.Context, rec ledger.Record) (ledger.Record, error) {
	return rec, nil
}

type stubRecovery struct{}

func (stubRecovery) Put(_ context.Context, _ recovery.Record) error { return nil }

type stubSink struct{}

func (stubSink) BetConfirmed(_ context.Context, _ events.BetConfirmed) error { return nil }

func newAPI(t *testing.T, submitted chain.Result) *httptest.Server {
	t.Helper()
	log := zap.NewNop()
	registry := txbuilder.DefaultRegistry()

	slips := slip.NewManager(log, slip.NewMemoryStorage(), 80)
	g := gate.New(livefeed.NewMemoryFeed(), 80)
	builder := txbuilder.New(registry, 100_000_000, 256)
	reconciler := reconcile.New(log, stubLedger{}, stubRecovery{}, stubSink{})
	p := placer.New(log, slips, g, builder, &stubSubmitter{result: submitted}, &stubRPC{}, reconciler, registry)

	srv := httptest.NewServer(NewServer(log, slips, p).Router())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, v any) *http.Response {
	t.Helper()
	var body bytes.Buffer
	if v != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(v))
	}
	req, err := http.NewRequest(method, url, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Slip-Owner", "u1")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return res
}

func selection(id, eventID string) dto.AddSelectionRequest {
	return dto.AddSelectionRequest{
		ID: id, EventID: eventID, EventName: "A x B",
		MarketID: "m1", Market: "1X2",
		SelectionID: "o-" + id, SelectionName: "A",
		Odds: 2.0, Stake: 5,
	}
}

func TestOwnerRequired(t *testing.T) {
	srv := newAPI(t, chain.Result{})
	res, err := http.Get(srv.URL + "/slip")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestAddAndListSelections(t *testing.T) {
	srv := newAPI(t, chain.Result{})

	res := doJSON(t, http.MethodPost, srv.URL+"/slip/selections", selection("s1", "E1"))
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var add dto.AddSelectionResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&add))
	assert.Equal(t, string(slip.OutcomeAdded), add.Outcome)

	// duplicata exata é recusada com sinal próprio
	res = doJSON(t, http.MethodPost, srv.URL+"/slip/selections", selection("s1", "E1"))
	defer res.Body.Close()
	require.NoError(t, json.NewDecoder(res.Body).Decode(&add))
	assert.Equal(t, string(slip.OutcomeDuplicate), add.Outcome)

	res = doJSON(t, http.MethodGet, srv.URL+"/slip", nil)
	defer res.Body.Close()
	var out dto.SlipResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	assert.Equal(t, 1, out.Count)
	assert.Equal(t, 10.0, out.PotentialPayout)
}

func TestRemoveAndClear(t *testing.T) {
	srv := newAPI(t, chain.Result{})

	doJSON(t, http.MethodPost, srv.URL+"/slip/selections", selection("s1", "E1")).Body.Close()
	doJSON(t, http.MethodPost, srv.URL+"/slip/selections", selection("s2", "E2")).Body.Close()

	res := doJSON(t, http.MethodDelete, srv.URL+"/slip/selections/s1", nil)
	res.Body.Close()
	assert.Equal(t, http.StatusNoContent, res.StatusCode)

	res = doJSON(t, http.MethodDelete, srv.URL+"/slip", nil)
	res.Body.Close()
	assert.Equal(t, http.StatusNoContent, res.StatusCode)

	res = doJSON(t, http.MethodGet, srv.URL+"/slip", nil)
	defer res.Body.Close()
	var out dto.SlipResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	assert.Zero(t, out.Count)
}

func TestUpdateStake(t *testing.T) {
	srv := newAPI(t, chain.Result{})
	doJSON(t, http.MethodPost, srv.URL+"/slip/selections", selection("s1", "E1")).Body.Close()

	res := doJSON(t, http.MethodPut, srv.URL+"/slip/selections/s1/stake", dto.UpdateStakeRequest{Stake: 12})
	res.Body.Close()
	assert.Equal(t, http.StatusNoContent, res.StatusCode)

	res = doJSON(t, http.MethodGet, srv.URL+"/slip", nil)
	defer res.Body.Close()
	var out dto.SlipResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	require.Len(t, out.Selections, 1)
	assert.Equal(t, 12.0, out.Selections[0].Stake)
}

func TestPlaceSingleConfirmed(t *testing.T) {
	srv := newAPI(t, chain.Result{
		Success:         true,
		TxDigest:        "0xd1",
		CreatedObjectID: "0xbet1",
	})
	doJSON(t, http.MethodPost, srv.URL+"/slip/selections", selection("s1", "E1")).Body.Close()

	res := doJSON(t, http.MethodPost, srv.URL+"/slip/place", dto.PlaceSingleRequest{
		WalletAddress: "0xwallet",
		Currency:      "SUI",
		PaymentMethod: "wallet",
		SelectionID:   "s1",
	})
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var out placer.Outcome
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	assert.Equal(t, placer.StatusConfirmed, out.Status)
	assert.Equal(t, "0xd1", out.TxDigest)
	assert.True(t, out.LedgerSynced)
}

func TestPlaceWithoutWalletIs401(t *testing.T) {
	srv := newAPI(t, chain.Result{})
	doJSON(t, http.MethodPost, srv.URL+"/slip/selections", selection("s1", "E1")).Body.Close()

	res := doJSON(t, http.MethodPost, srv.URL+"/slip/place", dto.PlaceSingleRequest{
		Currency:      "SUI",
		PaymentMethod: "wallet",
		SelectionID:   "s1",
	})
	defer res.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestPlaceUnknownSelectionIs404(t *testing.T) {
	srv := newAPI(t, chain.Result{})

	res := doJSON(t, http.MethodPost, srv.URL+"/slip/place", dto.PlaceSingleRequest{
		WalletAddress: "0xwallet",
		Currency:      "SUI",
		PaymentMethod: "wallet",
		SelectionID:   "ghost",
	})
	defer res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestPlaceParlayTooFewLegsIs422(t *testing.T) {
	srv := newAPI(t, chain.Result{})
	doJSON(t, http.MethodPost, srv.URL+"/slip/selections", selection("s1", "E1")).Body.Close()

	res := doJSON(t, http.MethodPost, srv.URL+"/slip/place-parlay", dto.PlaceParlayRequest{
		WalletAddress: "0xwallet",
		Currency:      "SUI",
		PaymentMethod: "wallet",
		TotalStake:    5,
	})
	defer res.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
}
