package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/dto"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/placer"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/slip"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/stake"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/txbuilder"
)

// Server expõe o boletim e a submissão de apostas
type Server struct {
	log    *zap.Logger
	slips  *slip.Manager
	placer *placer.Placer
}

func NewServer(log *zap.Logger, slips *slip.Manager, p *placer.Placer) *Server {
	return &Server{log: log, slips: slips, placer: p}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/slip", s.slipRoot)                 // GET | DELETE
	mux.HandleFunc("/slip/selections", s.addSelection)  // POST
	mux.HandleFunc("/slip/selections/", s.selectionOps) // DELETE /{id} | PUT /{id}/stake
	mux.HandleFunc("/slip/place", s.placeSingle)        // POST
	mux.HandleFunc("/slip/place-parlay", s.placeParlay) // POST
	return mux
}

// owner identifica o dono do boletim: header X-Slip-Owner ou ?owner=
func owner(r *http.Request) string {
	if o := r.Header.Get("X-Slip-Owner"); o != "" {
		return o
	}
	return r.URL.Query().Get("owner")
}

func (s *Server) slipRoot(w http.ResponseWriter, r *http.Request) {
	o := owner(r)
	if o == "" {
		writeError(w, http.StatusBadRequest, "owner required", "")
		return
	}
	store := s.slips.For(o)

	switch r.Method {
	case http.MethodGet:
		list := store.List(r.Context())
		resp := dto.SlipResponse{Selections: list, Count: len(list)}
		for _, sel := range list {
			resp.PotentialPayout += stake.PotentialPayout(sel.Stake, sel.Odds)
		}
		if len(list) >= 2 {
			odds := make([]float64, len(list))
			for i, sel := range list {
				odds[i] = sel.Odds
			}
			resp.ParlayOdds = stake.ParlayOdds(odds)
		}
		writeJSON(w, resp)
	case http.MethodDelete:
		if err := store.Clear(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error(), "")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) addSelection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	o := owner(r)
	if o == "" {
		writeError(w, http.StatusBadRequest, "owner required", "")
		return
	}
	var req dto.AddSelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json", "")
		return
	}

	sel, err := slip.ParseSelection(slip.BetSelection{
		ID: req.ID, EventID: req.EventID, EventName: req.EventName,
		MarketID: req.MarketID, Market: req.Market,
		SelectionID: req.SelectionID, SelectionName: req.SelectionName,
		Odds: req.Odds, Stake: req.Stake,
		IsLive: req.IsLive, MatchMinute: req.MatchMinute,
		HomeTeam: req.HomeTeam, AwayTeam: req.AwayTeam,
		UniqueID: req.UniqueID,
	})
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error(), "VALIDATION")
		return
	}

	out, err := s.slips.For(o).Add(r.Context(), sel)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "")
		return
	}

	resp := dto.AddSelectionResponse{Outcome: string(out)}
	switch out {
	case slip.OutcomeDuplicate:
		resp.Message = "selection already in slip"
	case slip.OutcomeBettingClosed:
		resp.Message = "Betting Closed"
	}
	writeJSON(w, resp)
}

// selectionOps trata /slip/selections/{id} e /slip/selections/{id}/stake
func (s *Server) selectionOps(w http.ResponseWriter, r *http.Request) {
	o := owner(r)
	if o == "" {
		writeError(w, http.StatusBadRequest, "owner required", "")
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/slip/selections/")
	store := s.slips.For(o)

	if r.Method == http.MethodPut && strings.HasSuffix(rest, "/stake") {
		id := strings.TrimSuffix(rest, "/stake")
		var req dto.UpdateStakeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Stake < 0 {
			writeError(w, http.StatusBadRequest, "invalid stake", "")
			return
		}
		if err := store.UpdateStake(r.Context(), id, req.Stake); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error(), "")
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if r.Method == http.MethodDelete && rest != "" && !strings.Contains(rest, "/") {
		if err := store.Remove(r.Context(), rest); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error(), "")
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	http.Error(w, "not found", http.StatusNotFound)
}

func (s *Server) placeSingle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	o := owner(r)
	if o == "" {
		writeError(w, http.StatusBadRequest, "owner required", "")
		return
	}
	var req dto.PlaceSingleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json", "")
		return
	}

	// stake pode ser ajustado na confirmação, antes da submissão
	if req.Stake > 0 {
		if err := s.slips.For(o).UpdateStake(r.Context(), req.SelectionID, req.Stake); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error(), "")
			return
		}
	}

	out, err := s.placer.PlaceSingle(r.Context(), placer.Request{
		Owner:         o,
		WalletAddress: req.WalletAddress,
		Currency:      txbuilder.Currency(req.Currency),
		PaymentMethod: req.PaymentMethod,
		SelectionID:   req.SelectionID,
	})
	if err != nil {
		s.writePlacementError(w, err)
		return
	}
	writeJSON(w, out)
}

func (s *Server) placeParlay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	o := owner(r)
	if o == "" {
		writeError(w, http.StatusBadRequest, "owner required", "")
		return
	}
	var req dto.PlaceParlayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json", "")
		return
	}

	out, err := s.placer.PlaceParlay(r.Context(), placer.Request{
		Owner:         o,
		WalletAddress: req.WalletAddress,
		Currency:      txbuilder.Currency(req.Currency),
		PaymentMethod: req.PaymentMethod,
		TotalStake:    req.TotalStake,
	})
	if err != nil {
		s.writePlacementError(w, err)
		return
	}
	writeJSON(w, out)
}

// writePlacementError mapeia os erros pré-broadcast para HTTP. Todos
// são recuperáveis: nenhum fundo se moveu quando chegam aqui.
func (s *Server) writePlacementError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, placer.ErrAuthRequired):
		writeError(w, http.StatusUnauthorized, err.Error(), "AUTH_REQUIRED")
	case errors.Is(err, placer.ErrSelectionNotFound):
		writeError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, placer.ErrBettingClosed):
		writeError(w, http.StatusConflict, err.Error(), "BETTING_CLOSED")
	case errors.Is(err, placer.ErrInsufficientAsset):
		writeError(w, http.StatusConflict, err.Error(), "INSUFFICIENT_ASSET")
	case errors.Is(err, placer.ErrEmptySlip),
		errors.Is(err, txbuilder.ErrStakeOutOfRange),
		errors.Is(err, txbuilder.ErrInvalidParlayCombination),
		errors.Is(err, txbuilder.ErrTooFewParlayLegs),
		errors.Is(err, txbuilder.ErrUnknownCurrency),
		errors.Is(err, txbuilder.ErrMissingSourceCoin):
		writeError(w, http.StatusUnprocessableEntity, err.Error(), "VALIDATION")
	default:
		s.log.Error("placement failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error(), "")
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg, kind string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Message: msg, Kind: kind})
}
