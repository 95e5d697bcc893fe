package slip

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/gate"
)

// Resultado de uma tentativa de add: sinal para o chamador, nunca erro
// (erro fica reservado a falha de storage)
type AddOutcome string

const (
	OutcomeAdded         AddOutcome = "added"
	OutcomeReplaced      AddOutcome = "selection_changed"
	OutcomeDuplicate     AddOutcome = "duplicate"
	OutcomeBettingClosed AddOutcome = "betting_closed"
)

// Store é o boletim de apostas de um dono (endereço de carteira): lista
// ordenada de seleções, uma por evento, persistida integralmente a cada
// mutação. Toda mutação é read-modify-write sobre o último snapshot
// persistido, nunca sobre referência capturada (evita update perdido em
// edições rápidas de stake).
type Store struct {
	mu      sync.Mutex
	log     *zap.Logger
	storage Storage
	key     string
	cutoff  int // minuto de corte para rejeitar seleção ao vivo
}

func NewStore(log *zap.Logger, storage Storage, key string, cutoffMinute int) *Store {
	return &Store{log: log, storage: storage, key: key, cutoff: cutoffMinute}
}

// load desserializa o boletim do storage. Storage ausente ou corrompido
// vira boletim vazio, nunca erro.
func (s *Store) load(ctx context.Context) []BetSelection {
	raw, ok, err := s.storage.Get(ctx, s.key)
	if err != nil || !ok || raw == "" {
		if err != nil {
			s.log.Warn("slip storage read", zap.Error(err))
		}
		return nil
	}
	var list []BetSelection
	if jerr := json.Unmarshal([]byte(raw), &list); jerr != nil {
		s.log.Warn("slip storage corrupted, resetting", zap.Error(jerr))
		return nil
	}
	return list
}

func (s *Store) save(ctx context.Context, list []BetSelection) error {
	if list == nil {
		list = []BetSelection{}
	}
	b, _ := json.Marshal(list)
	return s.storage.Set(ctx, s.key, string(b))
}

// Add aplica a política do boletim, nesta ordem:
//  1. seleção ao vivo já no minuto de corte → betting_closed, sem mutação
//  2. sem UniqueID e já existe (eventId, market, selectionName) → duplicate
//  3. sem UniqueID e já existe o mesmo eventId → substitui mantendo posição
//  4. caso contrário → anexa
//
// UniqueID presente pula 2 e 3 por completo (repetição intencional).
func (s *Store) Add(ctx context.Context, sel BetSelection) (AddOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gate.Evaluate(sel.IsLive, sel.minute(), s.cutoff) == gate.Closed {
		return OutcomeBettingClosed, nil
	}

	list := s.load(ctx)

	if sel.UniqueID == "" {
		for i, cur := range list {
			if cur.EventID != sel.EventID {
				continue
			}
			if cur.Market == sel.Market && cur.SelectionName == sel.SelectionName {
				return OutcomeDuplicate, nil
			}
			// mesmo evento, outra seleção: troca in-place
			list[i] = sel
			if err := s.save(ctx, list); err != nil {
				return "", err
			}
			return OutcomeReplaced, nil
		}
	}

	list = append(list, sel)
	if err := s.save(ctx, list); err != nil {
		return "", err
	}
	return OutcomeAdded, nil
}

// Remove filtra a seleção pelo id; ausente é no-op
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.load(ctx)
	out := list[:0]
	for _, cur := range list {
		if cur.ID != id {
			out = append(out, cur)
		}
	}
	return s.save(ctx, out)
}

// Clear esvazia o boletim
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, nil)
}

// UpdateStake troca o stake da seleção; ausente é no-op. Lê o snapshot
// corrente a cada chamada, então chamadas rápidas em sequência não se
// perdem.
func (s *Store) UpdateStake(ctx context.Context, id string, stake float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.load(ctx)
	for i := range list {
		if list[i].ID == id {
			list[i].Stake = stake
			return s.save(ctx, list)
		}
	}
	return nil
}

// List retorna o conteúdo corrente do boletim
func (s *Store) List(ctx context.Context) []BetSelection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}
