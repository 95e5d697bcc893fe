package slip

import (
	"sync"

	"go.uber.org/zap"
)

// Manager entrega o boletim de cada dono (endereço de carteira ou
// sessão). A instância de Store é única por dono enquanto o processo
// vive, preservando a disciplina de escritor único sobre o snapshot.
type Manager struct {
	mu      sync.Mutex
	log     *zap.Logger
	storage Storage
	cutoff  int
	stores  map[string]*Store
}

func NewManager(log *zap.Logger, storage Storage, cutoffMinute int) *Manager {
	return &Manager{
		log:     log,
		storage: storage,
		cutoff:  cutoffMinute,
		stores:  make(map[string]*Store),
	}
}

// For retorna o boletim do dono, criando na primeira chamada
func (m *Manager) For(owner string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.stores[owner]; ok {
		return s
	}
	s := NewStore(m.log, m.storage, "betslip:"+owner, m.cutoff)
	m.stores[owner] = s
	return s
}
