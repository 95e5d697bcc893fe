package slip

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Storage é o armazenamento durável do boletim: get/set de string por
// chave, sem schema além do array JSON de seleções
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// MemoryStorage guarda o boletim em memória. Usado em testes e no modo
// standalone do simulador.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string]string)}
}

func (m *MemoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// RedisStorage persiste o boletim no Redis (sobrevive a reload do
// cliente). Última escrita vence entre abas concorrentes; limitação
// aceita, documentada no DESIGN.
type RedisStorage struct {
	Rdb *redis.Client
}

func NewRedisStorage(rdb *redis.Client) *RedisStorage { return &RedisStorage{Rdb: rdb} }

func (r *RedisStorage) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.Rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *RedisStorage) Set(ctx context.Context, key, value string) error {
	return r.Rdb.Set(ctx, key, value, 0).Err()
}
