package livefeed

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Key do minuto corrente de uma partida ao vivo
func minuteKey(eventID string) string {
	return fmt.Sprintf("live:%s:minute", eventID)
}

// RedisFeed lê o progresso mais fresco da partida gravado pelo
// livefeed-ingest. Implementa gate.LiveFeed.
type RedisFeed struct {
	Rdb *redis.Client
}

func NewRedisFeed(rdb *redis.Client) *RedisFeed { return &RedisFeed{Rdb: rdb} }

func (f *RedisFeed) MatchMinute(ctx context.Context, eventID string) (int, bool, error) {
	val, err := f.Rdb.Get(ctx, minuteKey(eventID)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	m, perr := strconv.Atoi(val)
	if perr != nil {
		return 0, false, perr
	}
	return m, true, nil
}

// SetMatchMinute grava o minuto (usado pelo ingest)
func (f *RedisFeed) SetMatchMinute(ctx context.Context, eventID string, minute int) error {
	return f.Rdb.Set(ctx, minuteKey(eventID), strconv.Itoa(minute), 0).Err()
}

// MemoryFeed é o feed em memória para testes e modo standalone
type MemoryFeed struct {
	mu      sync.RWMutex
	minutes map[string]int
}

func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{minutes: make(map[string]int)}
}

func (f *MemoryFeed) MatchMinute(_ context.Context, eventID string) (int, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	m, ok := f.minutes[eventID]
	return m, ok, nil
}

func (f *MemoryFeed) SetMatchMinute(_ context.Context, eventID string, minute int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.minutes[eventID] = minute
	return nil
}
