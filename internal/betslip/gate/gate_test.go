package gate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name   string
		isLive bool
		minute int
		cutoff int
		want   State
	}{
		{"ao vivo no corte", true, 80, 80, Closed},
		{"ao vivo antes do corte", true, 79, 80, Open},
		{"ao vivo depois do corte", true, 90, 80, Closed},
		{"pre-live ignora minuto", false, 120, 80, Open},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.isLive, tt.minute, tt.cutoff))
		})
	}
}

type stubFeed struct {
	minute int
	ok     bool
	err    error
}

func (s stubFeed) MatchMinute(context.Context, string) (int, bool, error) {
	return s.minute, s.ok, s.err
}

func TestGateCheckUsesFreshestMinute(t *testing.T) {
	g := New(stubFeed{minute: 85, ok: true}, 80)
	// feed tem minuto mais fresco que o fallback do chamador
	assert.Equal(t, Closed, g.Check(context.Background(), "E1", true, 10))
}

func TestGateCheckFallsBackOnFeedError(t *testing.T) {
	g := New(stubFeed{err: errors.New("redis down")}, 80)
	assert.Equal(t, Open, g.Check(context.Background(), "E1", true, 40))
	assert.Equal(t, Closed, g.Check(context.Background(), "E1", true, 81))
}

func TestGateCheckPreLive(t *testing.T) {
	g := New(stubFeed{minute: 90, ok: true}, 80)
	assert.Equal(t, Open, g.Check(context.Background(), "E1", false, 0))
}
