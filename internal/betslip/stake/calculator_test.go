package stake

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPotentialPayout(t *testing.T) {
	assert.InDelta(t, 25.0, PotentialPayout(10, 2.5), 1e-9)
	assert.InDelta(t, 0.0, PotentialPayout(0, 3.2), 1e-9)
}

func TestParlayOdds(t *testing.T) {
	tests := []struct {
		name string
		odds []float64
		want float64
	}{
		{"tres pernas", []float64{2.0, 1.5, 3.0}, 9.0},
		{"perna unica", []float64{2.75}, 2.75},
		{"vazio", nil, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ParlayOdds(tt.odds), 1e-9)
		})
	}
}

func TestParlayPayout(t *testing.T) {
	got := ParlayPayout(5, []float64{2.0, 1.5, 3.0})
	assert.InDelta(t, 45.0, got, 1e-9)
}
