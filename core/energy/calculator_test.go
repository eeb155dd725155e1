package energy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeRemainingDemandWh(t *testing.T) {
	tests := []struct {
		name      string
		initial   int
		target    int
		delivered float64
		capacity  int
		loss      int
		want      int
	}{
		{"example", 20, 80, 0, 50000, 10, 33000},
		{"delivered subtracted", 20, 80, 5.0, 50000, 10, 28000},
		{"defaults full charge", 0, 100, 0, 100000, 10, 110000},
		{"already above target", 90, 80, 0, 50000, 10, -5500},
		{"delivered exceeds target", 20, 80, 40.0, 50000, 10, -7000},
		{"no delta", 55, 55, 0, 50000, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeRemainingDemandWh(tt.initial, tt.target, tt.delivered, tt.capacity, tt.loss)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeRemainingDemandWhTruncatesTermsSeparately(t *testing.T) {
	// 3.33 Wh target and 1.5 Wh delivered truncate to 3 and 1.
	got := ComputeRemainingDemandWh(0, 1, 0.0015, 333, 0)
	assert.Equal(t, 2, got)
}

func TestComputeRemainingDemandWhTruncatesDelivered(t *testing.T) {
	got := ComputeRemainingDemandWh(20, 80, 1.2345, 50000, 10)
	assert.Equal(t, 33000-1234, got)
}
