package tradingutils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestFloorToStep(t *testing.T) {
	cases := []struct{ qty, step, want string }{
		{"0.0015", "0.001", "0.001"},
		{"0.003", "0.001", "0.003"},
		{"0.0001", "0.001", "0"},
		{"5.07", "0.01", "5.07"},
		{"5.079", "0.01", "5.07"},
		{"7", "1", "7"},
	}
	for _, tc := range cases {
		got := FloorToStep(d(tc.qty), d(tc.step))
		assert.Equal(t, tc.want, got.String(), "%s step %s", tc.qty, tc.step)
	}
}

func TestFloorToStep_ZeroStep(t *testing.T) {
	got := FloorToStep(d("0.0015"), decimal.Zero)
	assert.Equal(t, "0.0015", got.String())
}

func TestRoundToTick(t *testing.T) {
	cases := []struct{ price, tick, want string }{
		{"40000.07", "0.1", "40000.1"},
		{"40000.04", "0.1", "40000"},
		{"40000.15", "0.1", "40000.2"}, // half rounds away from zero
		{"1999.994", "0.01", "1999.99"},
		{"1999.995", "0.01", "2000"},
		{"100", "0.5", "100"},
	}
	for _, tc := range cases {
		got := RoundToTick(d(tc.price), d(tc.tick))
		assert.Equal(t, tc.want, got.String(), "%s tick %s", tc.price, tc.tick)
	}
}

func TestRoundToTick_ZeroTick(t *testing.T) {
	got := RoundToTick(d("40000.07"), decimal.Zero)
	assert.Equal(t, "40000.07", got.String())
}

func TestNotional(t *testing.T) {
	assert.Equal(t, "40.0001", Notional(d("0.001"), d("40000.1")).String())
}

func TestIsAligned(t *testing.T) {
	assert.True(t, IsAligned(d("40000.1"), d("0.1")))
	assert.False(t, IsAligned(d("40000.07"), d("0.1")))
	assert.True(t, IsAligned(d("0.003"), d("0.001")))
	assert.True(t, IsAligned(decimal.Zero, d("0.1")))
}
