package score_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gyaneshwarpardhi/boa/internal/score"
)

func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}

func TestLogGammaMatchesFactorials(t *testing.T) {
	m := score.New(8)
	assert.Equal(t, 0.0, m.LogGamma(1))
	assert.Equal(t, 0.0, m.LogGamma(2))
	for k := 3; k <= 11; k++ {
		assert.InDelta(t, lgamma(float64(k)), m.LogGamma(k), 1e-9, "k=%d", k)
	}
	// Beyond the table it falls back to math.Lgamma.
	assert.InDelta(t, lgamma(40), m.LogGamma(40), 1e-9)
}

func TestLeafScore(t *testing.T) {
	m := score.New(8)
	tests := []struct {
		name   string
		c0, c1 float64
		want   float64
	}{
		{"unreachable", 0, 0, score.Unreachable},
		{"balanced", 0.5, 0.5, -lgamma(10) + 2*lgamma(5)},
		{"pure", 0.5, 0, -lgamma(6) + lgamma(5)},
		{"skewed", 0.25, 0.75, -lgamma(10) + lgamma(3) + lgamma(7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, m.Leaf(tt.c0, tt.c1), 1e-9)
		})
	}
}

func TestSplitGainOnPerfectDependency(t *testing.T) {
	m := score.New(8)
	before := m.Leaf(0.5, 0.5)
	gain := m.SplitGain(before, 0.5, 0, 0, 0.5)
	want := 2*(-math.Log(5)) - (-lgamma(10) + 2*lgamma(5)) - 1.5
	assert.InDelta(t, want, gain, 1e-9)
	assert.Greater(t, gain, 0.0)
	assert.InDelta(t, 1.5, m.Penalty(), 1e-12)

	// An uninformative split only pays the penalty.
	noise := m.SplitGain(before, 0.25, 0.25, 0.25, 0.25)
	assert.Less(t, noise, 0.0)
}

func TestMergeGainUndoesSplitGain(t *testing.T) {
	m := score.New(8)
	split := m.SplitGain(m.Leaf(0.5, 0.5), 0.5, 0, 0, 0.5)
	merge := m.MergeGain(0.5, 0, 0, 0.5)
	assert.InDelta(t, -split, merge, 1e-9)

	// Merging two leaves with identical distributions pays off.
	assert.Greater(t, m.MergeGain(0.25, 0.25, 0.25, 0.25), 0.0)
}

func TestFrequencyRounds(t *testing.T) {
	m := score.New(10)
	assert.Equal(t, 3, m.Frequency(0.3))
	assert.Equal(t, 7, m.Frequency(0.1+0.6))
	assert.Equal(t, 10, m.N())
}
