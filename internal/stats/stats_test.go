package stats_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/boa/internal/diagram"
	"github.com/gyaneshwarpardhi/boa/internal/population"
	"github.com/gyaneshwarpardhi/boa/internal/stats"
)

func allOnes(x []byte) bool {
	for _, b := range x {
		if b != 1 {
			return false
		}
	}
	return true
}

func sample() *population.Population {
	p := population.New(4, 3)
	copy(p.X[0], []byte{1, 1, 1})
	copy(p.X[1], []byte{1, 0, 0})
	copy(p.X[2], []byte{1, 1, 0})
	copy(p.X[3], []byte{1, 0, 0})
	p.F = []float64{3, 1, 2, 1}
	return p
}

func TestCompute(t *testing.T) {
	s := stats.Compute(7, sample(), 40, allOnes, 0.3)
	assert.Equal(t, 7, s.Generation)
	assert.Equal(t, int64(40), s.FitnessCalls)
	assert.Equal(t, 3.0, s.Max)
	assert.Equal(t, 1.0, s.Min)
	assert.InDelta(t, 1.75, s.Avg, 1e-12)
	assert.Equal(t, 1, s.NumOptimal)
	assert.InDelta(t, 25.0, s.OptimalPercent, 1e-12)
	assert.Equal(t, []float64{1, 0.5, 0.25}, s.P1)
	assert.Equal(t, "1.0", s.Guidance)
	assert.Equal(t, "111", s.Best)
	assert.Equal(t, 3.0, s.BestFitness)

	none := stats.Compute(0, sample(), 0, nil, 0.3)
	assert.Zero(t, none.NumOptimal)
}

func TestGuidanceAndConvergence(t *testing.T) {
	assert.Equal(t, "0.1", stats.Guidance([]float64{0.1, 0.5, 0.9}, 0.3))
	assert.True(t, stats.Converged([]float64{0, 0.005, 1}, 0.01))
	assert.False(t, stats.Converged([]float64{0, 0.5, 1}, 0.01))
	assert.Equal(t, "0110", stats.FormatBits([]byte{0, 1, 1, 0}))
	assert.Equal(t, "10", stats.FormatBits([]int{1, 0}))
}

func TestReports(t *testing.T) {
	s := stats.Compute(2, sample(), 12, allOnes, 0.3)

	var buf bytes.Buffer
	require.NoError(t, stats.WriteFitness(&buf, s))
	assert.Equal(t, "  2      12   3.000000   1.750000   1.000000\n", buf.String())

	buf.Reset()
	require.NoError(t, stats.WriteGeneration(&buf, s, true))
	assert.Contains(t, buf.String(), "Generation                   : 2\n")
	assert.Contains(t, buf.String(), "Percentage of optima in pop. : 25.00\n")
	assert.Contains(t, buf.String(), "Population bias              : 1.0\n")

	buf.Reset()
	require.NoError(t, stats.WriteFinal(&buf, "max-generations", s, false))
	assert.Contains(t, buf.String(), "Termination reason           : max-generations\n")
	assert.NotContains(t, buf.String(), "Percentage of optima")
	assert.Contains(t, buf.String(), "The End.")
}

func TestWriteModel(t *testing.T) {
	p := sample()
	ds := []*diagram.Diagram{diagram.NewBound(p, 0), diagram.NewBound(p, 1)}
	var buf bytes.Buffer
	require.NoError(t, stats.WriteModel(&buf, 3, ds))
	want := "--------------------------------------------------------\n" +
		"Generation:   3\n\n" +
		"  0:\n" +
		"     p(x0=1|...)=1.00\n" +
		"  1:\n" +
		"     p(x1=1|...)=0.50\n"
	assert.Equal(t, want, buf.String())
}
