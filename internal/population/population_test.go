package population_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/boa/internal/population"
)

type ones struct{}

func (ones) Eval(x []byte) float64 {
	s := 0.0
	for _, b := range x {
		s += float64(b)
	}
	return s
}

func filled(rows ...[]byte) *population.Population {
	p := population.New(len(rows), len(rows[0]))
	for i, r := range rows {
		copy(p.X[i], r)
	}
	p.Evaluate(ones{})
	return p
}

func TestRowsAreIndependent(t *testing.T) {
	p := population.New(3, 4)
	p.X[0][3] = 1
	assert.Equal(t, []byte{0, 0, 0, 0}, p.Row(1))
	assert.Equal(t, 3, p.Size())
	assert.Equal(t, 4, p.Width())

	p.X[0] = append(p.X[0], 9)
	assert.Equal(t, byte(0), p.X[1][0], "appending to a row must not spill into the next")
}

func TestRandomizeAndFrequencies(t *testing.T) {
	p := population.New(2000, 5)
	p.Randomize(rand.New(rand.NewSource(1)))
	for k, f := range p.UnivariateFrequencies() {
		assert.InDelta(t, 0.5, f, 0.05, "x%d", k)
	}

	q := filled([]byte{1, 0}, []byte{1, 1}, []byte{1, 0}, []byte{0, 0})
	assert.Equal(t, []float64{0.75, 0.25}, q.UnivariateFrequencies())
}

func TestBestWorstSwap(t *testing.T) {
	p := filled([]byte{0, 1, 0}, []byte{1, 1, 1}, []byte{0, 0, 0}, []byte{1, 1, 1})
	assert.Equal(t, 1, p.Best())
	assert.Equal(t, 2, p.Worst())

	p.Swap(0, 1)
	assert.Equal(t, []byte{1, 1, 1}, p.Row(0))
	assert.Equal(t, 3.0, p.F[0])
	assert.Equal(t, 1.0, p.F[1])
}

func TestTournamentPicksGroupWinners(t *testing.T) {
	p := filled([]byte{0, 0}, []byte{1, 0}, []byte{0, 1}, []byte{1, 1})
	parents := population.New(4, 2)
	population.Tournament(4)(p, parents, rand.New(rand.NewSource(3)))
	for i := 0; i < parents.Size(); i++ {
		assert.Equal(t, []byte{1, 1}, parents.Row(i))
		assert.Equal(t, 2.0, parents.F[i])
	}

	// With groups of two the global worst can never win.
	parents = population.New(8, 2)
	population.Tournament(2)(p, parents, rand.New(rand.NewSource(4)))
	for i := 0; i < parents.Size(); i++ {
		assert.NotEqual(t, []byte{0, 0}, parents.Row(i))
	}
}

func TestTruncationKeepsTopFraction(t *testing.T) {
	p := filled([]byte{0, 0}, []byte{1, 0}, []byte{0, 1}, []byte{1, 1})
	parents := population.New(4, 2)
	population.Truncation(2)(p, parents, nil)
	assert.Equal(t, []float64{2, 1, 2, 1}, parents.F)
	assert.Equal(t, []byte{1, 1}, parents.Row(0))
	assert.Equal(t, []byte{1, 0}, parents.Row(1), "ties keep population order")
}

func TestNewSelector(t *testing.T) {
	_, err := population.NewSelector("tournament", 4)
	require.NoError(t, err)
	_, err = population.NewSelector("truncation", 2)
	require.NoError(t, err)
	_, err = population.NewSelector("roulette", 2)
	assert.Error(t, err)
}

func TestReplaceWorst(t *testing.T) {
	p := filled([]byte{0, 0}, []byte{1, 1}, []byte{0, 1}, []byte{0, 0})
	off := filled([]byte{1, 1}, []byte{1, 0})
	population.ReplaceWorst(p, off)

	assert.Equal(t, []float64{1, 2, 1, 2}, p.F)
	assert.Equal(t, []byte{1, 0}, p.Row(0))
	assert.Equal(t, []byte{1, 1}, p.Row(3))
}
