package sample_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/boa/internal/dag"
	"github.com/gyaneshwarpardhi/boa/internal/diagram"
	"github.com/gyaneshwarpardhi/boa/internal/learn"
	"github.com/gyaneshwarpardhi/boa/internal/sample"
)

type matrix [][]byte

func (m matrix) Size() int         { return len(m) }
func (m matrix) Width() int        { return len(m[0]) }
func (m matrix) Row(i int) []byte { return m[i] }

func newMatrix(size, n int) matrix {
	m := make(matrix, size)
	for i := range m {
		m[i] = make([]byte, n)
	}
	return m
}

func chain(seed int64, n, size int) matrix {
	rng := rand.New(rand.NewSource(seed))
	m := newMatrix(size, n)
	for _, row := range m {
		row[0] = byte(rng.Intn(2))
		for j := 1; j < n; j++ {
			row[j] = row[j-1]
			if rng.Intn(10) == 0 {
				row[j] ^= 1
			}
		}
	}
	return m
}

func TestTopologicalOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for round := 0; round < 30; round++ {
		n := 2 + rng.Intn(10)
		g := dag.New(n)
		for k := 0; k < 3*n; k++ {
			i, j := rng.Intn(n), rng.Intn(n)
			if i != j && g.CanAddEdge(i, j) {
				require.NoError(t, g.AddEdge(i, j))
			}
		}

		order := sample.TopologicalOrder(g)
		require.Len(t, order, n)
		pos := make([]int, n)
		for k, v := range order {
			pos[v] = k
		}
		for _, e := range g.Edges() {
			if pos[e.From] >= pos[e.To] {
				t.Fatalf("round %d: edge %d->%d out of order in %v", round, e.From, e.To, order)
			}
		}
	}
}

func TestTopologicalOrderWithoutEdges(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2}, sample.TopologicalOrder(dag.New(3)))
}

const unassigned = 2

// guarded fails the test if its diagram would read a bit that is not
// assigned yet.
type guarded struct {
	t *testing.T
	v int
	d *diagram.Diagram
}

func (g guarded) P1(x []byte) float64 {
	for _, l := range g.d.Trace(x) {
		if x[l] == unassigned {
			g.t.Fatalf("x%d read unassigned x%d", g.v, l)
		}
	}
	return g.d.P1(x)
}

func TestGenerateReadsOnlyAssignedBits(t *testing.T) {
	rows := chain(4, 9, 300)
	m, err := learn.Learn(rows, learn.Params{MaxIncoming: 3, AllowMerge: true})
	require.NoError(t, err)
	require.Positive(t, m.Graph.NumEdges())

	models := make([]sample.Conditional, len(m.Diagrams))
	for v, d := range m.Diagrams {
		models[v] = guarded{t: t, v: v, d: d}
	}

	out := newMatrix(100, 9)
	for _, row := range out {
		for j := range row {
			row[j] = unassigned
		}
	}
	require.NoError(t, sample.Generate(out, m.Graph, models, rand.New(rand.NewSource(2))))
	for i, row := range out {
		for j, b := range row {
			if b > 1 {
				t.Fatalf("row %d bit %d left unassigned", i, j)
			}
		}
	}
}

func TestGenerateFollowsLearnedDependency(t *testing.T) {
	// x1 = x0, x2 independent.
	rows := matrix{
		{0, 0, 0}, {0, 0, 1}, {1, 1, 0}, {1, 1, 1},
		{0, 0, 0}, {0, 0, 1}, {1, 1, 0}, {1, 1, 1},
	}
	m, err := learn.Learn(rows, learn.Params{MaxIncoming: 2, AllowMerge: true})
	require.NoError(t, err)

	out := newMatrix(200, 3)
	require.NoError(t, sample.Generate(out, m.Graph, sample.FromDiagrams(m.Diagrams), rand.New(rand.NewSource(5))))

	ones := 0
	for _, row := range out {
		assert.Equal(t, row[0], row[1])
		ones += int(row[2])
	}
	assert.InDelta(t, 100, ones, 30)
}

func TestGenerateIsReproducible(t *testing.T) {
	rows := chain(8, 6, 200)
	m, err := learn.Learn(rows, learn.Params{MaxIncoming: 2})
	require.NoError(t, err)
	models := sample.FromDiagrams(m.Diagrams)

	a, b := newMatrix(50, 6), newMatrix(50, 6)
	require.NoError(t, sample.Generate(a, m.Graph, models, rand.New(rand.NewSource(42))))
	require.NoError(t, sample.Generate(b, m.Graph, models, rand.New(rand.NewSource(42))))
	assert.Equal(t, a, b)
}

func TestGenerateModelMismatch(t *testing.T) {
	err := sample.Generate(newMatrix(1, 2), dag.New(3), nil, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, sample.ErrModelMismatch)
}
