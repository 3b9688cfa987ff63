package learn_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/boa/internal/diagram"
	"github.com/gyaneshwarpardhi/boa/internal/learn"
)

type matrix [][]byte

func (m matrix) Size() int         { return len(m) }
func (m matrix) Width() int        { return len(m[0]) }
func (m matrix) Row(i int) []byte { return m[i] }

// copyPair has x1 = x0 and x2 independent and uniform, every combination
// twice.
var copyPair = matrix{
	{0, 0, 0}, {0, 0, 1}, {1, 1, 0}, {1, 1, 1},
	{0, 0, 0}, {0, 0, 1}, {1, 1, 0}, {1, 1, 1},
}

// chain draws x0 uniformly and copies each x_i from x_{i-1} with a small
// chance of flipping it.
func chain(seed int64, n, size int, flip float64) matrix {
	rng := rand.New(rand.NewSource(seed))
	m := make(matrix, size)
	for i := range m {
		row := make([]byte, n)
		row[0] = byte(rng.Intn(2))
		for j := 1; j < n; j++ {
			row[j] = row[j-1]
			if rng.Float64() < flip {
				row[j] ^= 1
			}
		}
		m[i] = row
	}
	return m
}

func walkNodes(d *diagram.Diagram, fn func(diagram.NodeID)) {
	var visit func(id diagram.NodeID)
	visit = func(id diagram.NodeID) {
		fn(id)
		if d.Kind(id) == diagram.Split {
			l, r := d.Children(id)
			visit(l)
			visit(r)
		}
	}
	visit(d.Root())
}

func TestLearnEmptyPopulation(t *testing.T) {
	_, err := learn.Learn(matrix{{}}, learn.Params{MaxIncoming: 1})
	assert.ErrorIs(t, err, learn.ErrEmptyPopulation)
}

func TestLearnPerfectDependency(t *testing.T) {
	m, err := learn.Learn(copyPair, learn.Params{MaxIncoming: 2, AllowMerge: true})
	require.NoError(t, err)

	g := m.Graph
	// x0 and x1 tie; the lower variable is refined first, so x0 conditions
	// on x1 and the reverse edge is then refused.
	assert.True(t, g.Connected(1, 0))
	assert.False(t, g.Connected(0, 1))
	assert.Equal(t, 0, g.NumIn(2))
	assert.Equal(t, 0, g.NumOut(2))

	d0 := m.Diagrams[0]
	assert.Equal(t, 2, d0.NumLeaves())
	assert.Equal(t, 1, d0.Label(d0.Root()))
	// Lowest variable wins the tie, so x1's split on x0 would close a cycle.
	assert.Equal(t, 1, m.Diagrams[1].NumLeaves())
	assert.Equal(t, 1, m.Diagrams[2].NumLeaves())

	assert.Equal(t, learn.Stats{Splits: 1, Discarded: 1, Edges: 1}, m.Stats)
}

func TestLearnWithoutMergesKeepsTrees(t *testing.T) {
	rows := chain(11, 8, 300, 0.1)
	m, err := learn.Learn(rows, learn.Params{MaxIncoming: 3, AllowMerge: false})
	require.NoError(t, err)
	assert.Zero(t, m.Stats.Merges)
	assert.Positive(t, m.Stats.Splits)

	for v, d := range m.Diagrams {
		walkNodes(d, func(id diagram.NodeID) {
			if len(d.Parents(id)) > 1 {
				t.Fatalf("x%d node %d has parents %v", v, id, d.Parents(id))
			}
		})
	}
}

func TestLearnMaxIncomingZero(t *testing.T) {
	rows := chain(5, 6, 200, 0.05)
	m, err := learn.Learn(rows, learn.Params{MaxIncoming: 0, AllowMerge: true})
	require.NoError(t, err)
	assert.Equal(t, 0, m.Graph.NumEdges())
	for v, d := range m.Diagrams {
		assert.Equal(t, 1, d.NumLeaves(), "x%d", v)
	}
}

func TestLearnRespectsParentCapAndGraph(t *testing.T) {
	rows := chain(23, 10, 400, 0.15)
	for _, maxIn := range []int{1, 2, 4} {
		m, err := learn.Learn(rows, learn.Params{MaxIncoming: maxIn, AllowMerge: true})
		require.NoError(t, err)

		g := m.Graph
		for v, d := range m.Diagrams {
			assert.LessOrEqual(t, g.NumIn(v), maxIn)

			// Every label a diagram tests is a parent in the graph.
			d.Walk(func(r diagram.Record) {
				if r.Split && !g.Connected(r.Label, v) {
					t.Errorf("maxIn=%d: x%d splits on x%d without an edge", maxIn, v, r.Label)
				}
			})

			total := 0.0
			for _, leaf := range d.Leaves() {
				c0, c1 := d.Counts(leaf)
				total += c0 + c1
			}
			assert.InDelta(t, 1.0, total, 1e-9, "x%d", v)
		}
		for i := 0; i < g.Size(); i++ {
			for j := 0; j < g.Size(); j++ {
				if i != j && g.ExistsPath(i, j) && g.ExistsPath(j, i) {
					t.Fatalf("maxIn=%d: cycle through x%d and x%d", maxIn, i, j)
				}
			}
		}
	}
}

func TestLearnOperatorBudget(t *testing.T) {
	rows := chain(3, 8, 300, 0.05)
	m, err := learn.Learn(rows, learn.Params{MaxIncoming: 3, AllowMerge: true, MaxOperators: 2})
	require.NoError(t, err)
	assert.LessOrEqual(t, m.Stats.Splits+m.Stats.Merges, 2)
	assert.Equal(t, m.Stats.Edges, m.Graph.NumEdges())
}

func TestLearnIsDeterministic(t *testing.T) {
	rows := chain(9, 8, 250, 0.1)
	p := learn.Params{MaxIncoming: 3, AllowMerge: true}
	a, err := learn.Learn(rows, p)
	require.NoError(t, err)
	b, err := learn.Learn(rows, p)
	require.NoError(t, err)

	assert.Equal(t, a.Graph.Edges(), b.Graph.Edges())
	assert.Equal(t, a.Stats, b.Stats)
	for v := range a.Diagrams {
		assert.Equal(t, a.Diagrams[v].Records(), b.Diagrams[v].Records())
	}
}
