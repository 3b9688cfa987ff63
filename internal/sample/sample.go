// Package sample draws new solutions from a learned dependency graph and
// its per-variable conditional models.
package sample

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/gyaneshwarpardhi/boa/internal/dag"
	"github.com/gyaneshwarpardhi/boa/internal/diagram"
)

var ErrModelMismatch = errors.New("sample: model does not match graph size")

// Conditional gives the probability that a variable is 1 given the bits
// already assigned in x.
type Conditional interface {
	P1(x []byte) float64
}

// Sink receives generated rows.
type Sink interface {
	Size() int
	Row(i int) []byte
}

// TopologicalOrder lists the vertices of g so that every vertex follows all
// of its parents. Vertices become ready in increasing index order.
func TopologicalOrder(g *dag.Graph) []int {
	n := g.Size()
	order := make([]int, 0, n)
	added := make([]bool, n)
	for len(order) < n {
		progress := false
		for v := 0; v < n; v++ {
			if added[v] || !ready(g, v, added) {
				continue
			}
			added[v] = true
			order = append(order, v)
			progress = true
		}
		if !progress {
			// Unreachable for an acyclic graph.
			break
		}
	}
	return order
}

func ready(g *dag.Graph, v int, added []bool) bool {
	for _, p := range g.Parents(v) {
		if !added[p] {
			return false
		}
	}
	return true
}

// GenerateInstance assigns x variable by variable in order, drawing each bit
// from its model given the bits assigned so far.
func GenerateInstance(x []byte, order []int, models []Conditional, rng *rand.Rand) {
	for _, v := range order {
		p1 := models[v].P1(x)
		if rng.Float64() < p1 {
			x[v] = 1
		} else {
			x[v] = 0
		}
	}
}

// Generate fills every row of dst with a fresh instance.
func Generate(dst Sink, g *dag.Graph, models []Conditional, rng *rand.Rand) error {
	if len(models) != g.Size() {
		return fmt.Errorf("%w: %d models for %d variables", ErrModelMismatch, len(models), g.Size())
	}
	order := TopologicalOrder(g)
	for i := 0; i < dst.Size(); i++ {
		GenerateInstance(dst.Row(i), order, models, rng)
	}
	return nil
}

// FromDiagrams adapts decision diagrams to Conditionals.
func FromDiagrams(ds []*diagram.Diagram) []Conditional {
	out := make([]Conditional, len(ds))
	for i, d := range ds {
		out[i] = d
	}
	return out
}
