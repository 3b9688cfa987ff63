// Package population stores binary candidate solutions with their fitness.
package population

import (
	"math/rand"
)

// Evaluator scores one candidate solution.
type Evaluator interface {
	Eval(x []byte) float64
}

// Population holds Size() rows of Width() bits and one fitness per row.
type Population struct {
	X [][]byte
	F []float64
	n int
}

// New allocates a zeroed population of size rows over n variables.
func New(size, n int) *Population {
	p := &Population{
		X: make([][]byte, size),
		F: make([]float64, size),
		n: n,
	}
	buf := make([]byte, size*n)
	for i := range p.X {
		p.X[i] = buf[i*n : (i+1)*n : (i+1)*n]
	}
	return p
}

// Size returns the number of rows.
func (p *Population) Size() int { return len(p.X) }

// Width returns the number of variables.
func (p *Population) Width() int { return p.n }

// Row returns row i. It aliases the population's storage.
func (p *Population) Row(i int) []byte { return p.X[i] }

// Randomize fills every bit uniformly at random.
func (p *Population) Randomize(rng *rand.Rand) {
	for _, x := range p.X {
		for j := range x {
			x[j] = byte(rng.Intn(2))
		}
	}
}

// Evaluate recomputes the fitness of every row.
func (p *Population) Evaluate(e Evaluator) {
	for i, x := range p.X {
		p.F[i] = e.Eval(x)
	}
}

// UnivariateFrequencies returns, per variable, the fraction of rows where it
// is 1.
func (p *Population) UnivariateFrequencies() []float64 {
	p1 := make([]float64, p.n)
	if len(p.X) == 0 {
		return p1
	}
	for _, x := range p.X {
		for k, b := range x {
			p1[k] += float64(b)
		}
	}
	for k := range p1 {
		p1[k] /= float64(len(p.X))
	}
	return p1
}

// Copy overwrites row where with x and fitness f.
func (p *Population) Copy(where int, x []byte, f float64) {
	copy(p.X[where], x)
	p.F[where] = f
}

// Swap exchanges rows i and j together with their fitness.
func (p *Population) Swap(i, j int) {
	p.X[i], p.X[j] = p.X[j], p.X[i]
	p.F[i], p.F[j] = p.F[j], p.F[i]
}

// Best returns the index of the fittest row, the first one on ties.
func (p *Population) Best() int {
	best := 0
	for i, f := range p.F {
		if f > p.F[best] {
			best = i
		}
	}
	return best
}

// Worst returns the index of the least fit row, the first one on ties.
func (p *Population) Worst() int {
	worst := 0
	for i, f := range p.F {
		if f < p.F[worst] {
			worst = i
		}
	}
	return worst
}
