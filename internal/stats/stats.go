// Package stats computes per-generation population statistics and renders
// the text reports written during a run.
package stats

import (
	"strings"

	"golang.org/x/exp/constraints"

	"github.com/gyaneshwarpardhi/boa/internal/population"
)

type number interface {
	constraints.Integer | constraints.Float
}

// Generation summarizes the population after one generation.
type Generation struct {
	Generation     int       `json:"generation"`
	FitnessCalls   int64     `json:"fitness_calls"`
	Max            float64   `json:"max"`
	Avg            float64   `json:"avg"`
	Min            float64   `json:"min"`
	NumOptimal     int       `json:"num_optimal"`
	OptimalPercent float64   `json:"optimal_percent"`
	P1             []float64 `json:"p1"`
	Guidance       string    `json:"guidance"`
	Best           string    `json:"best"`
	BestFitness    float64   `json:"best_fitness"`
}

// Compute collects the statistics of pop at generation gen. optimal may be
// nil when the fitness function has no known optimum.
func Compute(gen int, pop *population.Population, calls int64, optimal func([]byte) bool, threshold float64) Generation {
	s := Generation{
		Generation:   gen,
		FitnessCalls: calls,
		P1:           pop.UnivariateFrequencies(),
	}
	if pop.Size() == 0 {
		return s
	}
	s.Min, s.Max, s.Avg = summarize(pop.F)
	if optimal != nil {
		for _, x := range pop.X {
			if optimal(x) {
				s.NumOptimal++
			}
		}
	}
	s.OptimalPercent = 100 * float64(s.NumOptimal) / float64(pop.Size())
	s.Guidance = Guidance(s.P1, threshold)
	best := pop.Best()
	s.Best = FormatBits(pop.Row(best))
	s.BestFitness = pop.F[best]
	return s
}

// summarize returns the minimum, maximum and mean of a non-empty slice.
func summarize[T number](xs []T) (lo, hi T, mean float64) {
	lo, hi = xs[0], xs[0]
	var sum float64
	for _, v := range xs {
		lo = min(lo, v)
		hi = max(hi, v)
		sum += float64(v)
	}
	return lo, hi, sum / float64(len(xs))
}

// Guidance marks each variable 0 or 1 when its frequency of ones is below
// threshold or above 1-threshold, and '.' otherwise.
func Guidance(p1 []float64, threshold float64) string {
	var b strings.Builder
	b.Grow(len(p1))
	for _, p := range p1 {
		switch {
		case p < threshold:
			b.WriteByte('0')
		case p > 1-threshold:
			b.WriteByte('1')
		default:
			b.WriteByte('.')
		}
	}
	return b.String()
}

// FormatBits renders a bit string such as "0110".
func FormatBits[T constraints.Integer](x []T) string {
	var b strings.Builder
	b.Grow(len(x))
	for _, v := range x {
		b.WriteByte('0' + byte(v))
	}
	return b.String()
}

// Converged reports whether every frequency lies within epsilon of 0 or 1.
func Converged(p1 []float64, epsilon float64) bool {
	for _, p := range p1 {
		if p >= epsilon && p <= 1-epsilon {
			return false
		}
	}
	return true
}
