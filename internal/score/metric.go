// Package score implements the Bayesian-Dirichlet leaf metric used to rate
// split and merge operators on decision diagrams.
package score

import "math"

const (
	// Unreachable is the score of a leaf no row reaches.
	Unreachable = -1e11
	// Ineligible marks a candidate operator that must never be selected.
	Ineligible = -1.0
)

// Metric scores leaf frequencies for a population of N rows. The cumulative
// log table is sized once, for counts up to N+3.
type Metric struct {
	n       int
	penalty float64
	cumLog  []float64 // cumLog[k] = ln(1) + ... + ln(k)
}

// New precomputes the cumulative logs for a population of size n.
func New(n int) *Metric {
	if n < 1 {
		n = 1
	}
	m := &Metric{
		n:       n,
		penalty: 0.5 * math.Log2(float64(n)),
		cumLog:  make([]float64, n+4),
	}
	for k := 2; k < len(m.cumLog); k++ {
		m.cumLog[k] = m.cumLog[k-1] + math.Log(float64(k))
	}
	return m
}

// N returns the population size the metric was built for.
func (m *Metric) N() int { return m.n }

// Penalty is the complexity cost of one split, 0.5·log2(N).
func (m *Metric) Penalty() float64 { return m.penalty }

// LogGamma returns ln Γ(k) = ln((k-1)!) for integer k ≥ 1.
func (m *Metric) LogGamma(k int) float64 {
	if k <= 1 {
		return 0
	}
	if k-1 < len(m.cumLog) {
		return m.cumLog[k-1]
	}
	// Outside the table only when counts exceed the population size.
	v, _ := math.Lgamma(float64(k))
	return v
}

// Frequency converts a relative count into an absolute one.
func (m *Metric) Frequency(p float64) int {
	return int(math.Round(p * float64(m.n)))
}

// Leaf returns the contribution of a leaf holding relative counts c0 and c1.
func (m *Metric) Leaf(c0, c1 float64) float64 {
	if c0 == 0 && c1 == 0 {
		return Unreachable
	}
	m0 := m.Frequency(c0)
	m1 := m.Frequency(c1)
	mp := m.Frequency(c0 + c1)
	return -m.LogGamma(2+mp) + m.LogGamma(1+m0) + m.LogGamma(1+m1)
}

// SplitGain is the score change of replacing a leaf scored before with two
// children holding (l0, l1) and (r0, r1), net of the split penalty.
func (m *Metric) SplitGain(before, l0, l1, r0, r1 float64) float64 {
	return m.Leaf(l0, l1) + m.Leaf(r0, r1) - before - m.penalty
}

// MergeGain is the score change of folding leaves (a0, a1) and (b0, b1) into
// one, with the split penalty refunded.
func (m *Metric) MergeGain(a0, a1, b0, b1 float64) float64 {
	before := m.Leaf(a0, a1) + m.Leaf(b0, b1)
	after := m.Leaf(a0+b0, a1+b1)
	return after - before + m.penalty
}
