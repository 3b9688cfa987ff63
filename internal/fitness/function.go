// Package fitness provides the benchmark functions runs optimize.
package fitness

import (
	"fmt"
	"sync/atomic"
)

// Function is the interface every benchmark satisfies.
type Function interface {
	// Name returns the key the function is registered under.
	Name() string
	// Description is a human-readable title for reports.
	Description() string
	// Eval scores a candidate solution; higher is better.
	Eval(x []byte) float64
	// Optimal reports whether x is a global optimum.
	Optimal(x []byte) bool
	// Validate checks that the function is defined for n variables.
	Validate(n int) error
}

// Evaluator wraps a Function and counts calls. Safe for concurrent use.
type Evaluator struct {
	fn    Function
	calls atomic.Int64
}

// NewEvaluator returns a counting evaluator for fn.
func NewEvaluator(fn Function) *Evaluator {
	return &Evaluator{fn: fn}
}

// Eval scores x and counts the call.
func (e *Evaluator) Eval(x []byte) float64 {
	e.calls.Add(1)
	return e.fn.Eval(x)
}

// Optimal delegates to the wrapped function without counting.
func (e *Evaluator) Optimal(x []byte) bool { return e.fn.Optimal(x) }

// Calls returns the number of evaluations so far.
func (e *Evaluator) Calls() int64 { return e.calls.Load() }

// blockFunc sums a per-block score over consecutive blocks of size block.
// Consecutive blocks share overlap variables.
type blockFunc struct {
	name    string
	desc    string
	block   int
	overlap int
	score   func(b []byte) float64
	optimal func(x []byte) bool
}

func (f *blockFunc) Name() string        { return f.name }
func (f *blockFunc) Description() string { return f.desc }
func (f *blockFunc) Optimal(x []byte) bool {
	return f.optimal(x)
}

func (f *blockFunc) Eval(x []byte) float64 {
	step := f.block - f.overlap
	total := 0.0
	for i := 0; i+f.block <= len(x); i += step {
		total += f.score(x[i : i+f.block])
	}
	return total
}

func (f *blockFunc) Validate(n int) error {
	step := f.block - f.overlap
	if n < f.block || (n-f.overlap)%step != 0 {
		if f.overlap > 0 {
			return fmt.Errorf("%s: problem size %d must be %d plus a multiple of %d", f.name, n, f.overlap, step)
		}
		return fmt.Errorf("%s: problem size %d must be a positive multiple of %d", f.name, n, f.block)
	}
	return nil
}
