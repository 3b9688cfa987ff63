// Package learn builds the dependency graph and per-variable decision
// diagrams for a selected population by greedy score-guided search.
package learn

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gyaneshwarpardhi/boa/internal/dag"
	"github.com/gyaneshwarpardhi/boa/internal/diagram"
	"github.com/gyaneshwarpardhi/boa/internal/score"
)

var (
	ErrEmptyPopulation = errors.New("learn: empty population")
	ErrInvalidOperator = errors.New("learn: invalid operator")
)

// Params bound the search.
type Params struct {
	// MaxIncoming caps the number of parents of any variable.
	MaxIncoming int
	// AllowMerge enables merge operators.
	AllowMerge bool
	// MaxOperators caps the number of applied operators; n² when zero.
	MaxOperators int
}

// Stats summarizes one search.
type Stats struct {
	Splits    int `json:"splits"`
	Merges    int `json:"merges"`
	Discarded int `json:"discarded"`
	Edges     int `json:"edges"`
}

// Model is the learned network: a DAG over the variables plus the diagram
// encoding each variable's conditional distribution given its parents.
type Model struct {
	Graph    *dag.Graph
	Diagrams []*diagram.Diagram
	Stats    Stats
}

// Option configures Learn.
type Option func(*searcher)

// WithLogger sets the logger for operator tracing.
func WithLogger(l *slog.Logger) Option {
	return func(s *searcher) { s.log = l }
}

type searcher struct {
	params Params
	log    *slog.Logger
	n      int
	metric *score.Metric
	graph  *dag.Graph
	ds     []*diagram.Diagram
	merges [][]Operator // positive merges per variable
	best   []Operator   // best operator per variable
	stats  Stats
}

// Learn runs the greedy search over rows and returns the resulting model.
func Learn(rows diagram.Rows, params Params, opts ...Option) (*Model, error) {
	if rows.Size() == 0 || rows.Width() == 0 {
		return nil, ErrEmptyPopulation
	}
	s := newSearcher(rows, params, opts...)
	if err := s.run(); err != nil {
		return nil, err
	}
	s.stats.Edges = s.graph.NumEdges()
	return &Model{Graph: s.graph, Diagrams: s.ds, Stats: s.stats}, nil
}

func newSearcher(rows diagram.Rows, params Params, opts ...Option) *searcher {
	n := rows.Width()
	s := &searcher{
		params: params,
		log:    slog.Default(),
		n:      n,
		metric: score.New(rows.Size()),
		graph:  dag.New(n),
		ds:     make([]*diagram.Diagram, n),
		merges: make([][]Operator, n),
		best:   make([]Operator, n),
	}
	for _, o := range opts {
		o(s)
	}
	for i := range s.ds {
		s.ds[i] = diagram.NewBound(rows, i)
	}
	return s
}

func (s *searcher) run() error {
	for i, d := range s.ds {
		if err := s.splitGains(i, d.Root()); err != nil {
			return err
		}
		s.best[i] = s.bestFor(i)
	}

	budget := s.params.MaxOperators
	if budget <= 0 {
		budget = s.n * s.n
	}
	for budget > 0 {
		op := s.globalBest()
		if op.Gain <= 0 {
			break
		}

		if s.applicable(op) {
			if err := s.apply(op); err != nil {
				return err
			}
			budget--
		} else {
			s.discard(op)
		}
		s.best[op.Where] = s.bestFor(op.Where)
	}
	return nil
}

// applicable re-checks a split against the current graph: another
// variable's split may have closed the edge off since the gain was cached.
func (s *searcher) applicable(op Operator) bool {
	if op.Kind != OpSplit {
		return true
	}
	from, to := op.Label, op.Where
	if s.graph.Connected(from, to) {
		return true
	}
	return s.graph.NumIn(to) < s.params.MaxIncoming && s.graph.CanAddEdge(from, to)
}

func (s *searcher) apply(op Operator) error {
	d := s.ds[op.Where]
	switch op.Kind {
	case OpSplit:
		if err := d.Split(op.Leaf, op.Label); err != nil {
			return fmt.Errorf("apply %s: %w", op, err)
		}
		if err := s.graph.AddEdge(op.Label, op.Where); err != nil {
			return fmt.Errorf("apply %s: %w", op, err)
		}
		left, right := d.Children(op.Leaf)
		if err := s.splitGains(op.Where, left); err != nil {
			return err
		}
		if err := s.splitGains(op.Where, right); err != nil {
			return err
		}
		s.stats.Splits++
	case OpMerge:
		if err := d.Merge(op.Leaf, op.Other); err != nil {
			return fmt.Errorf("apply %s: %w", op, err)
		}
		if err := s.splitGains(op.Where, op.Leaf); err != nil {
			return err
		}
		s.stats.Merges++
	default:
		s.log.Error("invalid operator", "kind", op.Kind, "variable", op.Where)
		return fmt.Errorf("%w: kind %d", ErrInvalidOperator, op.Kind)
	}
	s.log.Debug("operator applied", "op", op.String(), "leaves", d.NumLeaves())

	if s.params.AllowMerge {
		s.mergeGains(op.Where)
	}
	return nil
}

func (s *searcher) discard(op Operator) {
	s.ds[op.Where].SetGain(op.Leaf, op.Label, score.Ineligible)
	s.stats.Discarded++
	s.log.Debug("operator discarded", "op", op.String())
}

// splitGains scores every split of leaf in the diagram of variable v.
func (s *searcher) splitGains(v int, leaf diagram.NodeID) error {
	d := s.ds[v]
	cand, err := d.ComputeSplitFrequencies(leaf)
	if err != nil {
		return fmt.Errorf("score x%d: %w", v, err)
	}

	c0, c1 := d.Counts(leaf)
	if c0 <= 0 || c1 <= 0 {
		for l := range cand {
			cand[l].Gain = score.Ineligible
		}
		return nil
	}

	before := s.metric.Leaf(c0, c1)
	for l := range cand {
		if !s.eligible(v, leaf, l) {
			cand[l].Gain = score.Ineligible
			continue
		}
		c := &cand[l]
		c.Gain = s.metric.SplitGain(before, c.Left0, c.Left1, c.Right0, c.Right1)
	}
	return nil
}

func (s *searcher) eligible(v int, leaf diagram.NodeID, label int) bool {
	if label == v || s.ds[v].HasAncestor(leaf, label) {
		return false
	}
	if s.graph.Connected(label, v) {
		return true
	}
	return s.graph.NumIn(v) < s.params.MaxIncoming && s.graph.CanAddEdge(label, v)
}

// mergeGains regenerates the positive merge candidates of variable v.
func (s *searcher) mergeGains(v int) {
	d := s.ds[v]
	leaves := d.Leaves()
	ops := s.merges[v][:0]
	for i, a := range leaves {
		a0, a1 := d.Counts(a)
		for _, b := range leaves[i+1:] {
			b0, b1 := d.Counts(b)
			gain := s.metric.MergeGain(a0, a1, b0, b1)
			if gain > 0 {
				ops = append(ops, Operator{Kind: OpMerge, Where: v, Gain: gain, Leaf: a, Label: -1, Other: b})
			}
		}
	}
	s.merges[v] = ops
}

// bestFor picks the best split over the leaves of v in leaf-list and label
// order, then lets a strictly better merge replace it.
func (s *searcher) bestFor(v int) Operator {
	best := noOperator()
	d := s.ds[v]
	for _, leaf := range d.Leaves() {
		for l, c := range d.Candidates(leaf) {
			op := Operator{Kind: OpSplit, Where: v, Gain: c.Gain, Leaf: leaf, Label: l, Other: diagram.None}
			if better(op, best) {
				best = op
			}
		}
	}
	for _, op := range s.merges[v] {
		if better(op, best) {
			best = op
		}
	}
	return best
}

func (s *searcher) globalBest() Operator {
	best := noOperator()
	for _, op := range s.best {
		if better(op, best) {
			best = op
		}
	}
	return best
}
