// Package diagram implements the frequency-bearing decision diagram used as
// the conditional model of one variable.
//
// Nodes live in an arena and are addressed by NodeID. A leaf reached by more
// than one path (after a merge) keeps every parent in its parent list, so the
// structure is a DAG rather than a tree.
package diagram

import (
	"container/list"
	"errors"
	"fmt"
)

var (
	ErrNotLeaf       = errors.New("diagram: node is not a live leaf")
	ErrAncestorLabel = errors.New("diagram: label already split on above this leaf")
	ErrLabelRange    = errors.New("diagram: label out of range")
	ErrSameLeaf      = errors.New("diagram: cannot merge a leaf with itself")
)

// Rows is the read-only view of a population the diagram counts over.
type Rows interface {
	Size() int         // number of rows (N)
	Width() int        // number of variables (n)
	Row(i int) []byte // bits of row i, each 0 or 1
}

// Model is the capability set the structure search and sampler rely on.
type Model interface {
	Split(leaf NodeID, label int) error
	Merge(a, b NodeID) error
	Counts(id NodeID) (c0, c1 float64)
	Leaves() []NodeID
	NumLeaves() int
	P1(x []byte) float64
}

var _ Model = (*Diagram)(nil)

// Diagram is a decision diagram over the variables of a population,
// optionally bound to one of them.
type Diagram struct {
	rows   Rows
	n      int
	pos    int // bound variable or -1
	nodes  []node
	root   NodeID
	leaves *list.List // of NodeID, in edit order
}

// New returns an unbound diagram with a single leaf holding all the mass in
// count0.
func New(rows Rows) *Diagram {
	d := newDiagram(rows, -1)
	d.nodes[d.root].count = [2]float64{1, 0}
	return d
}

// NewBound returns a diagram bound to variable pos. Its single leaf holds
// the empirical frequencies of pos being 0 and 1.
func NewBound(rows Rows, pos int) *Diagram {
	d := newDiagram(rows, pos)
	f := univariate(rows, pos)
	d.nodes[d.root].count = [2]float64{1 - f, f}
	return d
}

func newDiagram(rows Rows, pos int) *Diagram {
	d := &Diagram{
		rows:   rows,
		n:      rows.Width(),
		pos:    pos,
		leaves: list.New(),
	}
	d.root = d.alloc(node{
		kind:      Leaf,
		ancestors: make([]bool, d.n),
		left:      None,
		right:     None,
	})
	d.nodes[d.root].elem = d.leaves.PushBack(d.root)
	return d
}

func univariate(rows Rows, pos int) float64 {
	size := rows.Size()
	if size == 0 {
		return 0
	}
	ones := 0
	for i := 0; i < size; i++ {
		ones += int(rows.Row(i)[pos])
	}
	return float64(ones) / float64(size)
}

func (d *Diagram) alloc(nd node) NodeID {
	d.nodes = append(d.nodes, nd)
	return NodeID(len(d.nodes) - 1)
}

func (d *Diagram) leaf(id NodeID) (*node, error) {
	if id < 0 || int(id) >= len(d.nodes) {
		return nil, fmt.Errorf("node %d: %w", id, ErrNotLeaf)
	}
	nd := &d.nodes[id]
	if nd.dead || nd.kind != Leaf {
		return nil, fmt.Errorf("node %d: %w", id, ErrNotLeaf)
	}
	return nd, nil
}

// Position returns the bound variable, or -1 for an unbound diagram.
func (d *Diagram) Position() int { return d.pos }

// Bound reports whether the diagram tracks count1 for a bound variable.
func (d *Diagram) Bound() bool { return d.pos >= 0 }

// Width returns the number of variables a split may test.
func (d *Diagram) Width() int { return d.n }

// Root returns the root node.
func (d *Diagram) Root() NodeID { return d.root }

// NumLeaves returns the number of live leaves.
func (d *Diagram) NumLeaves() int { return d.leaves.Len() }

// Leaves returns the live leaves in leaf-list order.
func (d *Diagram) Leaves() []NodeID {
	out := make([]NodeID, 0, d.leaves.Len())
	for e := d.leaves.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(NodeID))
	}
	return out
}

// Kind returns whether id is a leaf or a split.
func (d *Diagram) Kind(id NodeID) Kind { return d.nodes[id].kind }

// IsLeaf reports whether id is a live leaf.
func (d *Diagram) IsLeaf(id NodeID) bool {
	nd := &d.nodes[id]
	return !nd.dead && nd.kind == Leaf
}

// Depth returns the depth id was created at.
func (d *Diagram) Depth(id NodeID) int { return d.nodes[id].depth }

// Counts returns the mass routed to id for the bound variable being 0 and 1.
// For an unbound diagram c1 is always zero.
func (d *Diagram) Counts(id NodeID) (c0, c1 float64) {
	c := d.nodes[id].count
	return c[0], c[1]
}

// SetCounts overwrites the frequencies held by id.
func (d *Diagram) SetCounts(id NodeID, c0, c1 float64) {
	d.nodes[id].count = [2]float64{c0, c1}
}

// Label returns the variable a split node tests, or -1 for a leaf.
func (d *Diagram) Label(id NodeID) int {
	if d.nodes[id].kind != Split {
		return -1
	}
	return d.nodes[id].label
}

// Children returns the 0-branch and 1-branch of a split node.
func (d *Diagram) Children(id NodeID) (left, right NodeID) {
	return d.nodes[id].left, d.nodes[id].right
}

// Parents returns the split nodes referencing id. The slice is owned by the
// diagram.
func (d *Diagram) Parents(id NodeID) []NodeID { return d.nodes[id].parents }

// HasAncestor reports whether label is tested on a path from the root to id.
func (d *Diagram) HasAncestor(id NodeID, label int) bool {
	return d.nodes[id].ancestors[label]
}

// Ancestors lists the labels tested above id in increasing order.
func (d *Diagram) Ancestors(id NodeID) []int {
	var out []int
	for l, ok := range d.nodes[id].ancestors {
		if ok {
			out = append(out, l)
		}
	}
	return out
}

// Candidates returns the cached split candidates of a leaf, indexed by
// label, or nil if they were never computed. The slice is owned by the
// diagram; callers may update gains in place.
func (d *Diagram) Candidates(id NodeID) []Candidate { return d.nodes[id].cand }

// SetGain records the scored gain of splitting leaf id on label.
func (d *Diagram) SetGain(id NodeID, label int, gain float64) {
	d.nodes[id].cand[label].Gain = gain
}

// Split turns leaf into a split on label with two fresh leaves. Child
// frequencies come from the leaf's cached candidates; they are computed on
// the spot when the cache is empty. The leaf's slot in the leaf list now
// holds the left child and the right child is linked right after it.
func (d *Diagram) Split(leaf NodeID, label int) error {
	nd, err := d.leaf(leaf)
	if err != nil {
		return err
	}
	if label < 0 || label >= d.n {
		return fmt.Errorf("split on %d: %w", label, ErrLabelRange)
	}
	if nd.ancestors[label] {
		return fmt.Errorf("split on %d: %w", label, ErrAncestorLabel)
	}
	if nd.cand == nil {
		if _, err := d.ComputeSplitFrequencies(leaf); err != nil {
			return err
		}
	}

	nd = &d.nodes[leaf]
	c := nd.cand[label]
	depth := nd.depth + 1
	elem := nd.elem

	child := func(c0, c1 float64) NodeID {
		anc := make([]bool, d.n)
		copy(anc, d.nodes[leaf].ancestors)
		anc[label] = true
		return d.alloc(node{
			kind:      Leaf,
			depth:     depth,
			count:     [2]float64{c0, c1},
			ancestors: anc,
			parents:   []NodeID{leaf},
			left:      None,
			right:     None,
		})
	}
	left := child(c.Left0, c.Left1)
	right := child(c.Right0, c.Right1)

	// alloc may have moved the arena.
	nd = &d.nodes[leaf]
	nd.kind = Split
	nd.label = label
	nd.left = left
	nd.right = right
	nd.cand = nil
	nd.elem = nil

	elem.Value = left
	d.nodes[left].elem = elem
	d.nodes[right].elem = d.leaves.InsertAfter(right, elem)
	return nil
}

// Merge folds leaf b into leaf a. Every parent of b is redirected to a, a
// accumulates b's frequencies and the union of both ancestor sets, and b
// leaves the leaf list.
func (d *Diagram) Merge(a, b NodeID) error {
	if a == b {
		return fmt.Errorf("merge %d: %w", a, ErrSameLeaf)
	}
	na, err := d.leaf(a)
	if err != nil {
		return err
	}
	nb, err := d.leaf(b)
	if err != nil {
		return err
	}

	na.count[0] += nb.count[0]
	if d.Bound() {
		na.count[1] += nb.count[1]
	}
	for l, ok := range nb.ancestors {
		if ok {
			na.ancestors[l] = true
		}
	}
	for _, p := range nb.parents {
		pn := &d.nodes[p]
		if pn.left == b {
			pn.left = a
		}
		if pn.right == b {
			pn.right = a
		}
		if !na.hasParent(p) {
			na.parents = append(na.parents, p)
		}
	}
	na.cand = nil

	d.leaves.Remove(nb.elem)
	nb.elem = nil
	nb.parents = nil
	nb.cand = nil
	nb.dead = true
	return nil
}

// Follow walks x from the root and returns the leaf it lands in.
func (d *Diagram) Follow(x []byte) NodeID { return d.FollowFrom(d.root, x) }

// FollowFrom walks x from start, taking the left branch where x is 0 at the
// split label and the right branch otherwise.
func (d *Diagram) FollowFrom(start NodeID, x []byte) NodeID {
	id := start
	for d.nodes[id].kind == Split {
		nd := &d.nodes[id]
		if x[nd.label] == 0 {
			id = nd.left
		} else {
			id = nd.right
		}
	}
	return id
}

// Trace returns the split labels x is tested on, root first.
func (d *Diagram) Trace(x []byte) []int {
	var labels []int
	id := d.root
	for d.nodes[id].kind == Split {
		nd := &d.nodes[id]
		labels = append(labels, nd.label)
		if x[nd.label] == 0 {
			id = nd.left
		} else {
			id = nd.right
		}
	}
	return labels
}

// P1 returns the probability that the bound variable is 1 in the leaf x
// reaches. A leaf that no row ever reached yields 0.5.
func (d *Diagram) P1(x []byte) float64 {
	return d.leafP1(d.Follow(x))
}

func (d *Diagram) leafP1(id NodeID) float64 {
	c := d.nodes[id].count
	total := c[0] + c[1]
	if total <= 0 {
		return 0.5
	}
	return c[1] / total
}

// ComputeFrequencies re-derives every leaf's counts by routing each row from
// the root, then normalizes them by the population size.
func (d *Diagram) ComputeFrequencies() {
	for e := d.leaves.Front(); e != nil; e = e.Next() {
		d.nodes[e.Value.(NodeID)].count = [2]float64{}
	}
	size := d.rows.Size()
	if size == 0 {
		return
	}
	for i := 0; i < size; i++ {
		x := d.rows.Row(i)
		nd := &d.nodes[d.Follow(x)]
		if d.Bound() {
			nd.count[x[d.pos]]++
		} else {
			nd.count[0]++
		}
	}
	norm := float64(size)
	for e := d.leaves.Front(); e != nil; e = e.Next() {
		nd := &d.nodes[e.Value.(NodeID)]
		nd.count[0] /= norm
		nd.count[1] /= norm
	}
}

// ComputeSplitFrequencies fills the leaf's candidate cache with the child
// frequencies every possible split label would produce, in a single pass
// over the rows. Gains are reset to zero; scoring them is the caller's job.
func (d *Diagram) ComputeSplitFrequencies(leaf NodeID) ([]Candidate, error) {
	nd, err := d.leaf(leaf)
	if err != nil {
		return nil, err
	}
	if nd.cand == nil {
		nd.cand = make([]Candidate, d.n)
	} else {
		clear(nd.cand)
	}
	cand := nd.cand

	size := d.rows.Size()
	for i := 0; i < size; i++ {
		x := d.rows.Row(i)
		if d.Follow(x) != leaf {
			continue
		}
		one := d.Bound() && x[d.pos] == 1
		for l := range cand {
			c := &cand[l]
			switch {
			case x[l] == 0 && one:
				c.Left1++
			case x[l] == 0:
				c.Left0++
			case one:
				c.Right1++
			default:
				c.Right0++
			}
		}
	}
	if size > 0 {
		norm := float64(size)
		for l := range cand {
			c := &cand[l]
			c.Left0 /= norm
			c.Left1 /= norm
			c.Right0 /= norm
			c.Right1 /= norm
		}
	}
	return cand, nil
}
