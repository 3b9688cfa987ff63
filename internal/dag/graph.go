package dag

import (
	"errors"
	"fmt"
	"io"

	"github.com/gammazero/deque"
)

var (
	// ErrCycle is returned when an edge would close a directed cycle.
	ErrCycle = errors.New("dag: edge would create a cycle")
	// ErrNoEdge is returned when an operation needs an edge that is not present.
	ErrNoEdge = errors.New("dag: edge not present")
)

// Graph is a directed acyclic graph over a fixed set of vertices 0..n-1.
//
// Besides the adjacency ("coincidence") matrix it keeps the reflexive
// transitive closure ("path") matrix up to date on every edit, so cycle and
// reachability queries are O(1). Adding an edge costs O(n²); removing one
// costs O(n²) plus the closure repair.
type Graph struct {
	n           int
	coincidence []bool // n*n, row-major: coincidence[i*n+j] means i -> j
	path        []bool // n*n, path[i*n+j] means j is reachable from i
	numIn       []int
	numOut      []int
	parents     [][]int
	marks       []int
}

// cell is a (from, to) pair queued for closure repair.
type cell struct {
	from, to int
}

// New allocates an edgeless graph with n vertices.
func New(n int) *Graph {
	g := &Graph{
		n:           n,
		coincidence: make([]bool, n*n),
		path:        make([]bool, n*n),
		numIn:       make([]int, n),
		numOut:      make([]int, n),
		parents:     make([][]int, n),
		marks:       make([]int, n),
	}
	g.RemoveAllEdges()
	return g
}

// Size returns the number of vertices.
func (g *Graph) Size() int { return g.n }

// RemoveAllEdges resets the graph to n isolated vertices.
func (g *Graph) RemoveAllEdges() {
	for i := range g.coincidence {
		g.coincidence[i] = false
		g.path[i] = false
	}
	for i := 0; i < g.n; i++ {
		g.path[i*g.n+i] = true
		g.numIn[i] = 0
		g.numOut[i] = 0
		g.parents[i] = g.parents[i][:0]
	}
}

// Connected reports whether the edge i -> j is present.
func (g *Graph) Connected(i, j int) bool { return g.coincidence[i*g.n+j] }

// ExistsPath reports whether j is reachable from i. Every vertex reaches itself.
func (g *Graph) ExistsPath(i, j int) bool { return g.path[i*g.n+j] }

// NumIn returns the in-degree of i.
func (g *Graph) NumIn(i int) int { return g.numIn[i] }

// NumOut returns the out-degree of i.
func (g *Graph) NumOut(i int) int { return g.numOut[i] }

// Parents returns the direct predecessors of j. The slice is owned by the
// graph and must not be modified.
func (g *Graph) Parents(j int) []int { return g.parents[j] }

// CanAddEdge reports whether i -> j can be inserted without closing a cycle.
// An edge that is already present cannot be added again.
func (g *Graph) CanAddEdge(i, j int) bool {
	return !g.ExistsPath(j, i) && !g.Connected(i, j)
}

// AddEdge inserts i -> j. Adding an edge that is already present is a no-op.
func (g *Graph) AddEdge(i, j int) error {
	if g.Connected(i, j) {
		return nil
	}
	if g.ExistsPath(j, i) {
		return fmt.Errorf("add %d->%d: %w", i, j, ErrCycle)
	}
	g.link(i, j)
	return nil
}

// link sets the edge and extends the closure: everything that reaches i now
// reaches everything j reaches.
func (g *Graph) link(i, j int) {
	n := g.n
	g.coincidence[i*n+j] = true
	g.parents[j] = append(g.parents[j], i)
	g.numOut[i]++
	g.numIn[j]++
	g.path[i*n+j] = true

	for k := 0; k < n; k++ {
		if !g.path[k*n+i] {
			continue
		}
		for l := 0; l < n; l++ {
			if l != k && g.path[j*n+l] {
				g.path[k*n+l] = true
			}
		}
	}
}

// RemoveEdge deletes i -> j. Removing an absent edge is a no-op.
func (g *Graph) RemoveEdge(i, j int) {
	if !g.Connected(i, j) {
		return
	}
	n := g.n
	g.coincidence[i*n+j] = false
	g.numOut[i]--
	g.numIn[j]--
	ps := g.parents[j]
	for k, p := range ps {
		if p == i {
			ps[k] = ps[len(ps)-1]
			g.parents[j] = ps[:len(ps)-1]
			break
		}
	}

	// Invalidate every pair that may have routed through i -> j and has no
	// direct edge of its own.
	var pending deque.Deque[cell]
	for k := 0; k < n; k++ {
		if !g.path[k*n+i] {
			continue
		}
		for l := 0; l < n; l++ {
			if l != k && !g.coincidence[k*n+l] && g.path[j*n+l] && g.path[k*n+l] {
				g.path[k*n+l] = false
				pending.PushBack(cell{from: k, to: l})
			}
		}
	}

	// Re-derive invalidated pairs through any intermediate vertex until a
	// full pass over the worklist adds nothing.
	for added := true; added && pending.Len() > 0; {
		added = false
		for left := pending.Len(); left > 0; left-- {
			c := pending.PopFront()
			if g.derivable(c.from, c.to) {
				g.path[c.from*n+c.to] = true
				added = true
				continue
			}
			pending.PushBack(c)
		}
	}
}

func (g *Graph) derivable(k, l int) bool {
	n := g.n
	for m := 0; m < n; m++ {
		if m != k && m != l && g.path[k*n+m] && g.path[m*n+l] {
			return true
		}
	}
	return false
}

// CanReverseEdge reports whether i -> j exists and could be turned into
// j -> i without closing a cycle, i.e. no other path leads from i to j.
func (g *Graph) CanReverseEdge(i, j int) bool {
	if !g.Connected(i, j) {
		return false
	}
	g.RemoveEdge(i, j)
	ok := !g.ExistsPath(i, j)
	g.link(i, j)
	return ok
}

// ReverseEdge replaces i -> j with j -> i. The graph is left untouched when
// the edge is missing or the reversal would close a cycle.
func (g *Graph) ReverseEdge(i, j int) error {
	if !g.Connected(i, j) {
		return fmt.Errorf("reverse %d->%d: %w", i, j, ErrNoEdge)
	}
	g.RemoveEdge(i, j)
	if err := g.AddEdge(j, i); err != nil {
		g.link(i, j)
		return fmt.Errorf("reverse %d->%d: %w", i, j, ErrCycle)
	}
	return nil
}

// Edge is a directed edge From -> To.
type Edge struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Edges lists all edges in row-major order.
func (g *Graph) Edges() []Edge {
	var out []Edge
	for i := 0; i < g.n; i++ {
		for j := 0; j < g.n; j++ {
			if g.coincidence[i*g.n+j] {
				out = append(out, Edge{From: i, To: j})
			}
		}
	}
	return out
}

// NumEdges returns the number of edges.
func (g *Graph) NumEdges() int {
	total := 0
	for _, d := range g.numIn {
		total += d
	}
	return total
}

// -----------------------------------------------------------------------
// Vertex marks
// -----------------------------------------------------------------------

// SetMark stores a caller-defined integer on vertex i.
func (g *Graph) SetMark(i, v int) { g.marks[i] = v }

// Mark returns the integer stored on vertex i.
func (g *Graph) Mark(i int) int { return g.marks[i] }

// SetAllMarks stores v on every vertex.
func (g *Graph) SetAllMarks(v int) {
	for i := range g.marks {
		g.marks[i] = v
	}
}

// ClearMarks resets every mark to zero.
func (g *Graph) ClearMarks() { g.SetAllMarks(0) }

// -----------------------------------------------------------------------
// Dumps
// -----------------------------------------------------------------------

// WriteMatrices writes the coincidence and path matrices followed by the
// in-degree (with parent lists) and out-degree arrays.
func (g *Graph) WriteMatrices(w io.Writer) error {
	if err := writeMatrix(w, "coincidenceMatrix", g.n, g.coincidence); err != nil {
		return err
	}
	if err := writeMatrix(w, "pathMatrix", g.n, g.path); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "numIn"); err != nil {
		return err
	}
	for i := 0; i < g.n; i++ {
		if _, err := fmt.Fprintf(w, "%d %v ", g.numIn[i], g.parents[i]); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, "\nnumOut"); err != nil {
		return err
	}
	for i := 0; i < g.n; i++ {
		if _, err := fmt.Fprintf(w, "%d ", g.numOut[i]); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

func writeMatrix(w io.Writer, title string, n int, m []bool) error {
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := 0
			if m[i*n+j] {
				v = 1
			}
			if _, err := fmt.Fprintf(w, "%d ", v); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
