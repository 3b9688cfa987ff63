package diagram

import (
	"fmt"
	"io"
	"strings"
)

// ShiftStep is the indentation added per diagram level by Print.
const ShiftStep = 4

// Record is one line of a model report: a split on Label or a leaf with the
// probability P1 of the bound variable being 1.
type Record struct {
	Depth int     `json:"depth"`
	Split bool    `json:"split"`
	Label int     `json:"label"`
	P1    float64 `json:"p1"`
}

// Walk visits the diagram depth-first from the root, left branch first.
// A merged leaf is visited once for every path that reaches it.
func (d *Diagram) Walk(fn func(Record)) {
	d.walk(d.root, 0, fn)
}

func (d *Diagram) walk(id NodeID, depth int, fn func(Record)) {
	if id == None {
		return
	}
	nd := &d.nodes[id]
	if nd.kind == Leaf {
		fn(Record{Depth: depth, P1: d.leafP1(id)})
		return
	}
	fn(Record{Depth: depth, Split: true, Label: nd.label})
	d.walk(nd.left, depth+1, fn)
	d.walk(nd.right, depth+1, fn)
}

// Records collects the output of Walk.
func (d *Diagram) Records() []Record {
	var out []Record
	d.Walk(func(r Record) { out = append(out, r) })
	return out
}

// Print renders the diagram starting at column shift. Splits print their
// label and leaves print the conditional probability of the bound variable.
func (d *Diagram) Print(w io.Writer, shift int) error {
	var err error
	d.Walk(func(r Record) {
		if err != nil {
			return
		}
		pad := strings.Repeat(" ", shift+r.Depth*ShiftStep)
		if r.Split {
			_, err = fmt.Fprintf(w, "%s%d\n", pad, r.Label)
			return
		}
		_, err = fmt.Fprintf(w, "%sp(x%d=1|...)=%1.2f\n", pad, d.pos, r.P1)
	})
	return err
}
