package diagram

import "container/list"

// NodeID addresses a node in a diagram's arena.
type NodeID int

// None marks an absent child or node reference.
const None NodeID = -1

// Kind tags a node as a leaf or a binary split.
type Kind uint8

const (
	Leaf Kind = iota
	Split
)

func (k Kind) String() string {
	if k == Split {
		return "split"
	}
	return "leaf"
}

// Candidate is the cached outcome of splitting a leaf on one label: the
// provisional child frequencies and the gain the scoring metric assigned.
type Candidate struct {
	Gain   float64
	Left0  float64
	Left1  float64
	Right0 float64
	Right1 float64
}

type node struct {
	kind      Kind
	depth     int
	count     [2]float64
	ancestors []bool // indexed by variable; labels split on above this node
	parents   []NodeID

	// split only
	label       int
	left, right NodeID

	// leaf only
	elem *list.Element
	cand []Candidate // nil until split frequencies are computed

	dead bool
}

func (nd *node) hasParent(p NodeID) bool {
	for _, q := range nd.parents {
		if q == p {
			return true
		}
	}
	return false
}
