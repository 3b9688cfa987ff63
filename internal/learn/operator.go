package learn

import (
	"fmt"

	"github.com/gyaneshwarpardhi/boa/internal/diagram"
	"github.com/gyaneshwarpardhi/boa/internal/score"
)

// OpKind identifies an operator.
type OpKind uint8

const (
	OpNone OpKind = iota
	OpSplit
	OpMerge
)

func (k OpKind) String() string {
	switch k {
	case OpSplit:
		return "split"
	case OpMerge:
		return "merge"
	default:
		return "none"
	}
}

// Operator is a candidate edit of the diagram of variable Where. A split
// refines Leaf on Label; a merge folds Other into Leaf.
type Operator struct {
	Kind  OpKind
	Where int
	Gain  float64
	Leaf  diagram.NodeID
	Label int
	Other diagram.NodeID
}

func (op Operator) String() string {
	switch op.Kind {
	case OpSplit:
		return fmt.Sprintf("split x%d leaf %d on x%d (gain %.4f)", op.Where, op.Leaf, op.Label, op.Gain)
	case OpMerge:
		return fmt.Sprintf("merge x%d leaves %d+%d (gain %.4f)", op.Where, op.Leaf, op.Other, op.Gain)
	default:
		return "none"
	}
}

// noOperator is the reset state: nothing with gain at or below the
// ineligible sentinel is ever selected.
func noOperator() Operator {
	return Operator{Kind: OpNone, Where: -1, Gain: score.Ineligible, Leaf: diagram.None, Label: -1, Other: diagram.None}
}

// better reports whether op beats best. Ties keep the incumbent, so scans
// in increasing variable, leaf-list and label order prefer the first hit.
func better(op, best Operator) bool { return op.Gain > best.Gain }
