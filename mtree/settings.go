package mtree

import "github.com/cockroachdb/errors"

// DistanceFunction computes the distance between two indexed objects. It must
// be a metric: non-negative, symmetric and obeying the triangle inequality.
// Nothing checks this at runtime; pruning is wrong if it does not hold.
type DistanceFunction interface {
	Distance(a, b ObjectID) float64
}

// DistanceFunc adapts a plain function into a DistanceFunction.
type DistanceFunc func(a, b ObjectID) float64

func (f DistanceFunc) Distance(a, b ObjectID) float64 { return f(a, b) }

// InsertStrategy chooses the leaf an entry goes into.
type InsertStrategy interface {
	// ChoosePath returns a root-to-leaf path; its last node must be a leaf.
	ChoosePath(t *Tree, e *LeafEntry) (Path, error)
}

// SplitStrategy partitions the entries of an overflowing node.
type SplitStrategy interface {
	// Split returns two disjoint, non-empty groups covering every entry of n,
	// with one promoted routing object per group.
	Split(t *Tree, n *Node) (*Assignments, error)
}

// PreInsertFunc runs after the parent distance of a new entry is known and
// before the entry is written to its leaf.
type PreInsertFunc func(t *Tree, e *LeafEntry) error

// Settings bundles the distance function and the pluggable strategies. A
// tree copies its settings at construction; they cannot change afterwards.
type Settings struct {
	Distance       DistanceFunction
	InsertStrategy InsertStrategy
	SplitStrategy  SplitStrategy
	PreInsert      PreInsertFunc
}

func (s Settings) normalized() Settings {
	if s.InsertStrategy == nil {
		s.InsertStrategy = MinimumEnlargementInsert{}
	}
	if s.SplitStrategy == nil {
		s.SplitStrategy = MLBDistSplit{Distribution: BalancedDistribution{}}
	}
	return s
}

func (s Settings) validate() error {
	if s.Distance == nil {
		return errors.Wrap(ErrInvalidConfig, "distance function is required")
	}
	return nil
}
