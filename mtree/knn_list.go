package mtree

import (
	"math"

	"github.com/biogo/store/llrb"
)

// Neighbor is one result of a similarity query.
type Neighbor struct {
	ID       ObjectID
	Distance float64
}

// Compare orders neighbors by distance, then by id.
func (n Neighbor) Compare(c llrb.Comparable) int {
	o := c.(Neighbor)
	switch {
	case n.Distance < o.Distance:
		return -1
	case n.Distance > o.Distance:
		return 1
	case n.ID < o.ID:
		return -1
	case n.ID > o.ID:
		return 1
	}
	return 0
}

// KNNList keeps the k best neighbors seen so far.
type KNNList struct {
	k    int
	tree llrb.Tree
}

func NewKNNList(k int) *KNNList {
	return &KNNList{k: k}
}

// Add offers a candidate. It is kept if the list is not full yet or if it is
// closer than the current k-th neighbor, which is then dropped.
func (l *KNNList) Add(n Neighbor) {
	if l.k <= 0 {
		return
	}
	if l.tree.Len() >= l.k {
		if n.Compare(l.tree.Max()) >= 0 {
			return
		}
		l.tree.DeleteMax()
	}
	l.tree.Insert(n)
}

// KNNDistance is the distance of the k-th neighbor, or +Inf until k
// neighbors are known.
func (l *KNNList) KNNDistance() float64 {
	if l.tree.Len() < l.k {
		return math.Inf(1)
	}
	return l.tree.Max().(Neighbor).Distance
}

func (l *KNNList) Len() int { return l.tree.Len() }

// Neighbors returns the neighbors, nearest first.
func (l *KNNList) Neighbors() []Neighbor {
	result := make([]Neighbor, 0, l.tree.Len())
	l.tree.Do(func(c llrb.Comparable) bool {
		result = append(result, c.(Neighbor))
		return false
	})
	return result
}
