package mtree

import (
	"container/heap"

	"github.com/cockroachdb/errors"
)

// pendingNode is a subtree waiting in the kNN queue, keyed by the lower bound
// on the distance from the query to any object below it.
type pendingNode struct {
	minDist float64
	pageID  PageID
	routing ObjectID
}

type nodeQueue []pendingNode

func (q nodeQueue) Len() int { return len(q) }
func (q nodeQueue) Less(i, j int) bool {
	if q[i].minDist != q[j].minDist {
		return q[i].minDist < q[j].minDist
	}
	return q[i].pageID < q[j].pageID
}
func (q nodeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x any)   { *q = append(*q, x.(pendingNode)) }
func (q *nodeQueue) Pop() any {
	old := *q
	n := old[len(old)-1]
	*q = old[:len(old)-1]
	return n
}

// KNNQuery returns the k objects nearest to q, nearest first. Ties at the
// k-th distance are broken by object id.
func (t *Tree) KNNQuery(q ObjectID, k int) ([]Neighbor, error) {
	if k < 1 {
		return nil, errors.Newf("k must be at least 1, got %d", k)
	}
	t.stats.knnQueries++
	if !t.initialized {
		return nil, nil
	}

	knn := NewKNNList(k)
	pq := &nodeQueue{{minDist: 0, pageID: t.store.RootID(), routing: NoObject}}

	for pq.Len() > 0 {
		pn := heap.Pop(pq).(pendingNode)
		if pn.minDist > knn.KNNDistance() {
			break
		}
		node, err := t.store.ReadNode(pn.pageID)
		if err != nil {
			return nil, err
		}
		dq := t.Distance(pn.routing, q)

		if node.leaf {
			for _, e := range node.entries {
				if abs(dq-e.ParentDistance()) > knn.KNNDistance() {
					continue
				}
				if d := t.Distance(e.RoutingObjectID(), q); d <= knn.KNNDistance() {
					knn.Add(Neighbor{ID: e.RoutingObjectID(), Distance: d})
				}
			}
			continue
		}

		for _, ed := range t.SortedEntries(node, q) {
			if ed.MinDist > knn.KNNDistance() {
				break
			}
			de, err := node.directoryEntry(ed.Index)
			if err != nil {
				return nil, err
			}
			heap.Push(pq, pendingNode{minDist: ed.MinDist, pageID: de.nodeID, routing: de.routingObjectID})
		}
	}
	return knn.Neighbors(), nil
}
