package mtree

import (
	"io"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
)

// points is a 1-d object space: object id i+1 lies at points[i].
type points []float64

func (p points) Distance(a, b ObjectID) float64 {
	return math.Abs(p[a-1] - p[b-1])
}

func (p points) ids() []ObjectID {
	ids := make([]ObjectID, len(p))
	for i := range p {
		ids[i] = ObjectID(i + 1)
	}
	return ids
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testConfig(leafCapacity, dirCapacity int) Config {
	return Config{
		LeafCapacity:         leafCapacity,
		DirCapacity:          dirCapacity,
		ExtraIntegrityChecks: true,
		Logger:               quietLogger(),
	}
}

func newTestTree(t *testing.T, dist DistanceFunction, cfg Config) *Tree {
	t.Helper()
	tree, err := OpenTree(NewInMemoryPager(DefaultPageSize), Settings{Distance: dist}, cfg)
	if err != nil {
		t.Fatalf("Failed to create tree: %v", err)
	}
	return tree
}

func insertAll(t *testing.T, tree *Tree, ids ...ObjectID) {
	t.Helper()
	for _, id := range ids {
		if err := tree.InsertObject(id); err != nil {
			t.Fatalf("Failed to insert object %d: %v", id, err)
		}
	}
}

// checkInvariants walks the persisted tree and verifies covering radii,
// parent distances and capacities independently of IntegrityCheck.
func checkInvariants(t *testing.T, tree *Tree) {
	t.Helper()
	err := tree.walk(func(n *Node, e *DirectoryEntry) error {
		if n.NumEntries() > n.Capacity()-1 {
			t.Errorf("%s holds %d entries, capacity is %d", n, n.NumEntries(), n.Capacity()-1)
		}
		for i := 0; i < n.NumEntries(); i++ {
			c := n.Entry(i)
			var want float64
			if e.RoutingObjectID() != NoObject && c.RoutingObjectID() != e.RoutingObjectID() {
				want = tree.settings.Distance.Distance(c.RoutingObjectID(), e.RoutingObjectID())
			}
			if math.Abs(c.ParentDistance()-want) > 1e-10 {
				t.Errorf("%s entry %d: parent distance %g, want %g", n, i, c.ParentDistance(), want)
			}
			if c.ParentDistance()+c.CoveringRadius() > e.CoveringRadius()+1e-10 {
				t.Errorf("%s entry %d: pd+cr %g exceeds covering radius %g of %s",
					n, i, c.ParentDistance()+c.CoveringRadius(), e.CoveringRadius(), e)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to walk tree: %v", err)
	}
}

// checkCoverage verifies directly that every object below a directory entry
// lies within its covering radius.
func checkCoverage(t *testing.T, tree *Tree, dist DistanceFunction) {
	t.Helper()
	var objectsBelow func(id PageID) []ObjectID
	objectsBelow = func(id PageID) []ObjectID {
		n, err := tree.ReadNode(id)
		if err != nil {
			t.Fatalf("Failed to read node %d: %v", id, err)
		}
		var result []ObjectID
		for i := 0; i < n.NumEntries(); i++ {
			switch e := n.Entry(i).(type) {
			case *LeafEntry:
				result = append(result, e.ObjectID())
			case *DirectoryEntry:
				below := objectsBelow(e.NodeID())
				for _, o := range below {
					if d := dist.Distance(o, e.RoutingObjectID()); d > e.CoveringRadius()+1e-10 {
						t.Errorf("object %d is %g away from routing object %d, covering radius %g",
							o, d, e.RoutingObjectID(), e.CoveringRadius())
					}
				}
				result = append(result, below...)
			}
		}
		return result
	}
	objectsBelow(tree.Store().RootID())
}
