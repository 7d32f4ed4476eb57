package mtree

import (
	"math/rand"
	"testing"
)

func leafNodeOf(pts points, capacity int) *Node {
	n := newNode(2, true, capacity)
	for _, id := range pts.ids() {
		n.entries = append(n.entries, NewLeafEntry(id))
	}
	return n
}

func TestMLBDistSplitPromotesFarthestPair(t *testing.T) {
	pts := points{4, 0, 5, 12, 7}
	tree := newTestTree(t, pts, testConfig(5, 5))
	n := leafNodeOf(pts, 5)

	a, err := MLBDistSplit{Distribution: BalancedDistribution{}}.Split(tree, n)
	if err != nil {
		t.Fatalf("Failed to split: %v", err)
	}
	if a.FirstRoutingObject != 2 || a.SecondRoutingObject != 4 {
		t.Fatalf("Expected objects 2 and 4 promoted, got %d and %d", a.FirstRoutingObject, a.SecondRoutingObject)
	}
	if err := a.validate(n); err != nil {
		t.Fatalf("Invalid assignments: %v", err)
	}
	// balanced: 3 entries on the first side, 2 on the second
	if len(a.FirstAssignments) != 3 || len(a.SecondAssignments) != 2 {
		t.Errorf("Expected a 3/2 split, got %d/%d", len(a.FirstAssignments), len(a.SecondAssignments))
	}
	for _, de := range a.FirstAssignments {
		if de.Distance != pts.Distance(de.Entry.RoutingObjectID(), 2) && de.Entry.RoutingObjectID() != 2 {
			t.Errorf("Wrong distance %g for entry %s", de.Distance, de.Entry)
		}
		if de.Distance > a.FirstCover {
			t.Errorf("First cover %g below member distance %g", a.FirstCover, de.Distance)
		}
	}
}

func TestHyperplaneDistribution(t *testing.T) {
	pts := points{0, 1, 2, 10, 20}
	tree := newTestTree(t, pts, testConfig(5, 5))
	n := leafNodeOf(pts, 5)

	a := HyperplaneDistribution{}.Distribute(tree, n, 1, 5)
	if err := a.validate(n); err != nil {
		t.Fatalf("Invalid assignments: %v", err)
	}
	// 10 is equally far from both and goes to the smaller group
	if len(a.FirstAssignments) != 3 || len(a.SecondAssignments) != 2 {
		t.Errorf("Expected a 3/2 split, got %d/%d", len(a.FirstAssignments), len(a.SecondAssignments))
	}
	if a.FirstCover != 2 || a.SecondCover != 10 {
		t.Errorf("Expected covers 2 and 10, got %g and %g", a.FirstCover, a.SecondCover)
	}
}

// with both promoted objects at the same position everything ties; the
// groups must still both be non-empty
func TestHyperplaneDistributionTies(t *testing.T) {
	pts := points{3, 3, 3, 3}
	tree := newTestTree(t, pts, testConfig(4, 4))
	n := leafNodeOf(pts, 4)

	a := HyperplaneDistribution{}.Distribute(tree, n, 1, 2)
	if err := a.validate(n); err != nil {
		t.Fatalf("Invalid assignments: %v", err)
	}
	if len(a.FirstAssignments) != 2 || len(a.SecondAssignments) != 2 {
		t.Errorf("Expected a 2/2 split on ties, got %d/%d", len(a.FirstAssignments), len(a.SecondAssignments))
	}
}

func TestMMRadSplitMinimizesLargerCover(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	pts := make(points, 9)
	for i := range pts {
		pts[i] = rng.Float64() * 100
	}
	tree := newTestTree(t, pts, testConfig(9, 9))
	n := leafNodeOf(pts, 9)

	a, err := MMRadSplit{Distribution: BalancedDistribution{}}.Split(tree, n)
	if err != nil {
		t.Fatalf("Failed to split: %v", err)
	}
	if err := a.validate(n); err != nil {
		t.Fatalf("Invalid assignments: %v", err)
	}
	best := max(a.FirstCover, a.SecondCover)
	for i := 1; i <= len(pts); i++ {
		for j := i + 1; j <= len(pts); j++ {
			other := BalancedDistribution{}.Distribute(tree, n, ObjectID(i), ObjectID(j))
			if c := max(other.FirstCover, other.SecondCover); c < best {
				t.Fatalf("Pair (%d,%d) gives cover %g, chosen split %g", i, j, c, best)
			}
		}
	}

	mlb, _ := MLBDistSplit{}.Split(tree, n)
	if max(mlb.FirstCover, mlb.SecondCover) < best {
		t.Errorf("MLBDist split beats MMRad: %g < %g", max(mlb.FirstCover, mlb.SecondCover), best)
	}
}

func TestAssignmentsValidate(t *testing.T) {
	pts := points{0, 1, 2}
	n := leafNodeOf(pts, 3)

	empty := &Assignments{FirstAssignments: []DistanceEntry{{Entry: n.entries[0], Index: 0}}}
	if err := empty.validate(n); err == nil {
		t.Errorf("Expected an error for an empty group")
	}
	dup := &Assignments{
		FirstAssignments:  []DistanceEntry{{Entry: n.entries[0], Index: 0}, {Entry: n.entries[0], Index: 0}},
		SecondAssignments: []DistanceEntry{{Entry: n.entries[2], Index: 2}},
	}
	if err := dup.validate(n); err == nil {
		t.Errorf("Expected an error for a duplicated slot")
	}
}

// every strategy combination keeps the tree consistent
func TestStrategyCombinations(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	pts := make(points, 150)
	for i := range pts {
		pts[i] = rng.NormFloat64() * 50
	}
	splits := map[string]SplitStrategy{
		"mlbdist/balanced":   MLBDistSplit{Distribution: BalancedDistribution{}},
		"mlbdist/hyperplane": MLBDistSplit{Distribution: HyperplaneDistribution{}},
		"mmrad/balanced":     MMRadSplit{Distribution: BalancedDistribution{}},
		"mmrad/hyperplane":   MMRadSplit{Distribution: HyperplaneDistribution{}},
	}
	for name, split := range splits {
		t.Run(name, func(t *testing.T) {
			tree, err := OpenTree(NewInMemoryPager(DefaultPageSize),
				Settings{Distance: pts, SplitStrategy: split}, testConfig(4, 5))
			if err != nil {
				t.Fatalf("Failed to create tree: %v", err)
			}
			insertAll(t, tree, pts.ids()...)
			checkInvariants(t, tree)
			checkCoverage(t, tree, pts)
			size, err := tree.Size()
			if err != nil || size != len(pts) {
				t.Errorf("Expected %d objects, got %d (%v)", len(pts), size, err)
			}
		})
	}
}

func TestMinimumEnlargementInsert(t *testing.T) {
	pts := points{0, 1, 10, 11, 0.5, 30}
	tree := newTestTree(t, pts, testConfig(3, 5))
	insertAll(t, tree, 1, 2, 3, 4)

	// 0.5 lies inside the ball around 0
	path, err := MinimumEnlargementInsert{}.ChoosePath(tree, NewLeafEntry(5))
	if err != nil {
		t.Fatalf("Failed to choose path: %v", err)
	}
	if path.Len() != 2 {
		t.Fatalf("Expected a root-to-leaf path of 2 steps, got %s", path)
	}
	e, err := tree.pathEntry(path)
	if err != nil {
		t.Fatalf("Failed to resolve path: %v", err)
	}
	if e.RoutingObjectID() != 1 {
		t.Errorf("Expected the subtree of object 1, got %s", e)
	}

	// 30 is outside both balls; the one around 10 needs less enlargement
	path, err = MinimumEnlargementInsert{}.ChoosePath(tree, NewLeafEntry(6))
	if err != nil {
		t.Fatalf("Failed to choose path: %v", err)
	}
	if e, _ = tree.pathEntry(path); e.RoutingObjectID() != 3 {
		t.Errorf("Expected the subtree of object 3, got %s", e)
	}
}
