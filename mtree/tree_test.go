package mtree

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
)

// TestSingleInsert: one object gives a leaf root of height 0
func TestSingleInsert(t *testing.T) {
	pts := points{3}
	tree := newTestTree(t, pts, testConfig(3, 3))

	insertAll(t, tree, 1)

	h, err := tree.Height()
	if err != nil {
		t.Fatalf("Failed to get height: %v", err)
	}
	if h != 0 {
		t.Errorf("Expected height 0, got %d", h)
	}
	leaves, err := tree.Leaves()
	if err != nil {
		t.Fatalf("Failed to list leaves: %v", err)
	}
	if len(leaves) != 1 || leaves[0].ObjectID() != 1 {
		t.Fatalf("Expected exactly object 1, got %v", leaves)
	}
	if leaves[0].ParentDistance() != 0 {
		t.Errorf("Expected parent distance 0 below the root, got %g", leaves[0].ParentDistance())
	}
	root := tree.RootEntry()
	if root.RoutingObjectID() != NoObject || root.CoveringRadius() != 0 {
		t.Errorf("Unexpected root entry %s", root)
	}
}

// TestRootSplit: four objects with leaf capacity 3 force exactly one split
func TestRootSplit(t *testing.T) {
	pts := points{0, 1, 10, 11}
	tree := newTestTree(t, pts, testConfig(3, 3))

	insertAll(t, tree, pts.ids()...)

	h, err := tree.Height()
	if err != nil {
		t.Fatalf("Failed to get height: %v", err)
	}
	if h != 1 {
		t.Fatalf("Expected height 1, got %d", h)
	}

	root, err := tree.ReadNode(tree.Store().RootID())
	if err != nil {
		t.Fatalf("Failed to read root: %v", err)
	}
	if root.IsLeaf() {
		t.Fatalf("Expected directory root")
	}
	if root.NumEntries() != 2 {
		t.Fatalf("Expected 2 root entries, got %d", root.NumEntries())
	}
	if root.ID() != RootPageID {
		t.Errorf("Expected root on page %d, got %d", RootPageID, root.ID())
	}

	// the two groups are {0,1} and {10,11}
	groups := map[ObjectID][]ObjectID{}
	for i := 0; i < root.NumEntries(); i++ {
		de := root.Entry(i).(*DirectoryEntry)
		child, err := tree.ReadNode(de.NodeID())
		if err != nil {
			t.Fatalf("Failed to read child: %v", err)
		}
		for j := 0; j < child.NumEntries(); j++ {
			groups[de.RoutingObjectID()] = append(groups[de.RoutingObjectID()], child.Entry(j).RoutingObjectID())
		}
	}
	if len(groups[1]) != 2 || len(groups[3]) != 2 {
		t.Errorf("Expected groups {1,2} under 1 and {3,4} under 3, got %v", groups)
	}

	checkInvariants(t, tree)
}

// TestLineCoveringRadii inserts 0,1,2,5,8,9 on a line and checks every root
// entry against its child
func TestLineCoveringRadii(t *testing.T) {
	pts := points{0, 1, 2, 5, 8, 9}
	tree := newTestTree(t, pts, testConfig(3, 10))

	insertAll(t, tree, pts.ids()...)
	checkInvariants(t, tree)
	checkCoverage(t, tree, pts)

	root, err := tree.ReadNode(tree.Store().RootID())
	if err != nil {
		t.Fatalf("Failed to read root: %v", err)
	}
	if root.NumEntries() != 3 {
		t.Fatalf("Expected 3 root entries, got %d", root.NumEntries())
	}

	want := map[ObjectID]float64{1: 1, 3: 3, 5: 1}
	for i := 0; i < root.NumEntries(); i++ {
		de := root.Entry(i).(*DirectoryEntry)
		child, err := tree.ReadNode(de.NodeID())
		if err != nil {
			t.Fatalf("Failed to read child: %v", err)
		}
		if de.CoveringRadius() != child.CoveringRadiusFromEntries() {
			t.Errorf("Entry %s: covering radius %g, child needs %g",
				de, de.CoveringRadius(), child.CoveringRadiusFromEntries())
		}
		if cr, ok := want[de.RoutingObjectID()]; !ok || cr != de.CoveringRadius() {
			t.Errorf("Unexpected root entry %s", de)
		}
	}
	if cr := tree.RootEntry().CoveringRadius(); cr != 3 {
		t.Errorf("Expected root covering radius 3, got %g", cr)
	}
}

// TestIntegrityCheckDetectsCorruption shrinks a covering radius on disk
func TestIntegrityCheckDetectsCorruption(t *testing.T) {
	pts := points{0, 1, 2, 5, 8, 9}
	tree := newTestTree(t, pts, testConfig(3, 10))
	insertAll(t, tree, pts.ids()...)

	if err := tree.IntegrityCheck(); err != nil {
		t.Fatalf("Expected a consistent tree, got %v", err)
	}

	root, err := tree.ReadNode(tree.Store().RootID())
	if err != nil {
		t.Fatalf("Failed to read root: %v", err)
	}
	var victim *DirectoryEntry
	for i := 0; i < root.NumEntries(); i++ {
		if de := root.Entry(i).(*DirectoryEntry); de.CoveringRadius() > 1 {
			victim = de
		}
	}
	if victim == nil {
		t.Fatalf("No entry with a covering radius above 1")
	}
	victim.SetCoveringRadius(0.5)
	if err := tree.Store().WriteNode(root); err != nil {
		t.Fatalf("Failed to write root: %v", err)
	}

	err = tree.IntegrityCheck()
	if !errors.Is(err, ErrStructuralInconsistency) {
		t.Fatalf("Expected structural inconsistency, got %v", err)
	}
	if !strings.Contains(err.Error(), fmt.Sprintf("node %d ", victim.NodeID())) {
		t.Errorf("Expected the error to name node %d, got %q", victim.NodeID(), err.Error())
	}
}

// TestRandomInserts checks every invariant while the tree grows several levels
func TestRandomInserts(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	pts := make(points, 300)
	for i := range pts {
		pts[i] = rng.Float64() * 1000
	}
	tree := newTestTree(t, pts, testConfig(4, 4))

	lastHeight := 0
	for _, id := range pts.ids() {
		insertAll(t, tree, id)
		h, err := tree.Height()
		if err != nil {
			t.Fatalf("Failed to get height: %v", err)
		}
		if h < lastHeight {
			t.Fatalf("Height dropped from %d to %d after inserting %d", lastHeight, h, id)
		}
		lastHeight = h
	}
	if lastHeight < 3 {
		t.Errorf("Expected at least 4 levels with capacity 3, got height %d", lastHeight)
	}

	checkInvariants(t, tree)
	checkCoverage(t, tree, pts)

	leaves, err := tree.Leaves()
	if err != nil {
		t.Fatalf("Failed to list leaves: %v", err)
	}
	got := make([]int, len(leaves))
	for i, l := range leaves {
		got[i] = int(l.ObjectID())
	}
	sort.Ints(got)
	if len(got) != len(pts) {
		t.Fatalf("Expected %d objects, got %d", len(pts), len(got))
	}
	for i, id := range got {
		if id != i+1 {
			t.Fatalf("Object %d missing or duplicated", i+1)
		}
	}

	size, err := tree.Size()
	if err != nil || size != len(pts) {
		t.Errorf("Expected size %d, got %d (%v)", len(pts), size, err)
	}
	nodes, err := tree.LeafNodes()
	if err != nil {
		t.Fatalf("Failed to list leaf nodes: %v", err)
	}
	if len(nodes) < len(pts)/3 {
		t.Errorf("Expected at least %d leaf nodes, got %d", len(pts)/3, len(nodes))
	}
}

func TestInsertAll(t *testing.T) {
	pts := points{5, 1, 9, 3, 7, 2, 8}
	var hookCalls int
	tree, err := OpenTree(NewInMemoryPager(DefaultPageSize), Settings{
		Distance: pts,
		PreInsert: func(*Tree, *LeafEntry) error {
			hookCalls++
			return nil
		},
	}, testConfig(3, 3))
	if err != nil {
		t.Fatalf("Failed to create tree: %v", err)
	}

	entries := make([]*LeafEntry, len(pts))
	for i, id := range pts.ids() {
		entries[i] = NewLeafEntry(id)
	}
	if err := tree.InsertAll(entries); err != nil {
		t.Fatalf("Failed to insert entries: %v", err)
	}
	if hookCalls != 0 {
		t.Errorf("InsertAll must not run the pre-insert hook, ran %d times", hookCalls)
	}
	if err := tree.Insert(NewLeafEntry(1), true); err != nil {
		t.Fatalf("Failed to insert with hook: %v", err)
	}
	if hookCalls != 1 {
		t.Errorf("Expected 1 hook call, got %d", hookCalls)
	}
	checkInvariants(t, tree)
}

func TestPreInsertErrorAborts(t *testing.T) {
	pts := points{1, 2}
	boom := errors.New("boom")
	tree, err := OpenTree(NewInMemoryPager(DefaultPageSize), Settings{
		Distance:  pts,
		PreInsert: func(*Tree, *LeafEntry) error { return boom },
	}, testConfig(3, 3))
	if err != nil {
		t.Fatalf("Failed to create tree: %v", err)
	}
	if err := tree.InsertObject(1); !errors.Is(err, boom) {
		t.Fatalf("Expected hook error, got %v", err)
	}
	size, _ := tree.Size()
	if size != 0 {
		t.Errorf("Expected no objects after a failed insert, got %d", size)
	}
}

func TestInsertRejectsNoObject(t *testing.T) {
	pts := points{0, 1}
	tree := newTestTree(t, pts, testConfig(3, 3))

	if err := tree.InsertObject(NoObject); !errors.Is(err, ErrIllegalOperation) {
		t.Fatalf("Expected ErrIllegalOperation for object %d, got %v", NoObject, err)
	}
	if err := tree.InsertAll([]*LeafEntry{NewLeafEntry(1), NewLeafEntry(NoObject)}); !errors.Is(err, ErrIllegalOperation) {
		t.Fatalf("Expected ErrIllegalOperation from InsertAll, got %v", err)
	}
	size, err := tree.Size()
	if err != nil {
		t.Fatalf("Failed to get size: %v", err)
	}
	if size != 1 {
		t.Errorf("Expected only object 1 indexed, got %d objects", size)
	}
	checkInvariants(t, tree)
}

// writeCountingStore records the page of every node written through it.
type writeCountingStore struct {
	NodeStore
	writes []PageID
}

func (s *writeCountingStore) WriteNode(n *Node) error {
	s.writes = append(s.writes, n.ID())
	return s.NodeStore.WriteNode(n)
}

// TestAdjustStopsWhenCoverUnchanged builds a height 2 tree by hand:
//
//	root -> A(routing 3, cr 11) -> L1{0,1}(routing 1), L2{10,11}(routing 4)
//	     -> B(routing 5, cr 1)  -> L3{100,101}(routing 5)
//
// and inserts 0.5, which fits inside every ball on its path.
func TestAdjustStopsWhenCoverUnchanged(t *testing.T) {
	pts := points{0, 1, 10, 11, 100, 101, 0.5}
	cfg := testConfig(4, 4)
	cfg.ExtraIntegrityChecks = false

	pf, err := NewPageFile(NewInMemoryPager(DefaultPageSize), cfg)
	if err != nil {
		t.Fatalf("Failed to create page file: %v", err)
	}
	root, err := pf.NewDirectoryNode()
	if err != nil {
		t.Fatalf("Failed to allocate root: %v", err)
	}
	if root.ID() != RootPageID {
		t.Fatalf("Expected root on page %d, got %d", RootPageID, root.ID())
	}

	leaf := func(ids []ObjectID, pds []float64) *Node {
		n, err := pf.NewLeafNode()
		if err != nil {
			t.Fatalf("Failed to allocate leaf: %v", err)
		}
		for i, id := range ids {
			e := NewLeafEntry(id)
			e.SetParentDistance(pds[i])
			if err := n.addLeafEntry(e); err != nil {
				t.Fatalf("Failed to add leaf entry: %v", err)
			}
		}
		return n
	}
	dir := func(entries ...*DirectoryEntry) *Node {
		n, err := pf.NewDirectoryNode()
		if err != nil {
			t.Fatalf("Failed to allocate directory node: %v", err)
		}
		for _, e := range entries {
			if err := n.addDirectoryEntry(e); err != nil {
				t.Fatalf("Failed to add directory entry: %v", err)
			}
		}
		return n
	}

	l1 := leaf([]ObjectID{1, 2}, []float64{0, 1})
	l2 := leaf([]ObjectID{3, 4}, []float64{1, 0})
	l3 := leaf([]ObjectID{5, 6}, []float64{0, 1})
	a := dir(NewDirectoryEntry(l1.ID(), 1, 10, 1), NewDirectoryEntry(l2.ID(), 4, 1, 1))
	b := dir(NewDirectoryEntry(l3.ID(), 5, 0, 1))
	for _, de := range []*DirectoryEntry{
		NewDirectoryEntry(a.ID(), 3, 0, 11),
		NewDirectoryEntry(b.ID(), 5, 0, 1),
	} {
		if err := root.addDirectoryEntry(de); err != nil {
			t.Fatalf("Failed to add root entry: %v", err)
		}
	}
	for _, n := range []*Node{l1, l2, l3, a, b, root} {
		if err := pf.WriteNode(n); err != nil {
			t.Fatalf("Failed to write %s: %v", n, err)
		}
	}
	h := pf.Header()
	h.Initialized = true
	if err := pf.SetHeader(h); err != nil {
		t.Fatalf("Failed to set header: %v", err)
	}

	store := &writeCountingStore{NodeStore: pf}
	tree, err := NewTree(store, Settings{Distance: pts}, cfg)
	if err != nil {
		t.Fatalf("Failed to open tree: %v", err)
	}
	if err := tree.IntegrityCheck(); err != nil {
		t.Fatalf("Hand-built tree is inconsistent: %v", err)
	}
	tree.ResetStatistics()

	if err := tree.InsertObject(7); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}

	if len(store.writes) != 1 || store.writes[0] != l1.ID() {
		t.Errorf("Expected a single write of leaf %d, got %v", l1.ID(), store.writes)
	}
	// two per directory level while choosing the leaf, one for the leaf parent distance
	if n := tree.Statistics().DistanceCalcs(); n != 5 {
		t.Errorf("Expected 5 distance computations, got %d", n)
	}

	got, err := tree.ReadNode(l1.ID())
	if err != nil {
		t.Fatalf("Failed to read leaf: %v", err)
	}
	if got.NumEntries() != 3 || got.Entry(2).ParentDistance() != 0.5 {
		t.Errorf("Unexpected leaf after insert: %s", got)
	}
	if err := tree.IntegrityCheck(); err != nil {
		t.Errorf("Integrity check failed after insert: %v", err)
	}
	checkInvariants(t, tree)
}

// TestDistanceCounting: NoObject and equal ids are free
func TestDistanceCounting(t *testing.T) {
	pts := points{0, 4}
	tree := newTestTree(t, pts, testConfig(3, 3))

	if d := tree.Distance(1, NoObject); d != 0 {
		t.Errorf("Expected 0 against NoObject, got %g", d)
	}
	if d := tree.Distance(2, 2); d != 0 {
		t.Errorf("Expected 0 for equal ids, got %g", d)
	}
	if n := tree.Statistics().DistanceCalcs(); n != 0 {
		t.Errorf("Expected no counted distances, got %d", n)
	}
	if d := tree.Distance(1, 2); d != 4 {
		t.Errorf("Expected 4, got %g", d)
	}
	if n := tree.Statistics().DistanceCalcs(); n != 1 {
		t.Errorf("Expected 1 counted distance, got %d", n)
	}
	tree.ResetStatistics()
	if n := tree.Statistics().DistanceCalcs(); n != 0 {
		t.Errorf("Expected counters reset, got %d", n)
	}
}

func TestSortedEntries(t *testing.T) {
	pts := points{0, 10, 20, 4}
	tree := newTestTree(t, pts, testConfig(3, 10))

	n := newNode(5, false, 10)
	n.addDirectoryEntry(NewDirectoryEntry(6, 3, 0, 1))  // at 20, r=1 -> 15
	n.addDirectoryEntry(NewDirectoryEntry(7, 1, 0, 5))  // at 0, r=5 -> 0
	n.addDirectoryEntry(NewDirectoryEntry(8, 2, 0, 2))  // at 10, r=2 -> 4
	n.addDirectoryEntry(NewDirectoryEntry(9, 1, 0, 10)) // at 0, r=10 -> 0

	sorted := tree.SortedEntries(n, 4)
	wantOrder := []int{1, 3, 2, 0}
	for i, ed := range sorted {
		if ed.Index != wantOrder[i] {
			t.Fatalf("Expected order %v, got %v", wantOrder, sorted)
		}
	}
	if sorted[2].MinDist != 4 || sorted[3].MinDist != 15 {
		t.Errorf("Unexpected lower bounds %v", sorted)
	}
}

func TestAdjustEntryIdempotent(t *testing.T) {
	n := newNode(3, true, 4)
	n.addLeafEntry(&LeafEntry{objectID: 1, parentDistance: 2})
	n.addLeafEntry(&LeafEntry{objectID: 2, parentDistance: 5})

	e := NewDirectoryEntry(3, 7, 0, 0)
	if !n.AdjustEntry(e, 9, 1.5) {
		t.Fatalf("Expected first adjustment to change the entry")
	}
	if e.RoutingObjectID() != 9 || e.ParentDistance() != 1.5 || e.CoveringRadius() != 5 {
		t.Errorf("Unexpected entry after adjustment: %s", e)
	}
	if n.AdjustEntry(e, 9, 1.5) {
		t.Errorf("Expected repeated adjustment to report no change")
	}
}

func TestReopenOnDisk(t *testing.T) {
	testDir := filepath.Join(os.TempDir(), "mtreedb_reopen_test")
	os.MkdirAll(testDir, 0755)
	defer os.RemoveAll(testDir)
	indexPath := filepath.Join(testDir, "reopen.mtree")
	os.Remove(indexPath)

	rng := rand.New(rand.NewSource(7))
	pts := make(points, 100)
	for i := range pts {
		pts[i] = math.Round(rng.Float64()*10000) / 10
	}

	pager, err := NewOnDiskPager(indexPath, DefaultPageSize)
	if err != nil {
		t.Fatalf("Failed to create disk pager: %v", err)
	}
	tree, err := OpenTree(pager, Settings{Distance: pts}, testConfig(5, 5))
	if err != nil {
		t.Fatalf("Failed to create tree: %v", err)
	}
	insertAll(t, tree, pts.ids()[:60]...)
	height, _ := tree.Height()
	rootCR := tree.RootEntry().CoveringRadius()
	if err := tree.Sync(); err != nil {
		t.Fatalf("Failed to sync: %v", err)
	}
	if err := tree.Close(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}

	// capacities come from the meta page, not from the new config
	pager, err = NewOnDiskPager(indexPath, DefaultPageSize)
	if err != nil {
		t.Fatalf("Failed to reopen disk pager: %v", err)
	}
	tree, err = OpenTree(pager, Settings{Distance: pts}, testConfig(0, 0))
	if err != nil {
		t.Fatalf("Failed to reopen tree: %v", err)
	}
	defer tree.Close()

	if h, _ := tree.Height(); h != height {
		t.Errorf("Expected height %d after reopen, got %d", height, h)
	}
	if cr := tree.RootEntry().CoveringRadius(); cr != rootCR {
		t.Errorf("Expected root covering radius %g after reopen, got %g", rootCR, cr)
	}
	if err := tree.IntegrityCheck(); err != nil {
		t.Fatalf("Reopened tree is inconsistent: %v", err)
	}

	insertAll(t, tree, pts.ids()[60:]...)
	checkInvariants(t, tree)
	checkCoverage(t, tree, pts)
	size, err := tree.Size()
	if err != nil || size != len(pts) {
		t.Errorf("Expected %d objects, got %d (%v)", len(pts), size, err)
	}
}

func TestTreeString(t *testing.T) {
	pts := points{0, 1, 10, 11}
	tree := newTestTree(t, pts, testConfig(3, 3))
	insertAll(t, tree, pts.ids()...)

	s := tree.String()
	for _, want := range []string{"height = 2", "1 directory nodes", "2 data nodes", "4 objects"} {
		if !strings.Contains(s, want) {
			t.Errorf("Expected %q in\n%s", want, s)
		}
	}
}

func TestInvalidSettings(t *testing.T) {
	if _, err := OpenTree(NewInMemoryPager(DefaultPageSize), Settings{}, testConfig(3, 3)); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected invalid config without a distance, got %v", err)
	}
	if _, err := OpenTree(NewInMemoryPager(DefaultPageSize), Settings{Distance: points{}}, testConfig(2, 3)); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected invalid config for leaf capacity 2, got %v", err)
	}
	if _, err := OpenTree(NewInMemoryPager(1024), Settings{Distance: points{}}, testConfig(3, 3)); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected invalid config for mismatched page size, got %v", err)
	}
}
