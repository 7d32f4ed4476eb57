package space

import (
	"io"
	"math"
	"os"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"MTreeDB/kvstore"
	"MTreeDB/mtree"
)

func TestMetrics(t *testing.T) {
	a := []float64{0, 0}
	b := []float64{3, 4}
	cases := []struct {
		m    Metric
		want float64
	}{
		{Euclidean, 5},
		{Manhattan, 7},
		{Chebyshev, 4},
	}
	for _, c := range cases {
		if d := c.m.Distance(a, b); math.Abs(d-c.want) > 1e-12 {
			t.Errorf("%s: expected %g, got %g", c.m.Name(), c.want, d)
		}
		parsed, err := ParseMetric(c.m.Name())
		if err != nil || parsed.Name() != c.m.Name() {
			t.Errorf("Failed to parse %s: %v", c.m.Name(), err)
		}
	}
	if _, err := ParseMetric("cosine"); err == nil {
		t.Errorf("Expected an error for an unknown metric")
	}
}

func TestSpaceDistance(t *testing.T) {
	s := New(Euclidean, 2)
	a, err := s.Add([]float64{1, 1})
	if err != nil {
		t.Fatalf("Failed to add vector: %v", err)
	}
	if a == mtree.NoObject {
		t.Fatalf("Vector ids must not collide with NoObject")
	}
	b, _ := s.Add([]float64{4, 5})
	if d := s.Distance(a, b); d != 5 {
		t.Errorf("Expected 5, got %g", d)
	}
	if err := s.SetQuery([]float64{1, 2}); err != nil {
		t.Fatalf("Failed to set query: %v", err)
	}
	if d := s.Distance(QueryID, a); d != 1 {
		t.Errorf("Expected 1, got %g", d)
	}
	if d := s.Distance(a, 999); !math.IsNaN(d) {
		t.Errorf("Expected NaN for an unknown id, got %g", d)
	}
	if _, err := s.Add([]float64{1}); !errors.Is(err, ErrDimension) {
		t.Errorf("Expected dimension mismatch, got %v", err)
	}
}

func TestSpacePersistence(t *testing.T) {
	dir, err := os.MkdirTemp("", "mtreedb_space_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	kv, err := kvstore.Open(dir, logger)
	if err != nil {
		t.Fatalf("Failed to open kv store: %v", err)
	}
	defer kv.Close()

	s, err := Open(kv, "s/", Manhattan, 3)
	if err != nil {
		t.Fatalf("Failed to open space: %v", err)
	}
	var ids []mtree.ObjectID
	for i := 0; i < 5; i++ {
		id, err := s.Add([]float64{float64(i), 0, 1})
		if err != nil {
			t.Fatalf("Failed to add vector: %v", err)
		}
		ids = append(ids, id)
	}

	reopened, err := Open(kv, "s/", Manhattan, 3)
	if err != nil {
		t.Fatalf("Failed to reopen space: %v", err)
	}
	if reopened.Len() != 5 {
		t.Fatalf("Expected 5 vectors, got %d", reopened.Len())
	}
	v, ok := reopened.Vector(ids[3])
	if !ok || v[0] != 3 || v[2] != 1 {
		t.Errorf("Unexpected vector %v", v)
	}
	next, err := reopened.Add([]float64{9, 9, 9})
	if err != nil {
		t.Fatalf("Failed to add vector: %v", err)
	}
	if next <= ids[4] {
		t.Errorf("Expected a fresh id after %d, got %d", ids[4], next)
	}
}

// the space serves as the index's distance function
func TestSpaceBacksTree(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	s := New(Euclidean, 2)
	tree, err := mtree.OpenTree(mtree.NewInMemoryPager(mtree.DefaultPageSize),
		mtree.Settings{Distance: s},
		mtree.Config{LeafCapacity: 4, DirCapacity: 4, ExtraIntegrityChecks: true, Logger: logger})
	if err != nil {
		t.Fatalf("Failed to create tree: %v", err)
	}
	for x := 0; x < 10; x++ {
		for y := 0; y < 10; y++ {
			id, err := s.Add([]float64{float64(x), float64(y)})
			if err != nil {
				t.Fatalf("Failed to add vector: %v", err)
			}
			if err := tree.InsertObject(id); err != nil {
				t.Fatalf("Failed to insert %d: %v", id, err)
			}
		}
	}
	s.SetQuery([]float64{4.5, 4.5})
	res, err := tree.KNNQuery(QueryID, 4)
	if err != nil {
		t.Fatalf("Failed to run knn query: %v", err)
	}
	if len(res) != 4 {
		t.Fatalf("Expected 4 neighbors, got %d", len(res))
	}
	for _, n := range res {
		if math.Abs(n.Distance-math.Sqrt(0.5)) > 1e-12 {
			t.Errorf("Expected the 4 grid points around the center, got %+v", n)
		}
	}
}
