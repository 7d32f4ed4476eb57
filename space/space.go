// Package space holds the vectors behind the object ids of an index and
// computes distances between them.
package space

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/docker/libkv/store"

	"MTreeDB/mtree"
)

// QueryID is the reserved id of the query slot. It never enters the index.
const QueryID mtree.ObjectID = math.MaxUint64

// ErrDimension is returned for a vector whose dimension does not match the space.
var ErrDimension = errors.New("dimension mismatch")

// Space is a registry of float vectors keyed by object id. It implements
// mtree.DistanceFunction. Vectors can be persisted into a libkv store under
// prefix + "vec/<id>".
type Space struct {
	mu      sync.RWMutex
	metric  Metric
	dim     int
	vectors map[mtree.ObjectID][]float64
	query   []float64
	nextID  mtree.ObjectID

	kv     store.Store
	prefix string
}

var _ mtree.DistanceFunction = (*Space)(nil)

// New creates an in-memory space of vectors of dimension dim.
func New(metric Metric, dim int) *Space {
	return &Space{
		metric:  metric,
		dim:     dim,
		vectors: make(map[mtree.ObjectID][]float64),
		nextID:  1, // 0 is mtree.NoObject
	}
}

// Open creates a space backed by kv and loads the vectors already stored there.
func Open(kv store.Store, prefix string, metric Metric, dim int) (*Space, error) {
	s := New(metric, dim)
	s.kv = kv
	s.prefix = prefix

	pairs, err := kv.List(s.prefix + "vec/")
	if err != nil && err != store.ErrKeyNotFound {
		return nil, errors.Wrap(err, "failed to list stored vectors")
	}
	for _, pair := range pairs {
		idStr := strings.TrimPrefix(pair.Key, s.prefix+"vec/")
		n, err := strconv.ParseUint(idStr, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "bad vector key %q", pair.Key)
		}
		v, err := decodeVector(pair.Value, dim)
		if err != nil {
			return nil, errors.Wrapf(err, "vector %d", n)
		}
		id := mtree.ObjectID(n)
		s.vectors[id] = v
		if id >= s.nextID {
			s.nextID = id + 1
		}
	}
	return s, nil
}

func (s *Space) Dim() int       { return s.dim }
func (s *Space) Metric() Metric { return s.metric }

func (s *Space) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

// Add stores v under a fresh object id.
func (s *Space) Add(v []float64) (mtree.ObjectID, error) {
	if len(v) != s.dim {
		return 0, errors.Wrapf(ErrDimension, "got %d values, space has %d dimensions", len(v), s.dim)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	if s.kv != nil {
		if err := s.kv.Put(s.vectorKey(id), encodeVector(v), nil); err != nil {
			return 0, errors.Wrapf(err, "failed to store vector %d", id)
		}
	}
	s.vectors[id] = append([]float64(nil), v...)
	s.nextID++
	return id, nil
}

// Vector returns a copy of the vector stored under id.
func (s *Space) Vector(id mtree.ObjectID) ([]float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.lookup(id)
	if !ok {
		return nil, false
	}
	return append([]float64(nil), v...), true
}

// SetQuery places v in the query slot, addressable as QueryID.
func (s *Space) SetQuery(v []float64) error {
	if len(v) != s.dim {
		return errors.Wrapf(ErrDimension, "got %d values, space has %d dimensions", len(v), s.dim)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = append([]float64(nil), v...)
	return nil
}

// Distance implements mtree.DistanceFunction. Unknown ids yield NaN.
func (s *Space) Distance(a, b mtree.ObjectID) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	va, ok := s.lookup(a)
	if !ok {
		return math.NaN()
	}
	vb, ok := s.lookup(b)
	if !ok {
		return math.NaN()
	}
	return s.metric.Distance(va, vb)
}

func (s *Space) lookup(id mtree.ObjectID) ([]float64, bool) {
	if id == QueryID {
		return s.query, s.query != nil
	}
	v, ok := s.vectors[id]
	return v, ok
}

func (s *Space) vectorKey(id mtree.ObjectID) string {
	return s.prefix + "vec/" + strconv.FormatUint(uint64(id), 10)
}

func encodeVector(v []float64) []byte {
	buf := make([]byte, 8*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(x))
	}
	return buf
}

func decodeVector(buf []byte, dim int) ([]float64, error) {
	if len(buf) != 8*dim {
		return nil, errors.Wrapf(ErrDimension, "stored vector has %d bytes, expected %d", len(buf), 8*dim)
	}
	v := make([]float64, dim)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[8*i:]))
	}
	return v, nil
}
