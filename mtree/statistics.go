package mtree

import (
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

// Statistics counts the work done by a tree since it was opened.
type Statistics struct {
	distanceCalcs uint64
	knnQueries    uint64
	rangeQueries  uint64
}

func (s Statistics) DistanceCalcs() uint64 { return s.distanceCalcs }
func (s Statistics) KNNQueries() uint64    { return s.knnQueries }
func (s Statistics) RangeQueries() uint64  { return s.rangeQueries }

// Statistics returns a snapshot of the counters.
func (t *Tree) Statistics() Statistics {
	return *t.stats
}

// ResetStatistics zeroes all counters.
func (t *Tree) ResetStatistics() {
	*t.stats = Statistics{}
}

// LogStatistics writes the tree shape, counters and cache metrics at info level.
func (t *Tree) LogStatistics() {
	fields := logrus.Fields{
		"distance_calcs": humanize.Comma(int64(t.stats.distanceCalcs)),
		"knn_queries":    humanize.Comma(int64(t.stats.knnQueries)),
		"range_queries":  humanize.Comma(int64(t.stats.rangeQueries)),
	}
	if t.initialized {
		if h, err := t.Height(); err == nil {
			fields["height"] = h
		}
	}
	if pf, ok := t.store.(*PageFile); ok {
		hits, misses := pf.CacheMetrics()
		fields["cache_hits"] = humanize.Comma(int64(hits))
		fields["cache_misses"] = humanize.Comma(int64(misses))
	}
	t.log.WithFields(fields).Info("statistics")
}
