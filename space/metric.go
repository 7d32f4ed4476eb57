package space

import (
	"math"
	"strings"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/floats"
)

// Metric is a distance between two vectors of the same dimension.
type Metric interface {
	Name() string
	Distance(a, b []float64) float64
}

// Minkowski is the L_p distance. P must be at least 1 to be a metric;
// +Inf gives the Chebyshev distance.
type Minkowski struct {
	P float64
}

func (m Minkowski) Distance(a, b []float64) float64 {
	return floats.Distance(a, b, m.P)
}

func (m Minkowski) Name() string {
	switch m.P {
	case 1:
		return "manhattan"
	case 2:
		return "euclidean"
	}
	if math.IsInf(m.P, 1) {
		return "chebyshev"
	}
	return "minkowski"
}

var (
	Euclidean = Minkowski{P: 2}
	Manhattan = Minkowski{P: 1}
	Chebyshev = Minkowski{P: math.Inf(1)}
)

// ParseMetric maps a metric name to its Metric.
func ParseMetric(name string) (Metric, error) {
	switch strings.ToLower(name) {
	case "", "euclidean", "l2":
		return Euclidean, nil
	case "manhattan", "l1":
		return Manhattan, nil
	case "chebyshev", "linf", "max":
		return Chebyshev, nil
	}
	return nil, errors.Newf("unknown metric %q", name)
}
