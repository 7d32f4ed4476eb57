package mtree

import "github.com/cockroachdb/errors"

var (
	// ErrIllegalOperation is returned when a leaf entry is asked to take a
	// routing object or a covering radius.
	ErrIllegalOperation = errors.New("illegal operation")

	// ErrStructuralInconsistency is returned by the integrity check when the
	// persisted tree violates one of its invariants.
	ErrStructuralInconsistency = errors.New("structural inconsistency")

	ErrInvalidConfig = errors.New("invalid config")
	ErrPageNotFound  = errors.New("page not found")
	ErrPagerClosed   = errors.New("pager is closed")
	ErrChecksum      = errors.New("page checksum mismatch")
)
