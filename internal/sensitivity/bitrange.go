package sensitivity

import (
	"iter"
	"strconv"

	"github.com/robert-at-pretension-io/vhdl-senscheck/internal/model"
)

// BitRange is an inclusive span of bit indices.
type BitRange struct {
	Min int
	Max int
}

// ResolveRange returns the index span of a vector-shaped reference. The
// direction decides which declared bound is the low one. The second result
// is false for scalar references.
func ResolveRange(s model.SignalRef) (BitRange, bool) {
	if !s.VectorShaped() {
		return BitRange{}, false
	}
	if s.Ascending {
		return BitRange{Min: s.Left, Max: s.Right}, true
	}
	return BitRange{Min: s.Right, Max: s.Left}, true
}

// Len is the number of indices in the range; inverted ranges are empty.
func (r BitRange) Len() int {
	if r.Max < r.Min {
		return 0
	}
	return r.Max - r.Min + 1
}

// Contains reports whether i lies in the range.
func (r BitRange) Contains(i int) bool {
	return i >= r.Min && i <= r.Max
}

// Indices yields Min..Max in ascending order. The sequence can be ranged
// over any number of times.
func (r BitRange) Indices() iter.Seq[int] {
	return func(yield func(int) bool) {
		if r.Max < r.Min {
			return
		}
		for i := r.Min; ; i++ {
			if !yield(i) || i == r.Max {
				return
			}
		}
	}
}

// BitName renders the reference to a single bit of a vector.
func BitName(vectorName string, index int) string {
	return vectorName + "(" + strconv.Itoa(index) + ")"
}
