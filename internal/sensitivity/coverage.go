package sensitivity

import (
	"strings"

	"github.com/robert-at-pretension-io/vhdl-senscheck/internal/model"
)

// Coverage classifies how well a set of candidates covers a signal.
type Coverage int

const (
	// None means no candidate covers the signal at all.
	None Coverage = iota
	// PartialBits means some, but not all, bits of a vector are covered.
	PartialBits
	// Full means the signal is covered by name, by its whole vector or bit by bit.
	Full
)

func (c Coverage) String() string {
	switch c {
	case Full:
		return "full"
	case PartialBits:
		return "partial"
	default:
		return "none"
	}
}

// MatchResult is the outcome of Covers. Missing is only set for
// PartialBits and lists uncovered indices in ascending order.
type MatchResult struct {
	Kind    Coverage
	Missing []int
}

// Covers decides whether candidates cover required. Tiers are tried in
// order and the first definitive answer wins:
//
//  1. a candidate with the same rendered name
//  2. a candidate naming the whole vector required belongs to
//  3. candidates on the same vector covering required's bits one by one
//
// When none of them finds any evidence of coverage the result is None.
func Covers(required model.SignalRef, candidates []model.SignalRef) MatchResult {
	for _, c := range candidates {
		if strings.EqualFold(c.Name, required.Name) {
			return MatchResult{Kind: Full}
		}
	}

	if !required.VectorShaped() || required.VectorName == "" {
		return MatchResult{Kind: None}
	}

	for _, c := range candidates {
		if strings.EqualFold(c.Name, required.VectorName) {
			return MatchResult{Kind: Full}
		}
	}

	var siblings []model.SignalRef
	for _, c := range candidates {
		if c.VectorShaped() && strings.EqualFold(c.VectorName, required.VectorName) {
			siblings = append(siblings, c)
		}
	}
	if len(siblings) == 0 {
		return MatchResult{Kind: None}
	}

	span, _ := ResolveRange(required)
	var missing []int
	covered := 0
	for i := range span.Indices() {
		if bitCovered(required.VectorName, i, siblings) {
			covered++
			continue
		}
		missing = append(missing, i)
	}

	switch {
	case covered == 0:
		return MatchResult{Kind: None}
	case len(missing) == 0:
		return MatchResult{Kind: Full}
	default:
		return MatchResult{Kind: PartialBits, Missing: missing}
	}
}

// bitCovered reports whether one of the siblings renders as the given bit
// or is a slice spanning it.
func bitCovered(vectorName string, index int, siblings []model.SignalRef) bool {
	bit := BitName(vectorName, index)
	for _, s := range siblings {
		if strings.EqualFold(s.Name, bit) {
			return true
		}
		if !s.IsPartOfVector {
			continue
		}
		if span, ok := ResolveRange(s); ok && span.Contains(index) {
			return true
		}
	}
	return false
}
