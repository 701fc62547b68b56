// Package engine implements the per-span normalization path: signature
// detection, navigation-rule extraction with array reconstruction, and
// canonical event assembly. Everything here is a pure function of one
// span's attributes and an immutable compiled bundle, so concurrent
// invocations need no locking.
package engine

import (
	"github.com/getcanon/canon/bundle"
	"github.com/getcanon/canon/core"
)

// Detect maps a span's attribute-key shape to a provider id. It returns
// core.ProviderUnknown when no compiled signature qualifies; that is a
// valid terminal outcome enabling pass-through downstream, not an error.
//
// Cost is bounded by the span's own key count: observed keys are
// normalized to shapes once, each shape probes the bundle's anchor index,
// and only anchored candidates have their full signature verified. The
// number of compiled providers never enters the loop.
func Detect(b *bundle.Bundle, attrs core.AttributeSet) string {
	if p := DetectProvider(b, attrs); p != nil {
		return p.ID
	}
	return core.ProviderUnknown
}

// DetectProvider is Detect returning the compiled provider, or nil for the
// unknown outcome.
func DetectProvider(b *bundle.Bundle, attrs core.AttributeSet) *bundle.Provider {
	if b == nil || len(attrs) == 0 {
		return nil
	}
	shapes := attrs.Shapes()

	var best *bundle.Provider
	seen := make(map[string]struct{})
	for shape := range shapes {
		for _, cand := range b.CandidatesFor(shape) {
			if _, done := seen[cand.ID]; done {
				continue
			}
			seen[cand.ID] = struct{}{}
			if !signaturePresent(cand, shapes) {
				continue
			}
			best = moreSpecific(best, cand)
		}
	}
	return best
}

// signaturePresent reports whether every required shape of p occurs in the
// observed shape set.
func signaturePresent(p *bundle.Provider, shapes map[string]struct{}) bool {
	for _, s := range p.Signature {
		if _, ok := shapes[s]; !ok {
			return false
		}
	}
	return true
}

// moreSpecific picks the winner between the current best and a new
// qualifying candidate: larger required-signature cardinality first (most
// specific evidence wins), then earlier declaration priority.
func moreSpecific(best, cand *bundle.Provider) *bundle.Provider {
	if best == nil {
		return cand
	}
	if len(cand.Signature) != len(best.Signature) {
		if len(cand.Signature) > len(best.Signature) {
			return cand
		}
		return best
	}
	if cand.Priority < best.Priority {
		return cand
	}
	return best
}
