// Pattern grammar for source patterns and key-shape normalization.
// A shape is an attribute key with every all-digit dot-segment replaced by
// the "#" wildcard; a source pattern uses the same grammar, with "#"
// capturing the matched index.

package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Wildcard is the segment marker that stands for one-or-more digits in
// signatures and source patterns.
const Wildcard = "#"

// NormalizeShape replaces every all-digit segment of key with the wildcard
// marker, producing the index-normalized shape used for signature matching.
// "gen_ai.prompt.0.content" and "gen_ai.prompt.17.content" normalize to the
// same shape "gen_ai.prompt.#.content".
func NormalizeShape(key string) string {
	segs := strings.Split(key, ".")
	changed := false
	for i, s := range segs {
		if isIndexSegment(s) {
			segs[i] = Wildcard
			changed = true
		}
	}
	if !changed {
		return key
	}
	return strings.Join(segs, ".")
}

// isIndexSegment reports whether s is a non-empty run of decimal digits.
func isIndexSegment(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Step is one navigation step below a rule's pattern: either an object field
// or an array index.
type Step struct {
	Field   string
	Index   int
	IsIndex bool
}

// String renders the step the way it appears in a flattened key.
func (s Step) String() string {
	if s.IsIndex {
		return strconv.Itoa(s.Index)
	}
	return s.Field
}

// StepPath joins steps back into dotted-key form, for diagnostics.
func StepPath(steps []Step) string {
	parts := make([]string, len(steps))
	for i, s := range steps {
		parts[i] = s.String()
	}
	return strings.Join(parts, ".")
}

// Pattern is a compiled source pattern. Compilation happens once, at bundle
// compile/load time; matching is a per-segment walk with no regexp involved.
type Pattern struct {
	raw      string
	segments []string
	wild     int // number of # segments
}

// CompilePattern parses and validates a source pattern.
func CompilePattern(raw string) (*Pattern, error) {
	if raw == "" {
		return nil, fmt.Errorf("empty source pattern")
	}
	segs := strings.Split(raw, ".")
	wild := 0
	for _, s := range segs {
		if s == "" {
			return nil, fmt.Errorf("pattern %q has an empty segment", raw)
		}
		if s == Wildcard {
			wild++
			continue
		}
		if strings.Contains(s, Wildcard) {
			return nil, fmt.Errorf("pattern %q: wildcard must be a whole segment", raw)
		}
	}
	return &Pattern{raw: raw, segments: segs, wild: wild}, nil
}

// Raw returns the original pattern text.
func (p *Pattern) Raw() string { return p.raw }

// Wildcards returns the number of index wildcards in the pattern.
func (p *Pattern) Wildcards() int { return p.wild }

// Shape returns the pattern in shape form. Since index positions are already
// written as wildcards, this is the raw pattern itself.
func (p *Pattern) Shape() string { return p.raw }

// MatchExact matches key against the full pattern and returns the captured
// indices, one per wildcard segment, in left-to-right order.
func (p *Pattern) MatchExact(key string) ([]int, bool) {
	segs := strings.Split(key, ".")
	if len(segs) != len(p.segments) {
		return nil, false
	}
	return p.matchSegments(segs)
}

// MatchPrefix matches the pattern against the leading segments of key and
// parses the remaining suffix into field/index steps. Indices captured by
// wildcards in the prefix become leading index steps, so a pattern like
// "gen_ai.completion.#.message.tool_calls" yields steps beginning with the
// completion index followed by the tool-call suffix. The key must extend
// past the pattern by at least one segment.
func (p *Pattern) MatchPrefix(key string) ([]Step, bool) {
	segs := strings.Split(key, ".")
	if len(segs) <= len(p.segments) {
		return nil, false
	}
	indices, ok := p.matchSegments(segs[:len(p.segments)])
	if !ok {
		return nil, false
	}
	steps := make([]Step, 0, len(indices)+len(segs)-len(p.segments))
	for _, idx := range indices {
		steps = append(steps, Step{Index: idx, IsIndex: true})
	}
	for _, s := range segs[len(p.segments):] {
		if isIndexSegment(s) {
			idx, err := strconv.Atoi(s)
			if err != nil {
				return nil, false
			}
			steps = append(steps, Step{Index: idx, IsIndex: true})
			continue
		}
		steps = append(steps, Step{Field: s})
	}
	return steps, true
}

// matchSegments walks pattern segments against key segments of equal length.
func (p *Pattern) matchSegments(segs []string) ([]int, bool) {
	var indices []int
	for i, ps := range p.segments {
		if ps == Wildcard {
			if !isIndexSegment(segs[i]) {
				return nil, false
			}
			idx, err := strconv.Atoi(segs[i])
			if err != nil {
				return nil, false
			}
			indices = append(indices, idx)
			continue
		}
		if ps != segs[i] {
			return nil, false
		}
	}
	return indices, true
}
