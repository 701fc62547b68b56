// Array reconstructor: rebuilds nested arrays and objects from
// index-flattened attribute keys.

package engine

import (
	"fmt"
	"sort"

	"github.com/getcanon/canon/core"
)

// Match is one attribute key matched by a reconstruction rule: the key
// itself, its navigation steps below the rule's pattern, and the raw value.
type Match struct {
	Key   string
	Steps []core.Step
	Value any
}

// node is one level of the intermediate tree built while folding matches.
// A node is exactly one of a leaf value, an index level, or a field level;
// the first match to reach a node fixes its kind.
type node struct {
	leaf    bool
	value   any
	indices map[int]*node
	fields  map[string]*node
}

// Reconstruct folds matches into an intermediate tree and materializes it:
// each index level becomes a sequence ordered by ascending numeric index
// (index 2 sorts before index 10), each field level becomes an object.
// Sparse indices are preserved as given without placeholder nulls.
//
// Conflicting values at one leaf path resolve first-seen-wins (first in
// the caller's match order, which Extract fixes to ascending lexical key
// order) and raise an ArrayReconstructionAmbiguity diagnostic, never a
// failure.
func Reconstruct(matches []Match) (any, []core.Diagnostic) {
	root := &node{}
	var diags []core.Diagnostic

	for _, m := range matches {
		if d, ok := fold(root, m); !ok {
			diags = append(diags, d)
		}
	}
	return materialize(root), diags
}

// fold inserts one match into the tree, reporting a diagnostic when the
// match conflicts with structure already in place.
func fold(root *node, m Match) (core.Diagnostic, bool) {
	cur := root
	for _, step := range m.Steps {
		if cur.leaf {
			return ambiguity(m, "leaf value already recorded above this path"), false
		}
		if step.IsIndex {
			if cur.fields != nil {
				return ambiguity(m, "index step collides with object fields"), false
			}
			if cur.indices == nil {
				cur.indices = make(map[int]*node)
			}
			next, ok := cur.indices[step.Index]
			if !ok {
				next = &node{}
				cur.indices[step.Index] = next
			}
			cur = next
			continue
		}
		if cur.indices != nil {
			return ambiguity(m, "field step collides with array indices"), false
		}
		if cur.fields == nil {
			cur.fields = make(map[string]*node)
		}
		next, ok := cur.fields[step.Field]
		if !ok {
			next = &node{}
			cur.fields[step.Field] = next
		}
		cur = next
	}

	if cur.leaf || cur.indices != nil || cur.fields != nil {
		return ambiguity(m, "conflicting value at identical index path, keeping first"), false
	}
	cur.leaf = true
	cur.value = m.Value
	return core.Diagnostic{}, true
}

func ambiguity(m Match, msg string) core.Diagnostic {
	return core.Diagnostic{
		Kind:    core.DiagArrayAmbiguity,
		Path:    core.StepPath(m.Steps),
		Message: fmt.Sprintf("%s (key %q)", msg, m.Key),
	}
}

// materialize flattens the intermediate tree bottom-up.
func materialize(n *node) any {
	switch {
	case n.leaf:
		return n.value
	case n.indices != nil:
		idx := make([]int, 0, len(n.indices))
		for i := range n.indices {
			idx = append(idx, i)
		}
		sort.Ints(idx)
		out := make([]any, 0, len(idx))
		for _, i := range idx {
			out = append(out, materialize(n.indices[i]))
		}
		return out
	case n.fields != nil:
		out := make(map[string]any, len(n.fields))
		for k, child := range n.fields {
			out[k] = materialize(child)
		}
		return out
	default:
		return nil
	}
}
