// Navigation rule engine: applies a provider's ordered rule set to one
// span's attributes. Rules are independent of one another; declaration
// order only makes diagnostics deterministic.

package engine

import (
	"fmt"

	"github.com/getcanon/canon/bundle"
	"github.com/getcanon/canon/core"
)

// Extract applies every navigation rule of p to attrs and returns the
// extraction result per rule id, plus the diagnostics raised along the way.
// A rule with no match and no null/fallback policy is an extraction gap: it
// is absent from the result map and recorded as a diagnostic, never an
// error.
func Extract(p *bundle.Provider, attrs core.AttributeSet) (map[string]core.Extraction, []core.Diagnostic) {
	results := make(map[string]core.Extraction, len(p.Rules))
	var diags []core.Diagnostic

	// One sorted key pass shared by all reconstruction rules keeps the
	// "first-seen" conflict policy deterministic.
	sortedKeys := attrs.Keys()

	for i := range p.Rules {
		rule := &p.Rules[i]
		switch rule.Method {
		case core.DirectCopy, core.PreserveJSONString:
			// The compiler guarantees these patterns carry no index
			// wildcards, so matching is a single map lookup. For
			// preserve_json_string the value is copied verbatim and
			// never decoded, whatever its content.
			if v, ok := attrs[rule.Pattern.Raw()]; ok {
				results[rule.ID] = core.Extraction{Value: v}
				continue
			}
			if d, ok := missPolicy(rule, results); ok {
				diags = append(diags, d)
			}

		case core.ArrayReconstruction:
			matches := collectMatches(rule, attrs, sortedKeys)
			if len(matches) == 0 {
				if d, ok := missPolicy(rule, results); ok {
					diags = append(diags, d)
				}
				continue
			}
			value, ds := Reconstruct(matches)
			for _, d := range ds {
				d.Rule = rule.ID
				diags = append(diags, d)
			}
			results[rule.ID] = core.Extraction{Value: value}
		}
	}
	return results, diags
}

// collectMatches gathers the keys under rule's prefix pattern in ascending
// lexical order.
func collectMatches(rule *bundle.Rule, attrs core.AttributeSet, sortedKeys []string) []Match {
	var matches []Match
	for _, key := range sortedKeys {
		steps, ok := rule.Pattern.MatchPrefix(key)
		if !ok {
			continue
		}
		matches = append(matches, Match{Key: key, Steps: steps, Value: attrs[key]})
	}
	return matches
}

// missPolicy resolves a rule with no matching key: explicit null when
// nullable, the declared fallback when present, otherwise an extraction-gap
// diagnostic with the rule omitted from the results.
func missPolicy(rule *bundle.Rule, results map[string]core.Extraction) (core.Diagnostic, bool) {
	if rule.Nullable {
		results[rule.ID] = core.Extraction{Null: true}
		return core.Diagnostic{}, false
	}
	if rule.Fallback != nil {
		results[rule.ID] = core.Extraction{Value: rule.Fallback}
		return core.Diagnostic{}, false
	}
	return core.Diagnostic{
		Kind:    core.DiagExtractionGap,
		Rule:    rule.ID,
		Message: fmt.Sprintf("no attribute matches %q", rule.Pattern.Raw()),
	}, true
}
