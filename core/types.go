// Package core defines the fundamental types for the canon normalization
// engine. It provides the attribute-set input model, the declarative
// provider-definition types consumed by the bundle compiler, and the
// canonical event produced for every processed span.
package core

import (
	"fmt"
	"sort"
)

// AttributeSet is one span's flattened telemetry: a mapping from attribute
// key to a scalar or string value. Nesting is expressed only through
// index-bearing keys such as "gen_ai.completion.0.message.content"; the
// values themselves are never nested.
type AttributeSet map[string]any

// Keys returns the attribute keys in ascending lexical order. The engine
// iterates attributes in this order so that extraction is deterministic
// regardless of Go's randomized map iteration.
func (a AttributeSet) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Shapes returns the set of index-normalized key shapes observed in the
// attribute set (numeric segments replaced with the wildcard marker).
func (a AttributeSet) Shapes() map[string]struct{} {
	shapes := make(map[string]struct{}, len(a))
	for k := range a {
		shapes[NormalizeShape(k)] = struct{}{}
	}
	return shapes
}

// ProviderUnknown is the sentinel provider id reported when no compiled
// signature matches a span's attribute-key shape. It is a valid terminal
// detection outcome, not an error.
const ProviderUnknown = "unknown"

// Section identifies one of the four canonical event sections.
type Section string

const (
	// SectionInputs holds what was sent to the model (messages, prompts).
	SectionInputs Section = "inputs"
	// SectionOutputs holds what the model produced (completions, tool calls).
	SectionOutputs Section = "outputs"
	// SectionConfig holds invocation configuration (model, parameters).
	SectionConfig Section = "config"
	// SectionMetadata holds everything else (provider, usage, identifiers).
	SectionMetadata Section = "metadata"
)

// Valid reports whether s is one of the four canonical sections.
func (s Section) Valid() bool {
	switch s {
	case SectionInputs, SectionOutputs, SectionConfig, SectionMetadata:
		return true
	}
	return false
}

// Sections lists the canonical sections in their fixed output order.
func Sections() []Section {
	return []Section{SectionInputs, SectionOutputs, SectionConfig, SectionMetadata}
}

// ExtractionMethod is the closed set of ways a navigation rule pulls a value
// out of an attribute set. The compiler rejects any other value, so the
// runtime dispatch over methods is a total switch.
type ExtractionMethod string

const (
	// DirectCopy matches exactly one non-indexed key and returns its raw
	// value unchanged.
	DirectCopy ExtractionMethod = "direct_copy"
	// ArrayReconstruction gathers all keys under an indexed prefix and
	// rebuilds the nested arrays/objects they flatten.
	ArrayReconstruction ExtractionMethod = "array_reconstruction"
	// PreserveJSONString copies the raw value verbatim and guarantees no
	// decoding occurs, even when the value is syntactically valid JSON.
	PreserveJSONString ExtractionMethod = "preserve_json_string"
)

// Valid reports whether m is a known extraction method.
func (m ExtractionMethod) Valid() bool {
	switch m {
	case DirectCopy, ArrayReconstruction, PreserveJSONString:
		return true
	}
	return false
}

// NavigationRule is one declarative extraction rule. SourcePattern is a key
// template in which a "#" segment matches one or more digits; for
// ArrayReconstruction the pattern is a key prefix and the remaining suffix
// of each matching key is parsed into field and index steps.
type NavigationRule struct {
	ID            string           `json:"id" yaml:"id"`
	SourcePattern string           `json:"source_pattern" yaml:"source_pattern"`
	Method        ExtractionMethod `json:"extraction_method" yaml:"extraction_method"`
	Nullable      bool             `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	Fallback      any              `json:"fallback_value,omitempty" yaml:"fallback_value,omitempty"`
	Description   string           `json:"description,omitempty" yaml:"description,omitempty"`
}

// FieldMapping places one rule's extraction into the canonical event.
// Transform optionally names a TransformSpec declared by the same provider;
// it is applied to the extracted value before placement.
type FieldMapping struct {
	Section    Section `json:"target_section" yaml:"target_section"`
	Field      string  `json:"target_field" yaml:"target_field"`
	SourceRule string  `json:"source_rule_id" yaml:"source_rule_id"`
	Transform  string  `json:"transform,omitempty" yaml:"transform,omitempty"`
	Required   bool    `json:"required,omitempty" yaml:"required,omitempty"`
}

// TransformSpec declares a provider-local transform: a name referenced by
// field mappings, the registry function it binds to, and fixed parameters
// passed on every invocation. The binding is resolved at compile time and
// re-checked at load time; an unresolved function name is fatal both times.
type TransformSpec struct {
	Name       string         `json:"name" yaml:"name"`
	Function   string         `json:"function_type" yaml:"function_type"`
	Parameters map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// ProviderDefinition is the declarative, pre-compile description of one
// provider convention: the required signature shapes that identify it, the
// ordered navigation rules that extract raw values, the field mappings that
// assemble the canonical event, and the transforms the mappings reference.
type ProviderDefinition struct {
	ID              string           `json:"id" yaml:"id"`
	Signature       []string         `json:"signature" yaml:"signature"`
	NavigationRules []NavigationRule `json:"navigation_rules" yaml:"navigation_rules"`
	FieldMappings   []FieldMapping   `json:"field_mappings" yaml:"field_mappings"`
	Transforms      []TransformSpec  `json:"transforms,omitempty" yaml:"transforms,omitempty"`
}

// Extraction is the outcome of applying one navigation rule. Null marks an
// explicit null produced by a nullable rule with no matching key; it is
// distinct from a missing entry in the extraction map, which means the rule
// was recorded as an extraction gap.
type Extraction struct {
	Value any
	Null  bool
}

// String implements fmt.Stringer for diagnostics output.
func (e Extraction) String() string {
	if e.Null {
		return "<null>"
	}
	return fmt.Sprint(e.Value)
}
