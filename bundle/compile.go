// Compiler: validates declarative provider definitions and produces the
// immutable Bundle consumed at runtime. Every transform reference is
// resolved here into a direct function reference, every source pattern is
// compiled, and signature uniqueness is enforced, so the per-span path
// never validates anything.

package bundle

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/getcanon/canon/core"
	"github.com/getcanon/canon/transform"
)

// Rule is a compiled navigation rule.
type Rule struct {
	ID       string
	Method   core.ExtractionMethod
	Pattern  *core.Pattern
	Nullable bool
	// Fallback is used when no key matches and the rule is not nullable.
	// nil means no fallback is declared.
	Fallback any
}

// Mapping is a compiled field mapping with its transform resolved.
type Mapping struct {
	Section    core.Section
	Field      string
	SourceRule string
	Required   bool
	// Transform is the declared transform name, empty when none.
	Transform string
	fn        transform.Func
	params    map[string]any
}

// Apply runs the mapping's transform over a resolved value. It is the
// identity when no transform is declared.
func (m *Mapping) Apply(value any) (any, error) {
	if m.fn == nil {
		return value, nil
	}
	return m.fn(value, m.params)
}

// Provider is one compiled provider definition.
type Provider struct {
	ID string
	// Signature holds the required shapes, sorted, as compiled.
	Signature []string
	// Priority is the provider's declaration index; lower wins signature
	// ties of equal cardinality.
	Priority int
	Rules    []Rule
	Mappings []Mapping

	anchor string
}

// signatureKey returns the canonical form used for uniqueness checking.
func signatureKey(shapes []string) string {
	return strings.Join(shapes, "\x00")
}

// Bundle is the compiled, immutable collection of all providers plus the
// signature lookup index. A Bundle is never mutated after Compile returns;
// a refreshed bundle is a brand new instance.
type Bundle struct {
	// FormatVersion is the artifact format this bundle serializes as.
	FormatVersion string
	// CompiledAt records when compilation happened.
	CompiledAt time.Time

	providers []*Provider
	defs      []core.ProviderDefinition
	byID      map[string]*Provider
	// byAnchor indexes providers by one designated shape of their
	// signature, so detection probes a hash table per observed shape
	// instead of scanning all providers.
	byAnchor map[string][]*Provider
}

// Providers returns the compiled providers in declaration order.
func (b *Bundle) Providers() []*Provider {
	return b.providers
}

// Definitions returns the declarative definitions this bundle was compiled
// from, in declaration order. The artifact writer serializes these.
func (b *Bundle) Definitions() []core.ProviderDefinition {
	return b.defs
}

// Provider returns the compiled provider with the given id, or nil.
func (b *Bundle) Provider(id string) *Provider {
	return b.byID[id]
}

// CandidatesFor returns the providers anchored on the given observed shape.
// Detection still verifies the full signature subset before accepting one.
func (b *Bundle) CandidatesFor(shape string) []*Provider {
	return b.byAnchor[shape]
}

// Compile validates definitions and produces an immutable Bundle. All
// failures are fatal: an unresolved transform, a duplicate required
// signature, an unknown extraction method or target section, a dangling
// source_rule_id, or a duplicate rule id within a provider.
func Compile(defs []core.ProviderDefinition) (*Bundle, error) {
	b := &Bundle{
		FormatVersion: FormatVersion,
		CompiledAt:    time.Now().UTC(),
		byID:          make(map[string]*Provider, len(defs)),
		byAnchor:      make(map[string][]*Provider),
	}
	seenSignatures := make(map[string]string, len(defs))

	for i, def := range defs {
		p, err := compileProvider(def, i)
		if err != nil {
			return nil, err
		}
		if _, dup := b.byID[p.ID]; dup {
			return nil, core.NewBundleError(core.ErrKindInvalidDefinition, p.ID,
				"duplicate provider id")
		}
		key := signatureKey(p.Signature)
		if other, dup := seenSignatures[key]; dup {
			return nil, core.NewBundleError(core.ErrKindAmbiguousSignature, p.ID,
				fmt.Sprintf("required signature identical to provider %q", other))
		}
		seenSignatures[key] = p.ID

		b.providers = append(b.providers, p)
		b.defs = append(b.defs, def)
		b.byID[p.ID] = p
		b.byAnchor[p.anchor] = append(b.byAnchor[p.anchor], p)
	}
	return b, nil
}

func compileProvider(def core.ProviderDefinition, priority int) (*Provider, error) {
	if def.ID == "" {
		return nil, core.NewBundleError(core.ErrKindInvalidDefinition, "", "provider missing id")
	}
	if len(def.Signature) == 0 {
		return nil, core.NewBundleError(core.ErrKindInvalidDefinition, def.ID,
			"provider declares no signature shapes")
	}

	p := &Provider{ID: def.ID, Priority: priority}

	// Normalize and sort the required shapes. Authors write shapes with
	// the wildcard already in place, but raw indices are tolerated.
	shapes := make(map[string]struct{}, len(def.Signature))
	for _, s := range def.Signature {
		if s == "" {
			return nil, core.NewBundleError(core.ErrKindInvalidDefinition, def.ID,
				"empty signature shape")
		}
		shapes[core.NormalizeShape(s)] = struct{}{}
	}
	for s := range shapes {
		p.Signature = append(p.Signature, s)
	}
	sort.Strings(p.Signature)
	p.anchor = chooseAnchor(p.Signature)

	// Rules.
	ruleIDs := make(map[string]struct{}, len(def.NavigationRules))
	for _, nr := range def.NavigationRules {
		if nr.ID == "" {
			return nil, core.NewBundleError(core.ErrKindInvalidDefinition, def.ID,
				"navigation rule missing id")
		}
		if _, dup := ruleIDs[nr.ID]; dup {
			return nil, core.NewBundleError(core.ErrKindInvalidDefinition, def.ID,
				fmt.Sprintf("duplicate rule id %q", nr.ID))
		}
		ruleIDs[nr.ID] = struct{}{}
		if !nr.Method.Valid() {
			return nil, core.NewBundleError(core.ErrKindInvalidDefinition, def.ID,
				fmt.Sprintf("rule %q: unknown extraction method %q", nr.ID, nr.Method))
		}
		pat, err := core.CompilePattern(nr.SourcePattern)
		if err != nil {
			return nil, core.NewBundleError(core.ErrKindInvalidDefinition, def.ID,
				fmt.Sprintf("rule %q: %v", nr.ID, err))
		}
		if nr.Method != core.ArrayReconstruction && pat.Wildcards() > 0 {
			return nil, core.NewBundleError(core.ErrKindInvalidDefinition, def.ID,
				fmt.Sprintf("rule %q: %s pattern must not contain index wildcards", nr.ID, nr.Method))
		}
		p.Rules = append(p.Rules, Rule{
			ID:       nr.ID,
			Method:   nr.Method,
			Pattern:  pat,
			Nullable: nr.Nullable,
			Fallback: nr.Fallback,
		})
	}

	// Transform declarations: each must bind to a registered function, and
	// each must be wired to at least one mapping. A declared-but-unused
	// transform is dead configuration and rejected.
	specs := make(map[string]core.TransformSpec, len(def.Transforms))
	used := make(map[string]bool, len(def.Transforms))
	for _, ts := range def.Transforms {
		if ts.Name == "" {
			return nil, core.NewBundleError(core.ErrKindInvalidDefinition, def.ID,
				"transform declaration missing name")
		}
		if _, dup := specs[ts.Name]; dup {
			return nil, core.NewBundleError(core.ErrKindInvalidDefinition, def.ID,
				fmt.Sprintf("duplicate transform name %q", ts.Name))
		}
		if _, ok := transform.Resolve(ts.Function); !ok {
			return nil, core.NewBundleError(core.ErrKindUnresolvedTransform, def.ID,
				fmt.Sprintf("transform %q references unknown function %q", ts.Name, ts.Function))
		}
		specs[ts.Name] = ts
	}

	// Mappings.
	for _, fm := range def.FieldMappings {
		if !fm.Section.Valid() {
			return nil, core.NewBundleError(core.ErrKindInvalidDefinition, def.ID,
				fmt.Sprintf("mapping %q: unknown target section %q", fm.Field, fm.Section))
		}
		if fm.Field == "" {
			return nil, core.NewBundleError(core.ErrKindInvalidDefinition, def.ID,
				"mapping missing target field")
		}
		if _, ok := ruleIDs[fm.SourceRule]; !ok {
			return nil, core.NewBundleError(core.ErrKindInvalidDefinition, def.ID,
				fmt.Sprintf("mapping %q references unknown rule %q", fm.Field, fm.SourceRule))
		}
		m := Mapping{
			Section:    fm.Section,
			Field:      fm.Field,
			SourceRule: fm.SourceRule,
			Required:   fm.Required,
			Transform:  fm.Transform,
		}
		if fm.Transform != "" {
			ts, ok := specs[fm.Transform]
			if !ok {
				return nil, core.NewBundleError(core.ErrKindUnresolvedTransform, def.ID,
					fmt.Sprintf("mapping %q references undeclared transform %q", fm.Field, fm.Transform))
			}
			fn, _ := transform.Resolve(ts.Function)
			m.fn = fn
			m.params = ts.Parameters
			used[fm.Transform] = true
		}
		p.Mappings = append(p.Mappings, m)
	}

	for name := range specs {
		if !used[name] {
			return nil, core.NewBundleError(core.ErrKindInvalidDefinition, def.ID,
				fmt.Sprintf("transform %q declared but wired to no mapping", name))
		}
	}
	return p, nil
}

// chooseAnchor picks the designated index shape for a signature: the
// longest shape, ties broken lexically. Longer shapes collide with fewer
// unrelated spans, which keeps the candidate lists short.
func chooseAnchor(sorted []string) string {
	anchor := sorted[0]
	for _, s := range sorted[1:] {
		if len(s) > len(anchor) || (len(s) == len(anchor) && s > anchor) {
			anchor = s
		}
	}
	return anchor
}
