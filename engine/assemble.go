// Field mapper / event assembler: combines the detected provider and the
// rule extractions into the canonical four-section event.

package engine

import (
	"fmt"

	"github.com/getcanon/canon/bundle"
	"github.com/getcanon/canon/core"
)

// Assemble builds the canonical event for one span. A required mapping
// with no resolved value records a missing-field diagnostic and the field
// is simply absent; one missing field never blocks the rest. The event is
// returned fully formed even when every extraction failed.
func Assemble(providerID string, extractions map[string]core.Extraction, p *bundle.Provider) *core.CanonicalEvent {
	ev := core.NewEvent(providerID)
	if p == nil {
		return ev
	}

	for i := range p.Mappings {
		m := &p.Mappings[i]
		ext, ok := extractions[m.SourceRule]
		if !ok {
			if m.Required {
				ev.Diagnose(core.Diagnostic{
					Kind:    core.DiagMissingField,
					Rule:    m.SourceRule,
					Field:   fieldPath(m),
					Message: "required mapping has no resolved value",
				})
			}
			continue
		}
		if ext.Null {
			// Scenario: nullable rule with no match. The field is
			// present, its value explicitly null.
			ev.Set(m.Section, m.Field, nil)
			continue
		}
		value, err := m.Apply(ext.Value)
		if err != nil {
			ev.Diagnose(core.Diagnostic{
				Kind:    core.DiagTransformFailed,
				Rule:    m.SourceRule,
				Field:   fieldPath(m),
				Message: err.Error(),
			})
			continue
		}
		ev.Set(m.Section, m.Field, value)
	}
	return ev
}

func fieldPath(m *bundle.Mapping) string {
	return fmt.Sprintf("%s.%s", m.Section, m.Field)
}
