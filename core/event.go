// Canonical event: the four-section normalized output produced for every
// processed span, plus the structured diagnostics collected along the way.

package core

import (
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Fields is one insertion-ordered event section. Field order reflects the
// order mappings placed values, which keeps output stable across runs.
type Fields = orderedmap.OrderedMap[string, any]

// CanonicalEvent is the normalized representation of one span. All four
// sections are always present, even when empty; metadata always carries the
// detected provider id (or the unknown sentinel). An event is never withheld
// because of partial data; failures surface as Diagnostics instead.
type CanonicalEvent struct {
	Inputs      *Fields
	Outputs     *Fields
	Config      *Fields
	Metadata    *Fields
	Diagnostics []Diagnostic
}

// MetadataProviderField is the metadata field holding the detected provider.
const MetadataProviderField = "provider"

// NewEvent creates an empty canonical event for the given provider id.
func NewEvent(providerID string) *CanonicalEvent {
	ev := &CanonicalEvent{
		Inputs:   orderedmap.New[string, any](),
		Outputs:  orderedmap.New[string, any](),
		Config:   orderedmap.New[string, any](),
		Metadata: orderedmap.New[string, any](),
	}
	ev.Metadata.Set(MetadataProviderField, providerID)
	return ev
}

// Section returns the named section, or nil for an unknown section name.
func (ev *CanonicalEvent) Section(s Section) *Fields {
	switch s {
	case SectionInputs:
		return ev.Inputs
	case SectionOutputs:
		return ev.Outputs
	case SectionConfig:
		return ev.Config
	case SectionMetadata:
		return ev.Metadata
	}
	return nil
}

// Set places a field value into the named section. Unknown sections are
// ignored; the compiler guarantees mappings only name valid sections.
func (ev *CanonicalEvent) Set(s Section, field string, value any) {
	if sec := ev.Section(s); sec != nil {
		sec.Set(field, value)
	}
}

// Provider returns the detected provider id recorded in metadata.
func (ev *CanonicalEvent) Provider() string {
	v, ok := ev.Metadata.Get(MetadataProviderField)
	if !ok {
		return ProviderUnknown
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ProviderUnknown
}

// Diagnose appends diagnostics to the event.
func (ev *CanonicalEvent) Diagnose(ds ...Diagnostic) {
	ev.Diagnostics = append(ev.Diagnostics, ds...)
}

// HasDiagnostic reports whether any diagnostic of the given kind was
// recorded.
func (ev *CanonicalEvent) HasDiagnostic(kind DiagnosticKind) bool {
	for _, d := range ev.Diagnostics {
		if d.Kind == kind {
			return true
		}
	}
	return false
}

// eventJSON is the wire shape of a canonical event.
type eventJSON struct {
	Inputs      *Fields      `json:"inputs"`
	Outputs     *Fields      `json:"outputs"`
	Config      *Fields      `json:"config"`
	Metadata    *Fields      `json:"metadata"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// MarshalJSON renders the event with its four sections in fixed order and
// each section's fields in insertion order.
func (ev *CanonicalEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(eventJSON{
		Inputs:      ev.Inputs,
		Outputs:     ev.Outputs,
		Config:      ev.Config,
		Metadata:    ev.Metadata,
		Diagnostics: ev.Diagnostics,
	})
}

// UnmarshalJSON restores an event marshaled by MarshalJSON.
func (ev *CanonicalEvent) UnmarshalJSON(data []byte) error {
	var raw eventJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ev.Inputs = orDefault(raw.Inputs)
	ev.Outputs = orDefault(raw.Outputs)
	ev.Config = orDefault(raw.Config)
	ev.Metadata = orDefault(raw.Metadata)
	ev.Diagnostics = raw.Diagnostics
	return nil
}

func orDefault(m *Fields) *Fields {
	if m == nil {
		return orderedmap.New[string, any]()
	}
	return m
}
