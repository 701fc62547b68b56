package core

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventAlwaysCarriesProvider(t *testing.T) {
	ev := NewEvent("openllmetry")
	assert.Equal(t, "openllmetry", ev.Provider())

	v, ok := ev.Metadata.Get(MetadataProviderField)
	require.True(t, ok)
	assert.Equal(t, "openllmetry", v)
}

func TestEventSectionsPresentWhenEmpty(t *testing.T) {
	ev := NewEvent(ProviderUnknown)
	for _, s := range Sections() {
		assert.NotNil(t, ev.Section(s), "section %s", s)
	}
	assert.Nil(t, ev.Section(Section("bogus")))
}

func TestEventFieldInsertionOrder(t *testing.T) {
	ev := NewEvent("p")
	ev.Set(SectionConfig, "model", "gpt-4")
	ev.Set(SectionConfig, "temperature", 0.2)
	ev.Set(SectionConfig, "max_tokens", 100)

	var got []string
	for pair := ev.Config.Oldest(); pair != nil; pair = pair.Next() {
		got = append(got, pair.Key)
	}
	assert.Equal(t, []string{"model", "temperature", "max_tokens"}, got)
}

func TestEventMarshalJSONOrder(t *testing.T) {
	ev := NewEvent("p")
	ev.Set(SectionOutputs, "zz_last_set_first", 1)
	ev.Set(SectionOutputs, "aa_set_second", 2)

	data, err := json.Marshal(ev)
	require.NoError(t, err)

	s := string(data)
	assert.Less(t, strings.Index(s, `"inputs"`), strings.Index(s, `"outputs"`))
	assert.Less(t, strings.Index(s, `"outputs"`), strings.Index(s, `"config"`))
	assert.Less(t, strings.Index(s, `"config"`), strings.Index(s, `"metadata"`))
	// Insertion order beats lexical order inside a section.
	assert.Less(t, strings.Index(s, "zz_last_set_first"), strings.Index(s, "aa_set_second"))
	// No diagnostics key when none were raised.
	assert.NotContains(t, s, "diagnostics")
}

func TestEventMarshalRoundTrip(t *testing.T) {
	ev := NewEvent("p")
	ev.Set(SectionInputs, "messages", []any{map[string]any{"role": "user"}})
	ev.Diagnose(Diagnostic{Kind: DiagExtractionGap, Rule: "r1"})

	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var back CanonicalEvent
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "p", back.Provider())
	require.Len(t, back.Diagnostics, 1)
	assert.Equal(t, DiagExtractionGap, back.Diagnostics[0].Kind)
}

func TestHasDiagnostic(t *testing.T) {
	ev := NewEvent("p")
	assert.False(t, ev.HasDiagnostic(DiagUnknownProvider))
	ev.Diagnose(Diagnostic{Kind: DiagUnknownProvider})
	assert.True(t, ev.HasDiagnostic(DiagUnknownProvider))
	assert.False(t, ev.HasDiagnostic(DiagMissingField))
}
