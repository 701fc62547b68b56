package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getcanon/canon/core"
)

func TestAssembleNilProviderYieldsBareEvent(t *testing.T) {
	ev := Assemble(core.ProviderUnknown, nil, nil)
	require.NotNil(t, ev)
	assert.Equal(t, core.ProviderUnknown, ev.Provider())
	assert.Zero(t, ev.Inputs.Len())
	assert.Zero(t, ev.Outputs.Len())
	assert.Zero(t, ev.Config.Len())
}

func TestAssemblePlacesFieldsBySection(t *testing.T) {
	p := compileProvider(t, core.ProviderDefinition{
		ID:        "p",
		Signature: []string{"p.kind"},
		NavigationRules: []core.NavigationRule{
			{ID: "model", SourcePattern: "p.model", Method: core.DirectCopy},
			{ID: "content", SourcePattern: "p.content", Method: core.DirectCopy},
		},
		FieldMappings: []core.FieldMapping{
			{Section: core.SectionConfig, Field: "model", SourceRule: "model"},
			{Section: core.SectionOutputs, Field: "content", SourceRule: "content"},
		},
	})

	ev := Assemble("p", map[string]core.Extraction{
		"model":   {Value: "gpt-4"},
		"content": {Value: "Hello"},
	}, p)

	assert.Empty(t, ev.Diagnostics)
	model, ok := ev.Config.Get("model")
	require.True(t, ok)
	assert.Equal(t, "gpt-4", model)
	content, ok := ev.Outputs.Get("content")
	require.True(t, ok)
	assert.Equal(t, "Hello", content)
}

func TestAssembleRequiredMissingFieldDiagnostic(t *testing.T) {
	p := compileProvider(t, core.ProviderDefinition{
		ID:        "p",
		Signature: []string{"p.kind"},
		NavigationRules: []core.NavigationRule{
			{ID: "model", SourcePattern: "p.model", Method: core.DirectCopy},
			{ID: "content", SourcePattern: "p.content", Method: core.DirectCopy},
		},
		FieldMappings: []core.FieldMapping{
			{Section: core.SectionConfig, Field: "model", SourceRule: "model", Required: true},
			{Section: core.SectionOutputs, Field: "content", SourceRule: "content"},
		},
	})

	// Only content resolved; the required model mapping has nothing.
	ev := Assemble("p", map[string]core.Extraction{
		"content": {Value: "Hello"},
	}, p)

	require.Len(t, ev.Diagnostics, 1)
	assert.Equal(t, core.DiagMissingField, ev.Diagnostics[0].Kind)
	assert.Equal(t, "config.model", ev.Diagnostics[0].Field)
	_, ok := ev.Config.Get("model")
	assert.False(t, ok, "missing field is absent, not null")

	// The other mapping still landed.
	content, ok := ev.Outputs.Get("content")
	require.True(t, ok)
	assert.Equal(t, "Hello", content)
}

func TestAssembleOptionalMissingIsSilent(t *testing.T) {
	p := compileProvider(t, core.ProviderDefinition{
		ID:        "p",
		Signature: []string{"p.kind"},
		NavigationRules: []core.NavigationRule{
			{ID: "model", SourcePattern: "p.model", Method: core.DirectCopy},
		},
		FieldMappings: []core.FieldMapping{
			{Section: core.SectionConfig, Field: "model", SourceRule: "model"},
		},
	})

	ev := Assemble("p", map[string]core.Extraction{}, p)
	assert.Empty(t, ev.Diagnostics)
	_, ok := ev.Config.Get("model")
	assert.False(t, ok)
}

func TestAssembleNullExtractionSetsExplicitNull(t *testing.T) {
	p := compileProvider(t, core.ProviderDefinition{
		ID:        "p",
		Signature: []string{"p.kind"},
		NavigationRules: []core.NavigationRule{
			{ID: "temp", SourcePattern: "p.temperature", Method: core.DirectCopy, Nullable: true},
		},
		FieldMappings: []core.FieldMapping{
			{Section: core.SectionConfig, Field: "temperature", SourceRule: "temp"},
		},
	})

	ev := Assemble("p", map[string]core.Extraction{
		"temp": {Null: true},
	}, p)

	assert.Empty(t, ev.Diagnostics)
	v, ok := ev.Config.Get("temperature")
	require.True(t, ok, "nullable field is present")
	assert.Nil(t, v)
}

func TestAssembleTransformFailureSkipsFieldOnly(t *testing.T) {
	p := compileProvider(t, core.ProviderDefinition{
		ID:        "p",
		Signature: []string{"p.kind"},
		NavigationRules: []core.NavigationRule{
			{ID: "msg", SourcePattern: "p.msg", Method: core.DirectCopy},
			{ID: "model", SourcePattern: "p.model", Method: core.DirectCopy},
		},
		FieldMappings: []core.FieldMapping{
			{Section: core.SectionInputs, Field: "messages", SourceRule: "msg", Transform: "to_messages"},
			{Section: core.SectionConfig, Field: "model", SourceRule: "model"},
		},
		Transforms: []core.TransformSpec{
			{Name: "to_messages", Function: "normalize_messages"},
		},
	})

	// normalize_messages rejects non-sequence input.
	ev := Assemble("p", map[string]core.Extraction{
		"msg":   {Value: 42},
		"model": {Value: "gpt-4"},
	}, p)

	require.Len(t, ev.Diagnostics, 1)
	assert.Equal(t, core.DiagTransformFailed, ev.Diagnostics[0].Kind)
	assert.Equal(t, "inputs.messages", ev.Diagnostics[0].Field)
	_, ok := ev.Inputs.Get("messages")
	assert.False(t, ok)

	model, ok := ev.Config.Get("model")
	require.True(t, ok)
	assert.Equal(t, "gpt-4", model)
}
