package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getcanon/canon/core"
)

func steps(t *testing.T, parts ...any) []core.Step {
	t.Helper()
	out := make([]core.Step, 0, len(parts))
	for _, p := range parts {
		switch v := p.(type) {
		case int:
			out = append(out, core.Step{Index: v, IsIndex: true})
		case string:
			out = append(out, core.Step{Field: v})
		default:
			t.Fatalf("bad step %v", p)
		}
	}
	return out
}

func TestReconstructOrderedByNumericIndex(t *testing.T) {
	// Lexically "10" < "2"; numerically it is the other way round.
	matches := []Match{
		{Key: "m.10.role", Steps: steps(t, 10, "role"), Value: "c"},
		{Key: "m.2.role", Steps: steps(t, 2, "role"), Value: "b"},
		{Key: "m.0.role", Steps: steps(t, 0, "role"), Value: "a"},
	}

	got, diags := Reconstruct(matches)
	assert.Empty(t, diags)
	want := []any{
		map[string]any{"role": "a"},
		map[string]any{"role": "b"},
		map[string]any{"role": "c"},
	}
	assert.Equal(t, want, got)
}

func TestReconstructOrderIndependent(t *testing.T) {
	forward := []Match{
		{Key: "m.0", Steps: steps(t, 0), Value: "x"},
		{Key: "m.1", Steps: steps(t, 1), Value: "y"},
	}
	reversed := []Match{forward[1], forward[0]}

	a, _ := Reconstruct(forward)
	b, _ := Reconstruct(reversed)
	assert.Equal(t, a, b)
}

func TestReconstructSparseIndicesNoPadding(t *testing.T) {
	matches := []Match{
		{Key: "m.0", Steps: steps(t, 0), Value: "first"},
		{Key: "m.2", Steps: steps(t, 2), Value: "third"},
	}

	got, diags := Reconstruct(matches)
	assert.Empty(t, diags)
	// A two-element sequence, not three with a nil between them.
	assert.Equal(t, []any{"first", "third"}, got)
}

func TestReconstructNestedToolCalls(t *testing.T) {
	matches := []Match{
		{Key: "c.0.role", Steps: steps(t, 0, "role"), Value: "assistant"},
		{Key: "c.0.tool_calls.0.name", Steps: steps(t, 0, "tool_calls", 0, "name"), Value: "get_weather"},
		{Key: "c.0.tool_calls.0.arguments", Steps: steps(t, 0, "tool_calls", 0, "arguments"), Value: `{"city":"SF"}`},
		{Key: "c.0.tool_calls.1.name", Steps: steps(t, 0, "tool_calls", 1, "name"), Value: "get_time"},
	}

	got, diags := Reconstruct(matches)
	assert.Empty(t, diags)
	want := []any{
		map[string]any{
			"role": "assistant",
			"tool_calls": []any{
				map[string]any{"name": "get_weather", "arguments": `{"city":"SF"}`},
				map[string]any{"name": "get_time"},
			},
		},
	}
	assert.Equal(t, want, got)
}

func TestReconstructConflictFirstSeenWins(t *testing.T) {
	matches := []Match{
		{Key: "m.0.role", Steps: steps(t, 0, "role"), Value: "user"},
		{Key: "m.0.role", Steps: steps(t, 0, "role"), Value: "system"},
	}

	got, diags := Reconstruct(matches)
	require.Len(t, diags, 1)
	assert.Equal(t, core.DiagArrayAmbiguity, diags[0].Kind)
	assert.Equal(t, []any{map[string]any{"role": "user"}}, got)
}

func TestReconstructIndexFieldCollision(t *testing.T) {
	matches := []Match{
		{Key: "m.0.role", Steps: steps(t, 0, "role"), Value: "user"},
		{Key: "m.kind", Steps: steps(t, "kind"), Value: "chat"},
	}

	got, diags := Reconstruct(matches)
	require.Len(t, diags, 1)
	assert.Equal(t, core.DiagArrayAmbiguity, diags[0].Kind)
	// The earlier match's structure survives.
	assert.Equal(t, []any{map[string]any{"role": "user"}}, got)
}

func TestReconstructScalarUnderExistingObject(t *testing.T) {
	matches := []Match{
		{Key: "m.0.role", Steps: steps(t, 0, "role"), Value: "user"},
		{Key: "m.0", Steps: steps(t, 0), Value: "whole"},
	}

	_, diags := Reconstruct(matches)
	require.Len(t, diags, 1)
	assert.Equal(t, core.DiagArrayAmbiguity, diags[0].Kind)
}

func TestReconstructEmpty(t *testing.T) {
	got, diags := Reconstruct(nil)
	assert.Empty(t, diags)
	assert.Nil(t, got)
}
