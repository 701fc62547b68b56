package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinsRegistered(t *testing.T) {
	names := Names()
	for _, want := range []string{
		"coerce",
		"decompose_tool_calls",
		"normalize_message",
		"normalize_messages",
		"pluck",
	} {
		assert.Contains(t, names, want)
	}
	assert.IsNonDecreasing(t, names)
}

func TestResolveUnknown(t *testing.T) {
	_, ok := Resolve("no_such_transform")
	assert.False(t, ok)

	_, err := Apply("no_such_transform", 1, nil)
	assert.Error(t, err)
}

func TestRegisterCollisionPanics(t *testing.T) {
	require.Panics(t, func() {
		Register("normalize_message", func(v any, _ map[string]any) (any, error) { return v, nil })
	})
	require.Panics(t, func() {
		Register("", func(v any, _ map[string]any) (any, error) { return v, nil })
	})
	require.Panics(t, func() {
		Register("nil_fn", nil)
	})
}
