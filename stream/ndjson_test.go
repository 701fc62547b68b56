package stream

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getcanon/canon/core"
)

func TestAttributeReaderReadsLines(t *testing.T) {
	in := strings.NewReader(
		`{"gen_ai.system": "openai", "gen_ai.usage.prompt_tokens": 12}` + "\n" +
			`{"llm.model_name": "claude-3"}` + "\n")
	r := NewAttributeReader(in)

	first, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "openai", first["gen_ai.system"])
	assert.Equal(t, float64(12), first["gen_ai.usage.prompt_tokens"])

	second, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "claude-3", second["llm.model_name"])

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestAttributeReaderSkipsBlankLines(t *testing.T) {
	in := strings.NewReader("\n\n" + `{"a": 1}` + "\n\n" + `{"b": 2}` + "\n")
	r := NewAttributeReader(in)

	first, err := r.Next()
	require.NoError(t, err)
	assert.Contains(t, first, "a")

	second, err := r.Next()
	require.NoError(t, err)
	assert.Contains(t, second, "b")

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestAttributeReaderReportsLineNumber(t *testing.T) {
	in := strings.NewReader(`{"a": 1}` + "\n" + `not json` + "\n")
	r := NewAttributeReader(in)

	_, err := r.Next()
	require.NoError(t, err)

	_, err = r.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestAttributeReaderEmptyStream(t *testing.T) {
	r := NewAttributeReader(strings.NewReader(""))
	_, err := r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestEventWriterOneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	w := NewEventWriter(&buf)

	ev := core.NewEvent("p")
	ev.Set(core.SectionOutputs, "content", "hello")
	require.NoError(t, w.Write(ev))
	require.NoError(t, w.Write(core.NewEvent("q")))
	require.NoError(t, w.Flush())

	assert.Equal(t, 2, w.Count())
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &decoded))
	outputs := decoded["outputs"].(map[string]any)
	assert.Equal(t, "hello", outputs["content"])
}

func TestRoundTripThroughReader(t *testing.T) {
	var buf bytes.Buffer
	w := NewEventWriter(&buf)
	ev := core.NewEvent("p")
	ev.Set(core.SectionInputs, "prompt", "hi")
	require.NoError(t, w.Write(ev))
	require.NoError(t, w.Flush())

	// An event line is itself a JSON object, so the reader can consume it
	// as a generic attribute set.
	r := NewAttributeReader(&buf)
	attrs, err := r.Next()
	require.NoError(t, err)
	assert.Contains(t, attrs, "inputs")
	assert.Contains(t, attrs, "metadata")
}
