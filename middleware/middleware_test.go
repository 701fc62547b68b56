package middleware

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getcanon/canon/bundle"
	"github.com/getcanon/canon/core"
	"github.com/getcanon/canon/engine"
)

// tagging returns middleware that appends its tag to order on the way in.
func tagging(tag string, order *[]string) Middleware {
	return func(next engine.Normalizer) engine.Normalizer {
		return engine.NormalizerFunc(func(ctx context.Context, attrs core.AttributeSet) (*core.CanonicalEvent, error) {
			*order = append(*order, tag)
			return next.Normalize(ctx, attrs)
		})
	}
}

func passthrough() engine.Normalizer {
	return engine.NormalizerFunc(func(ctx context.Context, attrs core.AttributeSet) (*core.CanonicalEvent, error) {
		return core.NewEvent("test"), nil
	})
}

func TestChainOrder(t *testing.T) {
	var order []string
	n := Chain(
		tagging("outer", &order),
		tagging("middle", &order),
		tagging("inner", &order),
	)(passthrough())

	_, err := n.Normalize(context.Background(), core.AttributeSet{})
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "middle", "inner"}, order)
}

func TestChainEmpty(t *testing.T) {
	n := Chain()(passthrough())

	ev, err := n.Normalize(context.Background(), core.AttributeSet{})
	require.NoError(t, err)
	assert.Equal(t, "test", ev.Provider())
}

func TestMiddlewareWrapsEngine(t *testing.T) {
	b, err := bundle.Builtin()
	require.NoError(t, err)
	eng := engine.NewStatic(b)
	n := Chain(WithRedaction(DefaultRedactionOpts()))(eng)

	ev, err := n.Normalize(context.Background(), core.AttributeSet{
		"gen_ai.system":               "openai",
		"traceloop.span.kind":         "llm",
		"gen_ai.request.model":        "gpt-4o",
		"gen_ai.prompt.0.role":        "user",
		"gen_ai.prompt.0.content":     "my ssn is 123-45-6789",
		"gen_ai.completion.0.role":    "assistant",
		"gen_ai.completion.0.content": "noted",
	})
	require.NoError(t, err)
	assert.Equal(t, "openllmetry", ev.Provider())

	msgs, ok := ev.Inputs.Get("messages")
	require.True(t, ok)
	first := msgs.([]any)[0].(map[string]any)
	assert.Equal(t, "my ssn is [REDACTED]", first["content"])
}
