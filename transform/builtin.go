// Builtin transforms. These cover the three families provider definitions
// need in practice: message normalization that preserves every observed
// field of a message object, tool-call decomposition with arguments kept as
// an opaque string, and scalar extraction with a typed fallback.

package transform

import (
	"encoding/json"
	"fmt"
	"strconv"
)

func init() {
	Register("normalize_message", normalizeMessage)
	Register("normalize_messages", normalizeMessages)
	Register("decompose_tool_calls", decomposeToolCalls)
	Register("coerce", coerce)
	Register("pluck", pluck)
}

// normalizeMessage canonicalizes a single message object. Every observed
// field is preserved (role, content, tool_calls, refusal, audio, and any
// key a future instrumentation adds) rather than whitelisting a known set.
// With the "unwrap" parameter set, a single-key wrapper object (for example
// openinference's {"message": {...}}) is replaced by its inner object first.
func normalizeMessage(value any, params map[string]any) (any, error) {
	msg, ok := unwrapped(value, params)
	if !ok {
		return nil, fmt.Errorf("normalize_message: expected object, got %T", value)
	}
	out := make(map[string]any, len(msg))
	for k, v := range msg {
		out[k] = v
	}
	return out, nil
}

// normalizeMessages applies normalize_message to each element of a
// reconstructed message array.
func normalizeMessages(value any, params map[string]any) (any, error) {
	arr, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("normalize_messages: expected array, got %T", value)
	}
	out := make([]any, 0, len(arr))
	for i, el := range arr {
		msg, err := normalizeMessage(el, params)
		if err != nil {
			return nil, fmt.Errorf("normalize_messages: element %d: %w", i, err)
		}
		out = append(out, msg)
	}
	return out, nil
}

// unwrapped returns value as a message object, unwrapping one single-key
// envelope level when params declares "unwrap".
func unwrapped(value any, params map[string]any) (map[string]any, bool) {
	msg, ok := value.(map[string]any)
	if !ok {
		return nil, false
	}
	wrapper, _ := params["unwrap"].(string)
	if wrapper == "" {
		return msg, true
	}
	inner, ok := msg[wrapper].(map[string]any)
	if !ok {
		// Not wrapped; treat the object as the message itself.
		return msg, true
	}
	return inner, true
}

// decomposeToolCalls shapes a reconstructed tool-call array into the
// canonical {id, type, function: {name, arguments}} form. Function arguments
// stay an opaque string: a non-string arguments value is re-encoded as JSON,
// never interpreted. Unrecognized keys at either level are preserved.
func decomposeToolCalls(value any, _ map[string]any) (any, error) {
	arr, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("decompose_tool_calls: expected array, got %T", value)
	}
	out := make([]any, 0, len(arr))
	for i, el := range arr {
		call, ok := el.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("decompose_tool_calls: element %d: expected object, got %T", i, el)
		}
		shaped := make(map[string]any, len(call))
		for k, v := range call {
			if k != "function" {
				shaped[k] = v
				continue
			}
			fn, ok := v.(map[string]any)
			if !ok {
				shaped[k] = v
				continue
			}
			shapedFn := make(map[string]any, len(fn))
			for fk, fv := range fn {
				if fk == "arguments" {
					shapedFn[fk] = opaqueString(fv)
					continue
				}
				shapedFn[fk] = fv
			}
			shaped[k] = shapedFn
		}
		out = append(out, shaped)
	}
	return out, nil
}

// opaqueString renders v as a string without interpreting string input.
func opaqueString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// coerce converts a scalar to the type named by the "type" parameter
// (string, int, float, bool). A value that cannot be converted yields the
// "fallback" parameter when one is declared, otherwise an error.
func coerce(value any, params map[string]any) (any, error) {
	target, _ := params["type"].(string)
	converted, err := convertScalar(value, target)
	if err == nil {
		return converted, nil
	}
	if fallback, ok := params["fallback"]; ok {
		return fallback, nil
	}
	return nil, fmt.Errorf("coerce: %w", err)
}

func convertScalar(value any, target string) (any, error) {
	switch target {
	case "string":
		switch v := value.(type) {
		case string:
			return v, nil
		case bool, int, int64, float64:
			return fmt.Sprint(v), nil
		}
	case "int":
		switch v := value.(type) {
		case int:
			return int64(v), nil
		case int64:
			return v, nil
		case float64:
			return int64(v), nil
		case string:
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				return n, nil
			}
		}
	case "float":
		switch v := value.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f, nil
			}
		}
	case "bool":
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			if b, err := strconv.ParseBool(v); err == nil {
				return b, nil
			}
		}
	default:
		return nil, fmt.Errorf("unknown target type %q", target)
	}
	return nil, fmt.Errorf("cannot convert %T to %s", value, target)
}

// pluck extracts the field named by the "field" parameter from an object.
func pluck(value any, params map[string]any) (any, error) {
	field, _ := params["field"].(string)
	if field == "" {
		return nil, fmt.Errorf("pluck: missing field parameter")
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("pluck: expected object, got %T", value)
	}
	v, ok := obj[field]
	if !ok {
		return nil, fmt.Errorf("pluck: field %q not present", field)
	}
	return v, nil
}
