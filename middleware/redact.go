// Redaction middleware. Captured LLM telemetry routinely contains PII and
// credentials; this pass masks matching substrings in the event's inputs
// and outputs after normalization, before the event reaches an exporter.

package middleware

import (
	"context"
	"regexp"

	"github.com/getcanon/canon/core"
	"github.com/getcanon/canon/engine"
)

// RedactionOpts configures the redaction middleware.
type RedactionOpts struct {
	// Patterns are regex patterns whose matches are replaced.
	Patterns []string
	// Replacement is the string substituted for each match.
	Replacement string
	// Sections limits redaction to the named sections. Empty means
	// inputs and outputs.
	Sections []core.Section
	// OnRedacted is called per pattern with the number of replacements,
	// for observability.
	OnRedacted func(pattern string, count int)
}

// DefaultRedactionOpts returns defaults covering common PII and credential
// shapes.
func DefaultRedactionOpts() RedactionOpts {
	return RedactionOpts{
		Patterns: []string{
			`\b\d{3}-\d{2}-\d{4}\b`,                           // SSN
			`(?i)\b[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}\b`,   // Email
			`\bsk-[A-Za-z0-9]{20,}\b`,                         // API keys
			`\b(?:4[0-9]{12}(?:[0-9]{3})?|5[1-5][0-9]{14})\b`, // Credit cards
		},
		Replacement: "[REDACTED]",
		Sections:    []core.Section{core.SectionInputs, core.SectionOutputs},
	}
}

// WithRedaction creates middleware that masks matching content in the
// normalized event. Invalid patterns are skipped rather than failing the
// pipeline.
func WithRedaction(opts RedactionOpts) Middleware {
	if opts.Replacement == "" {
		opts.Replacement = "[REDACTED]"
	}
	if len(opts.Sections) == 0 {
		opts.Sections = []core.Section{core.SectionInputs, core.SectionOutputs}
	}
	regexps := make([]*regexp.Regexp, 0, len(opts.Patterns))
	for _, p := range opts.Patterns {
		if re, err := regexp.Compile(p); err == nil {
			regexps = append(regexps, re)
		}
	}

	return func(next engine.Normalizer) engine.Normalizer {
		return engine.NormalizerFunc(func(ctx context.Context, attrs core.AttributeSet) (*core.CanonicalEvent, error) {
			ev, err := next.Normalize(ctx, attrs)
			if err != nil || ev == nil {
				return ev, err
			}
			for _, section := range opts.Sections {
				fields := ev.Section(section)
				if fields == nil {
					continue
				}
				for pair := fields.Oldest(); pair != nil; pair = pair.Next() {
					fields.Set(pair.Key, redactValue(pair.Value, regexps, &opts))
				}
			}
			return ev, nil
		})
	}
}

// redactValue masks strings recursively through maps and slices, leaving
// the structure intact.
func redactValue(v any, regexps []*regexp.Regexp, opts *RedactionOpts) any {
	switch val := v.(type) {
	case string:
		return redactString(val, regexps, opts)
	case []any:
		out := make([]any, len(val))
		for i, el := range val {
			out[i] = redactValue(el, regexps, opts)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, el := range val {
			out[k] = redactValue(el, regexps, opts)
		}
		return out
	default:
		return v
	}
}

func redactString(s string, regexps []*regexp.Regexp, opts *RedactionOpts) string {
	for _, re := range regexps {
		if opts.OnRedacted != nil {
			if n := len(re.FindAllStringIndex(s, -1)); n > 0 {
				opts.OnRedacted(re.String(), n)
			}
		}
		s = re.ReplaceAllString(s, opts.Replacement)
	}
	return s
}
