// Error taxonomy for the normalization engine. Per-span problems are
// Diagnostics attached to the still-produced event; compile- and load-time
// problems are BundleErrors and abort the operation that raised them.

package core

import (
	"fmt"
	"strings"
)

// DiagnosticKind classifies a per-span, non-fatal extraction problem.
type DiagnosticKind string

const (
	// DiagUnknownProvider records that detection found no qualifying
	// signature; the event passes through with the unknown provider id.
	DiagUnknownProvider DiagnosticKind = "unknown_provider"
	// DiagExtractionGap records a rule with no matching key, no null
	// marker and no fallback; the field is omitted.
	DiagExtractionGap DiagnosticKind = "extraction_gap"
	// DiagArrayAmbiguity records conflicting values at one index path
	// during reconstruction; the first value in key order is kept.
	DiagArrayAmbiguity DiagnosticKind = "array_reconstruction_ambiguity"
	// DiagMissingField records a required field mapping whose source rule
	// produced no value; assembly continues without the field.
	DiagMissingField DiagnosticKind = "missing_field"
	// DiagTransformFailed records a transform invocation that returned an
	// error; the mapped field is omitted.
	DiagTransformFailed DiagnosticKind = "transform_failed"
)

// Diagnostic is one structured, non-fatal extraction problem. Diagnostics
// never abort processing of the current span or any other.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Rule    string         `json:"rule,omitempty"`
	Field   string         `json:"field,omitempty"`
	Path    string         `json:"path,omitempty"`
	Message string         `json:"message,omitempty"`
}

// String renders the diagnostic for logs.
func (d Diagnostic) String() string {
	parts := []string{string(d.Kind)}
	if d.Rule != "" {
		parts = append(parts, "rule="+d.Rule)
	}
	if d.Field != "" {
		parts = append(parts, "field="+d.Field)
	}
	if d.Path != "" {
		parts = append(parts, "path="+d.Path)
	}
	if d.Message != "" {
		parts = append(parts, d.Message)
	}
	return strings.Join(parts, " ")
}

// BundleErrorKind classifies a fatal compile- or load-time failure.
type BundleErrorKind int

const (
	// ErrKindUnknown indicates an unclassified bundle error.
	ErrKindUnknown BundleErrorKind = iota
	// ErrKindMalformedBundle indicates an artifact that fails structural
	// or format-version validation.
	ErrKindMalformedBundle
	// ErrKindUnresolvedTransform indicates a rule or mapping referencing a
	// transform name absent from the registry.
	ErrKindUnresolvedTransform
	// ErrKindAmbiguousSignature indicates two providers compiled with
	// identical required signatures.
	ErrKindAmbiguousSignature
	// ErrKindInvalidDefinition indicates a structurally invalid provider
	// definition (bad method, dangling rule reference, duplicate id).
	ErrKindInvalidDefinition
)

// String returns the string representation of a BundleErrorKind.
func (k BundleErrorKind) String() string {
	switch k {
	case ErrKindMalformedBundle:
		return "malformed_bundle"
	case ErrKindUnresolvedTransform:
		return "unresolved_transform"
	case ErrKindAmbiguousSignature:
		return "ambiguous_signature"
	case ErrKindInvalidDefinition:
		return "invalid_definition"
	default:
		return "unknown"
	}
}

// BundleError is a fatal error raised while compiling definitions or
// loading an artifact. An inconsistent bundle would cause silent per-span
// data loss, so these abort compilation or startup instead of degrading.
type BundleError struct {
	// Kind classifies the failure.
	Kind BundleErrorKind
	// Provider is the offending provider id, when attributable.
	Provider string
	// Detail is the human-readable description.
	Detail string
	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *BundleError) Error() string {
	var parts []string
	if e.Provider != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Provider))
	}
	parts = append(parts, e.Kind.String())
	if e.Detail != "" {
		parts = append(parts, e.Detail)
	}
	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("(%v)", e.Cause))
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying error.
func (e *BundleError) Unwrap() error { return e.Cause }

// Is matches any *BundleError of the same kind, so callers can test with
// errors.Is(err, &BundleError{Kind: ErrKindMalformedBundle}).
func (e *BundleError) Is(target error) bool {
	t, ok := target.(*BundleError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NewBundleError creates a BundleError with the given kind and detail.
func NewBundleError(kind BundleErrorKind, provider, detail string) *BundleError {
	return &BundleError{Kind: kind, Provider: provider, Detail: detail}
}

// WithCause attaches an underlying error.
func (e *BundleError) WithCause(cause error) *BundleError {
	e.Cause = cause
	return e
}

// IsMalformedBundle reports whether err is a malformed-bundle error.
func IsMalformedBundle(err error) bool { return hasKind(err, ErrKindMalformedBundle) }

// IsUnresolvedTransform reports whether err is an unresolved-transform error.
func IsUnresolvedTransform(err error) bool { return hasKind(err, ErrKindUnresolvedTransform) }

// IsAmbiguousSignature reports whether err is an ambiguous-signature error.
func IsAmbiguousSignature(err error) bool { return hasKind(err, ErrKindAmbiguousSignature) }

func hasKind(err error, kind BundleErrorKind) bool {
	for err != nil {
		if be, ok := err.(*BundleError); ok {
			return be.Kind == kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
