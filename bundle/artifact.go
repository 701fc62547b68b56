// Artifact format: the versioned on-disk form of a compiled bundle. The
// artifact stores the validated declarative definitions plus an explicit
// format version; loading re-runs the compiler, which re-checks every
// transform reference and signature, since the artifact may have been
// produced against a different transform registry.

package bundle

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/getcanon/canon/core"
)

// FormatVersion is the artifact format version this package writes.
// Readers accept any 1.x artifact.
const FormatVersion = "1.0.0"

// artifactJSON is the on-disk shape. Providers are keyed by id, as external
// tooling expects; Priority preserves declaration order across the map.
type artifactJSON struct {
	FormatVersion string                      `json:"format_version"`
	CompiledAt    time.Time                   `json:"compiled_at"`
	Providers     map[string]artifactProvider `json:"providers"`
}

type artifactProvider struct {
	Priority        int                   `json:"priority"`
	Signature       []string              `json:"signature"`
	NavigationRules []core.NavigationRule `json:"navigation_rules"`
	FieldMappings   []core.FieldMapping   `json:"field_mappings"`
	Transforms      []core.TransformSpec  `json:"transforms,omitempty"`
}

// Write serializes the bundle as a versioned artifact.
func Write(w io.Writer, b *Bundle) error {
	art := artifactJSON{
		FormatVersion: b.FormatVersion,
		CompiledAt:    b.CompiledAt,
		Providers:     make(map[string]artifactProvider, len(b.defs)),
	}
	for i, def := range b.defs {
		art.Providers[def.ID] = artifactProvider{
			Priority:        i,
			Signature:       def.Signature,
			NavigationRules: def.NavigationRules,
			FieldMappings:   def.FieldMappings,
			Transforms:      def.Transforms,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(art)
}

// WriteFile serializes the bundle to path.
func WriteFile(path string, b *Bundle) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating artifact: %w", err)
	}
	if err := Write(f, b); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Load reads a versioned artifact and rebuilds the in-memory bundle,
// including the signature lookup index. A malformed or version-incompatible
// artifact is fatal.
func Load(r io.Reader) (*Bundle, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, core.NewBundleError(core.ErrKindMalformedBundle, "",
			"reading artifact").WithCause(err)
	}
	var art artifactJSON
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, core.NewBundleError(core.ErrKindMalformedBundle, "",
			"artifact is not valid JSON").WithCause(err)
	}
	if err := checkFormatVersion(art.FormatVersion); err != nil {
		return nil, err
	}
	if len(art.Providers) == 0 {
		return nil, core.NewBundleError(core.ErrKindMalformedBundle, "",
			"artifact contains no providers")
	}

	// Restore declaration order from the persisted priorities.
	ids := make([]string, 0, len(art.Providers))
	for id := range art.Providers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		pi, pj := art.Providers[ids[i]].Priority, art.Providers[ids[j]].Priority
		if pi != pj {
			return pi < pj
		}
		return ids[i] < ids[j]
	})

	defs := make([]core.ProviderDefinition, 0, len(ids))
	for _, id := range ids {
		ap := art.Providers[id]
		defs = append(defs, core.ProviderDefinition{
			ID:              id,
			Signature:       ap.Signature,
			NavigationRules: ap.NavigationRules,
			FieldMappings:   ap.FieldMappings,
			Transforms:      ap.Transforms,
		})
	}

	b, err := Compile(defs)
	if err != nil {
		return nil, err
	}
	// The bundle reports the version the artifact declared, not the
	// version this reader writes.
	b.FormatVersion = art.FormatVersion
	b.CompiledAt = art.CompiledAt
	return b, nil
}

// LoadFile reads a versioned artifact from path.
func LoadFile(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, core.NewBundleError(core.ErrKindMalformedBundle, "",
			fmt.Sprintf("opening artifact %s", path)).WithCause(err)
	}
	defer f.Close()
	return Load(f)
}

// checkFormatVersion accepts any artifact within the current major version.
func checkFormatVersion(v string) error {
	if v == "" {
		return core.NewBundleError(core.ErrKindMalformedBundle, "",
			"artifact missing format_version")
	}
	major, _, _ := strings.Cut(v, ".")
	wantMajor, _, _ := strings.Cut(FormatVersion, ".")
	if major != wantMajor {
		return core.NewBundleError(core.ErrKindMalformedBundle, "",
			fmt.Sprintf("artifact format version %s is incompatible with %s", v, FormatVersion))
	}
	return nil
}
