// Package bundle compiles declarative provider definitions into the
// immutable, versioned artifact the detection and extraction engine reads.
// Authoring documents are YAML, one per provider, carrying the four logical
// sections: signature, navigation rules, field mappings, and transform
// declarations. Compilation and loading are the only places fatal errors
// exist in this system; everything per-span is a diagnostic.
package bundle

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/getcanon/canon/core"
)

// ParseDefinition decodes one provider's YAML authoring document. Unknown
// fields are rejected so a typo in a hand-authored document fails loudly at
// compile time instead of silently dropping a rule.
func ParseDefinition(data []byte) (core.ProviderDefinition, error) {
	var def core.ProviderDefinition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return core.ProviderDefinition{}, core.NewBundleError(
			core.ErrKindInvalidDefinition, "", "invalid YAML document").WithCause(err)
	}
	if def.ID == "" {
		return core.ProviderDefinition{}, core.NewBundleError(
			core.ErrKindInvalidDefinition, "", "definition missing id")
	}
	return def, nil
}

// ParseFS reads every .yaml/.yml document under root in fsys, in sorted path
// order. Sorted order makes compile-time provider priority reproducible.
func ParseFS(fsys fs.FS, root string) ([]core.ProviderDefinition, error) {
	var paths []string
	err := fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".yaml" || ext == ".yml" {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking definitions: %w", err)
	}
	sort.Strings(paths)

	defs := make([]core.ProviderDefinition, 0, len(paths))
	for _, path := range paths {
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		def, err := ParseDefinition(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// ParseDir reads every provider definition in a directory on disk.
func ParseDir(dir string) ([]core.ProviderDefinition, error) {
	return ParseFS(os.DirFS(dir), ".")
}
