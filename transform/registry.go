// Package transform provides the closed registry of named pure functions
// that navigation rules and field mappings use to finish normalizing an
// extracted value. Registration happens at init time; bundle compilation
// resolves names into direct function references once, so per-span
// processing never performs a by-name lookup.
package transform

import (
	"fmt"
	"sort"
	"sync"
)

// Func is a transform implementation. It must be pure and stateless:
// identical inputs always yield identical outputs, and it may not retain or
// mutate its arguments. Params carry the fixed parameters declared by the
// provider definition that bound the transform.
type Func func(value any, params map[string]any) (any, error)

// registry is the process-wide transform registry. The set is closed after
// package initialization; Register panics on collision so a duplicate name
// is caught the first time the program runs.
var registry = struct {
	mu    sync.RWMutex
	funcs map[string]Func
}{funcs: make(map[string]Func)}

// Register adds a named transform to the registry. It panics if the name is
// empty, the function is nil, or the name is already taken.
func Register(name string, fn Func) {
	if name == "" {
		panic("transform: Register with empty name")
	}
	if fn == nil {
		panic(fmt.Sprintf("transform: Register(%q) with nil function", name))
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if _, exists := registry.funcs[name]; exists {
		panic(fmt.Sprintf("transform: Register(%q) called twice", name))
	}
	registry.funcs[name] = fn
}

// Resolve returns the transform registered under name. The second return
// value reports whether the name is known; bundle compilation treats an
// unresolved name as a fatal error.
func Resolve(name string) (Func, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	fn, ok := registry.funcs[name]
	return fn, ok
}

// Names returns the registered transform names in sorted order.
func Names() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	names := make([]string, 0, len(registry.funcs))
	for name := range registry.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply resolves name and invokes it. It is a convenience for callers that
// hold no compiled bundle; the engine itself uses resolved references.
func Apply(name string, value any, params map[string]any) (any, error) {
	fn, ok := Resolve(name)
	if !ok {
		return nil, fmt.Errorf("transform %q not registered", name)
	}
	return fn(value, params)
}
