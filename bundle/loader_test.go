package bundle

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getcanon/canon/core"
)

func TestBuiltinCompiles(t *testing.T) {
	b, err := Builtin()
	require.NoError(t, err)

	ids := make([]string, 0, 3)
	for _, p := range b.Providers() {
		ids = append(ids, p.ID)
	}
	assert.ElementsMatch(t, []string{"openllmetry", "openinference", "otel_genai"}, ids)

	// Builtin is memoized: same instance on every call.
	again, err := Builtin()
	require.NoError(t, err)
	assert.Same(t, b, again)
}

func TestHandleLoadAndSwap(t *testing.T) {
	first, err := Compile([]core.ProviderDefinition{minimalDef("p1", "a.model")})
	require.NoError(t, err)
	second, err := Compile([]core.ProviderDefinition{minimalDef("p2", "b.model")})
	require.NoError(t, err)

	h := NewHandle(first)
	assert.Same(t, first, h.Load())

	old := h.Swap(second)
	assert.Same(t, first, old)
	assert.Same(t, second, h.Load())
}

func TestHandleReload(t *testing.T) {
	b, err := Compile([]core.ProviderDefinition{minimalDef("p1", "a.model")})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "bundle.json")
	require.NoError(t, WriteFile(path, b))

	h := NewHandle(nil)
	require.NoError(t, h.Reload(path))
	require.NotNil(t, h.Load())
	assert.NotNil(t, h.Load().Provider("p1"))
}

func TestHandleReloadKeepsSnapshotOnFailure(t *testing.T) {
	initial, err := Compile([]core.ProviderDefinition{minimalDef("p1", "a.model")})
	require.NoError(t, err)

	h := NewHandle(initial)
	err = h.Reload(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Same(t, initial, h.Load())
}

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bundle.json")

	first, err := Compile([]core.ProviderDefinition{minimalDef("p1", "a.model")})
	require.NoError(t, err)
	require.NoError(t, WriteFile(path, first))

	h := NewHandle(nil)
	require.NoError(t, h.Reload(path))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	watchDone := make(chan error, 1)
	go func() { watchDone <- h.Watch(ctx, path) }()

	// Give the watcher a moment to install before writing.
	time.Sleep(100 * time.Millisecond)

	second, err := Compile([]core.ProviderDefinition{minimalDef("p2", "b.model")})
	require.NoError(t, err)
	require.NoError(t, WriteFile(path, second))

	require.Eventually(t, func() bool {
		b := h.Load()
		return b != nil && b.Provider("p2") != nil
	}, 4*time.Second, 50*time.Millisecond, "watcher should install the rewritten bundle")

	cancel()
	assert.ErrorIs(t, <-watchDone, context.Canceled)
}

func TestWatchLoadsTrailingWriteOfBurst(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bundle.json")

	first, err := Compile([]core.ProviderDefinition{minimalDef("p1", "a.model")})
	require.NoError(t, err)
	require.NoError(t, WriteFile(path, first))

	h := NewHandle(nil)
	require.NoError(t, h.Reload(path))

	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()
	watchDone := make(chan error, 1)
	go func() { watchDone <- h.Watch(ctx, path) }()

	time.Sleep(100 * time.Millisecond)

	// A truncate-then-write burst: the first event lands on a partial
	// file and spends the throttle token on a failed reload; the complete
	// artifact follows inside the throttle window.
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	time.Sleep(300 * time.Millisecond)
	second, err := Compile([]core.ProviderDefinition{minimalDef("p2", "b.model")})
	require.NoError(t, err)
	require.NoError(t, WriteFile(path, second))

	// The trailing write must still be loaded once the throttle refills.
	require.Eventually(t, func() bool {
		b := h.Load()
		return b != nil && b.Provider("p2") != nil
	}, 6*time.Second, 50*time.Millisecond, "trailing write of a burst must not be dropped")

	cancel()
	assert.ErrorIs(t, <-watchDone, context.Canceled)
}
