// Loader and process-wide bundle lifecycle. A Handle publishes one
// immutable Bundle behind an atomic pointer: readers always observe a fully
// consistent snapshot, and a reload installs a replacement wholesale. The
// optional watcher re-loads the artifact when it changes on disk, keeping
// the previous snapshot on any failure.

package bundle

import (
	"context"
	"embed"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/getcanon/canon/obs"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

var (
	builtinOnce   sync.Once
	builtinBundle *Bundle
	builtinErr    error
)

// Builtin compiles the embedded provider definitions (openllmetry,
// openinference, otel_genai) once and returns the shared immutable bundle.
// The embedded definitions are validated at build time by the test suite,
// so an error here means a corrupted binary.
func Builtin() (*Bundle, error) {
	builtinOnce.Do(func() {
		defs, err := ParseFS(builtinFS, "builtin")
		if err != nil {
			builtinErr = fmt.Errorf("parsing builtin definitions: %w", err)
			return
		}
		builtinBundle, builtinErr = Compile(defs)
	})
	return builtinBundle, builtinErr
}

// Handle holds the current bundle for a process. The zero value is unusable;
// construct with NewHandle.
type Handle struct {
	ptr atomic.Pointer[Bundle]
	log *zap.Logger
}

// HandleOption configures a Handle.
type HandleOption func(*Handle)

// WithLogger sets the logger used by the watcher. Defaults to zap.NewNop.
func WithLogger(log *zap.Logger) HandleOption {
	return func(h *Handle) { h.log = log }
}

// NewHandle creates a handle publishing the given initial bundle.
func NewHandle(initial *Bundle, opts ...HandleOption) *Handle {
	h := &Handle{log: zap.NewNop()}
	h.ptr.Store(initial)
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Load returns the current bundle snapshot. Safe for unlimited concurrent
// callers; the returned bundle is immutable.
func (h *Handle) Load() *Bundle {
	return h.ptr.Load()
}

// Swap atomically installs a replacement bundle and returns the previous
// one. In-flight extractions keep using the snapshot they already hold.
func (h *Handle) Swap(b *Bundle) *Bundle {
	return h.ptr.Swap(b)
}

// Reload loads the artifact at path and installs it. On failure the current
// snapshot stays published and the error is returned.
func (h *Handle) Reload(path string) error {
	b, err := LoadFile(path)
	if err != nil {
		obs.RecordBundleReload(context.Background(), false)
		return err
	}
	h.Swap(b)
	obs.RecordBundleReload(context.Background(), true)
	h.log.Info("bundle reloaded",
		zap.String("path", path),
		zap.Int("providers", len(b.Providers())),
		zap.String("format_version", b.FormatVersion))
	return nil
}

// Watch re-loads the artifact at path whenever it changes, until ctx is
// done. Change bursts (editors and atomic-rename writers fire several
// events per save) are coalesced through a rate limiter to at most one
// reload per second, on the trailing edge: a throttled event schedules one
// deferred reload for when the limiter refills, so the last write of a
// burst always gets loaded even when an earlier event of the same burst
// spent the token on a partially written file. A failed reload logs and
// keeps the old snapshot.
func (h *Handle) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory; watching the file itself breaks under the
	// rename-then-create pattern most writers use.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	limiter := rate.NewLimiter(rate.Limit(1), 1)
	target := filepath.Clean(path)

	reload := func() {
		if err := h.Reload(path); err != nil {
			h.log.Error("bundle reload failed, keeping previous snapshot",
				zap.String("path", path), zap.Error(err))
		}
	}

	// retry fires the deferred trailing reload; armed only while one is
	// owed.
	retry := time.NewTimer(time.Hour)
	if !retry.Stop() {
		<-retry.C
	}
	defer retry.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if pending {
				// The scheduled reload will pick this write up too.
				continue
			}
			if limiter.Allow() {
				reload()
				continue
			}
			pending = true
			retry.Reset(limiter.Reserve().Delay())
		case <-retry.C:
			pending = false
			reload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			h.log.Error("bundle watcher error", zap.Error(err))
		}
	}
}
