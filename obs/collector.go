package obs

import (
	"sort"
	"sync"

	"github.com/getcanon/canon/core"
)

// Collector aggregates per-event diagnostics in process, for coverage
// inspection without a metrics backend. It is safe for concurrent use.
type Collector struct {
	mu sync.Mutex

	events     int64
	byProvider map[string]int64
	byKind     map[core.DiagnosticKind]int64

	// recent is a bounded ring of the latest diagnostics.
	recent   []core.Diagnostic
	next     int
	capacity int
}

// NewCollector creates a collector retaining up to capacity recent
// diagnostics (default 128 when capacity is not positive).
func NewCollector(capacity int) *Collector {
	if capacity <= 0 {
		capacity = 128
	}
	return &Collector{
		byProvider: make(map[string]int64),
		byKind:     make(map[core.DiagnosticKind]int64),
		capacity:   capacity,
	}
}

// Record folds one normalized event into the collector.
func (c *Collector) Record(ev *core.CanonicalEvent) {
	if ev == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.events++
	c.byProvider[ev.Provider()]++
	for _, d := range ev.Diagnostics {
		c.byKind[d.Kind]++
		if len(c.recent) < c.capacity {
			c.recent = append(c.recent, d)
		} else {
			c.recent[c.next] = d
			c.next = (c.next + 1) % c.capacity
		}
	}
}

// Stats is a point-in-time snapshot of collector state.
type Stats struct {
	Events     int64
	ByProvider map[string]int64
	ByKind     map[core.DiagnosticKind]int64
	Recent     []core.Diagnostic
}

// Snapshot returns a copy of the current state.
func (c *Collector) Snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Events:     c.events,
		ByProvider: make(map[string]int64, len(c.byProvider)),
		ByKind:     make(map[core.DiagnosticKind]int64, len(c.byKind)),
		Recent:     make([]core.Diagnostic, 0, len(c.recent)),
	}
	for k, v := range c.byProvider {
		s.ByProvider[k] = v
	}
	for k, v := range c.byKind {
		s.ByKind[k] = v
	}
	// Oldest first.
	for i := 0; i < len(c.recent); i++ {
		s.Recent = append(s.Recent, c.recent[(c.next+i)%len(c.recent)])
	}
	return s
}

// Providers returns the provider ids seen so far, sorted.
func (s Stats) Providers() []string {
	out := make([]string, 0, len(s.ByProvider))
	for p := range s.ByProvider {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
