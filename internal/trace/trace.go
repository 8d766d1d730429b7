// Package trace collects per-run provider traces. A collector is created per
// pipeline run and passed explicitly through the run context; there is no
// process-wide mutable log handle.
package trace

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type ctxKey struct{}

// WithContext attaches the collector to the context so provider adapters can
// record their interactions against the owning run.
func WithContext(ctx context.Context, c *Collector) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext returns the context's collector, or nil when none is attached.
// A nil collector accepts and drops entries.
func FromContext(ctx context.Context) *Collector {
	c, _ := ctx.Value(ctxKey{}).(*Collector)
	return c
}

// Entry records one provider interaction or stage event.
type Entry struct {
	Step   string    `json:"step"`
	Detail string    `json:"detail"`
	At     time.Time `json:"at"`
}

// Collector accumulates trace entries. Safe for concurrent use by sibling
// stages and enrichment workers.
type Collector struct {
	mu      sync.Mutex
	entries []Entry
}

// New creates an empty collector.
func New() *Collector {
	return &Collector{}
}

// Add appends an entry. Nil collectors are tolerated so stages can run
// without tracing in tests.
func (c *Collector) Add(step, detail string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, Entry{Step: step, Detail: detail, At: time.Now()})
}

// Addf appends a formatted entry.
func (c *Collector) Addf(step, format string, args ...any) {
	c.Add(step, fmt.Sprintf(format, args...))
}

// Entries returns a copy of the collected entries.
func (c *Collector) Entries() []Entry {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}
