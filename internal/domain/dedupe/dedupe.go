// Package dedupe remembers idempotency keys and the result each one produced.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

const defaultMaxSize = 50000

// Deduper maps idempotency keys to the id of the record they created.
type Deduper interface {
	// Lookup returns the recorded result for key.
	Lookup(ctx context.Context, key string) (string, bool)
	// Record stores result for key, evicting the oldest key when full.
	Record(ctx context.Context, key, result string)
	// Forget drops key so it can be used again.
	Forget(ctx context.Context, key string)

	Size() int64
}

type entry struct {
	key    string
	result string
}

// inMemoryDeduper keeps keys in insertion order and evicts the oldest first.
// With maxSize <= 0 it never evicts.
type inMemoryDeduper struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front is newest
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
	}

	for _, opt := range opts {
		opt(d)
	}

	d.entries = make(map[string]*list.Element)
	d.order = list.New()

	return d
}

func (d *inMemoryDeduper) Lookup(_ context.Context, key string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	el, ok := d.entries[key]
	if !ok {
		return "", false
	}
	return el.Value.(*entry).result, true
}

func (d *inMemoryDeduper) Record(_ context.Context, key, result string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.entries[key]; ok {
		el.Value.(*entry).result = result
		d.order.MoveToFront(el)
		return
	}
	if d.maxSize > 0 && len(d.entries) >= d.maxSize {
		d.evictOldest()
	}
	d.entries[key] = d.order.PushFront(&entry{key: key, result: result})
	d.size.Add(1)
}

func (d *inMemoryDeduper) Forget(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.entries[key]; ok {
		d.order.Remove(el)
		delete(d.entries, key)
		d.size.Add(-1)
	}
}

// evictOldest must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	el := d.order.Back()
	if el == nil {
		return
	}
	d.order.Remove(el)
	delete(d.entries, el.Value.(*entry).key)
	d.size.Add(-1)
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
