// Package dedupe tracks idempotency keys so a retried request is applied at
// most once and answered with the original result.
package dedupe

import (
	"container/list"
	"context"
	"sync"
)

const defaultMaxSize = 10000

// Deduper records idempotency keys and the result produced for them.
type Deduper interface {
	// SeenAndRecord atomically claims key. If key was already claimed it
	// returns true with the stored result, which is nil while the first
	// request is still running.
	SeenAndRecord(ctx context.Context, key string) (result []byte, seen bool)

	// Complete stores the result for a claimed key.
	Complete(ctx context.Context, key string, result []byte)

	// Unrecord releases a claim whose request failed, so it can be retried.
	Unrecord(ctx context.Context, key string)

	Size() int
}

type entry struct {
	key    string
	result []byte
}

// inMemoryDeduper keeps keys in insertion order and evicts the oldest once
// maxSize is reached. maxSize <= 0 means unbounded.
type inMemoryDeduper struct {
	mu      sync.Mutex
	byKey   map[string]*list.Element
	order   *list.List
	maxSize int
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		byKey:   make(map[string]*list.Element),
		order:   list.New(),
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.byKey[key]; ok {
		return el.Value.(*entry).result, true
	}
	if d.maxSize > 0 && d.order.Len() >= d.maxSize {
		d.evictOldest()
	}
	d.byKey[key] = d.order.PushBack(&entry{key: key})
	return nil, false
}

func (d *inMemoryDeduper) Complete(_ context.Context, key string, result []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if el, ok := d.byKey[key]; ok {
		el.Value.(*entry).result = result
	}
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if el, ok := d.byKey[key]; ok {
		d.order.Remove(el)
		delete(d.byKey, key)
	}
}

// evictOldest must be called with mu held.
func (d *inMemoryDeduper) evictOldest() {
	front := d.order.Front()
	if front == nil {
		return
	}
	d.order.Remove(front)
	delete(d.byKey, front.Value.(*entry).key)
}

func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.order.Len()
}
