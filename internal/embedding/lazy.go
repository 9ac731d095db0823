package embedding

import (
	"context"
	"sync"
	"sync/atomic"
)

// Factory constructs the underlying embedder on first use
type Factory func(ctx context.Context) (Embedder, error)

// Lazy is an Embedder that constructs its delegate exactly once, on first use.
// A failed construction is not cached; the next call retries.
type Lazy struct {
	factory Factory
	mu      sync.Mutex
	value   atomic.Pointer[Embedder]
}

// NewLazy wraps factory
func NewLazy(factory Factory) *Lazy {
	return &Lazy{factory: factory}
}

// Get returns the delegate, constructing it if needed
func (l *Lazy) Get(ctx context.Context) (Embedder, error) {
	if e := l.value.Load(); e != nil {
		return *e, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if e := l.value.Load(); e != nil {
		return *e, nil
	}
	e, err := l.factory(ctx)
	if err != nil {
		return nil, err
	}
	l.value.Store(&e)
	return e, nil
}

// Embed delegates to the lazily constructed embedder
func (l *Lazy) Embed(ctx context.Context, text string) ([]float32, error) {
	e, err := l.Get(ctx)
	if err != nil {
		return nil, err
	}
	return e.Embed(ctx, text)
}

// Initialized reports whether the delegate has been constructed
func (l *Lazy) Initialized() bool {
	return l.value.Load() != nil
}

// Close closes the delegate if it was constructed and supports closing
func (l *Lazy) Close() error {
	e := l.value.Load()
	if e == nil {
		return nil
	}
	if c, ok := (*e).(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
