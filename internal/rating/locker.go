package rating

import (
	"context"
	"sync"
)

// Locker provides optional per-product mutual exclusion around a recompute.
// Lock blocks until the product is held or ctx ends and returns the release
// function.
type Locker interface {
	Lock(ctx context.Context, productID string) (unlock func(), err error)
}

// NopLocker never blocks. It preserves last-writer-wins behavior.
type NopLocker struct{}

// Lock implements Locker.
func (NopLocker) Lock(context.Context, string) (func(), error) {
	return func() {}, nil
}

// KeyedMutex serializes callers per key within one process. Entries are
// dropped once no caller holds or waits for them.
type KeyedMutex struct {
	mu    sync.Mutex
	slots map[string]*keySlot
}

type keySlot struct {
	ch   chan struct{}
	refs int
}

// NewKeyedMutex creates an empty KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{slots: make(map[string]*keySlot)}
}

// Lock implements Locker. It gives up with ctx.Err() if ctx ends first.
func (k *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	s, ok := k.slots[key]
	if !ok {
		s = &keySlot{ch: make(chan struct{}, 1)}
		k.slots[key] = s
	}
	s.refs++
	k.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		k.release(key, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			k.release(key, s)
		})
	}, nil
}

func (k *KeyedMutex) release(key string, s *keySlot) {
	k.mu.Lock()
	defer k.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(k.slots, key)
	}
}

// Len returns the number of keys currently held or awaited.
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.slots)
}
