package session

import (
	"context"
	"sync"
	"time"
)

// keyedMutex hands out one mutex per key. Entries are reference counted and
// removed when the last holder unlocks, so idle sessions cost nothing.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyLock)}
}

// lock blocks until key is free or ctx is done.
func (k *keyedMutex) lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{ch: make(chan struct{}, 1)}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
		return func() {
			<-l.ch
			k.release(key, l)
		}, nil
	case <-ctx.Done():
		k.release(key, l)
		return nil, ctx.Err()
	}
}

func (k *keyedMutex) release(key string, l *keyLock) {
	k.mu.Lock()
	defer k.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

// Manager runs turns against a Store, one at a time per session.
type Manager struct {
	store Store
	locks *keyedMutex
	idle  time.Duration
	now   func() time.Time
}

// NewManager creates a manager. Sessions idle longer than idle start over;
// idle <= 0 keeps them forever.
func NewManager(store Store, idle time.Duration) *Manager {
	return &Manager{store: store, locks: newKeyedMutex(), idle: idle, now: time.Now}
}

// Do loads (or creates) session id, runs fn on a private copy and stores the
// copy only when fn returns nil. Calls for the same id are serialized; calls
// for different ids run in parallel.
func (m *Manager) Do(ctx context.Context, id string, fn func(c *Context) error) error {
	unlock, err := m.locks.lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	now := m.now()
	c, ok, err := m.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		c = New(id, now)
	} else if c.Expired(now, m.idle) {
		// Tone is a property of the customer, not of the conversation.
		tone := c.Tone
		c = New(id, now)
		c.Tone = tone
	}

	if err := fn(c); err != nil {
		return err
	}
	c.UpdatedAt = now
	return m.store.Put(ctx, id, c)
}

// Get returns a copy of session id without locking it.
func (m *Manager) Get(ctx context.Context, id string) (*Context, bool, error) {
	return m.store.Get(ctx, id)
}

// Delete drops session id, waiting for any turn in progress.
func (m *Manager) Delete(ctx context.Context, id string) error {
	unlock, err := m.locks.lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()
	return m.store.Delete(ctx, id)
}
