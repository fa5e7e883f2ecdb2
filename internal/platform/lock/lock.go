// Package lock provides keyed mutual exclusion, either in-process or shared
// through Redis.
package lock

import (
	"context"
	"sort"
	"sync"
)

// Unlock releases a held lock. It is safe to call more than once.
type Unlock func()

// Locker acquires an exclusive lock on key, blocking until it is free or ctx
// is done.
type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

// LocalLocker serialises holders of the same key within one process.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]*slot)}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, s, false)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(key, s, true) })
	}, nil
}

func (l *LocalLocker) release(key string, s *slot, held bool) {
	if held {
		<-s.ch
	}
	l.mu.Lock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
	l.mu.Unlock()
}

// AcquireAll locks every key in sorted order so that callers locking
// overlapping key sets cannot deadlock. On failure nothing stays held.
func AcquireAll(ctx context.Context, locker Locker, keys []string) (Unlock, error) {
	sorted := dedupe(keys)
	held := make([]Unlock, 0, len(sorted))
	releaseAll := func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i]()
		}
	}

	for _, key := range sorted {
		unlock, err := locker.Lock(ctx, key)
		if err != nil {
			releaseAll()
			return nil, err
		}
		held = append(held, unlock)
	}

	var once sync.Once
	return func() { once.Do(releaseAll) }, nil
}

func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
