// Package keylock provides per-key mutual exclusion. The ticket service locks
// by flight id so that check-and-decrement sections on the same flight
// serialize, while bookings on distinct flights run in parallel.
package keylock

import (
	"sort"
	"sync"
)

type entry struct {
	mu   sync.Mutex
	refs int
}

type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*entry
}

func New() *KeyLock {
	return &KeyLock{locks: make(map[string]*entry)}
}

// Lock acquires the mutex for every key and returns the matching unlock
// function. Keys are deduplicated and acquired in sorted order, so two callers
// locking overlapping key sets cannot deadlock.
func (l *KeyLock) Lock(keys ...string) func() {
	uniq := dedupSorted(keys)

	entries := make([]*entry, 0, len(uniq))
	for _, key := range uniq {
		entries = append(entries, l.acquireEntry(key))
	}
	for _, e := range entries {
		e.mu.Lock()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for i := len(entries) - 1; i >= 0; i-- {
				entries[i].mu.Unlock()
				l.releaseEntry(uniq[i])
			}
		})
	}
}

func (l *KeyLock) acquireEntry(key string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.locks[key]
	if !ok {
		e = &entry{}
		l.locks[key] = e
	}
	e.refs++
	return e
}

func (l *KeyLock) releaseEntry(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.locks[key]
	if !ok {
		return
	}
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

func dedupSorted(keys []string) []string {
	uniq := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		uniq = append(uniq, k)
	}
	sort.Strings(uniq)
	return uniq
}
