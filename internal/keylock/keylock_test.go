package keylock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyLock_SerializesSameKey(t *testing.T) {
	locks := New()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("F1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}

func TestKeyLock_DistinctKeysDoNotBlock(t *testing.T) {
	locks := New()

	unlockA := locks.Lock("F1")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock("F2")
		unlockB()
		close(done)
	}()

	<-done
}

func TestKeyLock_OverlappingKeySetsNoDeadlock(t *testing.T) {
	locks := New()

	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 200; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("F1", "F2")
			defer unlock()
			counter++
		}()
		go func() {
			defer wg.Done()
			unlock := locks.Lock("F2", "F1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 400, counter)
}

func TestKeyLock_DuplicateAndEmptyKeys(t *testing.T) {
	locks := New()

	unlock := locks.Lock("F1", "F1", "")
	unlock()
	unlock() // repeat unlock is a no-op

	unlock2 := locks.Lock("F1")
	unlock2()
}
