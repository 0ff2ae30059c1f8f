package jobs

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTryLockExcludesSameKey(t *testing.T) {
	l := NewLocker()

	assert.True(t, l.TryLock("sync-fixtures"))
	assert.False(t, l.TryLock("sync-fixtures"))

	l.Unlock("sync-fixtures")
	assert.True(t, l.TryLock("sync-fixtures"))
}

func TestTryLockIndependentKeys(t *testing.T) {
	l := NewLocker()

	assert.True(t, l.TryLock("sync-fixtures"))
	assert.True(t, l.TryLock("sync-odds"))
}

func TestTryLockSingleWinnerUnderContention(t *testing.T) {
	l := NewLocker()

	const goroutines = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.TryLock("settle-finished") {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
}
