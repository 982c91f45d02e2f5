package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyncMap_LoadOrStore(t *testing.T) {
	sm := NewSyncMap[string, int]()

	actual, loaded := sm.LoadOrStore("a", 1)
	assert.False(t, loaded)
	assert.Equal(t, 1, actual)

	actual, loaded = sm.LoadOrStore("a", 2)
	assert.True(t, loaded)
	assert.Equal(t, 1, actual)

	v, ok := sm.Load("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	sm.Delete("a")
	assert.Zero(t, sm.Len())
}

func TestSyncMap_SingleWinnerUnderContention(t *testing.T) {
	sm := NewSyncMap[string, int]()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, loaded := sm.LoadOrStore("key", i); !loaded {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	assert.Equal(t, 1, sm.Len())
}
