package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/mirror/internal/ir"
)

func TestSequenceAllocator_Next(t *testing.T) {
	a := NewSequenceAllocator()
	assert.Equal(t, "00000000-0000-0000-0000-000000000001", a.Next().String())
	assert.Equal(t, "00000000-0000-0000-0000-000000000002", a.Next().String())
	assert.Equal(t, uint64(2), a.Count())
}

func TestSequenceAllocator_Reset(t *testing.T) {
	a := NewSequenceAllocator()
	a.Next()
	a.Next()
	a.Reset()
	assert.Equal(t, UID(1), a.Next())
}

func TestSequenceAllocator_Concurrent(t *testing.T) {
	a := NewSequenceAllocator()
	const goroutines, perG = 10, 100

	var mu sync.Mutex
	seen := make(map[ir.UID]bool)
	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perG {
				id := a.Next()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, goroutines*perG)
	assert.False(t, seen[ir.NilUID])
}

func TestLibrary(t *testing.T) {
	table := Library(t)
	e, err := table.Resolve("lib.python.List.ops")
	assert.NoError(t, err)
	assert.Equal(t, "namespace", e.Kind.String())
}
