package testutil

import (
	"encoding/binary"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/mirror/internal/ir"
)

// SequenceAllocator hands out predictable identities for tests.
//
// The first call to Next returns 00000000-0000-0000-0000-000000000001, the
// second ...0002, and so on. Thread-safe via internal mutex.
type SequenceAllocator struct {
	mu  sync.Mutex
	seq uint64
}

// NewSequenceAllocator creates an allocator starting at 0.
func NewSequenceAllocator() *SequenceAllocator {
	return &SequenceAllocator{}
}

// Next returns the next identity.
func (a *SequenceAllocator) Next() ir.UID {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seq++
	return UID(a.seq)
}

// Count is the number of identities handed out since the last Reset.
func (a *SequenceAllocator) Count() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.seq
}

// Reset makes the next call to Next return identity 1 again.
func (a *SequenceAllocator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seq = 0
}

// UID returns the identity a SequenceAllocator produces for n.
func UID(n uint64) ir.UID {
	var id uuid.UUID
	binary.BigEndian.PutUint64(id[8:], n)
	return id
}
