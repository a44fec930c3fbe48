package transport

import (
	"github.com/google/uuid"

	"github.com/roach88/mirror/internal/ir"
)

// Allocator produces globally unique identities. Implementations must be
// safe for concurrent use.
type Allocator interface {
	Next() ir.UID
}

// UUIDv7Allocator allocates time-ordered UUIDv7 identities. Stateless.
type UUIDv7Allocator struct{}

// Next panics only if the system random source fails.
func (UUIDv7Allocator) Next() ir.UID {
	return uuid.Must(uuid.NewV7())
}
