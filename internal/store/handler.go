package store

import (
	"context"

	"github.com/roach88/mirror/internal/transport"
)

// Handler journals every delivery it receives.
func (s *Store) Handler() transport.Handler {
	return transport.HandlerFunc(func(ctx context.Context, d transport.Delivery) error {
		return s.WriteDelivery(ctx, d)
	})
}
