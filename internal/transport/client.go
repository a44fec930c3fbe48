package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/mirror/internal/action"
	"github.com/roach88/mirror/internal/descriptor"
	"github.com/roach88/mirror/internal/ir"
)

// ErrNoDescriptors is returned by Resolve when the destination published
// no descriptor table.
var ErrNoDescriptors = errors.New("destination published no descriptors")

// Client is bound to one destination address.
//
// Thread-safety model:
//   - Resolve, AllocateIdentity, Address, SendNoReply: safe from any goroutine
//   - Run: must be called from exactly one goroutine
type Client struct {
	table   *descriptor.Table
	addr    ir.Address
	handler Handler
	alloc   Allocator
	clock   *Clock
	delay   time.Duration
	outbox  *outbox
}

// Option configures a Client.
type Option func(*Client)

// WithAllocator replaces the UUIDv7 allocator.
func WithAllocator(a Allocator) Option {
	return func(c *Client) {
		c.alloc = a
	}
}

// WithClock sets the clock that stamps deliveries, e.g. one resumed from
// a journal with NewClockAt.
func WithClock(clock *Clock) Option {
	return func(c *Client) {
		c.clock = clock
	}
}

// WithDelay holds every delivery back by d. Senders are not affected.
func WithDelay(d time.Duration) Option {
	return func(c *Client) {
		c.delay = d
	}
}

// NewClient returns a client for the destination at addr whose published
// descriptors are table. Deliveries go to handler once Run is started.
func NewClient(table *descriptor.Table, addr ir.Address, handler Handler, opts ...Option) *Client {
	c := &Client{
		table:   table,
		addr:    addr,
		handler: handler,
		alloc:   UUIDv7Allocator{},
		clock:   NewClock(),
		outbox:  newOutbox(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve looks up a dotted path in the destination's descriptors.
func (c *Client) Resolve(path string) (descriptor.Entry, error) {
	if c.table == nil {
		return descriptor.Entry{}, fmt.Errorf("resolve %q: %w", path, ErrNoDescriptors)
	}
	return c.table.Resolve(path)
}

// AllocateIdentity returns a fresh identity.
func (c *Client) AllocateIdentity() ir.UID {
	return c.alloc.Next()
}

// Address is the destination every message from this client targets.
func (c *Client) Address() ir.Address {
	return c.addr
}

// SendNoReply queues msg for delivery and returns at once. Messages sent
// after Close are dropped and logged.
func (c *Client) SendNoReply(msg action.Message) {
	if !c.outbox.Enqueue(msg) {
		slog.Warn("message dropped: client closed",
			"kind", msg.Kind(),
			"id", msg.ID().String(),
		)
	}
}

// Pending is the number of messages not yet delivered.
func (c *Client) Pending() int {
	return c.outbox.Len()
}

// Close stops accepting messages. Run delivers what is already queued and
// then returns nil.
func (c *Client) Close() {
	c.outbox.Close()
}

// Run delivers queued messages in send order until ctx is cancelled or the
// client is closed and drained.
//
// A failing delivery is logged with the message identity and delivery
// continues with the next message. Retrying would reorder the stream.
func (c *Client) Run(ctx context.Context) error {
	slog.Debug("transport starting", "address", c.addr.String())

	for {
		msg, ok := c.outbox.TryDequeue()
		if ok {
			if err := c.deliver(ctx, msg); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				slog.Error("delivery failed",
					"kind", msg.Kind(),
					"id", msg.ID().String(),
					"address", msg.Destination().String(),
					"error", err,
				)
			}
			continue
		}

		select {
		case <-ctx.Done():
			slog.Debug("transport stopping: context cancelled")
			return ctx.Err()
		case <-c.outbox.Wait():
			if c.outbox.Drained() {
				slog.Debug("transport stopping: closed")
				return nil
			}
		}
	}
}

func (c *Client) deliver(ctx context.Context, msg action.Message) error {
	if c.delay > 0 {
		timer := time.NewTimer(c.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	if c.handler == nil {
		return nil
	}
	return c.handler.Deliver(ctx, Delivery{Seq: c.clock.Next(), Message: msg})
}

// Flush closes the client and delivers everything queued. It is Close
// followed by Run, for one-shot callers such as the CLI.
func (c *Client) Flush(ctx context.Context) error {
	c.Close()
	return c.Run(ctx)
}
