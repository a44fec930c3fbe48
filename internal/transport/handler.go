package transport

import (
	"context"
	"sync"

	"github.com/roach88/mirror/internal/action"
)

// Delivery is one message handed to a Handler.
type Delivery struct {
	Seq     int64
	Message action.Message
}

// Handler receives deliveries from a Client's Run loop.
type Handler interface {
	Deliver(ctx context.Context, d Delivery) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, d Delivery) error

func (f HandlerFunc) Deliver(ctx context.Context, d Delivery) error {
	return f(ctx, d)
}

// Fanout delivers to every handler in order. All handlers run even if one
// fails; the first error is returned.
func Fanout(handlers ...Handler) Handler {
	return HandlerFunc(func(ctx context.Context, d Delivery) error {
		var first error
		for _, h := range handlers {
			if err := h.Deliver(ctx, d); err != nil && first == nil {
				first = err
			}
		}
		return first
	})
}

// Collector keeps every delivery in memory. Thread-safe.
type Collector struct {
	mu         sync.Mutex
	deliveries []Delivery
	notify     chan struct{}
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{notify: make(chan struct{}, 1)}
}

func (c *Collector) Deliver(_ context.Context, d Delivery) error {
	c.mu.Lock()
	c.deliveries = append(c.deliveries, d)
	c.mu.Unlock()

	select {
	case c.notify <- struct{}{}:
	default:
	}
	return nil
}

// Deliveries returns a copy of what has been delivered so far.
func (c *Collector) Deliveries() []Delivery {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Delivery, len(c.deliveries))
	copy(out, c.deliveries)
	return out
}

// Messages returns the delivered messages in delivery order.
func (c *Collector) Messages() []action.Message {
	deliveries := c.Deliveries()
	out := make([]action.Message, len(deliveries))
	for i, d := range deliveries {
		out[i] = d.Message
	}
	return out
}

func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.deliveries)
}

// WaitFor blocks until at least n deliveries arrived or ctx is done.
func (c *Collector) WaitFor(ctx context.Context, n int) error {
	for {
		if c.Len() >= n {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.notify:
		}
	}
}
