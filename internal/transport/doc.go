// Package transport is the in-process client a mirror dispatches through.
//
// A Client resolves paths against the destination's published descriptor
// table, allocates identities, and accepts messages with SendNoReply,
// which only appends to an unbounded outbox and never blocks. Run delivers
// the outbox to a Handler in send order from a single goroutine, stamping
// each Delivery with a logical sequence number. Handler failures are
// logged and delivery continues.
package transport
