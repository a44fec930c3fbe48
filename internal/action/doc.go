// Package action defines the immutable records sent to a destination.
//
// Every message carries its identity and destination address first. A
// RunAction asks the destination to invoke a mirrored path with pointer-only
// arguments and write the result under ResultID. It is fire-and-forget and
// has no reply-to address. The create request/response pairs follow the same
// shape plus an opaque settings payload, a reply-to on requests, and a
// success flag with free-text status on responses.
package action
