package harness

import (
	"github.com/roach88/mirror/internal/action"
	"github.com/roach88/mirror/internal/pointer"
)

// TraceEvent is one journaled message.
type TraceEvent struct {
	Seq  int64  `json:"seq"`
	Kind string `json:"kind"`
	ID   string `json:"id"`

	// Path and Args are set for run actions. Args holds the type path of
	// every argument pointer, positional first then keyword.
	Path string   `json:"path,omitempty"`
	Args []string `json:"args,omitempty"`

	Message action.Message `json:"-"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every call met its expectation and every assertion
	// held.
	Pass bool `json:"pass"`

	// Trace contains every delivered message in sequence order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Bindings maps "as" names to result pointers. Pending calls appear
	// once they have been consumed.
	Bindings map[string]pointer.Pointer `json:"-"`

	// Skipped lists configured paths dropped under the skip policy.
	Skipped []string `json:"skipped,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Trace:    []TraceEvent{},
		Errors:   []string{},
		Bindings: make(map[string]pointer.Pointer),
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// findByID returns the event for a message identity.
func (r *Result) findByID(id string) (TraceEvent, bool) {
	for _, e := range r.Trace {
		if e.ID == id {
			return e, true
		}
	}
	return TraceEvent{}, false
}
