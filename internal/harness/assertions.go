package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/mirror/internal/action"
	"github.com/roach88/mirror/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes the full trace to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		if event.Kind == action.KindRun {
			fmt.Fprintf(&buf, "  [%d] run %s %v\n", event.Seq, event.Path, event.Args)
		} else {
			fmt.Fprintf(&buf, "  [%d] %s %s\n", event.Seq, event.Kind, event.ID)
		}
	}

	return buf.String()
}

// assertTraceContains checks that a run action for the path exists. When
// Args is set the argument type paths must match exactly, in order.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Kind != action.KindRun || event.Path != assertion.Path {
			continue
		}
		if assertion.Args == nil || slices.Equal(event.Args, assertion.Args) {
			return nil
		}
	}

	expected := "run " + assertion.Path
	if assertion.Args != nil {
		expected += fmt.Sprintf(" with args %v", assertion.Args)
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: expected,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that run actions for the paths appear in order.
// Runs don't need to be consecutive. The first run of each path counts.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	positions := make(map[string]int)
	for i, event := range trace {
		if event.Kind != action.KindRun {
			continue
		}
		if _, seen := positions[event.Path]; !seen {
			positions[event.Path] = i + 1
		}
	}

	for _, path := range assertion.Paths {
		if positions[path] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all paths present: %v", assertion.Paths),
				Actual:   fmt.Sprintf("missing path: %s", path),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Paths); i++ {
		prev := assertion.Paths[i-1]
		curr := assertion.Paths[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("paths in order: %v", assertion.Paths),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}

	return nil
}

// assertTraceCount checks that messages matching Kind and Path appear
// exactly Count times. An empty field matches anything.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if assertion.Kind != "" && event.Kind != assertion.Kind {
			continue
		}
		if assertion.Path != "" && event.Path != assertion.Path {
			continue
		}
		count++
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%s appears %d times", describeFilter(assertion), assertion.Count),
			Actual:   fmt.Sprintf("appears %d times", count),
			Trace:    trace,
		}
	}
	return nil
}

func describeFilter(a Assertion) string {
	switch {
	case a.Kind != "" && a.Path != "":
		return a.Kind + " " + a.Path
	case a.Kind != "":
		return a.Kind
	default:
		return a.Path
	}
}

// assertConsumers checks which runs took the bound result as an argument,
// using the journal's argument links. Paths must match in delivery order.
func assertConsumers(ctx context.Context, st *store.Store, result *Result, assertion Assertion) error {
	p, ok := result.Bindings[assertion.Ref]
	if !ok {
		return &AssertionError{
			Type:     AssertConsumers,
			Expected: fmt.Sprintf("%q bound to a result", assertion.Ref),
			Actual:   "never dispatched",
			Trace:    result.Trace,
		}
	}

	links, err := st.ReadConsumers(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("consumers of %s: %w", assertion.Ref, err)
	}

	actual := make([]string, 0, len(links))
	for _, link := range links {
		event, ok := result.findByID(link.MessageID.String())
		if !ok {
			return fmt.Errorf("consumers of %s: message %s not in trace", assertion.Ref, link.MessageID)
		}
		actual = append(actual, event.Path)
	}

	if !slices.Equal(actual, assertion.Paths) {
		return &AssertionError{
			Type:     AssertConsumers,
			Expected: fmt.Sprintf("%s consumed by %v", assertion.Ref, assertion.Paths),
			Actual:   fmt.Sprintf("consumed by %v", actual),
			Trace:    result.Trace,
		}
	}
	return nil
}

// AssertionContext provides the journal for assertions that query it.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions checks all assertions against the result.
// Returns one message per failed assertion.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertConsumers:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: consumers requires a journal", i)
			} else {
				err = assertConsumers(actx.Ctx, actx.Store, result, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
