package harness

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/mirror/internal/action"
	"github.com/roach88/mirror/internal/ir"
)

// Snapshot renders a trace as canonical JSON: the scenario name plus every
// journaled envelope with its sequence number. Identities come from the
// sequence allocator, so snapshots are stable across runs.
func Snapshot(name string, trace []TraceEvent) ([]byte, error) {
	events := make(ir.Array, 0, len(trace))
	for _, event := range trace {
		data, err := action.Encode(event.Message)
		if err != nil {
			return nil, err
		}
		msg, err := ir.UnmarshalValue(data)
		if err != nil {
			return nil, fmt.Errorf("snapshot seq %d: %w", event.Seq, err)
		}
		events = append(events, ir.Object{
			"seq":     ir.Int(event.Seq),
			"message": msg,
		})
	}
	return ir.MarshalCanonical(ir.Object{
		"scenario": ir.String(name),
		"trace":    events,
	})
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's trace against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot, err := Snapshot(scenarioName, result.Trace)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, snapshot)
	return nil
}
