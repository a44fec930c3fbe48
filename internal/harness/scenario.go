package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/mirror/internal/ir"
	"github.com/roach88/mirror/internal/mirror"
)

// Scenario defines one mirror run and what its trace must look like.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Descriptors is the descriptor file or CUE package to load. Relative
	// paths are resolved against the scenario file.
	Descriptors string `yaml:"descriptors"`

	// Address is the destination, "network/domain/device/vm".
	Address string `yaml:"address"`

	// OnError is the population policy for Paths: "fail" or "skip".
	OnError string `yaml:"on_error,omitempty"`

	// Paths are mirrored before any call.
	Paths []mirror.PathSpec `yaml:"paths,omitempty"`

	// Calls run in order.
	Calls []CallStep `yaml:"calls"`

	// Assertions validate the final trace.
	Assertions []Assertion `yaml:"assertions"`
}

// CallStep is one call on a mirrored path.
type CallStep struct {
	// Call is the dotted path. It is mirrored on demand.
	Call string `yaml:"call"`

	Args   []any          `yaml:"args,omitempty"`
	Kwargs map[string]any `yaml:"kwargs,omitempty"`

	// Static overrides the descriptor's static flag for the terminal node.
	Static *bool `yaml:"static,omitempty"`

	// As binds the result for later "$name" references.
	As string `yaml:"as,omitempty"`

	// Pending binds the call without dispatching it. Requires As.
	Pending bool `yaml:"pending,omitempty"`

	// Expect validates the call outcome. Nil means the call must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause validates one call.
type ExpectClause struct {
	TypePath    string `yaml:"type_path,omitempty"`
	PointerType string `yaml:"pointer_type,omitempty"`

	// Error is the expected mirror error code, e.g. NAMESPACE_LEAF.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the trace.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": a run action for Path exists, with argument type
	//   paths Args when given
	// - "trace_order": run actions for Paths appear in order
	// - "trace_count": Kind and/or Path appear exactly Count times
	// - "consumers": the result bound as Ref is consumed by runs of Paths
	Type string `yaml:"type"`

	Path  string   `yaml:"path,omitempty"`
	Kind  string   `yaml:"kind,omitempty"`
	Args  []string `yaml:"args,omitempty"`
	Paths []string `yaml:"paths,omitempty"`
	Count int      `yaml:"count,omitempty"`
	Ref   string   `yaml:"ref,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertConsumers     = "consumers"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected and the descriptor path is resolved against the file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if !filepath.IsAbs(scenario.Descriptors) {
		scenario.Descriptors = filepath.Join(filepath.Dir(path), scenario.Descriptors)
	}
	if _, err := os.Stat(scenario.Descriptors); err != nil {
		return nil, fmt.Errorf("invalid scenario: descriptors not found: %s", scenario.Descriptors)
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML without touching the filesystem.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Descriptors == "" {
		return fmt.Errorf("descriptors is required")
	}
	if _, err := ir.ParseAddress(s.Address); err != nil {
		return fmt.Errorf("address: %w", err)
	}
	if _, err := mirror.ParsePolicy(s.OnError); err != nil {
		return fmt.Errorf("on_error: %w", err)
	}
	for i, p := range s.Paths {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("paths[%d]: %w", i, err)
		}
	}
	if len(s.Calls) == 0 {
		return fmt.Errorf("calls list is required and must be non-empty")
	}

	bound := make(map[string]bool)
	for i, step := range s.Calls {
		if step.Call == "" {
			return fmt.Errorf("calls[%d]: call is required", i)
		}
		if step.Pending && step.As == "" {
			return fmt.Errorf("calls[%d]: pending calls must be bound with as", i)
		}
		if step.Pending && step.Expect != nil {
			return fmt.Errorf("calls[%d]: pending calls cannot have expect", i)
		}
		if step.As != "" {
			if bound[step.As] {
				return fmt.Errorf("calls[%d]: %q is already bound", i, step.As)
			}
			bound[step.As] = true
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a, bound); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a Assertion, bound map[string]bool) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTraceContains:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Paths) == 0 {
			return fmt.Errorf("assertions[%d]: paths list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Path == "" && a.Kind == "" {
			return fmt.Errorf("assertions[%d]: path or kind is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertConsumers:
		if !bound[a.Ref] {
			return fmt.Errorf("assertions[%d]: ref %q is not bound by any call", index, a.Ref)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
