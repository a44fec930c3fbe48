package descriptor

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/mirror/internal/ir"
)

// Spec is one node of a generated API description, as written by the
// offline generation step. Members are keyed by segment name.
type Spec struct {
	Name        string          `json:"name" yaml:"name"`
	Kind        string          `json:"kind" yaml:"kind"`
	Static      *bool           `json:"static,omitempty" yaml:"static,omitempty"`
	ReturnType  string          `json:"return_type,omitempty" yaml:"return_type,omitempty"`
	PointerType string          `json:"pointer_type,omitempty" yaml:"pointer_type,omitempty"`
	Members     map[string]Spec `json:"members,omitempty" yaml:"members,omitempty"`
	Instances   []InstanceSpec  `json:"instances,omitempty" yaml:"instances,omitempty"`
}

// InstanceSpec describes the concrete object a factory produces for one
// argument list, e.g. a generic container instantiated with an element type.
type InstanceSpec struct {
	Args    []ir.Value      `json:"args" yaml:"-"`
	Members map[string]Spec `json:"members,omitempty" yaml:"members,omitempty"`
}

// argsKey is the canonical lookup key for a construction argument list.
func argsKey(args []ir.Value) (string, error) {
	data, err := ir.MarshalCanonical(ir.Array(args))
	if err != nil {
		return "", fmt.Errorf("construction args: %w", err)
	}
	return string(data), nil
}

// sortedMemberNames returns member keys in byte order so arena layout is
// stable across loads.
func sortedMemberNames(m map[string]Spec) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Validate checks a spec forest. Returns every problem found.
func Validate(libs []Spec) []ir.ValidationError {
	var errs []ir.ValidationError
	seen := make(map[string]bool)
	for i, lib := range libs {
		field := fmt.Sprintf("libraries[%d]", i)
		if seen[lib.Name] {
			errs = append(errs, ir.ValidationError{Field: field + ".name", Message: fmt.Sprintf("duplicate library %q", lib.Name)})
		}
		seen[lib.Name] = true
		errs = append(errs, validateSpec(field, lib.Name, lib)...)
	}
	return errs
}

func validateSpec(field, name string, s Spec) []ir.ValidationError {
	var errs []ir.ValidationError

	if name == "" {
		errs = append(errs, ir.ValidationError{Field: field + ".name", Message: "name is required"})
	} else if strings.ContainsAny(name, ". \t") {
		errs = append(errs, ir.ValidationError{Field: field + ".name", Message: fmt.Sprintf("name %q must be a single path segment", name)})
	}

	kind, err := ParseKind(s.Kind)
	if err != nil {
		errs = append(errs, ir.ValidationError{Field: field + ".kind", Message: err.Error()})
		return errs
	}

	if (kind == KindCallable || kind == KindAttribute) && len(s.Members) > 0 {
		errs = append(errs, ir.ValidationError{Field: field + ".members", Message: fmt.Sprintf("%s cannot have members", kind)})
	}
	if len(s.Instances) > 0 && kind != KindClass && kind != KindCallable {
		errs = append(errs, ir.ValidationError{Field: field + ".instances", Message: fmt.Sprintf("%s cannot declare instances", kind)})
	}
	if s.PointerType != "" && kind != KindClass {
		errs = append(errs, ir.ValidationError{Field: field + ".pointer_type", Message: "only classes declare a pointer type"})
	}

	for _, member := range sortedMemberNames(s.Members) {
		errs = append(errs, validateSpec(field+".members."+member, member, withName(s.Members[member], member))...)
	}

	keys := make(map[string]bool)
	for i, inst := range s.Instances {
		ifield := fmt.Sprintf("%s.instances[%d]", field, i)
		key, err := argsKey(inst.Args)
		if err != nil {
			errs = append(errs, ir.ValidationError{Field: ifield + ".args", Message: err.Error()})
			continue
		}
		if keys[key] {
			errs = append(errs, ir.ValidationError{Field: ifield + ".args", Message: fmt.Sprintf("duplicate instance args %s", key)})
		}
		keys[key] = true
		for _, member := range sortedMemberNames(inst.Members) {
			errs = append(errs, validateSpec(ifield+".members."+member, member, withName(inst.Members[member], member))...)
		}
	}

	return errs
}

func withName(s Spec, name string) Spec {
	if s.Name == "" {
		s.Name = name
	}
	return s
}
