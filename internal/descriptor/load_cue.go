package descriptor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/mirror/internal/ir"
)

// LoadError is a descriptor loading failure with source position when the
// CUE evaluator provides one.
type LoadError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadCUE loads descriptors from a CUE package directory or a single .cue
// file. The document must define a top-level `libraries` struct.
func LoadCUE(path string) ([]Spec, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("read descriptors: %w", err)
	}

	cfg := &load.Config{Dir: path}
	args := []string{"."}
	if !info.IsDir() {
		cfg.Dir = filepath.Dir(path)
		args = []string{filepath.Base(path)}
	}

	instances := load.Instances(args, cfg)
	if len(instances) == 0 {
		return nil, &LoadError{Field: "cue", Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}

	v := cuecontext.New().BuildInstance(inst)
	return parseCUE(v)
}

// ParseCUE compiles CUE source held in memory.
func ParseCUE(src string) ([]Spec, error) {
	v := cuecontext.New().CompileString(src)
	return parseCUE(v)
}

func parseCUE(v cue.Value) ([]Spec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	libsVal := v.LookupPath(cue.ParsePath("libraries"))
	if !libsVal.Exists() {
		return nil, &LoadError{Field: "libraries", Message: "libraries is required", Pos: v.Pos()}
	}

	iter, err := libsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var specs []Spec
	for iter.Next() {
		spec, err := parseCUESpec(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	if len(specs) == 0 {
		return nil, &LoadError{Field: "libraries", Message: "no libraries defined", Pos: libsVal.Pos()}
	}
	return specs, nil
}

func parseCUESpec(name string, v cue.Value) (Spec, error) {
	spec := Spec{Name: name}

	kindVal := v.LookupPath(cue.ParsePath("kind"))
	if !kindVal.Exists() {
		return spec, &LoadError{Field: name + ".kind", Message: "kind is required", Pos: v.Pos()}
	}
	kind, err := kindVal.String()
	if err != nil {
		return spec, formatCUEError(err)
	}
	spec.Kind = kind

	if sv := v.LookupPath(cue.ParsePath("static")); sv.Exists() {
		b, err := sv.Bool()
		if err != nil {
			return spec, formatCUEError(err)
		}
		spec.Static = &b
	}

	if spec.ReturnType, err = optionalString(v, "return_type"); err != nil {
		return spec, err
	}
	if spec.PointerType, err = optionalString(v, "pointer_type"); err != nil {
		return spec, err
	}

	if spec.Members, err = parseCUEMembers(v); err != nil {
		return spec, err
	}

	instVal := v.LookupPath(cue.ParsePath("instances"))
	if instVal.Exists() {
		list, err := instVal.List()
		if err != nil {
			return spec, formatCUEError(err)
		}
		for list.Next() {
			inst, err := parseCUEInstance(list.Value())
			if err != nil {
				return spec, err
			}
			spec.Instances = append(spec.Instances, inst)
		}
	}

	return spec, nil
}

func parseCUEMembers(v cue.Value) (map[string]Spec, error) {
	membersVal := v.LookupPath(cue.ParsePath("members"))
	if !membersVal.Exists() {
		return nil, nil
	}
	iter, err := membersVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	members := make(map[string]Spec)
	for iter.Next() {
		member, err := parseCUESpec(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		members[iter.Label()] = member
	}
	return members, nil
}

func parseCUEInstance(v cue.Value) (InstanceSpec, error) {
	var inst InstanceSpec

	argsVal := v.LookupPath(cue.ParsePath("args"))
	if argsVal.Exists() {
		list, err := argsVal.List()
		if err != nil {
			return inst, formatCUEError(err)
		}
		for list.Next() {
			arg, err := cueValue(list.Value())
			if err != nil {
				return inst, err
			}
			inst.Args = append(inst.Args, arg)
		}
	}

	members, err := parseCUEMembers(v)
	if err != nil {
		return inst, err
	}
	inst.Members = members
	return inst, nil
}

// cueValue maps a concrete CUE value onto the ir variant.
func cueValue(v cue.Value) (ir.Value, error) {
	switch v.Kind() {
	case cue.NullKind:
		return ir.Null{}, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.Bool(b), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.Int(n), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.String(s), nil
	case cue.ListKind:
		list, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		var arr ir.Array
		for list.Next() {
			elem, err := cueValue(list.Value())
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		if arr == nil {
			arr = ir.Array{}
		}
		return arr, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		obj := ir.Object{}
		for iter.Next() {
			elem, err := cueValue(iter.Value())
			if err != nil {
				return nil, err
			}
			obj[iter.Label()] = elem
		}
		return obj, nil
	case cue.FloatKind, cue.NumberKind:
		return nil, &LoadError{Field: "args", Message: "float construction arguments are not allowed", Pos: v.Pos()}
	default:
		return nil, &LoadError{Field: "args", Message: fmt.Sprintf("argument must be concrete, got %v", v.IncompleteKind()), Pos: v.Pos()}
	}
}

func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// formatCUEError keeps the first error and its position.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		return &LoadError{Field: "cue", Message: first.Error(), Pos: positions[0]}
	}
	return &LoadError{Field: "cue", Message: first.Error()}
}

// Load picks a loader by extension: .yaml/.yml use YAML, .cue files and
// directories use CUE.
func Load(path string) ([]Spec, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(path)
	case ".cue", "":
		return LoadCUE(path)
	default:
		return nil, fmt.Errorf("unsupported descriptor format %q: use .yaml, .yml or .cue", filepath.Ext(path))
	}
}

// LoadTable loads and builds in one step.
func LoadTable(path string) (*Table, error) {
	specs, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Build(specs)
}
