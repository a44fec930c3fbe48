package descriptor

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/mirror/internal/ir"
)

// Ref indexes an Entry in a Table.
type Ref int32

// NoRef is the invalid reference.
const NoRef Ref = -1

// Lookup failures.
var (
	ErrInvalidRef       = errors.New("invalid descriptor reference")
	ErrNoMember         = errors.New("no such member")
	ErrNotConstructible = errors.New("entry is not constructible")
	ErrNoInstance       = errors.New("no instance for construction args")
)

// Entry is one introspected entity. Entries are read-only once built;
// the Members and Instances maps must not be modified by callers.
type Entry struct {
	Name        string
	Path        string
	Kind        Kind
	Static      bool
	ReturnType  string
	PointerType string
	Parent      Ref
	Members     map[string]Ref
	Instances   map[string]Ref
}

// Table is the arena of entries. Safe for concurrent reads.
type Table struct {
	entries []Entry
	hash    string
}

// BuildError carries every validation problem found by Build.
type BuildError struct {
	Errors []ir.ValidationError
}

func (e *BuildError) Error() string {
	if len(e.Errors) == 1 {
		return "invalid descriptors: " + e.Errors[0].Error()
	}
	return fmt.Sprintf("invalid descriptors: %d errors, first: %s", len(e.Errors), e.Errors[0].Error())
}

// Build validates the descriptor forest and flattens it into a Table.
func Build(libs []Spec) (*Table, error) {
	if errs := Validate(libs); len(errs) > 0 {
		return nil, &BuildError{Errors: errs}
	}

	t := &Table{}
	root := t.push(Entry{Kind: KindNamespace, Parent: NoRef, Static: true})

	byName := make(map[string]Spec, len(libs))
	for _, lib := range libs {
		byName[lib.Name] = lib
	}
	for _, name := range sortedMemberNames(byName) {
		ref, err := t.add(root, "", name, byName[name])
		if err != nil {
			return nil, err
		}
		t.entries[root].Members[name] = ref
	}

	hash, err := t.fingerprint()
	if err != nil {
		return nil, err
	}
	t.hash = hash
	return t, nil
}

func (t *Table) push(e Entry) Ref {
	if e.Members == nil {
		e.Members = make(map[string]Ref)
	}
	t.entries = append(t.entries, e)
	return Ref(len(t.entries) - 1)
}

func (t *Table) add(parent Ref, prefix, name string, s Spec) (Ref, error) {
	kind, err := ParseKind(s.Kind)
	if err != nil {
		return NoRef, err
	}

	path := name
	if prefix != "" {
		path = prefix + "." + name
	}

	parentKind := t.entries[parent].Kind
	e := Entry{
		Name:        name,
		Path:        path,
		Kind:        kind,
		Static:      defaultStatic(kind, parentKind),
		ReturnType:  s.ReturnType,
		PointerType: s.PointerType,
		Parent:      parent,
	}
	if s.Static != nil {
		e.Static = *s.Static
	}
	if kind == KindClass && e.ReturnType == "" {
		e.ReturnType = path
	}
	if kind == KindClass && e.PointerType == "" {
		e.PointerType = name + "Pointer"
	}
	ref := t.push(e)

	if err := t.addMembers(ref, path, s.Members); err != nil {
		return NoRef, err
	}

	for _, inst := range s.Instances {
		key, err := argsKey(inst.Args)
		if err != nil {
			return NoRef, err
		}
		iref := t.push(Entry{
			Name:        name,
			Path:        path,
			Kind:        KindClass,
			Static:      false,
			ReturnType:  e.ReturnType,
			PointerType: e.PointerType,
			Parent:      ref,
		})
		if err := t.addMembers(iref, path, inst.Members); err != nil {
			return NoRef, err
		}
		if t.entries[ref].Instances == nil {
			t.entries[ref].Instances = make(map[string]Ref)
		}
		t.entries[ref].Instances[key] = iref
	}

	return ref, nil
}

func (t *Table) addMembers(owner Ref, path string, members map[string]Spec) error {
	for _, member := range sortedMemberNames(members) {
		mref, err := t.add(owner, path, member, members[member])
		if err != nil {
			return err
		}
		t.entries[owner].Members[member] = mref
	}
	return nil
}

// defaultStatic: free functions and constructors need no bound instance,
// methods and properties do.
func defaultStatic(kind, parent Kind) bool {
	switch kind {
	case KindNamespace, KindClass:
		return true
	case KindCallable:
		return parent == KindNamespace
	default:
		return false
	}
}

// Root is the global scope.
func (t *Table) Root() Ref {
	return 0
}

// Len is the number of entries, including the global scope and instances.
func (t *Table) Len() int {
	return len(t.entries)
}

// Hash fingerprints the table contents.
func (t *Table) Hash() string {
	return t.hash
}

// Entry returns the entry at ref.
func (t *Table) Entry(ref Ref) (Entry, error) {
	if ref < 0 || int(ref) >= len(t.entries) {
		return Entry{}, fmt.Errorf("%w: %d", ErrInvalidRef, ref)
	}
	return t.entries[ref], nil
}

// Lookup resolves an attribute name on the entity at ref.
func (t *Table) Lookup(ref Ref, name string) (Ref, error) {
	e, err := t.Entry(ref)
	if err != nil {
		return NoRef, err
	}
	child, ok := e.Members[name]
	if !ok {
		owner := e.Path
		if owner == "" {
			owner = "<global>"
		}
		return NoRef, fmt.Errorf("%w: %s has no attribute %q", ErrNoMember, owner, name)
	}
	return child, nil
}

// IsNamespace reports whether ref denotes a further-navigable grouping
// entity rather than an invocable or attribute target.
func (t *Table) IsNamespace(ref Ref) bool {
	e, err := t.Entry(ref)
	return err == nil && e.Kind == KindNamespace
}

// Construct materializes the concrete object that calling the entity at
// ref with args would produce.
func (t *Table) Construct(ref Ref, args []ir.Value) (Ref, error) {
	e, err := t.Entry(ref)
	if err != nil {
		return NoRef, err
	}
	if e.Kind != KindClass && e.Kind != KindCallable {
		return NoRef, fmt.Errorf("%w: %s is a %s", ErrNotConstructible, e.Path, e.Kind)
	}
	key, err := argsKey(args)
	if err != nil {
		return NoRef, err
	}
	inst, ok := e.Instances[key]
	if !ok {
		return NoRef, fmt.Errorf("%w: %s(%s)", ErrNoInstance, e.Path, strings.Trim(key, "[]"))
	}
	return inst, nil
}

// Resolve walks a dotted path from the global scope.
func (t *Table) Resolve(path string) (Entry, error) {
	ref, err := t.ResolveRef(path)
	if err != nil {
		return Entry{}, err
	}
	return t.entries[ref], nil
}

// ResolveRef is Resolve returning the reference.
func (t *Table) ResolveRef(path string) (Ref, error) {
	if path == "" {
		return NoRef, fmt.Errorf("%w: empty path", ErrNoMember)
	}
	ref := t.Root()
	for _, seg := range strings.Split(path, ".") {
		next, err := t.Lookup(ref, seg)
		if err != nil {
			return NoRef, err
		}
		ref = next
	}
	return ref, nil
}

// Walk visits every entry reachable through members, depth first in
// sorted member order. Instance entries are not visited.
func (t *Table) Walk(fn func(ref Ref, e Entry, depth int)) {
	var visit func(ref Ref, depth int)
	visit = func(ref Ref, depth int) {
		e := t.entries[ref]
		if ref != t.Root() {
			fn(ref, e, depth)
		}
		names := make([]string, 0, len(e.Members))
		for name := range e.Members {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			visit(e.Members[name], depth+1)
		}
	}
	visit(t.Root(), -1)
}

// fingerprint hashes every entry. Instance rows carry their construction
// args key, so tables differing only in instance args hash differently.
func (t *Table) fingerprint() (string, error) {
	instanceArgs := make(map[Ref]string)
	for _, e := range t.entries {
		for key, ref := range e.Instances {
			instanceArgs[ref] = key
		}
	}

	rows := make(ir.Array, 0, len(t.entries))
	for i, e := range t.entries {
		row := ir.Object{
			"path":         ir.String(e.Path),
			"kind":         ir.String(e.Kind.String()),
			"static":       ir.Bool(e.Static),
			"return_type":  ir.String(e.ReturnType),
			"pointer_type": ir.String(e.PointerType),
			"parent":       ir.Int(e.Parent),
		}
		if key, ok := instanceArgs[Ref(i)]; ok {
			row["instance_args"] = ir.String(key)
		}
		rows = append(rows, row)
	}
	return ir.Fingerprint(ir.DomainDescriptor, rows)
}
