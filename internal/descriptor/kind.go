package descriptor

import "fmt"

// Kind classifies an entry.
type Kind uint8

const (
	// KindNamespace is a grouping entity with no invocable semantics
	// (a module or package). It can never terminate a mirror path under a
	// non-namespace node.
	KindNamespace Kind = iota + 1
	// KindClass is a type. Calling it constructs an instance.
	KindClass
	// KindCallable is a function, method or static method.
	KindCallable
	// KindAttribute is a readable property.
	KindAttribute
)

var kindNames = map[Kind]string{
	KindNamespace: "namespace",
	KindClass:     "class",
	KindCallable:  "callable",
	KindAttribute: "attribute",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown kind %q: must be one of namespace, class, callable, attribute", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("invalid kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
