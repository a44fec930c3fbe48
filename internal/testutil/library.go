package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/mirror/internal/descriptor"
	"github.com/roach88/mirror/internal/ir"
)

// LibrarySpecs describes a small library:
//
//	lib                       namespace
//	lib.python                namespace
//	lib.python.List           class, ListPointer
//	lib.python.List.append    method -> lib.python.None
//	lib.python.List.fromkeys  static method -> lib.python.List
//	lib.python.List.ops       namespace bound as a class attribute
//	lib.python.Int            class
//	lib.python.None           class
//	lib.typing                namespace
//	lib.typing.Vector         class, instances for (3) and ("int", 2)
//	lib.len                   function -> lib.python.Int
func LibrarySpecs() []descriptor.Spec {
	static := true
	return []descriptor.Spec{{
		Name: "lib",
		Kind: "namespace",
		Members: map[string]descriptor.Spec{
			"python": {
				Kind: "namespace",
				Members: map[string]descriptor.Spec{
					"List": {
						Kind:        "class",
						PointerType: "ListPointer",
						Members: map[string]descriptor.Spec{
							"append":   {Kind: "callable", ReturnType: "lib.python.None"},
							"fromkeys": {Kind: "callable", ReturnType: "lib.python.List", Static: &static},
							"ops": {
								Kind: "namespace",
								Members: map[string]descriptor.Spec{
									"concat": {Kind: "callable", ReturnType: "lib.python.List"},
								},
							},
						},
					},
					"Int":  {Kind: "class"},
					"None": {Kind: "class"},
				},
			},
			"typing": {
				Kind: "namespace",
				Members: map[string]descriptor.Spec{
					"Vector": {
						Kind: "class",
						Instances: []descriptor.InstanceSpec{
							{
								Args: []ir.Value{ir.Int(3)},
								Members: map[string]descriptor.Spec{
									"dot": {Kind: "callable", ReturnType: "lib.python.Int"},
								},
							},
							{
								Args: []ir.Value{ir.String("int"), ir.Int(2)},
								Members: map[string]descriptor.Spec{
									"norm": {Kind: "callable", ReturnType: "lib.python.Int"},
								},
							},
						},
					},
				},
			},
			"len": {Kind: "callable", ReturnType: "lib.python.Int"},
		},
	}}
}

// Library builds LibrarySpecs into a table.
func Library(t testing.TB) *descriptor.Table {
	t.Helper()
	table, err := descriptor.Build(LibrarySpecs())
	require.NoError(t, err)
	return table
}
