package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSealed(t *testing.T) {
	var _ Value = Null{}
	var _ Value = String("test")
	var _ Value = Int(42)
	var _ Value = Bool(true)
	var _ Value = Array{String("a"), Int(1)}
	var _ Value = Object{"key": String("value")}
}

func TestObjectSortedKeys(t *testing.T) {
	obj := Object{
		"zebra":  String("z"),
		"apple":  String("a"),
		"banana": String("b"),
	}
	assert.Equal(t, []string{"apple", "banana", "zebra"}, obj.SortedKeys())
}

func TestObjectSortedKeysCase(t *testing.T) {
	obj := Object{"a": Int(1), "A": Int(2), "aa": Int(3), "aA": Int(4), "Aa": Int(5), "AA": Int(6)}
	assert.Equal(t, []string{"A", "AA", "Aa", "a", "aA", "aa"}, obj.SortedKeys())
}

func TestNewObject(t *testing.T) {
	obj := NewObject(O("name", String("List")), O("arity", Int(1)), O("name", String("Dict")))
	assert.Equal(t, Object{"name": String("Dict"), "arity": Int(1)}, obj)
}

func TestObjectMarshalJSONSorted(t *testing.T) {
	obj := Object{"b": Int(2), "a": Array{Bool(true), Null{}}}
	data, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"a":[true,null],"b":2}`, string(data))
}

func TestUnmarshalValue(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Value
	}{
		{"string", `"x"`, String("x")},
		{"int", `42`, Int(42)},
		{"large int", `9007199254740993`, Int(9007199254740993)},
		{"bool", `false`, Bool(false)},
		{"null", `null`, Null{}},
		{"array", `[1,"a"]`, Array{Int(1), String("a")}},
		{"object", `{"k":{"n":1}}`, Object{"k": Object{"n": Int(1)}}},
		{"padded", "  7 ", Int(7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UnmarshalValue([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnmarshalValueRejectsFloat(t *testing.T) {
	_, err := UnmarshalValue([]byte(`1.5`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-integral")

	_, err = UnmarshalValue([]byte(`[1, 2.0]`))
	require.Error(t, err)
}

func TestUnmarshalValueEmpty(t *testing.T) {
	_, err := UnmarshalValue(nil)
	require.Error(t, err)
}

func TestTypeTag(t *testing.T) {
	assert.Equal(t, "null", TypeTag(Null{}))
	assert.Equal(t, "string", TypeTag(String("")))
	assert.Equal(t, "int", TypeTag(Int(0)))
	assert.Equal(t, "bool", TypeTag(Bool(false)))
	assert.Equal(t, "array", TypeTag(Array{}))
	assert.Equal(t, "object", TypeTag(Object{}))
	assert.Equal(t, "unknown", TypeTag(nil))
}
