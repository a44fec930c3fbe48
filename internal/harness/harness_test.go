package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mirror/internal/action"
	"github.com/roach88/mirror/internal/mirror"
	"github.com/roach88/mirror/internal/testutil"
)

func loadScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return scenario
}

func baseScenario(calls ...CallStep) *Scenario {
	return &Scenario{
		Name:        "inline",
		Description: "inline scenario",
		Descriptors: filepath.Join("testdata", "lib.yaml"),
		Address:     "net/dom/dev/vm0",
		Calls:       calls,
	}
}

func TestRun_ListAppend(t *testing.T) {
	result, err := Run(loadScenario(t, "list_append"))
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Trace, 4)
	kinds := make([]string, len(result.Trace))
	for i, event := range result.Trace {
		kinds[i] = event.Kind
		assert.Equal(t, int64(i+1), event.Seq)
	}
	assert.Equal(t, []string{action.KindRun, action.KindSaveObject, action.KindRun, action.KindRun}, kinds)

	assert.Equal(t, testutil.UID(3).String(), result.Trace[1].ID, "constant uploaded under its pointer identity")
	assert.Equal(t, []string{"lib.python.List", "const.int"}, result.Trace[2].Args)

	lst := result.Bindings["lst"]
	assert.Equal(t, testutil.UID(1), lst.ID)
	assert.Equal(t, "ListPointer", lst.PointerType)
}

func TestRun_PendingCall(t *testing.T) {
	result, err := Run(loadScenario(t, "pending_call"))
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Trace, 3)
	assert.Equal(t, "lib.python.List.__len__", result.Trace[1].Path)
	assert.Equal(t, testutil.UID(3).String(), result.Trace[1].ID, "pending call allocates after the outer result")
	assert.Equal(t, testutil.UID(2).String(), result.Trace[2].ID)

	size, ok := result.Bindings["size"]
	require.True(t, ok, "pending call is bound once dispatched")
	assert.Equal(t, "IntPointer", size.PointerType)
}

func TestRun_MirrorErrors(t *testing.T) {
	result, err := Run(loadScenario(t, "mirror_errors"))
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	assert.Equal(t, []string{"lib.python.List.ops"}, result.Skipped)
	require.Len(t, result.Trace, 2)
	assert.Equal(t, action.KindSaveObject, result.Trace[0].Kind)
	assert.Equal(t, "lib.len", result.Trace[1].Path)
}

func TestRun_VectorInstance(t *testing.T) {
	scenario := loadScenario(t, "vector_instance")
	assert.Equal(t, []any{3}, scenario.Paths[0].ConstructionArgs)

	result, err := Run(scenario)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Trace, 2)
	run, ok := result.Trace[1].Message.(action.RunAction)
	require.True(t, ok)
	assert.Equal(t, "lib.typing.Vector.dot", run.Path)
	assert.False(t, run.IsStatic, "instance members need an instance")
}

func TestRun_UnexpectedError(t *testing.T) {
	result, err := Run(baseScenario(CallStep{Call: "lib.nope"}))
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "calls[0] lib.nope: unexpected error")
	assert.Contains(t, result.Errors[0], "RESOLVE")
}

func TestRun_WrongErrorCode(t *testing.T) {
	result, err := Run(baseScenario(CallStep{Call: "lib.nope", Expect: &ExpectClause{Error: "USAGE"}}))
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected error USAGE, got RESOLVE")
}

func TestRun_ExpectedErrorButSucceeded(t *testing.T) {
	result, err := Run(baseScenario(CallStep{Call: "lib.len", Expect: &ExpectClause{Error: "USAGE"}}))
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "call succeeded")
}

func TestRun_ExpectMismatch(t *testing.T) {
	result, err := Run(baseScenario(CallStep{
		Call:   "lib.len",
		Expect: &ExpectClause{TypePath: "lib.python.List", PointerType: "ListPointer"},
	}))
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "expected type_path lib.python.List, got lib.python.Int")
	assert.Contains(t, result.Errors[1], "expected pointer_type ListPointer, got IntPointer")
}

func TestRun_StaticOverride(t *testing.T) {
	static := false
	result, err := Run(baseScenario(CallStep{Call: "lib.len", Static: &static}))
	require.NoError(t, err)
	require.True(t, result.Pass)

	run, ok := result.Trace[0].Message.(action.RunAction)
	require.True(t, ok)
	assert.False(t, run.IsStatic)
}

func TestRun_Kwargs(t *testing.T) {
	result, err := Run(baseScenario(
		CallStep{Call: "lib.python.List", As: "lst"},
		CallStep{Call: "lib.len", Kwargs: map[string]any{"obj": "$lst", "default": "x"}},
	))
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	last := result.Trace[len(result.Trace)-1]
	assert.Equal(t, []string{"const.string", "lib.python.List"}, last.Args, "keyword arguments in sorted key order")
}

func TestRun_UnboundReference(t *testing.T) {
	_, err := Run(baseScenario(CallStep{Call: "lib.len", Args: []any{"$ghost"}}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unbound reference "$ghost"`)
}

func TestRun_NestedReference(t *testing.T) {
	result, err := Run(baseScenario(
		CallStep{Call: "lib.python.List", As: "lst"},
		CallStep{Call: "lib.len", Args: []any{[]any{"$lst", 1}}},
	))
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	assert.Equal(t, []string{"const.array"}, result.Trace[len(result.Trace)-1].Args)
}

func TestRun_FailFastPopulate(t *testing.T) {
	scenario := baseScenario(CallStep{Call: "lib.len"})
	scenario.Paths = []mirror.PathSpec{{Path: "lib.python.List.ops"}}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to mirror paths")
}

func TestRun_MissingDescriptors(t *testing.T) {
	scenario := baseScenario(CallStep{Call: "lib.len"})
	scenario.Descriptors = filepath.Join(t.TempDir(), "absent.yaml")

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load descriptors")
}

func TestRun_Deterministic(t *testing.T) {
	first, err := Run(loadScenario(t, "list_append"))
	require.NoError(t, err)
	second, err := Run(loadScenario(t, "list_append"))
	require.NoError(t, err)

	a, err := Snapshot("list_append", first.Trace)
	require.NoError(t, err)
	b, err := Snapshot("list_append", second.Trace)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}
