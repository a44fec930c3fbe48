package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden_ListAppend(t *testing.T) {
	// To regenerate:
	//   go test ./internal/harness -run TestRunWithGolden_ListAppend -update
	result, err := RunWithGolden(t, loadScenario(t, "list_append"))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestAssertGolden_ExistingResult(t *testing.T) {
	result, err := Run(loadScenario(t, "list_append"))
	require.NoError(t, err)
	require.NoError(t, AssertGolden(t, "list_append", result))
}

func TestSnapshot_Empty(t *testing.T) {
	data, err := Snapshot("empty", nil)
	require.NoError(t, err)
	assert.Equal(t, `{"scenario":"empty","trace":[]}`, string(data))
}

func TestSnapshot_SortedKeys(t *testing.T) {
	result, err := Run(loadScenario(t, "pending_call"))
	require.NoError(t, err)

	data, err := Snapshot("pending_call", result.Trace)
	require.NoError(t, err)
	assert.Regexp(t, `^\{"scenario":"pending_call","trace":\[\{"message":\{"body":\{"address":`, string(data))
}
