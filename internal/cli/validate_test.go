package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeValidate(t *testing.T, format string, path string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{path})
	err := cmd.Execute()
	return buf.String(), err
}

func TestValidateValidDescriptors(t *testing.T) {
	out, err := executeValidate(t, "text", filepath.Join("testdata", "lib.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Descriptors valid")
}

func TestValidateValidDescriptorsJSON(t *testing.T) {
	out, err := executeValidate(t, "json", filepath.Join("testdata", "lib.yaml"))
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Len(t, resp.Data.Hash, 64)
	assert.Greater(t, resp.Data.Entries, 10)
}

func TestValidateInvalidDescriptors(t *testing.T) {
	out, err := executeValidate(t, "text", filepath.Join("testdata", "invalid.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "libraries[0].kind")
}

func TestValidateInvalidDescriptorsJSON(t *testing.T) {
	out, err := executeValidate(t, "json", filepath.Join("testdata", "invalid.yaml"))
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalid, resp.Error.Code)
}

func TestValidateMissingFile(t *testing.T) {
	out, err := executeValidate(t, "text", filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
	assert.Contains(t, out, "descriptors not found")
}

func TestValidateUnsupportedFormat(t *testing.T) {
	out, err := executeValidate(t, "text", filepath.Join("testdata", "lib.json"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeLoadFailed)
}
