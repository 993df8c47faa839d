package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/oefquery/internal/compiler"
)

// writeSpecs writes a single-file CUE package into a temporary directory.
func writeSpecs(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "specs.cue"), []byte("package specs\n\n"+content), 0o644))
	return dir
}

func TestValidateValidSpecs(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), weatherSpecs)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ All specs valid")
	assert.Contains(t, out, "1 model(s), 2 description(s), 1 query(ies)")
}

func TestValidateValidSpecsJSON(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), weatherSpecs)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 1, resp.Data.Queries)
}

func TestValidateNonExistentDirectory(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}

func TestValidateEmptyDirectory(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E003]")
}

func TestValidateReportsCompileErrorsAndLint(t *testing.T) {
	dir := writeSpecs(t, `
model: shop: {
	description: "A shop."
	attributes: {
		city: {type: "string", description: "Where the shop is."}
	}
}

description: ghost: {
	model: "nowhere"
	values: {city: "Cambridge"}
}

query: anything: {
	constraints: []
}
`)

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, ErrCodeCompileFailed)
	assert.Contains(t, out, `unknown model "nowhere"`)
	assert.Contains(t, out, compiler.ErrQueryUnscoped)
	assert.Contains(t, out, compiler.ErrQueryEmpty)
}

func TestValidateFailureJSON(t *testing.T) {
	dir := writeSpecs(t, `
model: shop: {
	description: ""
	attributes: {
		city: {type: "string", description: "Where the shop is."}
	}
}
`)

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Errors, 1)
	assert.Equal(t, compiler.ErrModelDescriptionEmpty, resp.Data.Errors[0].Code)
	assert.Equal(t, "model.shop.description", resp.Data.Errors[0].Field)
	require.NotNil(t, resp.Error)
	assert.Equal(t, compiler.ErrModelDescriptionEmpty, resp.Error.Code)
}

func TestValidateHelpText(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "specs-dir")
	assert.Contains(t, out, "lint")
}
