package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenariosDir = "testdata/scenarios"

// copyTestdata copies the CLI testdata specs and the named scenario into a
// temporary tree with the same layout, so golden files can be written.
func copyTestdata(t *testing.T, scenario string) string {
	t.Helper()
	root := t.TempDir()
	for _, rel := range []string{
		filepath.Join("specs", "weather.cue"),
		filepath.Join("scenarios", scenario+".yaml"),
	} {
		data, err := os.ReadFile(filepath.Join("testdata", rel))
		require.NoError(t, err)
		dst := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0o755))
		require.NoError(t, os.WriteFile(dst, data, 0o644))
	}
	return filepath.Join(root, "scenarios")
}

func TestTestCommandPassingScenario(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}),
		filepath.Join(scenariosDir, "weather_stations.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ weather_stations")
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandFailingScenario(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), scenariosDir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong_expectation")
	assert.Contains(t, out, "missing [station-dry]")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommandJSON(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "json"}), scenariosDir, "--filter", "weather_*")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.Total)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "weather_stations", resp.Data.Scenarios[0].Name)
	assert.True(t, resp.Data.Scenarios[0].Pass)
}

func TestTestCommandJSONFailure(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "json"}), scenariosDir, "--filter", "wrong_*")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
}

func TestTestCommandGoldenUpdateThenCompare(t *testing.T) {
	dir := copyTestdata(t, "weather_stations")

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ weather_stations (golden updated)")

	golden := filepath.Join(dir, "golden", "weather_stations.golden")
	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario_name": "weather_stations"`)

	out, err = execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ weather_stations")

	require.NoError(t, os.WriteFile(golden, []byte("{}\n"), 0o644))
	out, err = execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommandMissingPath(t *testing.T) {
	_, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenario path not found")
}

func TestTestCommandEmptyDir(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")

	out, err = execute(t, NewTestCommand(&RootOptions{Format: "json"}), t.TempDir())
	require.NoError(t, err)
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestTestCommandLoadError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: [unclosed\n"), 0o644))

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestHelpText(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "conformance")
	assert.Contains(t, out, "--update")
	assert.Contains(t, out, "--filter")
}

func TestFindScenarioFiles(t *testing.T) {
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "subdir")
	goldenDir := filepath.Join(tmpDir, "golden")
	require.NoError(t, os.MkdirAll(subDir, 0o755))
	require.NoError(t, os.MkdirAll(goldenDir, 0o755))

	for _, f := range []string{
		filepath.Join(tmpDir, "books-sixties.yaml"),
		filepath.Join(tmpDir, "books-eighties.yml"),
		filepath.Join(tmpDir, "weather.yaml"),
		filepath.Join(tmpDir, "notes.txt"),
		filepath.Join(subDir, "books-nested.yaml"),
		filepath.Join(goldenDir, "books-golden.yaml"),
	} {
		require.NoError(t, os.WriteFile(f, []byte(""), 0o644))
	}

	tests := []struct {
		name   string
		path   string
		filter string
		want   int
	}{
		{"all", tmpDir, "", 4},
		{"filtered", tmpDir, "books-*", 3},
		{"single file", filepath.Join(tmpDir, "weather.yaml"), "", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := findScenarioFiles(tt.path, tt.filter)
			require.NoError(t, err)
			assert.Len(t, files, tt.want)
		})
	}

	_, err := findScenarioFiles(tmpDir, "[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter pattern")
}

func TestGoldenFilePath(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"/path/to/scenario.yaml", "/path/to/golden/scenario.golden"},
		{"/path/to/scenario.yml", "/path/to/golden/scenario.golden"},
		{"scenarios/test.yaml", "scenarios/golden/test.golden"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, goldenFilePath(tc.input))
	}
}
