package cli

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/oefquery/internal/wire"
)

func TestEncodeQueryHex(t *testing.T) {
	out, err := execute(t, NewEncodeCommand(&RootOptions{Format: "text"}), weatherSpecs, "query", "full_weather")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)

	data, err := hex.DecodeString(lines[0])
	require.NoError(t, err)
	q, err := wire.DecodeQuery(data)
	require.NoError(t, err)
	assert.Equal(t, 3, q.Len())
	assert.Equal(t, "weather_data", q.Model().Name())
	assert.Equal(t, "id: "+wire.QueryIDBytes(data), lines[1])
}

func TestEncodeJSON(t *testing.T) {
	out, err := execute(t, NewEncodeCommand(&RootOptions{Format: "json"}), weatherSpecs, "model", "weather_data")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   EncodeResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "model", resp.Data.Kind)
	assert.Len(t, resp.Data.ID, 64)

	data, err := hex.DecodeString(resp.Data.Hex)
	require.NoError(t, err)
	assert.Equal(t, resp.Data.Size, len(data))
	m, err := wire.DecodeDataModel(data)
	require.NoError(t, err)
	assert.Equal(t, 4, m.Len())
}

func TestEncodeDecodeFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dry_station.bin")

	out, err := execute(t, NewEncodeCommand(&RootOptions{Format: "text"}),
		weatherSpecs, "description", "dry_station", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Encoded description dry_station")

	out, err = execute(t, NewDecodeCommand(&RootOptions{Format: "text"}), "description", path)
	require.NoError(t, err)
	assert.Contains(t, out, "description (model weather_data)")
	assert.Contains(t, out, "wind_speed = true")
	assert.Contains(t, out, "humidity = false")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, out, "id: "+wire.DescriptionIDBytes(data))
}

func TestEncodeErrors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode string
	}{
		{"invalid kind", []string{weatherSpecs, "agent", "x"}, ErrCodeInvalidArgs},
		{"unknown name", []string{weatherSpecs, "query", "cold_places"}, ErrCodeUnknownName},
		{"missing specs", []string{filepath.Join(t.TempDir(), "none"), "query", "x"}, "E005"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, NewEncodeCommand(&RootOptions{Format: "text"}), tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, "Error ["+tt.wantCode+"]")
		})
	}
}

func TestDecodeHexFromStdin(t *testing.T) {
	out, err := execute(t, NewEncodeCommand(&RootOptions{Format: "text"}), weatherSpecs, "query", "full_weather")
	require.NoError(t, err)
	hexLine := strings.SplitN(out, "\n", 2)[0]

	cmd := NewDecodeCommand(&RootOptions{Format: "json"})
	cmd.SetIn(bytes.NewBufferString(hexLine + "\n"))
	out, err = execute(t, cmd, "--hex", "query", "-")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   DecodeResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "query", resp.Data.Kind)
	assert.Equal(t, "weather_data", resp.Data.Model)
	assert.Equal(t, "model weather_data\ntemperature == true\nair_pressure == true\nhumidity == true", resp.Data.Text)
}

func TestDecodeMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.bin")
	require.NoError(t, os.WriteFile(path, []byte{0xff}, 0o644))

	out, err := execute(t, NewDecodeCommand(&RootOptions{Format: "json"}), "query", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeDecodeFailed, resp.Error.Code)
	assert.Equal(t, map[string]any{"reason": "MALFORMED"}, resp.Error.Details)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode string
	}{
		{"invalid kind", []string{"agent", "x.bin"}, ErrCodeInvalidArgs},
		{"missing file", []string{"query", filepath.Join(t.TempDir(), "absent.bin")}, "E005"},
		{"bad hex", []string{"--hex", "query", "testdata/specs/weather.cue"}, ErrCodeDecodeFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, NewDecodeCommand(&RootOptions{Format: "text"}), tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, "Error ["+tt.wantCode+"]")
		})
	}
}

func TestDecodeConstraintAndExpression(t *testing.T) {
	q, err := wire.DecodeQuery(mustEncodedQuery(t))
	require.NoError(t, err)
	c := q.Constraints()[0]

	constraintBytes, err := wire.EncodeConstraint(c)
	require.NoError(t, err)
	exprBytes, err := wire.EncodeExpression(c.Expression())
	require.NoError(t, err)

	dir := t.TempDir()
	constraintPath := filepath.Join(dir, "c.bin")
	exprPath := filepath.Join(dir, "e.bin")
	require.NoError(t, os.WriteFile(constraintPath, constraintBytes, 0o644))
	require.NoError(t, os.WriteFile(exprPath, exprBytes, 0o644))

	out, err := execute(t, NewDecodeCommand(&RootOptions{Format: "text"}), "constraint", constraintPath)
	require.NoError(t, err)
	assert.Equal(t, "temperature == true\n", out)

	out, err = execute(t, NewDecodeCommand(&RootOptions{Format: "text"}), "expression", exprPath)
	require.NoError(t, err)
	assert.Equal(t, "== true\n", out)
}

func mustEncodedQuery(t *testing.T) []byte {
	t.Helper()
	out, err := execute(t, NewEncodeCommand(&RootOptions{Format: "text"}), weatherSpecs, "query", "full_weather")
	require.NoError(t, err)
	data, err := hex.DecodeString(strings.SplitN(out, "\n", 2)[0])
	require.NoError(t, err)
	return data
}
