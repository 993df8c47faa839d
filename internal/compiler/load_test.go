package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSpec(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir, "models.cue", "package specs\n"+`
model: books: {
	description: "Books for sale."
	attributes: {
		title: {type: "string", required: true, description: "Title."}
		year: {type: "int", required: true, description: "Year of publication."}
	}
}
`)
	writeSpec(t, dir, "queries.cue", "package specs\n"+`
description: dune: {model: "books", values: {title: "Dune", year: 1965}}
query: sixties: {model: "books", constraints: [{attribute: "year", range: [1960, 1969]}]}
`)

	specs, errs := LoadDir(dir, LoadModeCollectAll)
	require.Empty(t, errs)
	require.NotNil(t, specs)

	q, ok := specs.Query("sixties")
	require.True(t, ok)
	d, ok := specs.Description("dune")
	require.True(t, ok)
	assert.True(t, q.Check(d))
}

func TestLoadDir_Errors(t *testing.T) {
	empty := t.TempDir()
	file := filepath.Join(t.TempDir(), "spec.cue")
	require.NoError(t, os.WriteFile(file, []byte("package specs\n"), 0o644))

	tests := []struct {
		name string
		dir  string
		code string
	}{
		{"not found", "/nonexistent/specs/dir", ErrCodeNotFound},
		{"not a directory", file, ErrCodeNotFound},
		{"no cue files", empty, ErrCodeNoFiles},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			specs, errs := LoadDir(tt.dir, LoadModeFailFast)
			assert.Nil(t, specs)
			require.Len(t, errs, 1)

			var le *LoadError
			require.ErrorAs(t, errs[0], &le)
			assert.Equal(t, tt.code, le.Code)
			assert.Contains(t, le.Error(), tt.code)
		})
	}
}

func TestFindCUEFiles_SkipsSubdirectories(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir, "a.cue", "package specs\n")
	writeSpec(t, dir, "notes.md", "# notes\n")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
	writeSpec(t, filepath.Join(dir, "nested"), "b.cue", "package other\n")

	files, err := FindCUEFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.cue")}, files)
}

func TestLoadFiles_UnifiesFiles(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir, "model.cue", `model: books: attributes: year: type: "int"`)
	writeSpec(t, dir, "query.cue", `query: old: {model: "books", constraints: [{attribute: "year", lt: 1900}]}`)

	specs, errs := LoadFiles([]string{filepath.Join(dir, "model.cue"), filepath.Join(dir, "query.cue")}, LoadModeFailFast)
	require.Empty(t, errs)

	q, ok := specs.Query("old")
	require.True(t, ok)
	assert.Equal(t, "books", q.Model().Name())
}

func TestLoadFiles_Errors(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir, "broken.cue", `model: {`)

	tests := []struct {
		name  string
		files []string
		code  string
	}{
		{"none", nil, ErrCodeNoFiles},
		{"missing", []string{filepath.Join(dir, "missing.cue")}, ErrCodeNotFound},
		{"syntax", []string{filepath.Join(dir, "broken.cue")}, ErrCodeBuildFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			specs, errs := LoadFiles(tt.files, LoadModeFailFast)
			assert.Nil(t, specs)
			require.Len(t, errs, 1)

			var le *LoadError
			require.ErrorAs(t, errs[0], &le)
			assert.Equal(t, tt.code, le.Code)
		})
	}
}
