package cmd

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runDeps(t *testing.T, name string) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, RunDeps(&buf, name))
	return buf.String()
}

func TestDeps_ListsDependencies(t *testing.T) {
	inTempDir(t)
	require.NoError(t, os.WriteFile("justfile", []byte(`build:
    ok

test:
    ok

release: build test
    ship
`), 0o644))

	out := runDeps(t, "release")

	assert.Contains(t, out, "  build\n")
	assert.Contains(t, out, "  test\n")
}

func TestDeps_MarksMissing(t *testing.T) {
	inTempDir(t)
	require.NoError(t, os.WriteFile("justfile", []byte(`release: package
    ship
`), 0o644))

	out := runDeps(t, "release")

	assert.Contains(t, out, "package (missing)")
}

func TestDeps_ShowsArgumentsAndConditions(t *testing.T) {
	inTempDir(t)
	require.NoError(t, os.WriteFile("justfile", []byte(`build mode:
    ok

check:
    ok

release: (build 'prod') check if ci
    ship
`), 0o644))

	out := runDeps(t, "release")

	assert.Contains(t, out, "build(prod)")
	assert.Contains(t, out, "check if ci")
}

func TestDeps_NoDependencies(t *testing.T) {
	inTempDir(t)
	require.NoError(t, os.WriteFile("justfile", []byte("build:\n    ok\n"), 0o644))

	out := runDeps(t, "build")

	assert.Equal(t, "no dependencies for build\n", out)
}

func TestDeps_UnknownRecipe(t *testing.T) {
	inTempDir(t)
	require.NoError(t, os.WriteFile("justfile", []byte("build:\n    ok\n"), 0o644))

	var buf bytes.Buffer
	err := RunDeps(&buf, "missing")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "recipe missing not found in justfile")
}

func TestDeps_NoJustfile(t *testing.T) {
	inTempDir(t)

	var buf bytes.Buffer
	err := RunDeps(&buf, "build")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no justfile found in current directory")
}
