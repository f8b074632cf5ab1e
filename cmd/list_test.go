package cmd

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runList(t *testing.T, group string, all bool) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, RunList(&buf, group, all))
	return buf.String()
}

func TestList_ShowsCatalogedRecipes(t *testing.T) {
	inTempDir(t)
	runInit(t)
	require.NoError(t, os.WriteFile("justfile", []byte(`build:
    go build

test:
    go test ./...
`), 0o644))
	runSync(t)

	out := runList(t, "", false)

	assert.Contains(t, out, "build")
	assert.Contains(t, out, "test")
}

func TestList_OrderFollowsFileOrder(t *testing.T) {
	inTempDir(t)
	runInit(t)
	require.NoError(t, os.WriteFile("justfile", []byte(`zeta:
    ok

alpha:
    ok
`), 0o644))
	runSync(t)

	out := runList(t, "", false)

	assert.Less(t, strings.Index(out, "zeta"), strings.Index(out, "alpha"))
}

func TestList_HidesPrivateByDefault(t *testing.T) {
	inTempDir(t)
	runInit(t)
	require.NoError(t, os.WriteFile("justfile", []byte(`build:
    ok

_helper:
    assist
`), 0o644))
	runSync(t)

	out := runList(t, "", false)

	assert.Contains(t, out, "build")
	assert.NotContains(t, out, "_helper")
}

func TestList_AllIncludesPrivate(t *testing.T) {
	inTempDir(t)
	runInit(t)
	require.NoError(t, os.WriteFile("justfile", []byte(`build:
    ok

_helper:
    assist
`), 0o644))
	runSync(t)

	out := runList(t, "", true)

	assert.Contains(t, out, "_helper")
}

func TestList_GroupFilter(t *testing.T) {
	inTempDir(t)
	runInit(t)
	require.NoError(t, os.WriteFile("justfile", []byte(`[group('ci')]
build:
    ok

[group('ops')]
deploy:
    ok
`), 0o644))
	runSync(t)

	out := runList(t, "ci", false)

	assert.Contains(t, out, "build")
	assert.NotContains(t, out, "deploy")
}

func TestList_ParameterSummary(t *testing.T) {
	inTempDir(t)
	runInit(t)
	require.NoError(t, os.WriteFile("justfile", []byte(`deploy env="prod" +targets:
    ship
`), 0o644))
	runSync(t)

	out := runList(t, "", false)

	assert.Contains(t, out, "env=prod")
	assert.Contains(t, out, "*targets")
}

func TestList_EmptyCatalog(t *testing.T) {
	inTempDir(t)
	runInit(t)

	out := runList(t, "", false)

	assert.Empty(t, out)
}

func TestList_WithoutInit(t *testing.T) {
	inTempDir(t)

	var buf bytes.Buffer
	err := RunList(&buf, "", false)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "run `justparse init` first")
}
