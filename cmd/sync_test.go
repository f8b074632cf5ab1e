package cmd

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolprint/justparse/internal/db"
)

func runSync(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, RunSync(&buf))
	return buf.String()
}

func TestSync_RegistersNewJustfile(t *testing.T) {
	inTempDir(t)
	runInit(t)
	require.NoError(t, os.WriteFile("justfile", []byte("build:\n    go build\n"), 0o644))

	out := runSync(t)

	sqlDB, err := db.Open(".justparse/catalog.db")
	require.NoError(t, err)
	defer sqlDB.Close()

	var filePath string
	require.NoError(t, sqlDB.QueryRow(`SELECT file_path FROM files WHERE file_path = ?`, "justfile").Scan(&filePath))
	assert.Equal(t, "justfile", filePath)
	assert.Contains(t, out, "new  justfile")
}

func TestSync_StoresRecipeRows(t *testing.T) {
	inTempDir(t)
	runInit(t)
	require.NoError(t, os.WriteFile("justfile", []byte(`# Build the project
[group('ci')]
build:
    go build ./...

_helper:
    assist
`), 0o644))

	runSync(t)

	sqlDB, err := db.Open(".justparse/catalog.db")
	require.NoError(t, err)
	defer sqlDB.Close()

	var name, group, doc string
	var line int
	var private bool
	require.NoError(t, sqlDB.QueryRow(
		`SELECT name, line_number, group_name, doc, private FROM recipes WHERE name = ?`, "build",
	).Scan(&name, &line, &group, &doc, &private))
	assert.Equal(t, "build", name)
	assert.Equal(t, 3, line)
	assert.Equal(t, "ci", group)
	assert.Equal(t, "Build the project", doc)
	assert.False(t, private)

	require.NoError(t, sqlDB.QueryRow(`SELECT private FROM recipes WHERE name = ?`, "_helper").Scan(&private))
	assert.True(t, private)
}

func TestSync_StoresParameterRows(t *testing.T) {
	inTempDir(t)
	runInit(t)
	require.NoError(t, os.WriteFile("justfile", []byte(`deploy env="prod" +targets:
    ship
`), 0o644))

	runSync(t)

	sqlDB, err := db.Open(".justparse/catalog.db")
	require.NoError(t, err)
	defer sqlDB.Close()

	var name, ptype string
	var def *string
	var required, variadic bool
	require.NoError(t, sqlDB.QueryRow(
		`SELECT name, default_value, param_type, required, variadic FROM parameters WHERE position = 0`,
	).Scan(&name, &def, &ptype, &required, &variadic))
	assert.Equal(t, "env", name)
	require.NotNil(t, def)
	assert.Equal(t, "prod", *def)
	assert.Equal(t, "string", ptype)
	assert.False(t, required)
	assert.False(t, variadic)

	require.NoError(t, sqlDB.QueryRow(
		`SELECT name, variadic FROM parameters WHERE position = 1`,
	).Scan(&name, &variadic))
	assert.Equal(t, "targets", name)
	assert.True(t, variadic)
}

func TestSync_MultipleJustfiles(t *testing.T) {
	inTempDir(t)
	runInit(t)
	require.NoError(t, os.WriteFile("justfile", []byte("build:\n    ok\n"), 0o644))
	require.NoError(t, os.WriteFile("extra.just", []byte("lint:\n    ok\n"), 0o644))

	out := runSync(t)

	sqlDB, err := db.Open(".justparse/catalog.db")
	require.NoError(t, err)
	defer sqlDB.Close()

	var count int
	require.NoError(t, sqlDB.QueryRow(`SELECT COUNT(*) FROM files`).Scan(&count))
	assert.Equal(t, 2, count)
	assert.Contains(t, out, "new  justfile")
	assert.Contains(t, out, "new  extra.just")
	assert.Contains(t, out, "synced 2 files, 2 recipes")
}

func TestSync_SecondRunShowsTracked(t *testing.T) {
	inTempDir(t)
	runInit(t)
	require.NoError(t, os.WriteFile("justfile", []byte("build:\n    ok\n"), 0o644))

	runSync(t) // first sync registers

	out := runSync(t) // second sync shows tracked

	assert.Contains(t, out, "trk  justfile")
}

func TestSync_IsIdempotent(t *testing.T) {
	inTempDir(t)
	runInit(t)
	require.NoError(t, os.WriteFile("justfile", []byte("build:\n    ok\n"), 0o644))

	runSync(t)
	runSync(t)

	sqlDB, err := db.Open(".justparse/catalog.db")
	require.NoError(t, err)
	defer sqlDB.Close()

	var count int
	require.NoError(t, sqlDB.QueryRow(`SELECT COUNT(*) FROM files`).Scan(&count))
	assert.Equal(t, 1, count)
	require.NoError(t, sqlDB.QueryRow(`SELECT COUNT(*) FROM recipes WHERE name = ?`, "build").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestSync_ResyncReplacesStaleRecipes(t *testing.T) {
	inTempDir(t)
	runInit(t)
	require.NoError(t, os.WriteFile("justfile", []byte("old:\n    ok\n"), 0o644))
	runSync(t)

	require.NoError(t, os.WriteFile("justfile", []byte("renamed:\n    ok\n"), 0o644))
	runSync(t)

	sqlDB, err := db.Open(".justparse/catalog.db")
	require.NoError(t, err)
	defer sqlDB.Close()

	var count int
	require.NoError(t, sqlDB.QueryRow(`SELECT COUNT(*) FROM recipes WHERE name = ?`, "old").Scan(&count))
	assert.Equal(t, 0, count)
	require.NoError(t, sqlDB.QueryRow(`SELECT COUNT(*) FROM recipes WHERE name = ?`, "renamed").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestSync_NoJustfiles(t *testing.T) {
	inTempDir(t)
	runInit(t)

	out := runSync(t)

	assert.Contains(t, out, "synced 0 files, 0 recipes")
}

func TestSync_UnrelatedFilesIgnored(t *testing.T) {
	inTempDir(t)
	runInit(t)
	require.NoError(t, os.WriteFile("notes.txt", []byte("build:\n    nope\n"), 0o644))
	require.NoError(t, os.WriteFile("justfile", []byte("build:\n    ok\n"), 0o644))

	runSync(t)

	sqlDB, err := db.Open(".justparse/catalog.db")
	require.NoError(t, err)
	defer sqlDB.Close()

	var count int
	require.NoError(t, sqlDB.QueryRow(`SELECT COUNT(*) FROM files WHERE file_path = ?`, "notes.txt").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestSync_WithoutInit(t *testing.T) {
	inTempDir(t)

	var buf bytes.Buffer
	err := RunSync(&buf)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "run `justparse init` first")
}
