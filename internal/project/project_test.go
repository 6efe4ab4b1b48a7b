package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadResolvesAbsolutePaths(t *testing.T) {
	dir := t.TempDir()
	descriptor := "entry: Scripts/main.sws\nimport_roots:\n  - Scripts\n  - Libs\n"
	descPath := filepath.Join(dir, "ssproject.yaml")
	writeFile(t, descPath, descriptor)

	p, err := Load(descPath)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "Scripts", "main.sws"), p.EntryFile)
	require.Len(t, p.ImportRoots, 2)
	assert.Equal(t, filepath.Join(dir, "Scripts"), p.ImportRoots[0])
	assert.Equal(t, filepath.Join(dir, "Libs"), p.ImportRoots[1])
}

func TestLoadProjectAlias(t *testing.T) {
	dir := t.TempDir()
	descPath := filepath.Join(dir, "ssproject.yaml")
	writeFile(t, descPath, "entry: main.sws\n")

	p, err := LoadProject(descPath)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "main.sws"), p.EntryFile)
}

func TestLoadMissingEntry(t *testing.T) {
	dir := t.TempDir()
	descPath := filepath.Join(dir, "ssproject.yaml")
	writeFile(t, descPath, "import_roots:\n  - Scripts\n")

	_, err := Load(descPath)
	assert.Error(t, err)
}

func TestFindProjectWalksUpward(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ssproject.yaml"), "entry: main.sws\n")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	p, err := FindProject(nested)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, root, p.ProjectDir)
}

func TestFindProjectNone(t *testing.T) {
	dir := t.TempDir()
	p, err := FindProject(dir)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestSingleFileProject(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.sws")
	writeFile(t, path, "print(\"hi\")\n")

	p, err := SingleFileProject(path)
	require.NoError(t, err)
	assert.Equal(t, path, p.EntryFile)
	assert.Equal(t, []string{dir}, p.ImportRoots)
}

func TestIsSourceFile(t *testing.T) {
	cases := map[string]bool{
		"main.sws":         true,
		"main.swiftscript": true,
		"main.txt":         false,
		"main":             false,
	}
	for name, want := range cases {
		assert.Equal(t, want, IsSourceFile(name), "IsSourceFile(%q)", name)
	}
}
