package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func writeGrammar(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestResolve_SameDirectory(t *testing.T) {
	dir := t.TempDir()
	writeGrammar(t, dir, "common.lark", "NUMBER: /[0-9]+/\n")
	root := writeGrammar(t, dir, "root.lark", "%import common.NUMBER\n")

	r := NewResolver()
	uri, ok := r.Resolve(PathToURI(root), "common")
	require.True(t, ok)
	assert.Equal(t, PathToURI(filepath.Join(dir, "common.lark")), uri)
}

func TestResolve_DottedPathMapsToSubdirectory(t *testing.T) {
	dir := t.TempDir()
	writeGrammar(t, dir, filepath.Join("grammars", "base.lark"), "WORD: /\\w+/\n")
	root := writeGrammar(t, dir, "root.lark", "")

	r := NewResolver()
	uri, ok := r.Resolve(PathToURI(root), "grammars.base")
	require.True(t, ok)
	assert.Equal(t, PathToURI(filepath.Join(dir, "grammars", "base.lark")), uri)
}

func TestResolve_RelativeImport(t *testing.T) {
	dir := t.TempDir()
	writeGrammar(t, dir, "shared.lark", "WS: / +/\n")
	nested := writeGrammar(t, dir, filepath.Join("sub", "nested.lark"), "")

	r := NewResolver()

	// One leading dot anchors at the importing file's directory.
	writeGrammar(t, dir, filepath.Join("sub", "local.lark"), "X: \"x\"\n")
	uri, ok := r.Resolve(PathToURI(nested), ".local")
	require.True(t, ok)
	assert.Equal(t, PathToURI(filepath.Join(dir, "sub", "local.lark")), uri)

	// A second dot climbs one directory up.
	uri, ok = r.Resolve(PathToURI(nested), "..shared")
	require.True(t, ok)
	assert.Equal(t, PathToURI(filepath.Join(dir, "shared.lark")), uri)
}

func TestResolve_WorkspaceFolderFallback(t *testing.T) {
	ws := t.TempDir()
	other := t.TempDir()
	writeGrammar(t, ws, "common.lark", "NUMBER: /[0-9]+/\n")
	root := writeGrammar(t, other, "root.lark", "")

	r := NewResolver()
	_, ok := r.Resolve(PathToURI(root), "common")
	assert.False(t, ok)

	r.SetFolders([]protocol.WorkspaceFolder{{URI: PathToURI(ws), Name: "ws"}})
	uri, ok := r.Resolve(PathToURI(root), "common")
	require.True(t, ok)
	assert.Equal(t, PathToURI(filepath.Join(ws, "common.lark")), uri)
}

func TestResolve_Missing(t *testing.T) {
	dir := t.TempDir()
	root := writeGrammar(t, dir, "root.lark", "")

	r := NewResolver()
	_, ok := r.Resolve(PathToURI(root), "missing")
	assert.False(t, ok)
	_, ok = r.Resolve(PathToURI(root), "")
	assert.False(t, ok)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeGrammar(t, dir, "g.lark", "start: X\n")

	r := NewResolver()
	content, err := r.ReadFile(PathToURI(path))
	require.NoError(t, err)
	assert.Equal(t, "start: X\n", content)

	_, err = r.ReadFile(PathToURI(filepath.Join(dir, "absent.lark")))
	assert.Error(t, err)
}

func TestURIRoundTrip(t *testing.T) {
	assert.Equal(t, "/ws/a.lark", URIToPath("file:///ws/a.lark"))
	assert.Equal(t, "file:///ws/a.lark", PathToURI("/ws/a.lark"))
	assert.Equal(t, "C:/ws/a.lark", URIToPath("file:///C:/ws/a.lark"))
}
