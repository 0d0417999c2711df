package fs

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFileStorage(t *testing.T) {
	tempDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(tempDir, "lib"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(tempDir, "node_modules"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "lib", "api.js"), []byte("var API = {};"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "lib", "init.js"), []byte("_triggerEvent('_init');"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "lib", "notes.txt"), []byte("skip"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "node_modules", "dep.js"), []byte("skip"), 0644))

	storage := NewLocalFileStorage()
	assert.Equal(t, "local", storage.Name())

	data, err := storage.Get(filepath.Join(tempDir, "lib", "api.js"))
	assert.Nil(t, err)
	assert.Equal(t, "var API = {};", string(data))

	_, err = storage.Get(filepath.Join(tempDir, "lib", "missing.js"))
	assert.NotNil(t, err)

	paths, err := storage.GetFilePaths(filepath.Join(tempDir, "*.js"), "node_modules")
	assert.Nil(t, err)
	sort.Strings(paths)
	assert.Equal(t, []string{
		filepath.Join(tempDir, "lib", "api.js"),
		filepath.Join(tempDir, "lib", "init.js"),
	}, paths)

	assert.True(t, storage.IsExist(filepath.Join(tempDir, "lib")))
	assert.False(t, storage.IsExist(filepath.Join(tempDir, "nope")))
}

func TestFSStorage(t *testing.T) {
	fsys := fstest.MapFS{
		"scripts/compat.js":     {Data: []byte("var compat = true;")},
		"scripts/api.js":        {Data: []byte("var API = {};")},
		"scripts/skip/other.js": {Data: []byte("")},
	}
	storage := NewFSStorage("embedded", fsys)
	assert.Equal(t, "embedded", storage.Name())

	data, err := storage.Get("scripts/compat.js")
	assert.Nil(t, err)
	assert.Equal(t, "var compat = true;", string(data))

	paths, err := storage.GetFilePaths("scripts/*.js", "skip")
	assert.Nil(t, err)
	sort.Strings(paths)
	assert.Equal(t, []string{"scripts/api.js", "scripts/compat.js"}, paths)

	assert.True(t, storage.IsExist("scripts/api.js"))
	assert.False(t, storage.IsExist("scripts/missing.js"))
}
