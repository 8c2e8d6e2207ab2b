package resolve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListFilesIncludesFileSymlinks(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a", "mod.info"), "id=a")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "b"), 0o755))
	if err := os.Symlink(filepath.Join(dir, "a", "mod.info"), filepath.Join(dir, "b", "mod.info")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	// A link to a directory is listed as neither file nor followed.
	require.NoError(t, os.Symlink(filepath.Join(dir, "a"), filepath.Join(dir, "c")))

	files, err := OSFileSystem{}.ListFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a", "mod.info"),
		filepath.Join(dir, "b", "mod.info"),
	}, files)
}

func TestListFilesMissingRoot(t *testing.T) {
	files, err := OSFileSystem{}.ListFiles(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Nil(t, files)
}

func TestListFilesEmptyDir(t *testing.T) {
	files, err := OSFileSystem{}.ListFiles(t.TempDir())
	require.NoError(t, err)
	assert.NotNil(t, files)
	assert.Empty(t, files)
}
