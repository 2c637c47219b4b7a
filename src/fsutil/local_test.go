package fsutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatbotrag/src/fsutil"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.txt"), "bb")
	writeFile(t, filepath.Join(dir, "a.md"), "a")
	writeFile(t, filepath.Join(dir, "docs", "manual.pdf"), "pdf")
	writeFile(t, filepath.Join(dir, ".env"), "SECRET=1")
	writeFile(t, filepath.Join(dir, ".git", "config"), "x")

	store := fsutil.NewLocalFileStore()

	files, err := store.ListFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.md"),
		filepath.Join(dir, "b.txt"),
		filepath.Join(dir, "docs", "manual.pdf"),
	}, files)

	stat, err := store.GetFileStats(files)
	require.NoError(t, err)
	assert.Equal(t, fsutil.Stat{Count: 3, Size: 6}, stat)

	data, err := store.ReadFile(files[1])
	require.NoError(t, err)
	assert.Equal(t, "bb", string(data))
}

func TestListFilesMissingDir(t *testing.T) {
	_, err := fsutil.NewLocalFileStore().ListFiles(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
