package fs

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("creates storage with thumbnails subdirectory", func(t *testing.T) {
		tmpDir := t.TempDir()
		storage, err := New(tmpDir)

		require.NoError(t, err)
		assert.Equal(t, tmpDir, storage.rootPath)

		_, err = os.Stat(filepath.Join(tmpDir, "thumbnails"))
		assert.NoError(t, err)
	})

	t.Run("cleans path to prevent traversal", func(t *testing.T) {
		tmpDir := t.TempDir()
		dirtyPath := filepath.Join(tmpDir, "uploads", "..", "uploads")

		storage, err := New(dirtyPath)

		require.NoError(t, err)
		assert.Equal(t, filepath.Join(tmpDir, "uploads"), storage.rootPath)
	})
}

func TestSave(t *testing.T) {
	t.Run("saves file successfully", func(t *testing.T) {
		storage, err := New(t.TempDir())
		require.NoError(t, err)

		content := []byte("test file content")
		path, err := storage.Save(bytes.NewReader(content), "abc123.jpg")

		require.NoError(t, err)
		saved, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, content, saved)
	})

	t.Run("strips directory components from stored filename", func(t *testing.T) {
		storage, err := New(t.TempDir())
		require.NoError(t, err)

		path, err := storage.Save(bytes.NewReader([]byte("x")), "../../evil.jpg")

		require.NoError(t, err)
		assert.Equal(t, filepath.Join(storage.rootPath, "evil.jpg"), path)
	})
}

func TestRead(t *testing.T) {
	storage, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = storage.Save(bytes.NewReader([]byte("hello")), "a.txt")
	require.NoError(t, err)

	r, err := storage.Read("a.txt")
	require.NoError(t, err)
	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = storage.Read("missing.txt")
	assert.Error(t, err)
}

func TestDeleteFile(t *testing.T) {
	t.Run("deletes existing file", func(t *testing.T) {
		storage, err := New(t.TempDir())
		require.NoError(t, err)

		path, err := storage.Save(bytes.NewReader([]byte("x")), "a.jpg")
		require.NoError(t, err)

		require.NoError(t, storage.DeleteFile("a.jpg"))
		_, err = os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("missing file reports wrapped ErrNotExist", func(t *testing.T) {
		storage, err := New(t.TempDir())
		require.NoError(t, err)

		err = storage.DeleteFile("never-existed.jpg")
		require.Error(t, err)
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})
}

func TestThumbnails(t *testing.T) {
	storage, err := New(t.TempDir())
	require.NoError(t, err)

	name, err := storage.SaveThumbnail([]byte{0xff, 0xd8}, "thumb_a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "thumb_a.jpg", name)

	_, err = os.Stat(filepath.Join(storage.rootPath, "thumbnails", "thumb_a.jpg"))
	require.NoError(t, err)

	require.NoError(t, storage.DeleteThumbnail("thumb_a.jpg"))
	err = storage.DeleteThumbnail("thumb_a.jpg")
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
