package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSandbox_ResolvePath(t *testing.T) {
	sandbox, err := NewSandbox(t.TempDir())
	require.NoError(t, err)

	t.Run("relative path resolves inside", func(t *testing.T) {
		path, err := sandbox.ResolvePath("logos/a.png")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(path))
		assert.Contains(t, path, sandbox.BaseDir())
	})

	t.Run("absolute path rejected", func(t *testing.T) {
		_, err := sandbox.ResolvePath("/etc/passwd")
		assert.Error(t, err)
	})

	t.Run("traversal rejected", func(t *testing.T) {
		_, err := sandbox.ResolvePath("../../etc/passwd")
		assert.Error(t, err)
	})
}

func TestSandbox_AtomicWrite(t *testing.T) {
	sandbox, err := NewSandbox(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, sandbox.AtomicWrite("nested/dir/file.txt", []byte("payload")))

	data, err := sandbox.ReadFile("nested/dir/file.txt")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Join(sandbox.BaseDir(), "nested", "dir"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLocalBlobStore_Upload(t *testing.T) {
	store, err := NewLocalBlobStore(t.TempDir(), "http://cdn.example.com/assets/")
	require.NoError(t, err)

	url, err := store.Upload(context.Background(), "logos/abc.png", "image/png", []byte{0x89, 0x50, 0x4e, 0x47})
	require.NoError(t, err)
	assert.Equal(t, "http://cdn.example.com/assets/logos/abc.png", url)
}

func TestLocalBlobStore_Delete(t *testing.T) {
	store, err := NewLocalBlobStore(t.TempDir(), "http://cdn.example.com")
	require.NoError(t, err)

	_, err = store.Upload(context.Background(), "logos/x.png", "image/png", []byte("img"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(context.Background(), "logos/x.png"))
	assert.Error(t, store.Delete(context.Background(), "logos/x.png"))
}

func TestExtensionFromContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
	}{
		{"image/png", ".png"},
		{"image/jpeg", ".jpg"},
		{"image/jpg", ".jpg"},
		{"image/gif", ".gif"},
		{"image/webp", ".webp"},
		{"image/svg+xml", ".svg"},
		{"image/png; charset=utf-8", ".png"},
		{"IMAGE/PNG", ".png"},
		{"text/html", ""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtensionFromContentType(tt.contentType), "content type %q", tt.contentType)
	}
}

func TestContentTypeFromPath(t *testing.T) {
	assert.Equal(t, "image/jpeg", ContentTypeFromPath("/logos/photo.JPEG"))
	assert.Equal(t, "image/png", ContentTypeFromPath("a.png"))
	assert.Equal(t, "application/octet-stream", ContentTypeFromPath("a.bin"))
}
