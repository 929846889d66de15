package store

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalPhotoStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewLocalPhotoStore(dir)
	require.NoError(t, err)

	content := []byte("not really a jpeg")
	require.NoError(t, s.Save(ctx, "1_1_123_abcd.jpg", bytes.NewReader(content), int64(len(content)), "image/jpeg"))

	// File is physically present in the flat directory.
	onDisk, err := os.ReadFile(filepath.Join(dir, "1_1_123_abcd.jpg"))
	require.NoError(t, err)
	require.Equal(t, content, onDisk)

	rc, contentType, err := s.Open(ctx, "1_1_123_abcd.jpg")
	require.NoError(t, err)
	defer rc.Close()
	require.Equal(t, "image/jpeg", contentType)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, content, got)

	require.NoError(t, s.Remove(ctx, "1_1_123_abcd.jpg"))
	_, err = os.Stat(filepath.Join(dir, "1_1_123_abcd.jpg"))
	require.True(t, os.IsNotExist(err))
	require.Error(t, s.Remove(ctx, "1_1_123_abcd.jpg"), "second removal reports the missing file")
}

func TestLocalPhotoStoreRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalPhotoStore(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "../escape.jpg", "a/b.jpg", ".hidden"} {
		require.Error(t, s.Save(ctx, name, bytes.NewReader(nil), 0, ""), "name %q must be rejected", name)
		_, _, err := s.Open(ctx, name)
		require.Error(t, err)
		require.Error(t, s.Remove(ctx, name))
	}
}
