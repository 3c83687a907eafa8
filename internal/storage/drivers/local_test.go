package drivers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRooted(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "in"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "in", "a.png"), []byte("png"), 0644))

	ls, err := NewLocalStorage(root)
	require.NoError(t, err)

	data, err := ls.GetObject(ctx, "in/a.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)

	_, err = ls.GetObject(ctx, "in/missing.png")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = ls.GetObject(ctx, "in")
	assert.Error(t, err)

	for _, key := range []string{"../escape.png", "/etc/passwd", "in/../../escape.png"} {
		_, err = ls.GetObject(ctx, key)
		assert.Error(t, err, key)
		assert.NotErrorIs(t, err, ErrNotFound, key)
	}

	require.NoError(t, ls.PutObject(ctx, "in/b.png", []byte("out")))
	data, err = os.ReadFile(filepath.Join(root, "in", "b.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("out"), data)

	_, err = os.Stat(filepath.Join(root, "in", "b.png.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStorageUnrestricted(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	require.NoError(t, os.WriteFile(src, []byte("jpg"), 0644))

	ls, err := NewLocalStorage("")
	require.NoError(t, err)

	data, err := ls.GetObject(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpg"), data)

	require.NoError(t, ls.PutObject(ctx, filepath.Join(dir, "src_00001.jpg"), []byte("crop")))
	assert.FileExists(t, filepath.Join(dir, "src_00001.jpg"))
}

func TestLocalStoragePutMissingDirectory(t *testing.T) {
	ls, err := NewLocalStorage("")
	require.NoError(t, err)

	target := filepath.Join(t.TempDir(), "nope", "out.png")
	err = ls.PutObject(context.Background(), target, []byte("x"))
	require.Error(t, err)
	assert.NoDirExists(t, filepath.Dir(target))
}

func TestLocalStorageCancelled(t *testing.T) {
	ls, err := NewLocalStorage("")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = ls.GetObject(ctx, "whatever")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, ls.PutObject(ctx, "whatever", nil), context.Canceled)
}
