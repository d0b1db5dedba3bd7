package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocalDefaults(t *testing.T) {
	l := NewLocal(nil, "")
	assert.Equal(t, DefaultDir, l.Dir())
	assert.IsType(t, &afero.OsFs{}, l.fs)
}

func TestLocal_WriteFile(t *testing.T) {
	t.Run("creates the directory and writes content", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		l := NewLocal(fs, "downloaded")

		path, err := l.WriteFile("notes.txt", []byte("hello"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("downloaded", "notes.txt"), path)

		got, err := afero.ReadFile(fs, path)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(got))
	})

	t.Run("replaces an existing file silently", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		l := NewLocal(fs, "downloaded")
		require.NoError(t, afero.WriteFile(fs, filepath.Join("downloaded", "a.bin"), []byte("old content"), 0o644))

		path, err := l.WriteFile("a.bin", []byte("new"))
		require.NoError(t, err)

		got, err := afero.ReadFile(fs, path)
		require.NoError(t, err)
		assert.Equal(t, "new", string(got))
	})

	t.Run("leaves no temp files behind", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		l := NewLocal(fs, "out")

		_, err := l.WriteFile("x", []byte("1"))
		require.NoError(t, err)

		infos, err := afero.ReadDir(fs, "out")
		require.NoError(t, err)
		require.Len(t, infos, 1)
		assert.Equal(t, "x", infos[0].Name())
	})

	t.Run("rejects names with path components", func(t *testing.T) {
		l := NewLocal(afero.NewMemMapFs(), "out")
		for _, name := range []string{"", ".", "..", "a/b", `a\b`, "../escape", "nul\x00"} {
			_, err := l.WriteFile(name, []byte("x"))
			assert.Error(t, err, "name %q", name)
		}
	})

	t.Run("read-only filesystem fails", func(t *testing.T) {
		l := NewLocal(afero.NewReadOnlyFs(afero.NewMemMapFs()), "out")
		_, err := l.WriteFile("x", []byte("1"))
		assert.Error(t, err)
	})

	t.Run("os filesystem", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "downloaded")
		l := NewLocal(afero.NewOsFs(), dir)

		path, err := l.WriteFile("photo.jpg", []byte{0xff, 0xd8})
		require.NoError(t, err)

		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, []byte{0xff, 0xd8}, got)
	})
}

func TestLocal_EnsureDirIdempotent(t *testing.T) {
	fs := afero.NewMemMapFs()
	l := NewLocal(fs, "downloaded")

	require.NoError(t, l.EnsureDir())
	require.NoError(t, l.EnsureDir())

	ok, err := afero.DirExists(fs, "downloaded")
	require.NoError(t, err)
	assert.True(t, ok)
}
