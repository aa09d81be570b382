package fileutil_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alnah/go-xmd/internal/fileutil"
)

// ---------------------------------------------------------------------------
// TestWriteFileAtomic
// ---------------------------------------------------------------------------

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "feed.html")

	require.NoError(t, fileutil.WriteFileAtomic(path, []byte("<html>one</html>")))
	require.NoError(t, fileutil.WriteFileAtomic(path, []byte("<html>two</html>")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<html>two</html>", string(got))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")

	info, err := os.Stat(path)
	require.NoError(t, err)
	if os.PathSeparator == '/' {
		assert.Equal(t, os.FileMode(fileutil.FilePerm), info.Mode().Perm())
	}
}

func TestWriteFileAtomic_Errors(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, fileutil.WriteFileAtomic("  ", nil), fileutil.ErrEmptyPath)

	// A directory at the target path cannot be replaced by a file.
	dir := t.TempDir()
	target := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(target, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(target, "keep"), []byte("x"), 0o600))
	assert.Error(t, fileutil.WriteFileAtomic(target, []byte("data")))
}

// ---------------------------------------------------------------------------
// TestReadInput
// ---------------------------------------------------------------------------

func TestReadInput(t *testing.T) {
	t.Parallel()

	t.Run("stdin", func(t *testing.T) {
		t.Parallel()

		for _, path := range []string{"", "-"} {
			got, err := fileutil.ReadInput(path, strings.NewReader("**hi**"), 100)
			require.NoError(t, err)
			assert.Equal(t, "**hi**", string(got))
		}
	})

	t.Run("file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "post.md")
		require.NoError(t, os.WriteFile(path, []byte("# title"), 0o600))

		got, err := fileutil.ReadInput(path, nil, 100)
		require.NoError(t, err)
		assert.Equal(t, "# title", string(got))
	})

	t.Run("limit plus one", func(t *testing.T) {
		t.Parallel()

		got, err := fileutil.ReadInput("-", strings.NewReader("abcdef"), 3)
		require.NoError(t, err)
		assert.Equal(t, "abcd", string(got))
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := fileutil.ReadInput(filepath.Join(t.TempDir(), "nope"), nil, 10)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

// ---------------------------------------------------------------------------
// TestFileExists
// ---------------------------------------------------------------------------

func TestFileExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "exists.yaml")
	require.NoError(t, os.WriteFile(file, []byte("log: {}"), 0o600))

	assert.True(t, fileutil.FileExists(file))
	assert.False(t, fileutil.FileExists(dir), "directories are not files")
	assert.False(t, fileutil.FileExists(filepath.Join(dir, "missing")))
}

// ---------------------------------------------------------------------------
// TestIsFilePath / TestIsURL
// ---------------------------------------------------------------------------

func TestIsFilePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"xmd", false},
		{"my-feed", false},
		{"./xmd.yaml", true},
		{"../shared/xmd.yaml", true},
		{"/etc/xmd/feed.yml", true},
		{`C:\xmd\feed.yaml`, true},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, fileutil.IsFilePath(tt.input))
		})
	}
}

func TestIsURL(t *testing.T) {
	t.Parallel()

	assert.True(t, fileutil.IsURL("https://x.com/home"))
	assert.True(t, fileutil.IsURL("http://localhost:8080"))
	assert.False(t, fileutil.IsURL("x.com"))
	assert.False(t, fileutil.IsURL("file:///tmp/feed.html"))
	assert.False(t, fileutil.IsURL("HTTPS://x.com"))
}
