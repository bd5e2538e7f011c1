package pathutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, p string) {
	t.Helper()
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
}

func TestFilenameFromURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{name: "plain file", url: "https://example.com/files/report.pdf", want: "report.pdf"},
		{name: "query ignored", url: "https://example.com/a/b.zip?token=1#top", want: "b.zip"},
		{name: "percent decoded", url: "https://example.com/my%20file.txt", want: "my file.txt"},
		{name: "trailing slash", url: "https://example.com/dir/", want: DefaultFilename},
		{name: "no path", url: "https://example.com", want: DefaultFilename},
		{name: "parent segment", url: "http://example.com/files/..", want: DefaultFilename},
		{name: "current segment", url: "http://example.com/files/.", want: DefaultFilename},
		{name: "unparseable url", url: "http://[::1/x:y", want: "x:y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilenameFromURL(tt.url))
		})
	}
}

func TestSafeFilename(t *testing.T) {
	got := SafeFilename(`a<b>c:d"e/f\g|h?i*j.txt`)
	assert.Equal(t, "a_b_c_d_e_f_g_h_i_j.txt", got)
	assert.Equal(t, "normal-name.tar.gz", SafeFilename("normal-name.tar.gz"))
}

func TestResolve_DerivedNameHasNoReservedCharacters(t *testing.T) {
	dir := t.TempDir()
	urls := []string{
		"https://example.com/what%3F%2A%7C.bin",
		"https://example.com/%3Cscript%3E.html",
		`https://example.com/a%22b%5Cc%3Ad`,
		"https://example.com/",
	}

	for _, u := range urls {
		p, err := Resolve(u, "", dir)
		require.NoError(t, err)
		name := filepath.Base(p)
		assert.False(t, strings.ContainsAny(name, `<>:"/\|?*`), "name %q from %s", name, u)
		assert.Equal(t, dir, filepath.Dir(p))
	}
}

func TestResolve_StaysInsideDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Downloads")

	for _, u := range []string{
		"http://example.com/files/..",
		"http://example.com/..",
		"http://[::1/..",
	} {
		p, err := Resolve(u, "", dir)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, DefaultFilename), p, u)
	}

	// An existing parent-named entry still yields a numbered sibling in dir.
	touch(t, filepath.Join(dir, DefaultFilename))
	p, err := Resolve("http://example.com/files/..", "", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DefaultFilename+"_1"), p)
}

func TestUniquePath(t *testing.T) {
	t.Run("free path returned as is", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "report.pdf")
		assert.Equal(t, p, UniquePath(p))
	})

	t.Run("collisions are numbered before the extension", func(t *testing.T) {
		dir := t.TempDir()
		p := filepath.Join(dir, "report.pdf")

		touch(t, p)
		assert.Equal(t, filepath.Join(dir, "report_1.pdf"), UniquePath(p))

		touch(t, filepath.Join(dir, "report_1.pdf"))
		assert.Equal(t, filepath.Join(dir, "report_2.pdf"), UniquePath(p))
	})

	t.Run("no extension", func(t *testing.T) {
		dir := t.TempDir()
		p := filepath.Join(dir, DefaultFilename)
		touch(t, p)
		assert.Equal(t, filepath.Join(dir, DefaultFilename+"_1"), UniquePath(p))
	})

	t.Run("dotfile keeps its whole name as stem", func(t *testing.T) {
		dir := t.TempDir()
		p := filepath.Join(dir, ".bashrc")
		touch(t, p)
		assert.Equal(t, filepath.Join(dir, ".bashrc_1"), UniquePath(p))
	})
}

func TestResolve_NthCollision(t *testing.T) {
	dir := t.TempDir()
	const u = "https://example.com/data.csv"

	seen := map[string]bool{}
	for i := 0; i < 4; i++ {
		p, err := Resolve(u, "", dir)
		require.NoError(t, err)
		require.False(t, seen[p], "path %s handed out twice", p)
		seen[p] = true
		touch(t, p)
	}

	assert.True(t, seen[filepath.Join(dir, "data.csv")])
	assert.True(t, seen[filepath.Join(dir, "data_1.csv")])
	assert.True(t, seen[filepath.Join(dir, "data_2.csv")])
	assert.True(t, seen[filepath.Join(dir, "data_3.csv")])
}

func TestResolve_CreatesDirectories(t *testing.T) {
	root := t.TempDir()

	t.Run("derived", func(t *testing.T) {
		dir := filepath.Join(root, "a", "b")
		p, err := Resolve("https://example.com/x.bin", "", dir)
		require.NoError(t, err)
		assert.DirExists(t, dir)
		assert.NoFileExists(t, p)
	})

	t.Run("explicit path used verbatim", func(t *testing.T) {
		explicit := filepath.Join(root, "c", "d", "out?.bin")
		p, err := Resolve("https://example.com/ignored.bin", explicit, "unused")
		require.NoError(t, err)
		assert.Equal(t, explicit, p)
		assert.DirExists(t, filepath.Join(root, "c", "d"))
	})

	t.Run("explicit path is not renamed on collision", func(t *testing.T) {
		explicit := filepath.Join(root, "existing.bin")
		touch(t, explicit)
		p, err := Resolve("https://example.com/x", explicit, "")
		require.NoError(t, err)
		assert.Equal(t, explicit, p)
	})

	t.Run("directory creation failure", func(t *testing.T) {
		blocker := filepath.Join(root, "blocker")
		touch(t, blocker)
		_, err := Resolve("https://example.com/x.bin", "", filepath.Join(blocker, "sub"))
		assert.Error(t, err)
	})
}
