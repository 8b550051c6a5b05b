package xfile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xserve/pkg/util/xfile"
)

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr error
	}{
		{"/var/log/app.log", "/var/log/app.log", nil},
		{"logs//./app.log", "logs/app.log", nil},
		{"app..2024.log", "app..2024.log", nil},
		{"", "", xfile.ErrEmptyPath},
		{"a\x00b", "", xfile.ErrNullByte},
		{"/var/log/", "", xfile.ErrInvalidPath},
		{"../etc/passwd", "", xfile.ErrPathTraversal},
		{"/", "", xfile.ErrInvalidPath},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := xfile.SanitizePath(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSafeJoin(t *testing.T) {
	got, err := xfile.SafeJoin("/srv/pages", "howdy/index.html")
	require.NoError(t, err)
	assert.Equal(t, "/srv/pages/howdy/index.html", got)

	got, err = xfile.SafeJoin("pages/", "./not_found.html")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("pages", "not_found.html"), got)

	_, err = xfile.SafeJoin("/srv/pages", "../secret")
	assert.ErrorIs(t, err, xfile.ErrPathTraversal)
	_, err = xfile.SafeJoin("/srv/pages", "/etc/passwd")
	assert.ErrorIs(t, err, xfile.ErrInvalidPath)
	_, err = xfile.SafeJoin("", "x")
	assert.ErrorIs(t, err, xfile.ErrEmptyPath)
	_, err = xfile.SafeJoin("/srv", "a\x00")
	assert.ErrorIs(t, err, xfile.ErrNullByte)
}

func TestEnsureDir(t *testing.T) {
	base := t.TempDir()
	file := filepath.Join(base, "a", "b", "c.log")
	require.NoError(t, xfile.EnsureDir(file))
	require.NoError(t, xfile.EnsureDir(file), "existing directory is fine")

	info, err := os.Stat(filepath.Dir(file))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	assert.NoError(t, xfile.EnsureDir("plain.log"))
	assert.ErrorIs(t, xfile.EnsureDir(""), xfile.ErrEmptyPath)
}

func FuzzSafeJoin(f *testing.F) {
	for _, s := range []string{"a", "a/b", "../x", "a/../../b", "./", "//x"} {
		f.Add(s)
	}
	base := "/srv/pages"
	f.Fuzz(func(t *testing.T, rel string) {
		got, err := xfile.SafeJoin(base, rel)
		if err != nil {
			return
		}
		r, err := filepath.Rel(base, got)
		require.NoError(t, err)
		assert.NotEqual(t, "..", r)
		assert.False(t, len(r) > 2 && r[:3] == "../", "escaped: %q -> %q", rel, got)
	})
}
