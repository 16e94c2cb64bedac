package fs

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMemoryFileSystem(t *testing.T) {
	fs := NewMemoryFileSystem()
	assert.NotNil(t, fs)
	assert.IsType(t, &afero.MemMapFs{}, fs.Fs)
}

func TestNewOsFileSystem(t *testing.T) {
	fs := NewOsFileSystem()
	assert.NotNil(t, fs)
	assert.IsType(t, &afero.OsFs{}, fs.Fs)
}

func TestWriteFile(t *testing.T) {
	fs := NewMemoryFileSystem()
	err := fs.WriteFile("test/nested/file.txt", []byte("Hello, World!"))
	assert.NoError(t, err)

	content, err := fs.ReadFile("test/nested/file.txt")
	assert.NoError(t, err)
	assert.Equal(t, "Hello, World!", string(content))
	assert.True(t, fs.Exists("test/nested/file.txt"))
}

func TestWriteJSON(t *testing.T) {
	fs := NewMemoryFileSystem()
	require.NoError(t, fs.WriteJSON("out/page.json", map[string]string{"page_title": "Acme"}))

	content, err := fs.ReadFile("out/page.json")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"page_title\": \"Acme\"\n}\n", string(content))
}

func TestIsDir(t *testing.T) {
	fs := NewMemoryFileSystem()
	err := fs.Fs.MkdirAll("test/dir", 0755)
	assert.NoError(t, err)

	isDir := fs.IsDir("test/dir")
	assert.True(t, isDir)

	isDir = fs.IsDir("test/nonexistent")
	assert.False(t, isDir)
}

func TestList(t *testing.T) {
	fs := NewMemoryFileSystem()
	require.NoError(t, fs.WriteFile("templates/2.json", []byte("{}")))
	require.NoError(t, fs.WriteFile("templates/1.json", []byte("{}")))
	require.NoError(t, fs.WriteFile("templates/notes.txt", []byte("x")))

	names, err := fs.List("templates", ".json")
	require.NoError(t, err)
	assert.Equal(t, []string{"1.json", "2.json"}, names)

	names, err = fs.List("missing", ".json")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestWriteToZip(t *testing.T) {
	fs := NewMemoryFileSystem()
	require.NoError(t, fs.WriteFile("export/page.json", []byte(`{"a":1}`)))
	require.NoError(t, fs.WriteFile("export/markup/page.html", []byte("<!-- wp:paragraph /-->")))

	var buf bytes.Buffer
	require.NoError(t, fs.WriteToZip(&buf, "export"))

	r, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	files := map[string]string{}
	for _, f := range r.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		files[f.Name] = string(data)
	}
	assert.Equal(t, map[string]string{
		"page.json":        `{"a":1}`,
		"markup/page.html": "<!-- wp:paragraph /-->",
	}, files)
}

func TestWriteToZipEmpty(t *testing.T) {
	fs := NewMemoryFileSystem()
	require.NoError(t, fs.Fs.MkdirAll("empty", 0755))
	var buf bytes.Buffer
	assert.Error(t, fs.WriteToZip(&buf, "empty"))
}
