package fs

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// FileSystem wraps the Afero Fs interface
type FileSystem struct {
	Fs afero.Fs
}

// NewMemoryFileSystem creates a new in-memory file system
func NewMemoryFileSystem() *FileSystem {
	return &FileSystem{
		Fs: afero.NewMemMapFs(),
	}
}

// NewOsFileSystem creates a new OS-based file system
func NewOsFileSystem() *FileSystem {
	return &FileSystem{
		Fs: afero.NewOsFs(),
	}
}

// WriteFile creates a new file with the given content or overwrites an existing file with the content
func (fs *FileSystem) WriteFile(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := fs.Fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating directory %s: %w", dir, err)
	}
	if err := afero.WriteFile(fs.Fs, path, content, 0644); err != nil {
		return fmt.Errorf("error writing file %s: %w", path, err)
	}
	return nil
}

// ReadFile returns the content of path
func (fs *FileSystem) ReadFile(path string) ([]byte, error) {
	data, err := afero.ReadFile(fs.Fs, path)
	if err != nil {
		return nil, fmt.Errorf("error reading file %s: %w", path, err)
	}
	return data, nil
}

// WriteJSON writes v as indented JSON
func (fs *FileSystem) WriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding %s: %w", path, err)
	}
	return fs.WriteFile(path, append(data, '\n'))
}

// Exists reports whether path exists
func (fs *FileSystem) Exists(path string) bool {
	ok, err := afero.Exists(fs.Fs, path)
	return err == nil && ok
}

// IsDir checks if a path is a directory
func (fs *FileSystem) IsDir(path string) bool {
	info, err := fs.Fs.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// List returns the sorted names of the files in dir ending in ext
func (fs *FileSystem) List(dir, ext string) ([]string, error) {
	if !fs.IsDir(dir) {
		return nil, nil
	}
	infos, err := afero.ReadDir(fs.Fs, dir)
	if err != nil {
		return nil, fmt.Errorf("error listing %s: %w", dir, err)
	}
	var names []string
	for _, info := range infos {
		if !info.IsDir() && strings.HasSuffix(info.Name(), ext) {
			names = append(names, info.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// WriteToZip writes every file under root into a zip archive on w
func (fs *FileSystem) WriteToZip(w io.Writer, root string) error {
	zipWriter := zip.NewWriter(w)

	fileCount := 0
	err := afero.Walk(fs.Fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		zipPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		writer, err := zipWriter.Create(filepath.ToSlash(zipPath))
		if err != nil {
			return fmt.Errorf("error creating zip entry for file %s: %w", zipPath, err)
		}

		file, err := fs.Fs.Open(path)
		if err != nil {
			return fmt.Errorf("error opening file %s: %w", path, err)
		}
		defer file.Close()

		if _, err := io.Copy(writer, file); err != nil {
			return fmt.Errorf("error writing file %s to zip: %w", path, err)
		}

		fileCount++
		return nil
	})

	if err != nil {
		return fmt.Errorf("error walking file system: %w", err)
	}

	if fileCount == 0 {
		return fmt.Errorf("no files to zip")
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("error closing zip writer: %w", err)
	}
	return nil
}
