package resolve

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// FileSystem is the filesystem surface the download resolver needs.
type FileSystem interface {
	Exists(path string) bool
	DirNonEmpty(path string) bool
	MkdirAll(path string) error
	// ListFiles may return a partial list together with an error.
	ListFiles(dir string) ([]string, error)
	ReadFile(path string) ([]byte, error)
}

// OSFileSystem implements FileSystem on the local disk.
type OSFileSystem struct{}

func (OSFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (OSFileSystem) DirNonEmpty(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	names, _ := f.Readdirnames(1)
	return len(names) > 0
}

func (OSFileSystem) MkdirAll(path string) error { return os.MkdirAll(path, 0o755) }

// ListFiles walks dir recursively and returns regular files, including
// symlinks to regular files, in lexical walk order. Entries below dir that
// cannot be read are skipped and reported in the joined error next to a
// non-nil file list. A nil list means dir itself could not be walked.
func (OSFileSystem) ListFiles(dir string) ([]string, error) {
	files := []string{}
	var skipped []error
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return err
			}
			skipped = append(skipped, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		switch {
		case d.Type().IsRegular():
			files = append(files, p)
		case d.Type()&fs.ModeSymlink != 0:
			if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
				files = append(files, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, errors.Join(skipped...)
}

func (OSFileSystem) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }
