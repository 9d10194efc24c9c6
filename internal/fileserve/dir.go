package fileserve

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

var (
	ErrNoDir     = errors.New("fileserve: no serving directory configured")
	ErrEmptyName = errors.New("fileserve: empty file name")
	ErrIsDir     = errors.New("fileserve: is a directory")
)

// Dir is the serving directory. Every access opens an os.Root on Path, so
// names containing "..", absolute names and symlinks leading outside the
// directory are refused by the operating system layer.
//
// Concurrent writes to one name are not serialized: the last writer wins
// and a reader may observe a partially written file.
type Dir struct {
	Path string
}

func (d Dir) root() (*os.Root, error) {
	if d.Path == "" {
		return nil, ErrNoDir
	}
	return os.OpenRoot(d.Path)
}

// Open opens name for reading and returns it with its file info. The
// caller closes the file.
func (d Dir) Open(name string) (*os.File, fs.FileInfo, error) {
	if name == "" {
		return nil, nil, ErrEmptyName
	}
	root, err := d.root()
	if err != nil {
		return nil, nil, err
	}
	defer root.Close()
	f, err := root.Open(name)
	if err != nil {
		return nil, nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if fi.IsDir() {
		f.Close()
		return nil, nil, fmt.Errorf("%w: %s", ErrIsDir, name)
	}
	return f, fi, nil
}

// WriteFile creates or truncates name and writes b to it.
func (d Dir) WriteFile(name string, b []byte) error {
	if name == "" {
		return ErrEmptyName
	}
	root, err := d.root()
	if err != nil {
		return err
	}
	defer root.Close()
	f, err := root.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(b); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
