// Package storage is the local sink for downloaded files.
package storage

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// DefaultDir is where downloads land, relative to the working directory.
const DefaultDir = "downloaded"

// Sink stores a downloaded object under a bare file name and returns the
// path it was written to.
type Sink interface {
	WriteFile(name string, data []byte) (string, error)
}

var _ Sink = (*Local)(nil)

// Local writes files into a single directory of an afero filesystem.
type Local struct {
	fs  afero.Fs
	dir string
}

// NewLocal returns a sink rooted at dir on fs. A nil fs means the OS
// filesystem and an empty dir means DefaultDir.
func NewLocal(fs afero.Fs, dir string) *Local {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if dir == "" {
		dir = DefaultDir
	}
	return &Local{fs: fs, dir: dir}
}

func (l *Local) Dir() string { return l.dir }

// EnsureDir creates the target directory if it is missing.
func (l *Local) EnsureDir() error {
	if err := l.fs.MkdirAll(l.dir, 0o755); err != nil {
		return errors.Wrapf(err, "storage: create %s", l.dir)
	}
	return nil
}

// WriteFile stores data as dir/name. The content goes to a temp file in the
// same directory first and is renamed into place, so a failed write never
// leaves a truncated file under the final name. An existing file is replaced.
func (l *Local) WriteFile(name string, data []byte) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	if err := l.EnsureDir(); err != nil {
		return "", err
	}
	dst := filepath.Join(l.dir, name)

	tmp, err := afero.TempFile(l.fs, l.dir, "."+name+".*.part")
	if err != nil {
		return "", errors.Wrapf(err, "storage: create temp for %s", dst)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = l.fs.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", errors.Wrapf(err, "storage: write %s", dst)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", errors.Wrapf(err, "storage: close %s", dst)
	}
	if err := l.fs.Rename(tmpName, dst); err != nil {
		cleanup()
		return "", errors.Wrapf(err, "storage: rename into %s", dst)
	}
	return dst, nil
}

func validName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return errors.Errorf("storage: invalid file name %q", name)
	case strings.ContainsAny(name, `/\`+"\x00"), filepath.Base(name) != name:
		return errors.Errorf("storage: file name %q must not contain path components", name)
	}
	return nil
}
