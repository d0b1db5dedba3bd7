// Package dirsession serves a local directory tree through the obex.Session
// interface. Listings are produced in folder-listing format so callers
// exercise the same parsing path as with a real device.
package dirsession

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"

	"obex-browser/internal/listing"
	"obex-browser/internal/obex"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

const modifiedLayout = "20060102T150405Z"

var _ obex.Session = (*Session)(nil)

// Session is a loopback OBEX session over an afero filesystem.
type Session struct {
	fs        afero.Fs
	connected bool
}

// New serves root on the OS filesystem.
func New(root string) *Session {
	return NewFs(afero.NewBasePathFs(afero.NewOsFs(), root))
}

// NewFs serves the given filesystem; "/" is the remote root.
func NewFs(fs afero.Fs) *Session {
	return &Session{fs: fs}
}

func (s *Session) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := s.fs.Stat("/")
	if err != nil {
		return errors.Wrap(err, "dirsession: connect")
	}
	if !info.IsDir() {
		return errors.New("dirsession: connect: root is not a directory")
	}
	s.connected = true
	return nil
}

func (s *Session) ListDirectory(ctx context.Context, p string) ([]byte, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	name, err := resolve(p)
	if err != nil {
		return nil, err
	}
	infos, err := afero.ReadDir(s.fs, name)
	if err != nil {
		return nil, errors.Wrapf(err, "dirsession: list %q", p)
	}
	entries := make([]listing.Entry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, entryFromInfo(info))
	}
	return listing.Encode(entries)
}

func (s *Session) GetFile(ctx context.Context, p string) ([]byte, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	name, err := resolve(p)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, name)
	if err != nil {
		return nil, errors.Wrapf(err, "dirsession: get %q", p)
	}
	return data, nil
}

func (s *Session) Disconnect() error {
	s.connected = false
	return nil
}

func (s *Session) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.connected {
		return errors.New("dirsession: not connected")
	}
	return nil
}

// resolve maps a remote path onto the served tree. Parent references are
// refused outright rather than clamped.
func resolve(p string) (string, error) {
	for _, part := range strings.Split(p, "/") {
		if part == ".." {
			return "", errors.Errorf("dirsession: path %q escapes the root", p)
		}
	}
	return filepath.FromSlash(path.Clean("/" + p)), nil
}

func entryFromInfo(info os.FileInfo) listing.Entry {
	e := listing.Entry{
		Kind:        listing.File,
		Name:        info.Name(),
		Modified:    info.ModTime().UTC().Format(modifiedLayout),
		Permissions: perms(info.Mode()),
	}
	if info.IsDir() {
		e.Kind = listing.Folder
	} else {
		e.Size = uint64(info.Size())
	}
	return e
}

func perms(mode os.FileMode) string {
	var b strings.Builder
	if mode&0o400 != 0 {
		b.WriteByte('R')
	}
	if mode&0o200 != 0 {
		b.WriteString("WD")
	}
	return b.String()
}
