// Package vfs provides the disk the interpreter operates on: an afero
// filesystem with a current working directory, result codes mapped onto
// the shared enumeration, and a resumable pattern matched directory scan.
package vfs

import (
	"io"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"

	"github.com/micromos/micromos/core/match"
	"github.com/micromos/micromos/core/moserr"
)

// Disk is a mounted volume plus the interpreter's working directory on it.
// Paths are slash separated; relative paths resolve against the working
// directory.
type Disk struct {
	fs  afero.Fs
	cwd string
}

// NewMem returns an empty in-memory disk, used by tests.
func NewMem() *Disk {
	return &Disk{fs: afero.NewMemMapFs(), cwd: "/"}
}

// NewDiskDir mounts a host directory as the disk's root.
func NewDiskDir(hostPath string) (*Disk, error) {
	info, err := os.Stat(hostPath)
	if err != nil {
		return nil, moserr.FromFS(err, false)
	}
	if !info.IsDir() {
		return nil, moserr.InvalidObject
	}
	return &Disk{
		fs:  afero.NewBasePathFs(afero.NewOsFs(), hostPath),
		cwd: "/",
	}, nil
}

// NewFromFs wraps an existing filesystem as a disk.
func NewFromFs(fs afero.Fs) *Disk {
	return &Disk{fs: fs, cwd: "/"}
}

// Fs exposes the underlying filesystem for collaborators that need raw
// afero access.
func (d *Disk) Fs() afero.Fs {
	return d.fs
}

// Resolve turns name into a cleaned absolute path on the disk.
func (d *Disk) Resolve(name string) string {
	if !strings.HasPrefix(name, "/") {
		name = path.Join(d.cwd, name)
	}
	return path.Clean(name)
}

// Getwd returns the current working directory.
func (d *Disk) Getwd() string {
	return d.cwd
}

// Chdir changes the working directory. The target must exist and be a
// directory.
func (d *Disk) Chdir(name string) error {
	abs := d.Resolve(name)
	info, err := d.fs.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return moserr.NoPath
		}
		return d.mapErr(err, abs)
	}
	if !info.IsDir() {
		return moserr.NoPath
	}
	d.cwd = abs
	return nil
}

// Open opens a file for reading.
func (d *Disk) Open(name string) (afero.File, error) {
	abs := d.Resolve(name)
	fd, err := d.fs.Open(abs)
	if err != nil {
		return nil, d.mapErr(err, abs)
	}
	return fd, nil
}

// Stat returns metadata for a file or directory.
func (d *Disk) Stat(name string) (os.FileInfo, error) {
	abs := d.Resolve(name)
	info, err := d.fs.Stat(abs)
	if err != nil {
		return nil, d.mapErr(err, abs)
	}
	return info, nil
}

// ReadFile reads a whole file.
func (d *Disk) ReadFile(name string) ([]byte, error) {
	fd, err := d.Open(name)
	if err != nil {
		return nil, err
	}
	defer fd.Close()
	data, err := afero.ReadAll(fd)
	if err != nil {
		return nil, moserr.DiskError
	}
	return data, nil
}

// Save writes data to a new file. An existing file is an error so a stray
// SAVE cannot clobber anything.
func (d *Disk) Save(name string, data []byte) error {
	abs := d.Resolve(name)
	fd, err := d.fs.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return d.mapErr(err, abs)
	}
	defer fd.Close()
	if _, err := fd.Write(data); err != nil {
		return moserr.DiskError
	}
	return nil
}

// WriteFile writes data to a file, replacing any existing content.
func (d *Disk) WriteFile(name string, data []byte) error {
	abs := d.Resolve(name)
	if err := afero.WriteFile(d.fs, abs, data, 0644); err != nil {
		return d.mapErr(err, abs)
	}
	return nil
}

// Copy duplicates src to dst. dst must not already exist.
func (d *Disk) Copy(src, dst string) error {
	in, err := d.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	abs := d.Resolve(dst)
	out, err := d.fs.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return d.mapErr(err, abs)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return moserr.DiskError
	}
	return nil
}

// Rename moves src to dst. An existing dst is refused.
func (d *Disk) Rename(src, dst string) error {
	absSrc := d.Resolve(src)
	absDst := d.Resolve(dst)
	if _, err := d.fs.Stat(absSrc); err != nil {
		return d.mapErr(err, absSrc)
	}
	if _, err := d.fs.Stat(absDst); err == nil {
		return moserr.Exists
	}
	if err := d.fs.Rename(absSrc, absDst); err != nil {
		return d.mapErr(err, absSrc)
	}
	return nil
}

// Mkdir creates a directory.
func (d *Disk) Mkdir(name string) error {
	abs := d.Resolve(name)
	if _, err := d.fs.Stat(abs); err == nil {
		return moserr.Exists
	}
	if err := d.fs.Mkdir(abs, 0755); err != nil {
		return d.mapErr(err, abs)
	}
	return nil
}

// Remove deletes a file or an empty directory.
func (d *Disk) Remove(name string) error {
	abs := d.Resolve(name)
	if err := d.fs.Remove(abs); err != nil {
		return d.mapErr(err, abs)
	}
	return nil
}

// ReadDir lists the entries of a directory, sorted by name.
func (d *Disk) ReadDir(name string) ([]os.FileInfo, error) {
	abs := d.Resolve(name)
	infos, err := afero.ReadDir(d.fs, abs)
	if err != nil {
		return nil, d.mapErr(err, abs)
	}
	return infos, nil
}

// mapErr translates a filesystem error, distinguishing a missing parent
// directory (NoPath) from a missing leaf (NoFile).
func (d *Disk) mapErr(err error, abs string) error {
	if err == nil {
		return nil
	}
	if os.IsNotExist(err) {
		parent := path.Dir(abs)
		if parent != abs {
			if _, perr := d.fs.Stat(parent); perr != nil {
				return moserr.NoPath
			}
		}
	}
	return moserr.FromFS(err, false)
}

// Finder is a resumable, pattern matched scan over one directory. Each
// call to Next returns the following matching entry.
type Finder struct {
	dir     string
	pattern string
	entries []os.FileInfo
	pos     int
}

// FindFirst begins a scan of dir for entries matching pattern and returns
// the scan together with its first match. A nil FileInfo with a nil error
// means no entry matched.
func (d *Disk) FindFirst(dir, pattern string) (*Finder, os.FileInfo, error) {
	entries, err := d.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	f := &Finder{dir: d.Resolve(dir), pattern: pattern, entries: entries}
	return f, f.Next(), nil
}

// Next returns the next matching entry, or nil when the scan is done.
func (f *Finder) Next() os.FileInfo {
	for f.pos < len(f.entries) {
		e := f.entries[f.pos]
		f.pos++
		if match.Wildcard(f.pattern, e.Name()) {
			return e
		}
	}
	return nil
}

// Dir returns the absolute directory being scanned.
func (f *Finder) Dir() string {
	return f.dir
}
