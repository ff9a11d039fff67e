package vfs

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// NewDiskImage loads a gzipped tar disk image into an in-memory disk.
// Changes made at runtime are not written back to the image.
func NewDiskImage(r io.Reader) (*Disk, error) {
	gr, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer gr.Close()

	memFs := afero.NewMemMapFs()
	if err := extractTar(memFs, tar.NewReader(gr)); err != nil {
		return nil, err
	}
	return NewFromFs(memFs), nil
}

// OpenDiskImage loads a gzipped tar disk image from the host filesystem.
func OpenDiskImage(hostPath string) (*Disk, error) {
	fd, err := os.Open(hostPath)
	if err != nil {
		return nil, err
	}
	defer fd.Close()
	return NewDiskImage(fd)
}

func extractTar(dst afero.Fs, t *tar.Reader) error {
	for {
		hdr, err := t.Next()
		switch {
		case err == io.EOF:
			return nil
		case err != nil:
			return err
		}

		if err := (func() error {
			hdr.Name = "/" + strings.TrimPrefix(strings.TrimSuffix(hdr.Name, "/"), "/")

			// Make parents
			dst.MkdirAll(path.Dir(hdr.Name), 0777)

			mode := hdr.FileInfo().Mode()
			switch {
			case mode&fs.ModeDir > 0:
				err := dst.Mkdir(hdr.Name, mode)
				switch {
				case os.IsExist(err):
					// Do nothing
				case err != nil:
					return err
				}
			case mode&fs.ModeSymlink > 0:
				// The disk model has no symlinks; skip them.
				return nil
			default:
				fd, err := dst.OpenFile(hdr.Name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, mode)
				if err != nil {
					return err
				}
				// Don't defer the close because it'll update the modification time.
				if _, err := io.CopyN(fd, t, hdr.Size); err != nil {
					fd.Close()
					return err
				}
				fd.Close()
			}

			if err := dst.Chmod(hdr.Name, mode); err != nil {
				return err
			}
			return dst.Chtimes(hdr.Name, hdr.FileInfo().ModTime(), hdr.FileInfo().ModTime())
		}()); err != nil {
			return fmt.Errorf("extracting %q: %v", hdr.Name, err)
		}
	}
}
