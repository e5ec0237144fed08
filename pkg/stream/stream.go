// Package stream implements the send/receive archive codec: a gzip'd tar
// of a snapshot's directory subtree, rooted at the snapshot's bare name.
//
// Decoding materializes the whole payload in memory before decompression
// begins, so receive works from non-seekable transports (pipes).
package stream

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// Encode writes a compressed archive of the directory tree at dir to w,
// with every entry path rooted at name. Relative paths, directory
// structure, and symlinks are preserved exactly.
func Encode(w io.Writer, dir, name string) error {
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		arcname := name
		if rel != "." {
			arcname = filepath.Join(name, rel)
		}

		link := ""
		if info.Mode()&os.ModeSymlink != 0 {
			if link, err = os.Readlink(path); err != nil {
				return err
			}
		}
		hdr, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(arcname)
		if info.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}

		if !info.Mode().IsRegular() {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
	if err != nil {
		return errors.Wrapf(err, "archive %s", dir)
	}

	if err := tw.Close(); err != nil {
		return errors.Wrap(err, "finalize archive")
	}
	return errors.Wrap(gz.Close(), "finalize archive")
}

// Decode buffers all of r, then unpacks the compressed archive into
// destDir. Entries that would escape destDir are rejected.
func Decode(r io.Reader, destDir string) error {
	// gzip wants a complete, seekable payload; the transport may be a pipe.
	buf, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrap(err, "buffer stream")
	}

	gz, err := gzip.NewReader(bytes.NewReader(buf))
	if err != nil {
		return errors.Wrap(err, "decode stream")
	}
	tr := tar.NewReader(gz)

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrap(err, "decode stream")
		}

		target, err := securePath(destDir, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(hdr.Mode)|0o700); err != nil {
				return errors.Wrapf(err, "unpack %s", hdr.Name)
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return errors.Wrapf(err, "unpack %s", hdr.Name)
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return errors.Wrapf(err, "unpack %s", hdr.Name)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return errors.Wrapf(err, "unpack %s", hdr.Name)
			}
			f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, os.FileMode(hdr.Mode))
			if err != nil {
				return errors.Wrapf(err, "unpack %s", hdr.Name)
			}
			if _, err := io.Copy(f, tr); err != nil {
				f.Close()
				return errors.Wrapf(err, "unpack %s", hdr.Name)
			}
			if err := f.Close(); err != nil {
				return errors.Wrapf(err, "unpack %s", hdr.Name)
			}
		default:
			// Hard links, devices, and the like do not occur in snapshot
			// trees; reject rather than silently skip.
			return errors.Errorf("decode stream: unsupported entry type %q for %s",
				hdr.Typeflag, hdr.Name)
		}
	}

	return errors.Wrap(gz.Close(), "decode stream")
}

// securePath joins an archive entry name onto destDir, refusing entries
// that would resolve outside it.
func securePath(destDir, name string) (string, error) {
	target := filepath.Join(destDir, filepath.FromSlash(name))
	if target != destDir && !strings.HasPrefix(target, destDir+string(os.PathSeparator)) {
		return "", errors.Errorf("decode stream: entry %q escapes destination", name)
	}
	return target, nil
}
