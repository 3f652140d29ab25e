// Package ioutils holds the file plumbing shared by the format packages:
// transparent gzip on read and atomic, optionally compressed writes.
package ioutils

import (
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
)

// IsGzipPath reports whether path names a gzip file.
func IsGzipPath(path string) bool { return filepath.Ext(path) == ".gz" }

// TrimGzip strips a trailing .gz so the inner extension can be inspected.
func TrimGzip(path string) string {
	if IsGzipPath(path) {
		return path[:len(path)-len(".gz")]
	}
	return path
}

// OpenMaybeCompressed opens a file path or stdin ("-") and returns a reader.
// If the input appears to be gzip (by extension or magic), it wraps with gzip.
func OpenMaybeCompressed(path string) (io.ReadCloser, error) {
	if path == "-" || path == "" {
		return sniffGzip(bufio.NewReader(os.Stdin), func() error { return nil })
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if IsGzipPath(path) {
		zr, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		return readCloser{Reader: zr, closeFn: func() error { return multierr.Append(zr.Close(), f.Close()) }}, nil
	}
	rc, err := sniffGzip(bufio.NewReader(f), f.Close)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return rc, nil
}

func sniffGzip(br *bufio.Reader, closeFn func() error) (io.ReadCloser, error) {
	b, err := br.Peek(2)
	if err == nil && len(b) >= 2 && b[0] == 0x1f && b[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, err
		}
		return readCloser{Reader: zr, closeFn: func() error { return multierr.Append(zr.Close(), closeFn()) }}, nil
	}
	return readCloser{Reader: br, closeFn: closeFn}, nil
}

// CreateMaybeCompressed creates a file (or stdout if path is "-") and
// returns a writer. If the path ends in .gz, the writer is gzip compressed.
func CreateMaybeCompressed(path string) (io.WriteCloser, error) {
	if path == "-" || path == "" {
		return nopWriteCloser{Writer: bufio.NewWriter(os.Stdout)}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return wrapWriter(f, IsGzipPath(path)), nil
}

func wrapWriter(f *os.File, gz bool) io.WriteCloser {
	if gz {
		zw := gzip.NewWriter(f)
		return writeCloser{Writer: zw, closeFn: func() error { return multierr.Append(zw.Close(), f.Close()) }}
	}
	return writeCloser{Writer: bufio.NewWriter(f), closeFn: f.Close}
}

// WriteAtomic runs write against a temporary file created next to path and
// renames it over path only when write and every close succeed. On failure
// the temporary file is removed and path is left as it was. A .gz path is
// gzip compressed; "-" writes straight to stdout.
func WriteAtomic(path string, write func(w io.Writer) error) error {
	if path == "-" || path == "" {
		w, _ := CreateMaybeCompressed(path)
		return multierr.Append(write(w), w.Close())
	}
	return WriteFileAtomic(path, func(tmp string) error {
		f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return err
		}
		w := wrapWriter(f, IsGzipPath(path))
		return multierr.Append(write(w), w.Close())
	})
}

// WriteFileAtomic is WriteAtomic for writers that insist on opening the file
// themselves: write receives the temporary file name.
func WriteFileAtomic(path string, write func(tmp string) error) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()
	if err := write(tmp); err != nil {
		return err
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

type readCloser struct {
	io.Reader
	closeFn func() error
}

func (r readCloser) Close() error {
	if r.closeFn != nil {
		return r.closeFn()
	}
	return errors.New("no closeFn")
}

type writeCloser struct {
	io.Writer
	closeFn func() error
}

func (w writeCloser) Close() error {
	var err error
	if bw, ok := w.Writer.(*bufio.Writer); ok {
		err = bw.Flush()
	}
	if w.closeFn == nil {
		return multierr.Append(err, errors.New("no closeFn"))
	}
	return multierr.Append(err, w.closeFn())
}

type nopWriteCloser struct{ io.Writer }

func (n nopWriteCloser) Close() error {
	if bw, ok := n.Writer.(*bufio.Writer); ok {
		return bw.Flush()
	}
	return nil
}
