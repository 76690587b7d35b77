// Package fileutil reads operator supplied side files, such as template
// catalogs, and writes exports without leaving partial files behind.
package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	dterrors "github.com/doctrack/doctrack/internal/errors"
)

// ErrTooLarge is matched by errors.Is when a file exceeds the read limit.
var ErrTooLarge = errors.New("file exceeds size limit")

type tempFile interface {
	Name() string
	Chmod(os.FileMode) error
	Write([]byte) (int, error)
	Sync() error
	Close() error
}

type fsOps struct {
	createTemp func(dir, pattern string) (tempFile, error)
	rename     func(oldpath, newpath string) error
	remove     func(path string) error
}

func defaultFSOps() fsOps {
	return fsOps{
		createTemp: func(dir, pattern string) (tempFile, error) {
			return os.CreateTemp(dir, pattern)
		},
		rename: os.Rename,
		remove: os.Remove,
	}
}

// ReadFileLimited reads at most maxSize bytes from path. Larger files fail
// with a validation error wrapping ErrTooLarge; unreadable ones with an I/O
// error wrapping the os error.
func ReadFileLimited(path string, maxSize int64) ([]byte, error) {
	const op = "fileutil.ReadFileLimited"

	f, err := os.Open(path) // #nosec G304 -- operator supplied path
	if err != nil {
		return nil, dterrors.IOWrap(err, op, "cannot open "+path)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, dterrors.IOWrap(err, op, "cannot stat "+path)
	}
	if info.IsDir() {
		return nil, dterrors.Validation(op, path+" is a directory")
	}
	if info.Size() > maxSize {
		return nil, tooLarge(op, path, maxSize)
	}

	// The file may grow between Stat and ReadAll.
	data, err := io.ReadAll(io.LimitReader(f, maxSize+1))
	if err != nil {
		return nil, dterrors.IOWrap(err, op, "cannot read "+path)
	}
	if int64(len(data)) > maxSize {
		return nil, tooLarge(op, path, maxSize)
	}
	return data, nil
}

func tooLarge(op, path string, maxSize int64) error {
	return dterrors.Wrap(ErrTooLarge, dterrors.KindValidation, op,
		fmt.Sprintf("%s is larger than %d bytes", path, maxSize))
}

// AtomicWriteFile replaces path with data. Readers see either the old
// content or the new one.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	return atomicWriteFile(path, data, perm, defaultFSOps())
}

func atomicWriteFile(path string, data []byte, perm os.FileMode, ops fsOps) error {
	const op = "fileutil.AtomicWriteFile"

	// The temp file lives next to path so the rename stays on one filesystem.
	tmp, err := ops.createTemp(filepath.Dir(path), filepath.Base(path)+".tmp")
	if err != nil {
		return dterrors.IOWrap(err, op, "cannot create temp file for "+path)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = ops.remove(tmpPath)
		}
	}()

	steps := []struct {
		what string
		run  func() error
	}{
		{"set permissions on", func() error { return tmp.Chmod(perm) }},
		{"write", func() error {
			_, err := tmp.Write(data)
			return err
		}},
		{"sync", tmp.Sync},
		{"close", tmp.Close},
	}
	for _, s := range steps {
		if err := s.run(); err != nil {
			return dterrors.IOWrap(err, op, fmt.Sprintf("cannot %s %s", s.what, tmpPath))
		}
	}

	if err := ops.rename(tmpPath, path); err != nil {
		return dterrors.IOWrap(err, op, "cannot replace "+path)
	}
	committed = true
	return nil
}
