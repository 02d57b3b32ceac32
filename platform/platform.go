// Copyright (c) 2026 The archex Authors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of archex.
//
// archex is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// archex is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with archex.  If not, see <https://www.gnu.org/licenses/>.

// Package platform is the filesystem facade (C6): the capability-set the
// extractor drives to materialise entries on disk. Base directory/file
// operations are common to every OS and implemented once here on top of
// afero; the operations with genuine per-OS semantics (symlinks, hard
// links, device/fifo nodes) live in the unix.go/windows.go build-tag
// variants.
package platform

import (
	"io"
	"os"
	"time"

	"github.com/spf13/afero"

	"github.com/archex-project/archex/internal/archerr"
)

// Facade is the capability set C7 drives: make-dir, create-file,
// write-bytes, set-perms, set-mtime, create-symlink, create-hardlink,
// is-symlink, read-symlink, plus device/fifo node creation where the
// platform supports it.
type Facade struct {
	fs afero.Fs
}

// New returns a Facade rooted at the real OS filesystem.
func New() *Facade {
	return &Facade{fs: afero.NewOsFs()}
}

// NewWithFs returns a Facade backed by an arbitrary afero.Fs, for tests
// that want an in-memory filesystem instead of touching disk.
func NewWithFs(fs afero.Fs) *Facade {
	return &Facade{fs: fs}
}

// MkdirAll creates a directory chain with the given permission bits.
func (f *Facade) MkdirAll(path string, perm os.FileMode) error {
	if err := f.fs.MkdirAll(path, perm); err != nil {
		return archerr.Wrap(archerr.KindWriteError, "create directory", err).WithEntry(path)
	}
	return nil
}

// CreateFile opens path for writing, never following an existing symlink
// at that location. If overwrite is false and the target exists, it
// fails with KindFileExists; if overwrite is true whatever is at path (a
// file, or a symlink itself rather than its target) is removed first and
// the file is created afresh.
func (f *Facade) CreateFile(path string, perm os.FileMode, overwrite bool) (afero.File, error) {
	if overwrite {
		if err := f.Remove(path); err != nil {
			return nil, err
		}
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	file, err := f.fs.OpenFile(path, flags, perm)
	if err != nil {
		if os.IsExist(err) {
			return nil, archerr.New(archerr.KindFileExists, "destination already exists").WithEntry(path)
		}
		return nil, archerr.Wrap(archerr.KindWriteError, "create file", err).WithEntry(path)
	}
	return file, nil
}

// StreamInto copies from src into dst in fixed-size chunks, invoking
// onChunk after each chunk is written so the caller can update running
// totals and re-consult resource ceilings mid-stream.
func StreamInto(dst io.Writer, src io.Reader, chunkSize int, onChunk func(n int) error) (int64, error) {
	if chunkSize <= 0 {
		chunkSize = 64 << 10
	}
	buf := make([]byte, chunkSize)
	var total int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return total, archerr.Wrap(archerr.KindWriteError, "write entry body", werr)
			}
			total += int64(n)
			if onChunk != nil {
				if err := onChunk(n); err != nil {
					return total, err
				}
			}
		}
		if rerr == io.EOF {
			return total, nil
		}
		if rerr != nil {
			return total, archerr.Wrap(archerr.KindReadError, "read entry body", rerr)
		}
	}
}

// SetPerms applies POSIX-style permission bits to an existing path.
func (f *Facade) SetPerms(path string, perm os.FileMode) error {
	if err := f.fs.Chmod(path, perm); err != nil {
		return archerr.Wrap(archerr.KindWriteError, "set permissions", err).WithEntry(path)
	}
	return nil
}

// SetMtime applies a modification time to an existing path.
func (f *Facade) SetMtime(path string, mtime time.Time) error {
	if err := f.fs.Chtimes(path, mtime, mtime); err != nil {
		return archerr.Wrap(archerr.KindWriteError, "set modification time", err).WithEntry(path)
	}
	return nil
}

// Remove deletes a path, used to roll back a partially written file after
// an error aborts materialisation mid-entry.
func (f *Facade) Remove(path string) error {
	if err := f.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return archerr.Wrap(archerr.KindWriteError, "remove partial output", err).WithEntry(path)
	}
	return nil
}

// Exists reports whether path already exists, without following a
// symlink at that location when the underlying afero.Fs supports Lstat
// (otherwise it falls back to Stat, which follows it).
func (f *Facade) Exists(path string) bool {
	if lst, ok := f.fs.(afero.Lstater); ok {
		_, _, err := lst.LstatIfPossible(path)
		return err == nil
	}
	_, err := f.fs.Stat(path)
	return err == nil
}
