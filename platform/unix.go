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

//go:build unix

package platform

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/archex-project/archex/internal/archerr"
)

// CreateSymlink creates a symbolic link at path pointing at target,
// via symlinkat, without following any existing entry at path.
func (f *Facade) CreateSymlink(target, path string) error {
	if err := unix.Symlinkat(target, unix.AT_FDCWD, path); err != nil {
		return archerr.Wrap(archerr.KindWriteError, "create symlink", err).WithEntry(path)
	}
	return nil
}

// CreateHardlink creates a hard link at path pointing at existing file
// oldpath, via linkat.
func (f *Facade) CreateHardlink(oldpath, path string) error {
	if err := unix.Linkat(unix.AT_FDCWD, oldpath, unix.AT_FDCWD, path, 0); err != nil {
		return archerr.Wrap(archerr.KindWriteError, "create hard link", err).WithEntry(path)
	}
	return nil
}

// IsSymlink reports whether path is itself a symlink, without following it.
func (f *Facade) IsSymlink(path string) bool {
	info, err := os.Lstat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeSymlink != 0
}

// ReadSymlink returns the raw link target of the symlink at path, via
// readlinkat.
func (f *Facade) ReadSymlink(path string) (string, error) {
	buf := make([]byte, 1024)
	for {
		n, err := unix.Readlinkat(unix.AT_FDCWD, path, buf)
		if err != nil {
			return "", archerr.Wrap(archerr.KindReadError, "read symlink target", err).WithEntry(path)
		}
		if n < len(buf) {
			return string(buf[:n]), nil
		}
		buf = make([]byte, len(buf)*2)
	}
}

// CreateFIFO creates a named pipe at path with the given permission bits.
func (f *Facade) CreateFIFO(path string, perm os.FileMode) error {
	if err := unix.Mkfifo(path, uint32(perm.Perm())); err != nil {
		return archerr.New(archerr.KindUnsupportedEntryType, "create FIFO: "+err.Error()).WithEntry(path)
	}
	return nil
}

// CreateDevice creates a character or block device node at path. dev
// encodes the major/minor pair via unix.Mkdev.
func (f *Facade) CreateDevice(path string, perm os.FileMode, isChar bool, major, minor uint32) error {
	mode := uint32(perm.Perm()) | unix.S_IFBLK
	if isChar {
		mode = uint32(perm.Perm()) | unix.S_IFCHR
	}
	if err := unix.Mknod(path, mode, int(unix.Mkdev(major, minor))); err != nil {
		return archerr.New(archerr.KindUnsupportedEntryType, "create device node: "+err.Error()).WithEntry(path)
	}
	return nil
}

// SupportsDeviceNodes reports whether this platform facade can create
// device and FIFO nodes.
func (f *Facade) SupportsDeviceNodes() bool { return true }
