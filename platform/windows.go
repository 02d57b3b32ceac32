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

//go:build windows

package platform

import (
	"os"

	"github.com/archex-project/archex/internal/archerr"
)

// CreateSymlink creates a symbolic link at path pointing at target via
// CreateSymbolicLink. This requires either Developer Mode or an elevated
// process on most Windows configurations; a privilege failure is reported
// as KindSymlinkNotSupported rather than a generic write error, per
// spec.md §4.6.
func (f *Facade) CreateSymlink(target, path string) error {
	if err := os.Symlink(target, path); err != nil {
		if os.IsPermission(err) {
			return archerr.New(archerr.KindSymlinkNotSupported, "symlink creation requires elevated privilege").WithEntry(path)
		}
		return archerr.Wrap(archerr.KindWriteError, "create symlink", err).WithEntry(path)
	}
	return nil
}

// CreateHardlink creates a hard link at path pointing at existing file
// oldpath via CreateHardLink.
func (f *Facade) CreateHardlink(oldpath, path string) error {
	if err := os.Link(oldpath, path); err != nil {
		return archerr.Wrap(archerr.KindWriteError, "create hard link", err).WithEntry(path)
	}
	return nil
}

// IsSymlink reports whether path is itself a reparse-point symlink,
// without following it.
func (f *Facade) IsSymlink(path string) bool {
	info, err := os.Lstat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeSymlink != 0
}

// ReadSymlink returns the raw link target of the reparse point at path.
func (f *Facade) ReadSymlink(path string) (string, error) {
	target, err := os.Readlink(path)
	if err != nil {
		return "", archerr.Wrap(archerr.KindReadError, "read symlink target", err).WithEntry(path)
	}
	return target, nil
}

// CreateFIFO is not supported on Windows; device and FIFO entries are
// skipped with a warning per spec.md's open-question decision.
func (f *Facade) CreateFIFO(path string, _ os.FileMode) error {
	return archerr.New(archerr.KindUnsupportedEntryType, "FIFOs are not supported on this platform").WithEntry(path)
}

// CreateDevice is not supported on Windows.
func (f *Facade) CreateDevice(path string, _ os.FileMode, _ bool, _, _ uint32) error {
	return archerr.New(archerr.KindUnsupportedEntryType, "device nodes are not supported on this platform").WithEntry(path)
}

// SupportsDeviceNodes reports whether this platform facade can create
// device and FIFO nodes.
func (f *Facade) SupportsDeviceNodes() bool { return false }
