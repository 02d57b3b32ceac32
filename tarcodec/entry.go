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

package tarcodec

import (
	"github.com/archex-project/archex/internal/archerr"
)

// Kind enumerates the logical entry kinds archex understands.
type Kind int

const (
	KindRegular Kind = iota
	KindDirectory
	KindSymlink
	KindHardlink
	KindCharDevice
	KindBlockDevice
	KindFIFO
)

func (k Kind) String() string {
	switch k {
	case KindRegular:
		return "regular-file"
	case KindDirectory:
		return "directory"
	case KindSymlink:
		return "symlink"
	case KindHardlink:
		return "hardlink"
	case KindCharDevice:
		return "char-device"
	case KindBlockDevice:
		return "block-device"
	case KindFIFO:
		return "fifo"
	default:
		return "unknown"
	}
}

// Entry is the logical archive record derived from a Header, per spec.md §3.
type Entry struct {
	Path       string
	Kind       Kind
	Size       int64
	Mode       uint64 // POSIX permission bits (12 bits of the mode field)
	Mtime      int64
	UID        uint64
	GID        uint64
	Uname      string
	Gname      string
	LinkTarget string
	DevMajor   uint64
	DevMinor   uint64
}

// DeriveEntry maps a decoded Header to its logical Entry, joining prefix
// and name and normalising size/kind per spec.md §4.3.
func DeriveEntry(h Header) Entry {
	path := h.Name
	if h.Prefix != "" {
		path = h.Prefix + "/" + h.Name
	}

	var kind Kind
	switch h.Typeflag {
	case TypeRegular, TypeRegularAlt, TypeReserved:
		kind = KindRegular
	case TypeHardlink:
		kind = KindHardlink
	case TypeSymlink:
		kind = KindSymlink
	case TypeCharDevice:
		kind = KindCharDevice
	case TypeBlockDevice:
		kind = KindBlockDevice
	case TypeDirectory:
		kind = KindDirectory
	case TypeFIFO:
		kind = KindFIFO
	default:
		kind = KindRegular
	}

	size := int64(h.Size) //nolint:gosec // header size field is bounded by 12 octal digits
	if kind == KindDirectory || kind == KindSymlink {
		size = 0
	}

	return Entry{
		Path:       path,
		Kind:       kind,
		Size:       size,
		Mode:       h.Mode & 07777,
		Mtime:      h.Mtime,
		UID:        h.UID,
		GID:        h.GID,
		Uname:      h.Uname,
		Gname:      h.Gname,
		LinkTarget: h.Linkname,
		DevMajor:   h.Devmajor,
		DevMinor:   h.Devminor,
	}
}

func kindToTypeflag(k Kind) byte {
	switch k {
	case KindRegular:
		return TypeRegular
	case KindHardlink:
		return TypeHardlink
	case KindSymlink:
		return TypeSymlink
	case KindCharDevice:
		return TypeCharDevice
	case KindBlockDevice:
		return TypeBlockDevice
	case KindDirectory:
		return TypeDirectory
	case KindFIFO:
		return TypeFIFO
	default:
		return TypeRegular
	}
}

// splitPath finds a split point so that prefix <= 155 bytes and name <= 100
// bytes, splitting at the last '/' that satisfies both bounds. A path that
// already fits in name is returned whole with an empty prefix. Returns
// ok=false if no such split exists.
func splitPath(path string) (prefix, name string, ok bool) {
	if len(path) <= lenName {
		return "", path, true
	}
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] != '/' {
			continue
		}
		candidatePrefix := path[:i]
		candidateName := path[i+1:]
		if len(candidatePrefix) <= lenPrefix && len(candidateName) <= lenName && candidateName != "" {
			return candidatePrefix, candidateName, true
		}
	}
	return "", "", false
}

// EncodeEntry builds a Header from an Entry, splitting the path between
// prefix and name as needed. FilenameTooLong is returned when the path or
// link target cannot fit into the fixed-width fields.
func EncodeEntry(e Entry) (Header, error) {
	if e.Path == "" {
		return Header{}, archerr.New(archerr.KindInvalidData, "entry path must not be empty")
	}

	prefix, name, ok := splitPath(e.Path)
	if !ok {
		return Header{}, archerr.New(archerr.KindInvalidData, "FilenameTooLong: no acceptable prefix/name split")
	}
	if len(e.LinkTarget) > lenLinkname {
		return Header{}, archerr.New(archerr.KindInvalidData, "FilenameTooLong: link target exceeds 100 bytes")
	}

	size := uint64(e.Size) //nolint:gosec // caller-controlled, validated by security policy upstream
	if e.Kind == KindDirectory || e.Kind == KindSymlink {
		size = 0
	}

	return Header{
		Name:     name,
		Prefix:   prefix,
		Mode:     e.Mode & 07777,
		UID:      e.UID,
		GID:      e.GID,
		Size:     size,
		Mtime:    e.Mtime,
		Typeflag: kindToTypeflag(e.Kind),
		Linkname: e.LinkTarget,
		Uname:    e.Uname,
		Gname:    e.Gname,
		Devmajor: e.DevMajor,
		Devminor: e.DevMinor,
	}, nil
}
