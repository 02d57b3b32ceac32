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

// Package archerr defines the shared error-kind taxonomy used across every
// archex component, so that a single Kind value and a single Error type can
// be matched with errors.As regardless of which package raised it.
package archerr

import "fmt"

// Kind is a machine-identifiable error category, independent of message text.
type Kind string

// I/O kinds.
const (
	KindFileNotFound     Kind = "file-not-found"
	KindPermissionDenied Kind = "permission-denied"
	KindDiskFull         Kind = "disk-full"
	KindReadError        Kind = "read-error"
	KindWriteError       Kind = "write-error"
	KindSeekError        Kind = "seek-error"
)

// Format kinds.
const (
	KindInvalidFormat                Kind = "invalid-format"
	KindUnsupportedVersion           Kind = "unsupported-version"
	KindCorruptedHeader              Kind = "corrupted-header"
	KindIncompleteArchive            Kind = "incomplete-archive"
	KindInvalidGzipMagic             Kind = "invalid-gzip-magic"
	KindUnsupportedCompressionMethod Kind = "unsupported-compression-method"
)

// Integrity kinds.
const (
	KindChecksumMismatch Kind = "checksum-mismatch"
	KindInvalidData      Kind = "invalid-data"
)

// Security kinds.
const (
	KindEmptyPath                 Kind = "empty-path"
	KindPathTraversal             Kind = "path-traversal"
	KindAbsolutePathNotAllowed    Kind = "absolute-path-not-allowed"
	KindSymlinkEscape             Kind = "symlink-escape"
	KindSymlinkNotAllowed         Kind = "symlink-not-allowed"
	KindAbsoluteSymlinkNotAllowed Kind = "absolute-symlink-not-allowed"
	KindNullByteInPath            Kind = "null-byte-in-path"
	KindPathTooLong               Kind = "path-too-long"
	KindFileSizeExceedsLimit      Kind = "file-size-exceeds-limit"
	KindTotalSizeExceedsLimit     Kind = "total-size-exceeds-limit"
	KindSuspiciousCompressionRatio Kind = "suspicious-compression-ratio"
)

// Resource kinds.
const (
	KindOutOfMemory         Kind = "out-of-memory"
	KindOverflow            Kind = "overflow"
	KindBufferTooSmall      Kind = "buffer-too-small"
	KindUnsupportedEntryType Kind = "unsupported-entry-type"
	KindSymlinkNotSupported  Kind = "symlink-not-supported"
	KindFileExists           Kind = "file-exists"
	KindAborted              Kind = "aborted"
)

// Error is the context record every component attaches to a returned error:
// the archive path, the entry path when known, the byte offset when known,
// a Kind tag, and a short message. Error() joins these fields into one
// line of text.
type Error struct {
	Kind        Kind
	ArchivePath string
	EntryPath   string
	Offset      int64
	HasOffset   bool
	Message     string
	Err         error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.EntryPath != "" {
		msg = fmt.Sprintf("%s: entry %q: %s", e.ArchivePath, e.EntryPath, msg)
	} else if e.ArchivePath != "" {
		msg = fmt.Sprintf("%s: %s", e.ArchivePath, msg)
	}
	if e.HasOffset {
		msg = fmt.Sprintf("%s (offset %d)", msg, e.Offset)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error that chains a lower-level cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithArchive returns a copy of e with ArchivePath set.
func (e *Error) WithArchive(path string) *Error {
	cp := *e
	cp.ArchivePath = path
	return &cp
}

// WithEntry returns a copy of e with EntryPath set.
func (e *Error) WithEntry(path string) *Error {
	cp := *e
	cp.EntryPath = path
	return &cp
}

// WithOffset returns a copy of e with Offset set.
func (e *Error) WithOffset(off int64) *Error {
	cp := *e
	cp.Offset = off
	cp.HasOffset = true
	return &cp
}

// Is reports whether err carries the given Kind, looking through wrapped errors.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if ae, ok := err.(*Error); ok { //nolint:errorlint // deliberate manual unwrap loop to avoid importing errors here
			e = ae
			if e.Kind == kind {
				return true
			}
			err = e.Err
			continue
		}
		type unwrapper interface{ Unwrap() error }
		u, ok := err.(unwrapper)
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
