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

// Package gzipframe validates and strips gzip (RFC 1952) and zlib
// (RFC 1950) container framing around a DEFLATE body, feeding plaintext
// bytes to callers under a bounded-memory budget. DEFLATE itself is
// delegated to klauspost/compress/flate; this package owns only the
// container header/trailer and the integrity check.
package gzipframe

import "github.com/archex-project/archex/internal/archerr"

// Container identifies which framing a stream uses.
type Container int

const (
	ContainerGzip Container = iota
	ContainerZlib
)

// DefaultMaxPlaintextSize is the decompressed-output ceiling the spec fixes
// for Open Question (a): 512 MiB.
const DefaultMaxPlaintextSize = 512 << 20

// maxFieldLength caps NAME/COMMENT header reads, per spec.md §4.2.
const maxFieldLength = 16 << 10

func errInvalidFormat(msg string) error {
	return archerr.New(archerr.KindInvalidFormat, msg)
}

func errInvalidGzipMagic(msg string) error {
	return archerr.New(archerr.KindInvalidGzipMagic, msg)
}

func errUnsupportedMethod(msg string) error {
	return archerr.New(archerr.KindUnsupportedCompressionMethod, msg)
}

func errChecksumMismatch(msg string) error {
	return archerr.New(archerr.KindChecksumMismatch, msg)
}

func errSizeExceeded(msg string) error {
	return archerr.New(archerr.KindFileSizeExceedsLimit, msg)
}
