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

package gzipframe

import (
	"bytes"
	"io"
)

// NewReader returns a streaming plaintext source for the given container,
// reading framed bytes from src. maxPlaintext of 0 applies DefaultMaxPlaintextSize.
func NewReader(container Container, src io.Reader, maxPlaintext int64) (io.Reader, error) {
	switch container {
	case ContainerGzip:
		return NewGzipReader(src, maxPlaintext)
	case ContainerZlib:
		return NewZlibReader(src, maxPlaintext)
	default:
		return nil, errInvalidFormat("unknown container kind")
	}
}

// Inflate decompresses compressed in one shot, per spec.md §4.2(a).
// Empty plaintext is legal.
func Inflate(container Container, compressed []byte) ([]byte, error) {
	r, err := NewReader(container, bytes.NewReader(compressed), 0)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

// DetectContainer inspects the first bytes of src to distinguish gzip from
// zlib framing. It consumes no bytes from src itself; callers pass the
// peeked bytes in magic (at least 2 bytes).
func DetectContainer(magic []byte) (Container, bool) {
	if len(magic) < 2 {
		return 0, false
	}
	if magic[0] == gzipMagic0 && magic[1] == gzipMagic1 {
		return ContainerGzip, true
	}
	// zlib CMF/FLG: low nibble of first byte must be 8 (deflate) and the
	// pair must satisfy the mod-31 check.
	if len(magic) >= 2 && magic[0]&0x0F == deflateMethod &&
		(uint16(magic[0])*256+uint16(magic[1]))%31 == 0 {
		return ContainerZlib, true
	}
	return 0, false
}
