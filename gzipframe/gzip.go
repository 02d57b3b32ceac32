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
	"bufio"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"

	"github.com/archex-project/archex/checksum"
	"github.com/archex-project/archex/internal/archerr"
	binutil "github.com/archex-project/archex/pkg/binary"
)

const (
	gzipMagic0  = 0x1F
	gzipMagic1  = 0x8B
	deflateMethod = 8

	flagText    = 1 << 0
	flagHCRC    = 1 << 1
	flagExtra   = 1 << 2
	flagName    = 1 << 3
	flagComment = 1 << 4
	flagReserved = 0xE0
)

// GzipReader streams plaintext out of a gzip container, validating the
// trailer CRC-32 and ISIZE once the underlying DEFLATE stream is exhausted.
type GzipReader struct {
	src     *bufio.Reader
	flate   io.ReadCloser
	crc     checksum.CRC32State
	size    uint32 // ISIZE accumulator, mod 2^32 per RFC 1952
	total   int64  // exact byte count, for limit enforcement
	limit   int64
	done    bool
	Name    string
	Comment string
}

// NewGzipReader parses the gzip header from src and returns a reader ready
// to stream plaintext. maxPlaintext bounds the total bytes Read will ever
// return; 0 means DefaultMaxPlaintextSize.
func NewGzipReader(src io.Reader, maxPlaintext int64) (*GzipReader, error) {
	if maxPlaintext <= 0 {
		maxPlaintext = DefaultMaxPlaintextSize
	}
	br := bufio.NewReader(src)

	hdr := make([]byte, 10)
	if _, err := io.ReadFull(br, hdr); err != nil {
		return nil, errInvalidGzipMagic(fmt.Sprintf("short gzip header: %v", err))
	}
	if hdr[0] != gzipMagic0 || hdr[1] != gzipMagic1 {
		return nil, errInvalidGzipMagic(fmt.Sprintf("got %02x%02x", hdr[0], hdr[1]))
	}
	method := hdr[2]
	if method != deflateMethod {
		return nil, errUnsupportedMethod(fmt.Sprintf("method %d", method))
	}
	flags := hdr[3]
	if flags&flagReserved != 0 {
		return nil, errInvalidFormat(fmt.Sprintf("reserved flag bits set: %08b", flags))
	}

	if flags&flagExtra != 0 {
		extraLen, err := binutil.ReadUint16LE(br)
		if err != nil {
			return nil, errInvalidFormat(fmt.Sprintf("short EXTRA length: %v", err))
		}
		if _, err := io.CopyN(io.Discard, br, int64(extraLen)); err != nil {
			return nil, errInvalidFormat(fmt.Sprintf("short EXTRA payload: %v", err))
		}
	}

	var name, comment string
	var err error
	if flags&flagName != 0 {
		if name, err = readNulTerminated(br); err != nil {
			return nil, err
		}
	}
	if flags&flagComment != 0 {
		if comment, err = readNulTerminated(br); err != nil {
			return nil, err
		}
	}
	if flags&flagHCRC != 0 {
		var hcrc [2]byte
		if _, err := io.ReadFull(br, hcrc[:]); err != nil {
			return nil, errInvalidFormat(fmt.Sprintf("short HCRC: %v", err))
		}
	}

	return &GzipReader{
		src:     br,
		flate:   flate.NewReader(br),
		limit:   maxPlaintext,
		Name:    name,
		Comment: comment,
	}, nil
}

// readNulTerminated reads bytes one at a time until a NUL terminator,
// capping the read at maxFieldLength bytes to resist malicious archives
// that never terminate the field, per spec.md §4.2.
func readNulTerminated(r io.Reader) (string, error) {
	buf := make([]byte, 0, 64)
	one := make([]byte, 1)
	for len(buf) < maxFieldLength {
		if _, err := io.ReadFull(r, one); err != nil {
			return "", errInvalidFormat(fmt.Sprintf("unterminated NAME/COMMENT field: %v", err))
		}
		if one[0] == 0 {
			return string(buf), nil
		}
		buf = append(buf, one[0])
	}
	return "", errInvalidFormat("NAME/COMMENT field exceeds maximum length")
}

// Read implements io.Reader, validating the trailer once the DEFLATE
// stream is exhausted.
func (g *GzipReader) Read(p []byte) (int, error) {
	if g.done {
		return 0, io.EOF
	}
	n, err := g.flate.Read(p)
	if n > 0 {
		g.crc.Write(p[:n])
		g.size += uint32(n) //nolint:gosec // ISIZE is defined mod 2^32
		g.total += int64(n)
		if g.total > g.limit {
			g.done = true
			_ = g.flate.Close()
			return n, errSizeExceeded(fmt.Sprintf("decompressed output exceeds %d byte limit", g.limit))
		}
	}
	if err == io.EOF {
		if trailerErr := g.checkTrailer(); trailerErr != nil {
			g.done = true
			return n, trailerErr
		}
		g.done = true
		_ = g.flate.Close()
		if n == 0 {
			return 0, io.EOF
		}
		return n, nil
	}
	if err != nil {
		return n, archerr.Wrap(archerr.KindReadError, "DEFLATE stream error", err)
	}
	return n, nil
}

func (g *GzipReader) checkTrailer() error {
	wantCRC, err := binutil.ReadUint32LE(g.src)
	if err != nil {
		return archerr.Wrap(archerr.KindIncompleteArchive, "short gzip trailer", err)
	}
	wantSize, err := binutil.ReadUint32LE(g.src)
	if err != nil {
		return archerr.Wrap(archerr.KindIncompleteArchive, "short gzip trailer", err)
	}
	if gotCRC := g.crc.Sum32(); gotCRC != wantCRC {
		return errChecksumMismatch(fmt.Sprintf("CRC-32 mismatch: trailer says %08x, computed %08x", wantCRC, gotCRC))
	}
	if g.size != wantSize {
		return errChecksumMismatch(fmt.Sprintf("ISIZE mismatch: trailer says %d, computed %d", wantSize, g.size))
	}
	return nil
}
