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

// Package tarstream implements the archive reader cursor: a streaming,
// single-owner, non-reentrant iterator over a tape-archive byte stream
// that yields one Entry at a time without buffering the whole archive.
package tarstream

import (
	"fmt"
	"io"

	"github.com/archex-project/archex/checksum"
	"github.com/archex-project/archex/internal/archerr"
	"github.com/archex-project/archex/tarcodec"
)

type state int

const (
	stateIdle state = iota
	stateReadingBody
	stateEnd
)

// Reader is the archive reader cursor (C4). It owns exactly one 512-byte
// header scratch buffer; it never buffers an entry's body.
type Reader struct {
	src       io.Reader
	state     state
	remaining int64 // unread bytes of the current entry's body
	padding   int64 // unread alignment padding after the current entry's body
	offset    int64 // byte offset into the logical stream, for error context
}

// NewReader wraps src, which yields the plaintext tape-archive bytes
// (already decompressed, if the archive was gzip/zlib framed).
func NewReader(src io.Reader) *Reader {
	return &Reader{src: src}
}

// Next discards any unread body bytes and padding from the previous entry,
// realigns to the next 512-byte boundary, and reads the next header block.
// It returns (nil, nil) at a clean end-of-archive (two consecutive
// all-zero blocks), or an error for a truncated or corrupted stream.
func (r *Reader) Next() (*tarcodec.Entry, error) {
	if r.state == stateEnd {
		return nil, nil
	}
	if err := r.discardBody(); err != nil {
		return nil, err
	}

	block, err := r.readBlock()
	if err != nil {
		return nil, err
	}
	if tarcodec.IsZeroBlock(&block) {
		block2, err := r.readBlock()
		if err != nil {
			return nil, err
		}
		if tarcodec.IsZeroBlock(&block2) {
			r.state = stateEnd
			return nil, nil
		}
		// A single zero block followed by a real header is not a valid
		// end-of-archive marker and not a valid header either.
		return nil, archerr.New(archerr.KindCorruptedHeader, "isolated zero block is not a valid header").WithOffset(r.offset - checksum.HeaderSize)
	}

	hdr, err := tarcodec.Parse(block)
	if err != nil {
		if ae, ok := err.(*archerr.Error); ok { //nolint:errorlint // tarcodec.Parse always returns *archerr.Error
			return nil, ae.WithOffset(r.offset - checksum.HeaderSize)
		}
		return nil, err
	}

	entry := tarcodec.DeriveEntry(hdr)

	// Body framing (remaining bytes + alignment padding) always follows
	// the header's raw declared size, not the logical Entry.Size that
	// DeriveEntry zeroes for directories/symlinks: a malformed or unusual
	// archive may declare a non-zero body for a symlink, and the cursor
	// must still skip exactly that many bytes to stay aligned, per
	// spec.md §8's boundary behaviour for such entries.
	rawSize := int64(hdr.Size) //nolint:gosec // bounded by a 12-octal-digit header field
	if rawSize == 0 {
		r.remaining = 0
		r.padding = 0
		r.state = stateIdle
	} else {
		r.remaining = rawSize
		r.padding = paddingFor(rawSize)
		r.state = stateReadingBody
	}
	return &entry, nil
}

// Read returns up to len(buf) bytes of the current entry's body. It is
// only valid after Next has yielded an entry with a non-zero size.
// Returning 0 while bytes remain indicates a truncated archive.
func (r *Reader) Read(buf []byte) (int, error) {
	if r.state != stateReadingBody || r.remaining == 0 {
		return 0, io.EOF
	}
	if int64(len(buf)) > r.remaining {
		buf = buf[:r.remaining]
	}
	n, err := r.src.Read(buf)
	r.offset += int64(n)
	r.remaining -= int64(n)
	if n == 0 && r.remaining > 0 {
		return 0, archerr.Wrap(archerr.KindIncompleteArchive, "truncated entry body", err)
	}
	if err != nil && err != io.EOF {
		return n, archerr.Wrap(archerr.KindReadError, "read entry body", err)
	}
	return n, nil
}

// discardBody skips any unread body bytes and padding left over from the
// previously yielded entry, per the Next contract.
func (r *Reader) discardBody() error {
	if r.state != stateReadingBody {
		return nil
	}
	if r.remaining > 0 {
		if _, err := io.CopyN(io.Discard, r.src, r.remaining); err != nil {
			return archerr.Wrap(archerr.KindIncompleteArchive, "truncated entry body during skip", err)
		}
		r.offset += r.remaining
		r.remaining = 0
	}
	if r.padding > 0 {
		if _, err := io.CopyN(io.Discard, r.src, r.padding); err != nil {
			return archerr.Wrap(archerr.KindIncompleteArchive, "truncated padding during skip", err)
		}
		r.offset += r.padding
		r.padding = 0
	}
	r.state = stateIdle
	return nil
}

func (r *Reader) readBlock() ([checksum.HeaderSize]byte, error) {
	var block [checksum.HeaderSize]byte
	n, err := io.ReadFull(r.src, block[:])
	r.offset += int64(n)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return block, archerr.Wrap(archerr.KindIncompleteArchive,
			fmt.Sprintf("truncated header block (%d of %d bytes)", n, checksum.HeaderSize), err).WithOffset(r.offset - int64(n))
	}
	if err != nil {
		return block, archerr.Wrap(archerr.KindReadError, "read header block", err)
	}
	return block, nil
}

func paddingFor(size int64) int64 {
	rem := size % checksum.HeaderSize
	if rem == 0 {
		return 0
	}
	return checksum.HeaderSize - rem
}
