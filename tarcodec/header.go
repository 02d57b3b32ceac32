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

// Package tarcodec parses and emits the 512-byte tape-archive header
// format (ustar-family), and derives the logical Entry each header
// describes. It never reads from or writes to a stream itself; callers
// pass it exactly one 512-byte block at a time.
package tarcodec

import (
	"fmt"
	"strings"

	"github.com/archex-project/archex/checksum"
	"github.com/archex-project/archex/internal/archerr"
)

// Field byte offsets within a 512-byte header, per spec.md §3.
const (
	offName      = 0
	offMode      = 100
	offUID       = 108
	offGID       = 116
	offSize      = 124
	offMtime     = 136
	offChecksum  = 148
	offTypeflag  = 156
	offLinkname  = 157
	offMagic     = 257
	offVersion   = 263
	offUname     = 265
	offGname     = 297
	offDevmajor  = 329
	offDevminor  = 337
	offPrefix    = 345
	headerEnd    = 500
)

const (
	lenName     = 100
	lenMode     = 8
	lenUID      = 8
	lenGID      = 8
	lenSize     = 12
	lenMtime    = 12
	lenChecksum = 8
	lenLinkname = 100
	lenMagic    = 6
	lenVersion  = 2
	lenUname    = 32
	lenGname    = 32
	lenDevmajor = 8
	lenDevminor = 8
	lenPrefix   = 155
)

// Typeflag values, per spec.md §3/§4.3.
const (
	TypeRegularAlt  byte = 0
	TypeRegular     byte = '0'
	TypeHardlink    byte = '1'
	TypeSymlink     byte = '2'
	TypeCharDevice  byte = '3'
	TypeBlockDevice byte = '4'
	TypeDirectory   byte = '5'
	TypeFIFO        byte = '6'
	TypeReserved    byte = '7'
)

// Magic values accepted by Parse.
var (
	magicPOSIX  = [8]byte{'u', 's', 't', 'a', 'r', 0, '0', '0'}
	magicLegacy = [8]byte{'u', 's', 't', 'a', 'r', ' ', ' ', 0}
)

// Header is the decoded form of a 512-byte physical header.
type Header struct {
	Name     string
	Mode     uint64
	UID      uint64
	GID      uint64
	Size     uint64
	Mtime    int64
	Typeflag byte
	Linkname string
	Uname    string
	Gname    string
	Devmajor uint64
	Devminor uint64
	Prefix   string
}

func field(block *[checksum.HeaderSize]byte, off, length int) []byte {
	return block[off : off+length]
}

// cleanString decodes a NUL-padded header field: everything from the
// first NUL byte onward is padding, and any surrounding whitespace in
// the remainder is trimmed.
func cleanString(b []byte) string {
	end := len(b)
	for i, c := range b {
		if c == 0 {
			end = i
			break
		}
	}
	return strings.TrimSpace(string(b[:end]))
}

// IsZeroBlock reports whether block is entirely zero bytes, the marker for
// a logical end-of-archive record.
func IsZeroBlock(block *[checksum.HeaderSize]byte) bool {
	for _, b := range block {
		if b != 0 {
			return false
		}
	}
	return true
}

// Parse decodes a 512-byte header block, verifying the magic and the
// simple checksum. Any mismatch returns a CorruptedHeader error.
func Parse(block [checksum.HeaderSize]byte) (Header, error) {
	var magic [8]byte
	copy(magic[:], field(&block, offMagic, 8))
	if magic != magicPOSIX && magic != magicLegacy {
		return Header{}, archerr.New(archerr.KindCorruptedHeader, fmt.Sprintf("unrecognised magic %q", magic))
	}

	wantSum, err := checksum.ParseOctal(field(&block, offChecksum, lenChecksum))
	if err != nil {
		return Header{}, archerr.Wrap(archerr.KindCorruptedHeader, "invalid checksum field", err)
	}
	gotSum := checksum.SimpleChecksum(block)
	if gotSum != wantSum {
		return Header{}, archerr.New(archerr.KindCorruptedHeader,
			fmt.Sprintf("checksum mismatch: header says %o, computed %o", wantSum, gotSum))
	}

	mode, err := checksum.ParseOctal(field(&block, offMode, lenMode))
	if err != nil {
		return Header{}, archerr.Wrap(archerr.KindCorruptedHeader, "invalid mode field", err)
	}
	uid, err := checksum.ParseOctal(field(&block, offUID, lenUID))
	if err != nil {
		return Header{}, archerr.Wrap(archerr.KindCorruptedHeader, "invalid uid field", err)
	}
	gid, err := checksum.ParseOctal(field(&block, offGID, lenGID))
	if err != nil {
		return Header{}, archerr.Wrap(archerr.KindCorruptedHeader, "invalid gid field", err)
	}
	size, err := checksum.ParseOctal(field(&block, offSize, lenSize))
	if err != nil {
		return Header{}, archerr.Wrap(archerr.KindCorruptedHeader, "invalid size field", err)
	}
	mtime, err := checksum.ParseOctal(field(&block, offMtime, lenMtime))
	if err != nil {
		return Header{}, archerr.Wrap(archerr.KindCorruptedHeader, "invalid mtime field", err)
	}
	devmajor, _ := checksum.ParseOctal(field(&block, offDevmajor, lenDevmajor))
	devminor, _ := checksum.ParseOctal(field(&block, offDevminor, lenDevminor))

	return Header{
		Name:     cleanString(field(&block, offName, lenName)),
		Mode:     mode,
		UID:      uid,
		GID:      gid,
		Size:     size,
		Mtime:    int64(mtime), //nolint:gosec // tar mtimes predate int64 overflow concerns
		Typeflag: block[offTypeflag],
		Linkname: cleanString(field(&block, offLinkname, lenLinkname)),
		Uname:    cleanString(field(&block, offUname, lenUname)),
		Gname:    cleanString(field(&block, offGname, lenGname)),
		Devmajor: devmajor,
		Devminor: devminor,
		Prefix:   cleanString(field(&block, offPrefix, lenPrefix)),
	}, nil
}

// Encode renders h back into a 512-byte block, choosing the POSIX magic.
// FilenameTooLong is returned when Name/Prefix or Linkname cannot fit.
func Encode(h Header) ([checksum.HeaderSize]byte, error) {
	var block [checksum.HeaderSize]byte

	if len(h.Name) > lenName {
		return block, archerr.New(archerr.KindInvalidData, "name field exceeds 100 bytes after splitting")
	}
	if len(h.Prefix) > lenPrefix {
		return block, archerr.New(archerr.KindInvalidData, "prefix field exceeds 155 bytes")
	}
	if len(h.Linkname) > lenLinkname {
		return block, archerr.New(archerr.KindInvalidData, "link name exceeds 100 bytes")
	}

	copy(field(&block, offName, lenName), h.Name)
	copy(field(&block, offLinkname, lenLinkname), h.Linkname)
	copy(field(&block, offUname, lenUname), h.Uname)
	copy(field(&block, offGname, lenGname), h.Gname)
	copy(field(&block, offPrefix, lenPrefix), h.Prefix)
	block[offTypeflag] = h.Typeflag
	copy(field(&block, offMagic, 8), magicPOSIX[:])

	if err := writeOctal(field(&block, offMode, lenMode), h.Mode); err != nil {
		return block, err
	}
	if err := writeOctal(field(&block, offUID, lenUID), h.UID); err != nil {
		return block, err
	}
	if err := writeOctal(field(&block, offGID, lenGID), h.GID); err != nil {
		return block, err
	}
	if err := writeOctal(field(&block, offSize, lenSize), h.Size); err != nil {
		return block, err
	}
	if err := writeOctal(field(&block, offMtime, lenMtime), uint64(h.Mtime)); err != nil { //nolint:gosec // mirrors Parse
		return block, err
	}
	if err := writeOctal(field(&block, offDevmajor, lenDevmajor), h.Devmajor); err != nil {
		return block, err
	}
	if err := writeOctal(field(&block, offDevminor, lenDevminor), h.Devminor); err != nil {
		return block, err
	}

	// Checksum field must read as eight spaces while the sum is computed.
	for i := offChecksum; i < offChecksum+lenChecksum; i++ {
		block[i] = ' '
	}
	sum := checksum.SimpleChecksum(block)
	sumField, err := checksum.FormatOctal(sum, 7)
	if err != nil {
		return block, archerr.Wrap(archerr.KindOverflow, "checksum field overflow", err)
	}
	copy(block[offChecksum:offChecksum+7], sumField[:6])
	block[offChecksum+6] = 0
	block[offChecksum+7] = ' '

	return block, nil
}

func writeOctal(dst []byte, v uint64) error {
	f, err := checksum.FormatOctal(v, len(dst))
	if err != nil {
		return archerr.Wrap(archerr.KindOverflow, "numeric field overflow", err)
	}
	copy(dst, f)
	return nil
}
