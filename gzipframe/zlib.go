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

	"github.com/archex-project/archex/internal/archerr"
	binutil "github.com/archex-project/archex/pkg/binary"
)

// ZlibReader streams plaintext out of a zlib container (RFC 1950),
// validating the big-endian Adler-32 trailer.
type ZlibReader struct {
	src   *bufio.Reader
	flate io.ReadCloser
	adler uint32
	total int64
	limit int64
	done  bool
}

const adlerModulus = 65521

// NewZlibReader parses the zlib header from src.
func NewZlibReader(src io.Reader, maxPlaintext int64) (*ZlibReader, error) {
	if maxPlaintext <= 0 {
		maxPlaintext = DefaultMaxPlaintextSize
	}
	br := bufio.NewReader(src)

	var hdr [2]byte
	if _, err := io.ReadFull(br, hdr[:]); err != nil {
		return nil, errInvalidFormat(fmt.Sprintf("short zlib header: %v", err))
	}
	cmf, flg := hdr[0], hdr[1]
	if (uint16(cmf)*256+uint16(flg))%31 != 0 {
		return nil, errInvalidFormat("zlib header check bits invalid")
	}
	method := cmf & 0x0F
	if method != deflateMethod {
		return nil, errUnsupportedMethod(fmt.Sprintf("zlib CM=%d", method))
	}
	windowBits := cmf >> 4
	if windowBits > 7 {
		return nil, errInvalidFormat(fmt.Sprintf("zlib window size field %d exceeds limit", windowBits))
	}
	if flg&0x20 != 0 {
		// FDICT set: a preset dictionary is required. Not supported by this
		// extractor; treat as an unsupported variant.
		return nil, errUnsupportedMethod("zlib stream requires a preset dictionary")
	}

	return &ZlibReader{
		src:   br,
		flate: flate.NewReader(br),
		adler: 1,
		limit: maxPlaintext,
	}, nil
}

func (z *ZlibReader) Read(p []byte) (int, error) {
	if z.done {
		return 0, io.EOF
	}
	n, err := z.flate.Read(p)
	if n > 0 {
		z.adler = updateAdler32(z.adler, p[:n])
		z.total += int64(n)
		if z.total > z.limit {
			z.done = true
			_ = z.flate.Close()
			return n, errSizeExceeded(fmt.Sprintf("decompressed output exceeds %d byte limit", z.limit))
		}
	}
	if err == io.EOF {
		if trailerErr := z.checkTrailer(); trailerErr != nil {
			z.done = true
			return n, trailerErr
		}
		z.done = true
		_ = z.flate.Close()
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

func (z *ZlibReader) checkTrailer() error {
	want, err := binutil.ReadUint32BE(z.src)
	if err != nil {
		return archerr.Wrap(archerr.KindIncompleteArchive, "short zlib trailer", err)
	}
	if z.adler != want {
		return errChecksumMismatch(fmt.Sprintf("Adler-32 mismatch: trailer says %08x, computed %08x", want, z.adler))
	}
	return nil
}

// updateAdler32 implements RFC 1950's Adler-32 rolling checksum.
func updateAdler32(adler uint32, data []byte) uint32 {
	var a, b uint32 = adler & 0xFFFF, (adler >> 16) & 0xFFFF
	const nmax = 5552
	for len(data) > 0 {
		chunk := data
		if len(chunk) > nmax {
			chunk = chunk[:nmax]
		}
		for _, c := range chunk {
			a += uint32(c)
			b += a
		}
		a %= adlerModulus
		b %= adlerModulus
		data = data[len(chunk):]
	}
	return b<<16 | a
}
