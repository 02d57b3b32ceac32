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

// Package checksum provides the integrity primitives shared by the tape
// archive codec and the gzip/zlib framing layer: CRC-32/IEEE (one-shot and
// incremental), octal field parsing, and the tar simple checksum.
package checksum

import "hash/crc32"

// CRC32 computes the IEEE 802.3 CRC-32 (polynomial 0xEDB88320, initial
// 0xFFFFFFFF, final XOR 0xFFFFFFFF, LSB-first) of data in one shot.
func CRC32(data []byte) uint32 {
	var c CRC32State
	c.Write(data)
	return c.Sum32()
}

// CRC32State is an incremental CRC-32/IEEE accumulator. The zero value is
// ready to use. Feeding any partitioning of an input through successive
// Write calls yields the same Sum32 as a single Write of the whole input.
type CRC32State struct {
	crc uint32
}

// Write folds more data into the running checksum. crc32.Update applies
// the initial and final inversion itself, so the running value is always
// the finished CRC-32 of the data written so far.
func (s *CRC32State) Write(data []byte) {
	s.crc = crc32.Update(s.crc, crc32.IEEETable, data)
}

// Sum32 returns the CRC-32 of all data written so far.
func (s *CRC32State) Sum32() uint32 {
	return s.crc
}

// Reset returns the accumulator to its initial state.
func (s *CRC32State) Reset() {
	s.crc = 0
}
