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

// Package security implements the extractor's safety gate: path
// sanitisation, symlink policy, and resource ceilings (zip-bomb
// defences). None of it touches the filesystem — it only computes
// decisions from paths and running totals the caller supplies.
package security

import (
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/archex-project/archex/internal/archerr"
)

// SymlinkPolicy controls whether symlink/hardlink entries are permitted.
type SymlinkPolicy int

const (
	SymlinkDisallow SymlinkPolicy = iota
	SymlinkAllowInsideRoot
	SymlinkAllowAny
)

// Policy is the security policy engine's configuration, per spec.md §3.
type Policy struct {
	AllowAbsolutePaths    bool
	AllowPathTraversal    bool
	SymlinkPolicy         SymlinkPolicy
	AllowAbsoluteSymlink  bool
	AllowSymlinkEscape    bool
	MaxSingleFileSize     int64
	MaxTotalExtractedSize int64
	MaxCompressionRatio   float64
	MaxPathLength         int
}

// DefaultPolicy returns the conservative defaults spec.md §3 specifies.
func DefaultPolicy() Policy {
	return Policy{
		AllowAbsolutePaths:    false,
		AllowPathTraversal:    false,
		SymlinkPolicy:         SymlinkDisallow,
		AllowAbsoluteSymlink:  false,
		AllowSymlinkEscape:    false,
		MaxSingleFileSize:     0, // 0 means unbounded; callers should set a real ceiling
		MaxTotalExtractedSize: 0,
		MaxCompressionRatio:   0,
		MaxPathLength:         4096,
	}
}

// minRatioSampleSize is the compressed-bytes-consumed floor below which the
// compression-ratio trigger is not evaluated, per spec.md §4.5.
const minRatioSampleSize = 1 << 20

// Sanitise validates and canonicalises an entry path per spec.md §4.5
// steps 1-4. It returns the canonical relative path, or an error tagged
// with the offending Kind.
func Sanitise(entryPath string, p Policy) (string, error) {
	if entryPath == "" {
		return "", archerr.New(archerr.KindEmptyPath, "entry path is empty")
	}
	if strings.IndexByte(entryPath, 0) >= 0 {
		return "", archerr.New(archerr.KindNullByteInPath, "path contains a NUL byte").WithEntry(entryPath)
	}
	maxLen := p.MaxPathLength
	if maxLen <= 0 {
		maxLen = 4096
	}
	if len(entryPath) > maxLen {
		return "", archerr.New(archerr.KindPathTooLong, "path exceeds maximum length").WithEntry(entryPath)
	}

	if isAbsolutePath(entryPath) && !p.AllowAbsolutePaths {
		return "", archerr.New(archerr.KindAbsolutePathNotAllowed, "absolute paths are not permitted").WithEntry(entryPath)
	}

	// NFKC-normalise before splitting so that Unicode look-alike dot
	// sequences (e.g. U+2024 ONE DOT LEADER runs, U+FF0E FULLWIDTH FULL
	// STOP) fold into "." or ".." and are caught below, and so that
	// component comparison is consistent regardless of the archive's
	// source encoding.
	normalised := norm.NFKC.String(entryPath)

	components := strings.Split(strings.ReplaceAll(normalised, "\\", "/"), "/")
	var kept []string
	depth := 0
	for _, c := range components {
		switch c {
		case "", ".":
			continue
		case "..":
			depth--
			if depth < 0 && !p.AllowPathTraversal {
				return "", archerr.New(archerr.KindPathTraversal, "path escapes the extraction root").WithEntry(entryPath)
			}
			if depth < 0 {
				depth = 0
				kept = append(kept, c)
			} else {
				kept = kept[:len(kept)-1]
			}
		default:
			depth++
			kept = append(kept, c)
		}
	}

	return strings.Join(kept, "/"), nil
}

func isAbsolutePath(p string) bool {
	if strings.HasPrefix(p, "/") || strings.HasPrefix(p, "\\") {
		return true
	}
	// Windows drive-letter form, e.g. "C:\" or "C:/".
	if len(p) >= 3 && isASCIILetter(p[0]) && p[1] == ':' && (p[2] == '\\' || p[2] == '/') {
		return true
	}
	return false
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// CheckLink validates a symlink or hardlink entry's target against the
// policy, per spec.md §4.5's symlink/hardlink rules. entryDir is the
// directory, relative to the extraction root, that linkTarget resolves
// from (a symlink's own sanitised parent directory; "" for the root);
// linkTarget is the entry's raw, unsanitised link-target field.
func CheckLink(entryPath, entryDir, linkTarget string, p Policy) error {
	if p.SymlinkPolicy == SymlinkDisallow {
		return archerr.New(archerr.KindSymlinkNotAllowed, "symlink/hardlink entries are not permitted").WithEntry(entryPath)
	}
	if isAbsolutePath(linkTarget) && !p.AllowAbsoluteSymlink {
		return archerr.New(archerr.KindAbsoluteSymlinkNotAllowed, "absolute symlink targets are not permitted").WithEntry(entryPath)
	}
	if p.SymlinkPolicy == SymlinkAllowAny {
		return nil
	}

	// The target resolves relative to entryDir; path.Join+Clean on that
	// pair tells us whether
	// the resolution climbs back above the root ("../" survives Clean only
	// when the join couldn't absorb it into entryDir).
	escapes := isAbsolutePath(linkTarget) || strings.HasPrefix(path.Clean(path.Join(entryDir, linkTarget)), "..")
	if escapes && !p.AllowSymlinkEscape {
		return archerr.New(archerr.KindSymlinkEscape, "link target escapes the extraction root").WithEntry(entryPath)
	}
	return nil
}

// ResourceTracker accumulates the running totals spec.md §4.5 checks
// against the resource ceilings: bytes written to the destination and
// bytes consumed from the compressed source. It is not safe for
// concurrent use; the orchestrator owns one per extract call.
type ResourceTracker struct {
	Written            int64
	CompressedConsumed int64
}

// CheckSingleFile enforces the single-file cap against a declared entry
// size, before any of its body is read.
func CheckSingleFile(entryPath string, size int64, p Policy) error {
	if p.MaxSingleFileSize > 0 && size > p.MaxSingleFileSize {
		return archerr.New(archerr.KindFileSizeExceedsLimit, "entry exceeds the maximum single-file size").WithEntry(entryPath)
	}
	return nil
}

// CheckCeilings re-evaluates the two running-total triggers after the
// tracker's totals have been updated. It should be called after each
// written chunk during streaming extraction.
func (rt *ResourceTracker) CheckCeilings(p Policy) error {
	if p.MaxTotalExtractedSize > 0 && rt.Written > p.MaxTotalExtractedSize {
		return archerr.New(archerr.KindTotalSizeExceedsLimit, "total extracted size exceeds the configured limit")
	}
	if p.MaxCompressionRatio > 0 && rt.CompressedConsumed >= minRatioSampleSize {
		ratio := float64(rt.Written) / float64(rt.CompressedConsumed)
		if ratio > p.MaxCompressionRatio {
			return archerr.New(archerr.KindSuspiciousCompressionRatio, "compression ratio exceeds the configured threshold")
		}
	}
	return nil
}
