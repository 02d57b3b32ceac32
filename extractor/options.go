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

package extractor

import (
	"github.com/archex-project/archex/internal/archerr"
	"github.com/archex-project/archex/security"
)

// EventKind categorises an informational event reported through
// Options.Verbose, so a caller (e.g. the CLI) can format it without the
// core needing to know anything about stdout/stderr.
type EventKind int

const (
	EventEntryExtracted EventKind = iota
	EventEntrySkipped
	EventWarning
)

// Event is one informational notification emitted during extraction.
// The core never writes to any stream itself; Options.Verbose is the
// only channel by which a caller observes progress.
type Event struct {
	Kind      EventKind
	EntryPath string
	Message   string
}

// Options configures one Extract call. Every field is an explicit,
// caller-supplied value; there is no global or package-level state.
type Options struct {
	// DestRoot is the directory entries are materialised under.
	DestRoot string

	// Policy gates every entry per the security policy engine (C5).
	Policy security.Policy

	// Overwrite controls whether an existing file at the destination
	// path is replaced, versus failing with FileExists.
	Overwrite bool

	// ContinueOnError, when true, converts a per-entry failure into a
	// recorded warning and continues with the next entry instead of
	// aborting the whole extraction.
	ContinueOnError bool

	// ChunkSize is the buffer size used to stream entry bodies; 0 means
	// the recommended 64 KiB default.
	ChunkSize int

	// PreservePerms applies the archive's permission bits to extracted
	// files and directories; PreserveMtime applies its modification time.
	PreservePerms bool
	PreserveMtime bool

	// Verbose, if non-nil, receives one Event per notable occurrence.
	Verbose func(Event)
}

// DefaultOptions returns conservative defaults: security.DefaultPolicy,
// no overwrite, abort on first error, 64 KiB chunks, perms and mtime
// preserved.
func DefaultOptions(destRoot string) Options {
	return Options{
		DestRoot:        destRoot,
		Policy:          security.DefaultPolicy(),
		Overwrite:       false,
		ContinueOnError: false,
		ChunkSize:       64 << 10,
		PreservePerms:   true,
		PreserveMtime:   true,
	}
}

func (o *Options) notify(ev Event) {
	if o.Verbose != nil {
		o.Verbose(ev)
	}
}

// Warning records one non-fatal problem encountered for a specific entry
// when ContinueOnError is set.
type Warning struct {
	EntryPath string
	Kind      archerr.Kind
	Message   string
}

// Result is the structured outcome of one Extract call: counts, total
// bytes written, plus a warning log, per spec.md §3's "succeeded/failed
// counts, total bytes written, and warning log".
type Result struct {
	Succeeded  int
	Failed     int
	TotalBytes int64
	Warnings   []Warning
}

func (r *Result) addWarning(path string, err error) {
	kind := archerr.Kind("unknown")
	msg := err.Error()
	if ae, ok := err.(*archerr.Error); ok { //nolint:errorlint // archex components always return *archerr.Error
		kind = ae.Kind
		msg = ae.Message
	}
	r.Warnings = append(r.Warnings, Warning{EntryPath: path, Kind: kind, Message: msg})
}
