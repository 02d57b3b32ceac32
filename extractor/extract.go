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

// Package extractor implements the security-gated extractor orchestrator
// (C7): it drives the archive reader cursor, consults the security
// policy engine for every entry, dispatches materialisation to the
// platform facade, and accumulates a structured result.
package extractor

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/archex-project/archex/internal/archerr"
	"github.com/archex-project/archex/platform"
	"github.com/archex-project/archex/security"
	"github.com/archex-project/archex/tarcodec"
	"github.com/archex-project/archex/tarstream"
)

// entryPerm extracts the POSIX permission bits from an Entry's mode field.
func entryPerm(entry *tarcodec.Entry) os.FileMode {
	return os.FileMode(entry.Mode & 0o7777).Perm() //nolint:gosec // masked to 12 bits above
}

// entryModTime converts an Entry's Unix-epoch-seconds Mtime to a time.Time.
func entryModTime(entry *tarcodec.Entry) time.Time {
	return time.Unix(entry.Mtime, 0)
}

const dirCacheSize = 1024

// Reader is the subset of tarstream.Reader the extractor depends on,
// narrowed to ease testing with a fake cursor.
type Reader interface {
	Next() (*tarcodec.Entry, error)
	Read(p []byte) (int, error)
}

var _ Reader = (*tarstream.Reader)(nil)

// Extract drives reader to completion, materialising every permitted
// entry under opts.DestRoot via the platform facade. compressedConsumed,
// if non-nil, is polled once per entry, before that entry is materialised,
// to feed the compression-ratio ceiling; it is not re-polled between the
// chunks of one entry's body. Pass nil when the source's compressed byte
// count is not meaningful (e.g. already-plaintext input).
func Extract(ctx context.Context, reader Reader, facade *platform.Facade, compressedConsumed func() int64, opts Options) (*Result, error) {
	result := &Result{}
	tracker := &security.ResourceTracker{}
	dirCache, _ := lru.New[string, struct{}](dirCacheSize)

	for {
		select {
		case <-ctx.Done():
			return result, archerr.Wrap(archerr.KindAborted, "extraction cancelled", ctx.Err())
		default:
		}

		entry, err := reader.Next()
		if err != nil {
			return result, err
		}
		if entry == nil {
			return result, nil
		}

		if compressedConsumed != nil {
			tracker.CompressedConsumed = compressedConsumed()
		}

		written, err := extractEntry(ctx, reader, facade, entry, tracker, dirCache, &opts)
		if err != nil {
			result.Failed++
			result.addWarning(entry.Path, err)
			opts.notify(Event{Kind: EventWarning, EntryPath: entry.Path, Message: err.Error()})
			// An entry of a kind this platform cannot materialise is
			// skipped with a warning; it never aborts the extraction.
			if isAlwaysFatal(err) || (!opts.ContinueOnError && !archerr.Is(err, archerr.KindUnsupportedEntryType)) {
				return result, err
			}
			continue
		}
		result.Succeeded++
		result.TotalBytes += written
		opts.notify(Event{Kind: EventEntryExtracted, EntryPath: entry.Path})
	}
}

// alwaysFatalKinds are error kinds spec.md §7/§4.7 name as archive-level or
// format-level problems: they corrupt the reader's position in the stream
// (incomplete-archive) or indicate caller-requested cancellation
// (aborted), so ContinueOnError must never demote them to a warning and
// keep pulling entries from a now-misaligned or cancelled cursor.
var alwaysFatalKinds = []archerr.Kind{
	archerr.KindInvalidFormat,
	archerr.KindUnsupportedVersion,
	archerr.KindCorruptedHeader,
	archerr.KindIncompleteArchive,
	archerr.KindInvalidGzipMagic,
	archerr.KindUnsupportedCompressionMethod,
	archerr.KindChecksumMismatch,
	archerr.KindInvalidData,
	archerr.KindAborted,
}

func isAlwaysFatal(err error) bool {
	for _, kind := range alwaysFatalKinds {
		if archerr.Is(err, kind) {
			return true
		}
	}
	return false
}

func extractEntry(
	ctx context.Context,
	reader Reader,
	facade *platform.Facade,
	entry *tarcodec.Entry,
	tracker *security.ResourceTracker,
	dirCache *lru.Cache[string, struct{}],
	opts *Options,
) (int64, error) {
	safePath, err := security.Sanitise(entry.Path, opts.Policy)
	if err != nil {
		return 0, err
	}
	if safePath == "" {
		return 0, nil // archive root entry itself; nothing to materialise
	}
	destPath := filepath.Join(opts.DestRoot, filepath.FromSlash(safePath))
	parentDir := filepath.Dir(destPath)

	switch entry.Kind {
	case tarcodec.KindDirectory:
		if err := ensureDir(facade, dirCache, destPath); err != nil {
			return 0, err
		}
		return 0, applyMetadata(facade, destPath, entry, opts)

	case tarcodec.KindRegular:
		if err := security.CheckSingleFile(entry.Path, entry.Size, opts.Policy); err != nil {
			return 0, err
		}
		if err := ensureDir(facade, dirCache, parentDir); err != nil {
			return 0, err
		}
		return extractRegularFile(ctx, reader, facade, destPath, entry, tracker, opts)

	case tarcodec.KindSymlink, tarcodec.KindHardlink:
		if err := ensureDir(facade, dirCache, parentDir); err != nil {
			return 0, err
		}
		return 0, extractLink(facade, destPath, path.Dir(safePath), entry, opts)

	case tarcodec.KindCharDevice, tarcodec.KindBlockDevice, tarcodec.KindFIFO:
		if !facade.SupportsDeviceNodes() {
			return 0, archerr.New(archerr.KindUnsupportedEntryType, "device/FIFO entries are not supported on this platform").WithEntry(entry.Path)
		}
		if err := ensureDir(facade, dirCache, parentDir); err != nil {
			return 0, err
		}
		return 0, extractSpecialFile(facade, destPath, entry)

	default:
		return 0, archerr.New(archerr.KindUnsupportedEntryType, "unrecognised entry kind").WithEntry(entry.Path)
	}
}

func ensureDir(facade *platform.Facade, cache *lru.Cache[string, struct{}], dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if cache != nil {
		if _, ok := cache.Get(dir); ok {
			return nil
		}
	}
	if err := facade.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if cache != nil {
		cache.Add(dir, struct{}{})
	}
	return nil
}

func extractRegularFile(
	ctx context.Context,
	reader Reader,
	facade *platform.Facade,
	destPath string,
	entry *tarcodec.Entry,
	tracker *security.ResourceTracker,
	opts *Options,
) (int64, error) {
	file, err := facade.CreateFile(destPath, entryPerm(entry), opts.Overwrite)
	if err != nil {
		return 0, err
	}

	written, chunkErr := func() (int64, error) {
		defer file.Close()
		// reader.Read already stops at the entry's body boundary (the
		// cursor tracks remaining bytes itself), so StreamInto needs no
		// separate length cap here.
		return platform.StreamInto(file, readerAdapter{reader}, opts.ChunkSize, func(n int) error {
			select {
			case <-ctx.Done():
				return archerr.Wrap(archerr.KindAborted, "extraction cancelled", ctx.Err())
			default:
			}
			tracker.Written += int64(n)
			return tracker.CheckCeilings(opts.Policy)
		})
	}()
	if chunkErr != nil {
		_ = facade.Remove(destPath)
		return written, chunkErr
	}
	if err := applyMetadata(facade, destPath, entry, opts); err != nil {
		return written, err
	}
	return written, nil
}

// readerAdapter exposes a Reader's per-entry body as a plain io.Reader
// that terminates with io.EOF at the entry boundary.
type readerAdapter struct{ r Reader }

func (a readerAdapter) Read(p []byte) (int, error) { return a.r.Read(p) }

func extractLink(facade *platform.Facade, destPath, entryDir string, entry *tarcodec.Entry, opts *Options) error {
	// A hard link's target names an archive member relative to the
	// extraction root (see oldpath below), so it is checked from the root;
	// a symlink's target resolves from the link's own directory.
	checkDir := entryDir
	if entry.Kind == tarcodec.KindHardlink {
		checkDir = ""
	}
	if err := security.CheckLink(entry.Path, checkDir, entry.LinkTarget, opts.Policy); err != nil {
		return err
	}
	var err error
	if entry.Kind == tarcodec.KindHardlink {
		oldpath := filepath.Join(opts.DestRoot, filepath.FromSlash(entry.LinkTarget))
		err = facade.CreateHardlink(oldpath, destPath)
	} else {
		err = facade.CreateSymlink(filepath.FromSlash(entry.LinkTarget), destPath)
	}
	return err
}

func extractSpecialFile(facade *platform.Facade, destPath string, entry *tarcodec.Entry) error {
	if entry.Kind == tarcodec.KindFIFO {
		return facade.CreateFIFO(destPath, entryPerm(entry))
	}
	major := uint32(entry.DevMajor) //nolint:gosec // devmajor/devminor are 8-octal-digit header fields
	minor := uint32(entry.DevMinor) //nolint:gosec // devmajor/devminor are 8-octal-digit header fields
	return facade.CreateDevice(destPath, entryPerm(entry), entry.Kind == tarcodec.KindCharDevice, major, minor)
}

func applyMetadata(facade *platform.Facade, destPath string, entry *tarcodec.Entry, opts *Options) error {
	if opts.PreservePerms {
		if err := facade.SetPerms(destPath, entryPerm(entry)); err != nil {
			return err
		}
	}
	if opts.PreserveMtime {
		if err := facade.SetMtime(destPath, entryModTime(entry)); err != nil {
			return err
		}
	}
	return nil
}
