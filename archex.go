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

// Package archex extracts tape archives (tar, optionally gzip/zlib
// framed) under a security policy that rejects path traversal, unsafe
// symlinks, and resource exhaustion.
package archex

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/archex-project/archex/extractor"
	"github.com/archex-project/archex/gzipframe"
	"github.com/archex-project/archex/platform"
	"github.com/archex-project/archex/security"
	"github.com/archex-project/archex/tarstream"
)

// Result is an alias for extractor.Result for convenience.
type Result = extractor.Result

// Options is an alias for extractor.Options for convenience.
type Options = extractor.Options

// Event is an alias for extractor.Event for convenience.
type Event = extractor.Event

// Policy is an alias for security.Policy for convenience.
type Policy = security.Policy

// DefaultOptions returns the conservative default extraction options for
// the given destination root.
func DefaultOptions(destRoot string) Options {
	return extractor.DefaultOptions(destRoot)
}

// DefaultPolicy returns the conservative default security policy.
func DefaultPolicy() Policy {
	return security.DefaultPolicy()
}

// countingReader tracks how many compressed bytes have been consumed from
// the underlying archive file, so the extractor can evaluate the
// compression-ratio ceiling without buffering the archive itself.
type countingReader struct {
	r     io.Reader
	count atomic.Int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.count.Add(int64(n))
	return n, err
}

// Extract opens the archive at src (plain .tar, gzip-framed .tar.gz/.tgz,
// or zlib-framed .tar.zz, detected from its magic bytes rather than its
// extension) and extracts it under dest according to opts.
func Extract(ctx context.Context, src, dest string, opts Options) (*Result, error) {
	file, err := os.Open(src) //nolint:gosec // path is operator-supplied, mirrors the teacher's Identify(path, ...)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", src, err)
	}
	defer func() { _ = file.Close() }()

	counter := &countingReader{r: file}

	magic := make([]byte, 2)
	if _, err := io.ReadFull(counter, magic); err != nil && err != io.EOF {
		return nil, fmt.Errorf("read archive magic: %w", err)
	}

	var plaintext io.Reader = io.MultiReader(bytes.NewReader(magic), counter)
	if container, ok := gzipframe.DetectContainer(magic); ok {
		plaintext, err = gzipframe.NewReader(container, plaintext, 0)
		if err != nil {
			return nil, fmt.Errorf("frame archive %s: %w", src, err)
		}
	}

	opts.DestRoot = dest
	facade := platform.New()
	reader := tarstream.NewReader(plaintext)

	return extractor.Extract(ctx, reader, facade, counter.count.Load, opts)
}
