// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package stage provides the aligned bump allocator used to pack
// per-frame primitive payloads into a single persistently mapped
// staging buffer.
package stage

import (
	"fmt"

	"cogentcore.org/core/base/errors"
)

// DefaultAlign is the offset alignment of every allocation.
// It satisfies the storage buffer dynamic offset alignment of
// all devices we target.
const DefaultAlign = 256

// ErrOverflow is returned by [Allocator.Write] when the data does not
// fit in the remaining capacity of the buffer.
var ErrOverflow = errors.New("stage: staging buffer overflow")

// Allocator is an aligned bump allocator over a fixed-capacity
// memory region. Each Write starts at the cursor rounded up to
// Align, and advances the cursor by the exact number of bytes
// written, so that rounding for the next Write starts from the
// true end of data.
type Allocator struct {

	// Mem is the backing memory, typically the mapped host pointer
	// of a GPU buffer. Its length is the capacity.
	Mem []byte

	// Align is the alignment of returned offsets, a power of 2.
	Align int

	// cursor is the end of the last written region.
	cursor int
}

// NewAllocator returns a new allocator writing into mem with
// given alignment. If align is <= 0, [DefaultAlign] is used.
func NewAllocator(mem []byte, align int) *Allocator {
	if align <= 0 {
		align = DefaultAlign
	}
	return &Allocator{Mem: mem, Align: align}
}

// AlignUp rounds n up to the next multiple of align.
func AlignUp(n, align int) int {
	if align <= 1 {
		return n
	}
	if r := n % align; r != 0 {
		return n + align - r
	}
	return n
}

// Reset sets the cursor back to the start of the buffer.
// Data written in a previous frame is implicitly invalidated.
func (al *Allocator) Reset() {
	al.cursor = 0
}

// Cursor returns the current end of written data.
func (al *Allocator) Cursor() int {
	return al.cursor
}

// Cap returns the capacity of the buffer in bytes.
func (al *Allocator) Cap() int {
	return len(al.Mem)
}

// Next returns the offset that a Write of n bytes would use,
// and whether it would fit.
func (al *Allocator) Next(n int) (int, bool) {
	off := AlignUp(al.cursor, al.Align)
	return off, off+n <= len(al.Mem)
}

// Write copies data at the next aligned offset and returns that offset.
// If the data does not fit, nothing is written, the cursor is left
// unchanged, and an error wrapping [ErrOverflow] is returned.
func (al *Allocator) Write(data []byte) (int, error) {
	off, ok := al.Next(len(data))
	if !ok {
		return 0, fmt.Errorf("%w: %d bytes at offset %d exceeds capacity %d", ErrOverflow, len(data), off, len(al.Mem))
	}
	copy(al.Mem[off:], data)
	al.cursor = off + len(data)
	return off, nil
}
