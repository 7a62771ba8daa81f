// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package atlas

import "image"

// Packer allocates rectangles within a fixed-size area using
// horizontal shelves: items are placed left to right on a shelf
// as tall as its tallest item, and a new shelf is opened below
// when none has room. This suits glyphs, which are similar in height.
type Packer struct {

	// Size is the total area available.
	Size image.Point

	// Padding is added to the right and bottom of every item,
	// so that sampling does not bleed between neighbors.
	Padding int

	shelves []shelf

	// used is the unpadded area allocated.
	used int
}

type shelf struct {
	y, height, x int
}

// NewPacker returns a packer for given size and padding.
func NewPacker(size image.Point, padding int) *Packer {
	return &Packer{Size: size, Padding: padding}
}

// Alloc returns the location for an item of given size,
// or false if it does not fit.
func (pk *Packer) Alloc(sz image.Point) (image.Rectangle, bool) {
	if sz.X <= 0 || sz.Y <= 0 {
		return image.Rectangle{}, false
	}
	if sz.X > pk.Size.X || sz.Y > pk.Size.Y {
		return image.Rectangle{}, false
	}
	last := len(pk.shelves) - 1
	for i := range pk.shelves {
		sh := &pk.shelves[i]
		if sh.x+sz.X > pk.Size.X {
			continue
		}
		if sz.Y > sh.height {
			// only the last shelf can grow, into the free space below it
			if i != last || sh.y+sz.Y > pk.Size.Y {
				continue
			}
			sh.height = sz.Y
		}
		return pk.place(sh, sz), true
	}
	y := 0
	if last >= 0 {
		ls := pk.shelves[last]
		y = ls.y + ls.height + pk.Padding
	}
	if y+sz.Y > pk.Size.Y {
		return image.Rectangle{}, false
	}
	pk.shelves = append(pk.shelves, shelf{y: y, height: sz.Y})
	return pk.place(&pk.shelves[len(pk.shelves)-1], sz), true
}

func (pk *Packer) place(sh *shelf, sz image.Point) image.Rectangle {
	r := image.Rect(sh.x, sh.y, sh.x+sz.X, sh.y+sz.Y)
	sh.x += sz.X + pk.Padding
	pk.used += sz.X * sz.Y
	return r
}

// Utilization returns the fraction of the area that is allocated.
func (pk *Packer) Utilization() float32 {
	total := pk.Size.X * pk.Size.Y
	if total == 0 {
		return 0
	}
	return float32(pk.used) / float32(total)
}

// Reset removes all allocations.
func (pk *Packer) Reset() {
	pk.shelves = pk.shelves[:0]
	pk.used = 0
}
