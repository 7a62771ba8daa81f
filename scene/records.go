// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scene

import (
	"unsafe"

	"cogentcore.org/core/math32"
)

// The record types in this file are read directly by the shaders
// as std430 storage buffer arrays. Field order and padding must stay
// in lock-step with the struct declarations in the shaders package.

// Bounds is an axis-aligned rectangle in pixels.
type Bounds struct {
	Origin math32.Vector2
	Size   math32.Vector2
}

// NewBounds returns bounds with the given origin and size.
func NewBounds(x, y, w, h float32) Bounds {
	return Bounds{Origin: math32.Vec2(x, y), Size: math32.Vec2(w, h)}
}

// Max returns the bottom-right corner.
func (b Bounds) Max() math32.Vector2 {
	return b.Origin.Add(b.Size)
}

// Intersect returns the intersection of the two bounds,
// which has zero size if they do not overlap.
func (b Bounds) Intersect(o Bounds) Bounds {
	mn := b.Origin.Max(o.Origin)
	mx := b.Max().Min(o.Max())
	sz := mx.Sub(mn).Max(math32.Vector2{})
	return Bounds{Origin: mn, Size: sz}
}

// Corners holds a value per rectangle corner, in clockwise order
// from the top left.
type Corners struct {
	TopLeft, TopRight, BottomRight, BottomLeft float32
}

// UniformCorners returns corners that all have value v.
func UniformCorners(v float32) Corners {
	return Corners{v, v, v, v}
}

// Edges holds a value per rectangle edge, in clockwise order
// from the top.
type Edges struct {
	Top, Right, Bottom, Left float32
}

// UniformEdges returns edges that all have value v.
func UniformEdges(v float32) Edges {
	return Edges{v, v, v, v}
}

// Quad is a filled rectangle with optional rounded corners
// and a border.
type Quad struct {
	Bounds       Bounds
	ContentMask  Bounds
	Background   Color
	BorderColor  Color
	CornerRadii  Corners
	BorderWidths Edges
}

// Shadow is a blurred rounded rectangle.
type Shadow struct {
	Bounds      Bounds
	ContentMask Bounds
	Color       Color
	CornerRadii Corners
	BlurRadius  float32
	_           [3]float32
}

// Underline is a horizontal line under text, optionally wavy.
type Underline struct {
	Bounds      Bounds
	ContentMask Bounds
	Color       Color
	Thickness   float32

	// Wavy is 1 for a wavy underline, 0 for straight.
	Wavy uint32
	_    [2]float32
}

// Record sizes in bytes.
const (
	QuadSize      = int(unsafe.Sizeof(Quad{}))
	ShadowSize    = int(unsafe.Sizeof(Shadow{}))
	UnderlineSize = int(unsafe.Sizeof(Underline{}))
)

// sliceBytes returns the raw bytes of the given slice of
// fixed-layout records without copying.
func sliceBytes[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var t T
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), len(s)*int(unsafe.Sizeof(t)))
}
