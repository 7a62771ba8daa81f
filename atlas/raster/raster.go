// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package raster provides [atlas.BuildFunc]s that rasterize glyphs,
// vector icons and images on the CPU for upload into the atlas.
package raster

import (
	"fmt"
	"image"
	"image/draw"
	"sync"

	"cogentcore.org/core/base/errors"
	"cogentcore.org/vkdraw/atlas"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// Face is a font face that is safe for concurrent glyph builds.
type Face struct {
	font.Face

	// mu serializes rasterization, which reuses buffers in Face.
	mu sync.Mutex
}

// NewFace returns a face for the given OpenType or TrueType font
// data at the given pixel size.
func NewFace(data []byte, size float64) (*Face, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, err
	}
	fc, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingNone})
	if err != nil {
		return nil, err
	}
	return &Face{Face: fc}, nil
}

// DefaultFace returns the Go Regular face at the given pixel size.
func DefaultFace(size float64) (*Face, error) {
	return NewFace(goregular.TTF, size)
}

// Glyph returns a monochrome build function for rune r,
// with the pen origin offset by the given subpixel amount.
// The returned pixels are the glyph coverage mask.
func (fc *Face) Glyph(r rune, subpixel fixed.Point26_6) atlas.BuildFunc {
	return func() (image.Point, []byte, error) {
		fc.mu.Lock()
		defer fc.mu.Unlock()
		dot := fixed.Point26_6{X: subpixel.X, Y: fc.Metrics().Ascent + subpixel.Y}
		dr, mask, mp, _, ok := fc.Face.Glyph(dot, r)
		if !ok {
			return image.Point{}, nil, fmt.Errorf("raster: no glyph for %q", r)
		}
		if dr.Empty() {
			return image.Point{}, nil, nil
		}
		dst := image.NewAlpha(image.Rectangle{Max: dr.Size()})
		draw.Draw(dst, dst.Bounds(), mask, mp, draw.Src)
		return dr.Size(), dst.Pix, nil
	}
}

// Icon returns a monochrome build function that fills the path
// added to the rasterizer by the path function.
func Icon(size image.Point, path func(z *vector.Rasterizer)) atlas.BuildFunc {
	return func() (image.Point, []byte, error) {
		if size.X <= 0 || size.Y <= 0 {
			return image.Point{}, nil, errors.New("raster: icon size must be positive")
		}
		z := vector.NewRasterizer(size.X, size.Y)
		path(z)
		dst := image.NewAlpha(image.Rectangle{Max: size})
		z.Draw(dst, dst.Bounds(), image.Opaque, image.Point{})
		return size, dst.Pix, nil
	}
}

// Circle returns a monochrome build function for a filled circle
// of diameter d, approximated by four cubic arcs.
func Circle(d int) atlas.BuildFunc {
	return Icon(image.Pt(d, d), func(z *vector.Rasterizer) {
		r := float32(d) / 2
		k := r * 0.5522848 // control point distance for a quarter circle
		z.MoveTo(r, 0)
		z.CubeTo(r+k, 0, 2*r, r-k, 2*r, r)
		z.CubeTo(2*r, r+k, r+k, 2*r, r, 2*r)
		z.CubeTo(r-k, 2*r, 0, r+k, 0, r)
		z.CubeTo(0, r-k, r-k, 0, r, 0)
		z.ClosePath()
	})
}

// Image returns a polychrome build function for img,
// converted to tightly packed BGRA.
func Image(img image.Image) atlas.BuildFunc {
	return func() (image.Point, []byte, error) {
		sz := img.Bounds().Size()
		rgba := image.NewRGBA(image.Rectangle{Max: sz})
		draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
		pix := rgba.Pix
		for i := 0; i+3 < len(pix); i += 4 {
			pix[i], pix[i+2] = pix[i+2], pix[i]
		}
		return sz, pix, nil
	}
}
